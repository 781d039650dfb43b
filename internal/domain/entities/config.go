package entities

import "time"

// Defaults matching the sqlite.org download page
const (
	DefaultPageURL           = "https://www.sqlite.org/download.html"
	DefaultBaseURL           = "https://www.sqlite.org"
	DefaultURLTemplate       = "{base}/{year}/{filename}"
	DefaultDestination       = "~/Downloads"
	DefaultFilenameElementID = "a5"
	DefaultChunkSize         = 4 * 1024
	DefaultConnectTimeout    = 1 * time.Second
	DefaultReadTimeout       = 10 * time.Second
	DefaultUserAgent         = "sqlitefetch/1.0"
)

// FetchConfig holds everything one fetch-download-verify run needs
type FetchConfig struct {
	PageURL           string        `validate:"required,url"`
	BaseURL           string        `validate:"required,url"`
	URLTemplate       string        `validate:"required,contains={filename}"`
	Year              int           `validate:"omitempty,min=1970,max=9999"` // 0 means current year
	Destination       string        `validate:"required"`
	FilenameElementID string        `validate:"required"`
	ChunkSize         int           `validate:"min=1,max=16777216"`
	ConnectTimeout    time.Duration `validate:"gt=0"`
	ReadTimeout       time.Duration `validate:"gt=0"`
	UserAgent         string
	Signature         SignatureConfig
}

// SignatureConfig enables the optional detached OpenPGP signature check.
// Either both fields are set or neither.
type SignatureConfig struct {
	URLTemplate string
	Keyring     string
}

// Enabled reports whether signature verification was configured
func (s SignatureConfig) Enabled() bool {
	return s.URLTemplate != "" && s.Keyring != ""
}

// DefaultFetchConfig returns the built-in configuration
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		PageURL:           DefaultPageURL,
		BaseURL:           DefaultBaseURL,
		URLTemplate:       DefaultURLTemplate,
		Destination:       DefaultDestination,
		FilenameElementID: DefaultFilenameElementID,
		ChunkSize:         DefaultChunkSize,
		ConnectTimeout:    DefaultConnectTimeout,
		ReadTimeout:       DefaultReadTimeout,
		UserAgent:         DefaultUserAgent,
	}
}
