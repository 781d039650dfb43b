// Package env applies environment variable overrides to the run configuration.
package env

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/ochairo/sqlitefetch/internal/domain/entities"
)

// Prefix is prepended to every variable name, e.g. SQLITEFETCH_YEAR
const Prefix = "SQLITEFETCH"

type overrides struct {
	ConfigPath        string        `envconfig:"CONFIG"`
	PageURL           string        `envconfig:"PAGE_URL"`
	BaseURL           string        `envconfig:"BASE_URL"`
	URLTemplate       string        `envconfig:"URL_TEMPLATE"`
	Year              int           `envconfig:"YEAR"`
	Destination       string        `envconfig:"DEST"`
	FilenameElementID string        `envconfig:"FILENAME_ELEMENT_ID"`
	ChunkSize         int           `envconfig:"CHUNK_SIZE"`
	ConnectTimeout    time.Duration `envconfig:"CONNECT_TIMEOUT"`
	ReadTimeout       time.Duration `envconfig:"READ_TIMEOUT"`
	UserAgent         string        `envconfig:"USER_AGENT"`
	SignatureURL      string        `envconfig:"SIGNATURE_URL_TEMPLATE"`
	Keyring           string        `envconfig:"KEYRING"`
}

// ConfigRepository implements repositories.ConfigRepository from SQLITEFETCH_* variables
type ConfigRepository struct{}

// NewConfigRepository creates an environment-backed repository
func NewConfigRepository() *ConfigRepository {
	return &ConfigRepository{}
}

// ConfigPath returns SQLITEFETCH_CONFIG, or "" when unset
func (r *ConfigRepository) ConfigPath() (string, error) {
	o, err := process()
	if err != nil {
		return "", err
	}
	return o.ConfigPath, nil
}

// Load applies every set variable on top of base
func (r *ConfigRepository) Load(base entities.FetchConfig) (entities.FetchConfig, error) {
	o, err := process()
	if err != nil {
		return base, err
	}

	cfg := base
	if o.PageURL != "" {
		cfg.PageURL = o.PageURL
	}
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
	}
	if o.URLTemplate != "" {
		cfg.URLTemplate = o.URLTemplate
	}
	if o.Year != 0 {
		cfg.Year = o.Year
	}
	if o.Destination != "" {
		cfg.Destination = o.Destination
	}
	if o.FilenameElementID != "" {
		cfg.FilenameElementID = o.FilenameElementID
	}
	if o.ChunkSize != 0 {
		cfg.ChunkSize = o.ChunkSize
	}
	if o.ConnectTimeout != 0 {
		cfg.ConnectTimeout = o.ConnectTimeout
	}
	if o.ReadTimeout != 0 {
		cfg.ReadTimeout = o.ReadTimeout
	}
	if o.UserAgent != "" {
		cfg.UserAgent = o.UserAgent
	}
	if o.SignatureURL != "" {
		cfg.Signature.URLTemplate = o.SignatureURL
	}
	if o.Keyring != "" {
		cfg.Signature.Keyring = o.Keyring
	}

	return cfg, nil
}

func process() (overrides, error) {
	var o overrides
	if err := envconfig.Process(Prefix, &o); err != nil {
		return o, fmt.Errorf("invalid environment: %w", err)
	}
	return o, nil
}
