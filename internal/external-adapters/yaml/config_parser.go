// Package yaml provides YAML-based configuration parsing.
package yaml

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ochairo/sqlitefetch/internal/domain/entities"
)

// yamlConfig represents the raw YAML structure. Every field is optional;
// unset fields leave the base configuration untouched.
type yamlConfig struct {
	PageURL           string        `yaml:"page_url"`
	BaseURL           string        `yaml:"base_url"`
	URLTemplate       string        `yaml:"url_template"`
	Year              int           `yaml:"year"`
	Destination       string        `yaml:"destination"`
	FilenameElementID string        `yaml:"filename_element_id"`
	ChunkSize         int           `yaml:"chunk_size"`
	ConnectTimeout    string        `yaml:"connect_timeout"`
	ReadTimeout       string        `yaml:"read_timeout"`
	UserAgent         string        `yaml:"user_agent"`
	Signature         yamlSignature `yaml:"signature"`
}

type yamlSignature struct {
	URLTemplate string `yaml:"url_template"`
	Keyring     string `yaml:"keyring"`
}

// ConfigParser parses YAML configuration files
type ConfigParser struct{}

// NewConfigParser creates a new YAML parser
func NewConfigParser() *ConfigParser {
	return &ConfigParser{}
}

// ParseFile parses a YAML config file on top of base
func (p *ConfigParser) ParseFile(filePath string, base entities.FetchConfig) (entities.FetchConfig, error) {
	//nolint:gosec // G304: filePath is the user-selected config file
	data, err := os.ReadFile(filePath)
	if err != nil {
		return base, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data, base)
}

// Parse parses YAML bytes on top of base
func (p *ConfigParser) Parse(data []byte, base entities.FetchConfig) (entities.FetchConfig, error) {
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return base, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg := base
	setString(&cfg.PageURL, yc.PageURL)
	setString(&cfg.BaseURL, yc.BaseURL)
	setString(&cfg.URLTemplate, yc.URLTemplate)
	setString(&cfg.Destination, yc.Destination)
	setString(&cfg.FilenameElementID, yc.FilenameElementID)
	setString(&cfg.UserAgent, yc.UserAgent)
	setString(&cfg.Signature.URLTemplate, yc.Signature.URLTemplate)
	setString(&cfg.Signature.Keyring, yc.Signature.Keyring)

	if yc.Year != 0 {
		cfg.Year = yc.Year
	}
	if yc.ChunkSize != 0 {
		cfg.ChunkSize = yc.ChunkSize
	}

	if err := setDuration(&cfg.ConnectTimeout, "connect_timeout", yc.ConnectTimeout); err != nil {
		return base, err
	}
	if err := setDuration(&cfg.ReadTimeout, "read_timeout", yc.ReadTimeout); err != nil {
		return base, err
	}

	return cfg, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}
