package yaml

import (
	"github.com/ochairo/sqlitefetch/internal/domain/entities"
)

// ConfigRepository implements repositories.ConfigRepository using a YAML file.
// An empty path loads nothing.
type ConfigRepository struct {
	path   string
	parser *ConfigParser
}

// NewConfigRepository creates a repository backed by the file at path
func NewConfigRepository(path string) *ConfigRepository {
	return &ConfigRepository{
		path:   path,
		parser: NewConfigParser(),
	}
}

// Load applies the file's values on top of base
func (r *ConfigRepository) Load(base entities.FetchConfig) (entities.FetchConfig, error) {
	if r.path == "" {
		return base, nil
	}
	return r.parser.ParseFile(r.path, base)
}
