// Package repositories defines interfaces for data access layers.
package repositories

import (
	"github.com/ochairo/sqlitefetch/internal/domain/entities"
)

// ConfigRepository loads run configuration layered on top of a base config
type ConfigRepository interface {
	// Load returns base with every value the source defines applied on top
	Load(base entities.FetchConfig) (entities.FetchConfig, error)
}
