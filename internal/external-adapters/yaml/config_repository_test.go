package yaml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/sqlitefetch/internal/domain/entities"
)

func TestConfigRepository_Load(t *testing.T) {
	t.Run("empty path is a no-op", func(t *testing.T) {
		base := entities.DefaultFetchConfig()
		cfg, err := NewConfigRepository("").Load(base)
		require.NoError(t, err)
		assert.Equal(t, base, cfg)
	})

	t.Run("file values applied", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("destination: /tmp/sqlite\n"), 0600))

		cfg, err := NewConfigRepository(path).Load(entities.DefaultFetchConfig())
		require.NoError(t, err)
		assert.Equal(t, "/tmp/sqlite", cfg.Destination)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := NewConfigRepository(filepath.Join(t.TempDir(), "nope.yaml")).Load(entities.DefaultFetchConfig())
		assert.Error(t, err)
	})
}
