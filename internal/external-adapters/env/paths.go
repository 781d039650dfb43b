package env

import (
	"fmt"

	"github.com/mitchellh/go-homedir"
)

// ExpandPath resolves a leading ~ against the current user's home directory
func ExpandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("failed to expand %q: %w", path, err)
	}
	return expanded, nil
}
