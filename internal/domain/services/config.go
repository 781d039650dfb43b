// Package services contains domain logic that does not belong to a single gateway.
package services

import (
	"errors"
	"fmt"
	"strings"

	validator "gopkg.in/go-playground/validator.v9"

	"github.com/ochairo/sqlitefetch/internal/domain/entities"
	"github.com/ochairo/sqlitefetch/internal/domain/interfaces/repositories"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid config")

var validate = validator.New()

// LoadConfig applies each repository on top of base, in order, and validates
// the result. Later repositories win.
func LoadConfig(base entities.FetchConfig, repos ...repositories.ConfigRepository) (entities.FetchConfig, error) {
	cfg := base
	for _, repo := range repos {
		next, err := repo.Load(cfg)
		if err != nil {
			return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		cfg = next
	}

	if err := ValidateConfig(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ValidateConfig checks field constraints plus the rules the struct tags
// cannot express
func ValidateConfig(cfg *entities.FetchConfig) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	sig := cfg.Signature
	if (sig.URLTemplate == "") != (sig.Keyring == "") {
		return fmt.Errorf("%w: signature url_template and keyring must be set together", ErrInvalidConfig)
	}
	if sig.URLTemplate != "" && !strings.Contains(sig.URLTemplate, "{filename}") {
		return fmt.Errorf("%w: signature url_template must contain {filename}", ErrInvalidConfig)
	}

	return nil
}
