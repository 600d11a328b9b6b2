package strategy

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/papertrade/internal/contracts"
)

// ValidationError is a rejected strategy field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Input is the user-editable part of a strategy
type Input struct {
	Name    string             `json:"name"`
	URL     string             `json:"url"`
	Weights *contracts.Weights `json:"weights,omitempty"`
	OwnerID string             `json:"owner_id,omitempty"`
}

// Validate checks name, url and weights; nil weights mean the default vector
func Validate(in Input) error {
	if strings.TrimSpace(in.Name) == "" {
		return ValidationError{"name", "required"}
	}
	if len(in.Name) > 200 {
		return ValidationError{"name", "must be at most 200 characters"}
	}

	if strings.TrimSpace(in.URL) == "" {
		return ValidationError{"url", "required"}
	}
	if err := validateURL(in.URL); err != nil {
		return ValidationError{"url", err.Error()}
	}

	if in.Weights != nil {
		if err := in.Weights.Validate(); err != nil {
			var werr *contracts.WeightError
			if errors.As(err, &werr) {
				field := "weights"
				if werr.Field != "weights" {
					field = "weights." + werr.Field
				}
				return ValidationError{field, werr.Message}
			}
			return ValidationError{"weights", err.Error()}
		}
	}
	return nil
}

// validateURL accepts absolute http(s) URLs and site-relative screen paths
func validateURL(raw string) error {
	if strings.HasPrefix(raw, "/") {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
