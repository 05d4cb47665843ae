// Package validate provides input validation utilities shared by the API
// handlers and the scene payload validator.
package validate

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Validation errors.
var (
	ErrEmpty            = errors.New("value is empty")
	ErrStringTooLong    = errors.New("string is too long")
	ErrInvalidURL       = errors.New("invalid URL format")
	ErrDisallowedScheme = errors.New("URL scheme not allowed")
)

// URLConstraints defines validation constraints for URLs.
type URLConstraints struct {
	AllowedSchemes []string // e.g. []string{"https", "http"}
	MaxLength      int      // maximum length in code points (0 = no limit)
}

// OutgoingLinkConstraints validates scene outgoing links: public web URLs
// bounded by the free-text length limit.
var OutgoingLinkConstraints = URLConstraints{
	AllowedSchemes: []string{"https", "http"},
	MaxLength:      5000,
}

// URL validates a URL against the given constraints and returns the
// trimmed value.
func URL(urlStr string, constraints URLConstraints) (string, error) {
	urlStr = strings.TrimSpace(urlStr)
	if urlStr == "" {
		return "", ErrEmpty
	}
	if constraints.MaxLength > 0 && utf8.RuneCountInString(urlStr) > constraints.MaxLength {
		return "", fmt.Errorf("%w: URL exceeds %d characters", ErrStringTooLong, constraints.MaxLength)
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if len(constraints.AllowedSchemes) > 0 {
		allowed := false
		for _, scheme := range constraints.AllowedSchemes {
			if parsed.Scheme == scheme {
				allowed = true
				break
			}
		}
		if !allowed {
			return "", fmt.Errorf("%w: got %q, allowed: %v", ErrDisallowedScheme, parsed.Scheme, constraints.AllowedSchemes)
		}
	}
	if parsed.Hostname() == "" {
		return "", fmt.Errorf("%w: missing hostname", ErrInvalidURL)
	}
	return urlStr, nil
}
