package validate

import (
	"errors"
	"strings"
	"testing"
)

func TestURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "valid https", input: "https://example.com/path?q=1"},
		{name: "valid http", input: "http://example.com"},
		{name: "trims whitespace", input: "  https://example.com  "},
		{name: "empty", input: "", wantErr: ErrEmpty},
		{name: "whitespace only", input: "   ", wantErr: ErrEmpty},
		{name: "ftp scheme", input: "ftp://example.com/file", wantErr: ErrDisallowedScheme},
		{name: "javascript scheme", input: "javascript:alert(1)", wantErr: ErrDisallowedScheme},
		{name: "no scheme", input: "example.com/path", wantErr: ErrDisallowedScheme},
		{name: "missing hostname", input: "https:///path", wantErr: ErrInvalidURL},
		{name: "too long", input: "https://example.com/" + strings.Repeat("a", 5000), wantErr: ErrStringTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := URL(tt.input, OutgoingLinkConstraints)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != strings.TrimSpace(tt.input) {
				t.Errorf("expected trimmed input back, got %q", got)
			}
		})
	}
}
