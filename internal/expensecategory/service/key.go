package service

import (
	"strings"

	"github.com/gosimple/slug"
	"github.com/smallbiznis/adopet/internal/expensecategory/domain"
)

const maxKeyLength = 50

// NormalizeKey lowercases the raw key and collapses every run of characters
// outside [a-z0-9] into a single dash.
func NormalizeKey(raw string) (string, error) {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	spaced := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return ' '
	}, lowered)

	key := slug.Make(spaced)
	if key == "" || len(key) > maxKeyLength {
		return "", domain.ErrInvalidKey
	}
	return key, nil
}
