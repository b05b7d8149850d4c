package database

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
)

var (
	// ErrConflict is returned by Insert when a show with the same title
	// (compared case-insensitively) is already stored.
	ErrConflict = errors.New("show already exists")

	ErrUnsupportedDatabase = errors.New("unsupported database url")
)

// TitleKey returns the deduplication key for a title.
func TitleKey(title string) string {
	return cases.Fold().String(strings.TrimSpace(title))
}
