// Package safename turns untrusted remote titles into file names that stay inside
// the target directory.
package safename

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxLength is the longest name most filesystems accept for a single path element.
const MaxLength = 255

// ErrUnsafe is returned for titles that cannot be used as a file name at all.
var ErrUnsafe = errors.New("unsafe file name")

var reservedChars = regexp.MustCompile(`[<>:"|?*\x00-\x1f\x7f]`)

// Sanitize returns a file name for title, or an error wrapping ErrUnsafe when the
// title is empty, refers to a directory (".", ".."), or contains a path separator
// or NUL byte. Other reserved characters are replaced with "_".
func Sanitize(title string) (string, error) {
	name := strings.TrimSpace(title)
	switch {
	case name == "":
		return "", fmt.Errorf("%w: empty title", ErrUnsafe)
	case name == "." || name == "..":
		return "", fmt.Errorf("%w: %q is a directory reference", ErrUnsafe, title)
	case strings.ContainsAny(name, `/\`):
		return "", fmt.Errorf("%w: %q contains a path separator", ErrUnsafe, title)
	case strings.ContainsRune(name, 0):
		return "", fmt.Errorf("%w: %q contains a NUL byte", ErrUnsafe, title)
	}

	name = reservedChars.ReplaceAllString(name, "_")
	if !utf8.ValidString(name) {
		name = strings.ToValidUTF8(name, "_")
	}
	name = truncate(name, MaxLength)
	name = strings.TrimRight(name, " .")
	if name == "" {
		return "", fmt.Errorf("%w: %q has no usable characters", ErrUnsafe, title)
	}
	return name, nil
}

// IsSafe reports whether name is already in sanitized form.
func IsSafe(name string) bool {
	clean, err := Sanitize(name)
	return err == nil && clean == name
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
