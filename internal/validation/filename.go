package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxFilenameBytes matches the filename column width.
	MaxFilenameBytes = 255
	// DefaultFilename is used when nothing usable is left after sanitizing.
	DefaultFilename = "file"
)

// SanitizeFilename reduces a client supplied name to a safe base name.
// Both slash styles are treated as separators so "..\\..\\x" and "../../x"
// end up as "x". The result is NFC normalized, free of control characters
// and at most MaxFilenameBytes long.
func SanitizeFilename(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	name = norm.NFC.String(name)
	name = strings.Map(func(r rune) rune {
		if r == utf8.RuneError || unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)

	if name == "." || name == ".." || name == "" {
		return DefaultFilename
	}

	for len(name) > MaxFilenameBytes {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	return name
}
