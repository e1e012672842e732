package validation

import "strings"

// ParseBool reads the loose boolean values clients send in forms and query
// strings. Anything not recognised as true is false.
func ParseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}
