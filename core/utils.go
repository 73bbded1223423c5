package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// NullableString returns nil for blank input, the trimmed value otherwise.
func NullableString(s string) *string {
	s = CleanString(s)
	if s == "" {
		return nil
	}
	return &s
}

// StringValue is the inverse of NullableString.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
