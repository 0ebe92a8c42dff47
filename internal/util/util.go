// Package util holds helpers for the string arguments the host passes in.
package util

import "strings"

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// UnquoteArg turns a host argument back into the text it was built from:
// "{""id"":3}" becomes {"id":3}.
func UnquoteArg(s string) string {
	return FixEscapeQuotes(TrimQuotes(s))
}
