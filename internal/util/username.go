package util

import "strings"

// NormalizeUsername trims whitespace and lowercases a username. Usernames are
// stored and compared in this normalized form, which makes uniqueness checks
// effectively case-insensitive. The operation is idempotent.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
