package models

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// ImportName guesses the package name of an import path the way goimports
// does: the last element, skipping a major version suffix and a "go-" prefix,
// cut at the first character that cannot appear in an identifier
func ImportName(path string) string {
	parts := strings.Split(path, "/")
	name := parts[len(parts)-1]
	if len(parts) > 1 && isMajorVersion(name) {
		name = parts[len(parts)-2]
	}
	name = strings.TrimPrefix(name, "go-")
	if i := strings.IndexFunc(name, notIdentifier); i >= 0 {
		name = name[:i]
	}
	return name
}

// IsStandardLibrary reports whether path belongs to the standard library,
// whose first path element never contains a dot
func IsStandardLibrary(path string) bool {
	first, _, _ := strings.Cut(path, "/")
	return !strings.Contains(first, ".")
}

func notIdentifier(r rune) bool {
	return !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9' || r == '_' || r >= utf8.RuneSelf)
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	_, err := strconv.Atoi(s[1:])
	return err == nil
}
