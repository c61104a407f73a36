// Package normalize canonicalizes user-entered strings before they are
// stored or compared.
package normalize

import "strings"

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name and collapses inner runs of whitespace.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Title normalizes a note title or flashcard set name the same way as Name.
func Title(s string) string {
	return Name(s)
}

// CourseID trims a course identifier. Course ids come from the client's
// course catalog and are compared exactly.
func CourseID(s string) string {
	return strings.TrimSpace(s)
}
