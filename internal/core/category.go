package core

import "strings"

const CategoryOther = "Other"

// Categories is the closed vocabulary used for classification.
var Categories = []string{
	"Food",
	"Transportation",
	"Entertainment",
	"Shopping",
	"Bills",
	"Healthcare",
	"Education",
	"Salary",
	"Business",
	"Investment",
	CategoryOther,
}

var categoryIndex = func() map[string]string {
	m := make(map[string]string, len(Categories))
	for _, c := range Categories {
		m[strings.ToLower(c)] = c
	}
	return m
}()

// CoerceCategory maps s onto the vocabulary, ignoring case and surrounding
// space. Anything else becomes Other.
func CoerceCategory(s string) string {
	if c, ok := categoryIndex[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c
	}
	return CategoryOther
}

// IsKnownCategory reports whether s is exactly a vocabulary member.
func IsKnownCategory(s string) bool {
	_, ok := categoryIndex[strings.ToLower(strings.TrimSpace(s))]
	return ok
}
