package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// strips spaces, title-cases each word, removes trailing period;
// used to normalize people's names before they land in an email
func CleanupName(s string) string {
	s = strings.TrimSpace(s)
	s = cases.Title(language.BrazilianPortuguese).String(s)
	s = strings.TrimSuffix(s, ".")
	return s
}
