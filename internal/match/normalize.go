package match

import (
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// entitySuffixes are dropped during name normalization so "Acme Inc." and
// "Acme" compare equal.
var entitySuffixes = map[string]bool{
	"llc": true, "inc": true, "incorporated": true, "corp": true,
	"corporation": true, "co": true, "company": true, "ltd": true,
	"limited": true, "lp": true, "llp": true, "pllc": true, "pc": true,
	"dba": true,
}

// addressNoise are address tokens too common to count as significant.
var addressNoise = map[string]bool{
	"st": true, "street": true, "ave": true, "avenue": true, "rd": true,
	"road": true, "blvd": true, "boulevard": true, "dr": true, "drive": true,
	"ln": true, "lane": true, "ste": true, "suite": true, "unit": true,
	"apt": true, "n": true, "s": true, "e": true, "w": true,
	"north": true, "south": true, "east": true, "west": true,
}

// normalizeName case-folds, strips punctuation, collapses whitespace and
// drops trailing entity suffixes.
func normalizeName(s string) string {
	tokens := tokenize(s)
	for len(tokens) > 1 && entitySuffixes[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// tokenize splits a string into case-folded alphanumeric tokens.
func tokenize(s string) []string {
	folded := folder.String(s)
	return strings.FieldsFunc(folded, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= '0' && r <= '9':
			return false
		}
		return true
	})
}

// addressTokens returns tokens of an address, split into significant tokens
// (street names, numbers) and the full set.
func addressTokens(s string) (significant []string, all []string) {
	all = tokenize(s)
	for _, t := range all {
		if !addressNoise[t] {
			significant = append(significant, t)
		}
	}
	return significant, all
}
