// Package normalizers provides text normalization for item field comparison
package normalizers

import (
	"regexp"
	"sort"
	"strings"
)

var tokenRe = regexp.MustCompile(`[a-z0-9]+`)

// Fold normalizes a value for case-insensitive exact comparison
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// TokenSet is a set of normalized word tokens
type TokenSet map[string]struct{}

// Tokenize lowercases a string and extracts its alphanumeric word tokens.
// "MacBook Pro 14-inch" yields {macbook, pro, 14, inch}.
func Tokenize(s string) TokenSet {
	tokens := tokenRe.FindAllString(strings.ToLower(s), -1)
	set := make(TokenSet, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// Contains reports whether the set holds the token
func (ts TokenSet) Contains(token string) bool {
	_, ok := ts[token]
	return ok
}

// Intersection returns the number of tokens shared with other
func (ts TokenSet) Intersection(other TokenSet) int {
	small, large := ts, other
	if len(large) < len(small) {
		small, large = large, small
	}
	count := 0
	for t := range small {
		if _, ok := large[t]; ok {
			count++
		}
	}
	return count
}

// Union returns the number of distinct tokens across both sets
func (ts TokenSet) Union(other TokenSet) int {
	return len(ts) + len(other) - ts.Intersection(other)
}

// Sorted returns the tokens in lexical order, mostly for logs and tests
func (ts TokenSet) Sorted() []string {
	out := make([]string, 0, len(ts))
	for t := range ts {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
