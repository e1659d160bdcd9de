package main

import (
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"
)

const maxSuggestions = 3

// suggest returns the best fuzzy matches for name among candidates.
// Matching ignores case.
func suggest(name string, candidates []string) []string {
	lower := make([]string, len(candidates))
	for i, c := range candidates {
		lower[i] = strings.ToLower(c)
	}

	matches := fuzzy.Find(strings.ToLower(name), lower)
	out := make([]string, 0, maxSuggestions)
	for _, m := range matches {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, candidates[m.Index])
	}
	return out
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = strconv.Quote(n)
	}
	switch len(quoted) {
	case 1:
		return quoted[0]
	default:
		return strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
	}
}
