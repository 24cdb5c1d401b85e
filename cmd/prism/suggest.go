// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// maxSuggestions bounds "did you mean" lists.
const maxSuggestions = 3

// suggest returns up to maxSuggestions candidates that fuzzily match input,
// best match first. Case is ignored.
func suggest(input string, candidates []string) []string {
	if input == "" || len(candidates) == 0 {
		return nil
	}
	lowered := make([]string, len(candidates))
	for i, c := range candidates {
		lowered[i] = strings.ToLower(c)
	}

	matches := fuzzy.Find(strings.ToLower(input), lowered)
	out := make([]string, 0, maxSuggestions)
	for _, match := range matches {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, candidates[match.Index])
	}
	return out
}

// didYouMean renders suggestions as a trailing hint, or "".
func didYouMean(input string, candidates []string) string {
	s := suggest(input, candidates)
	if len(s) == 0 {
		return ""
	}
	return "did you mean " + strings.Join(quoteAll(s), " or ") + "?"
}

func quoteAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = "'" + s + "'"
	}
	return out
}
