package rag

import "strings"

// groundingKeywordLimit caps how many context keywords the heuristic samples.
const groundingKeywordLimit = 20

// IsGrounded heuristically checks that an answer derives from the supplied
// context: take the first 20 context words longer than four characters and
// look for any of them inside the answer, case-insensitive. An answer
// carrying the refusal wording is grounded by definition.
//
// This is an observability signal, not a gate. False negatives are expected
// and must never cause the user-facing answer to be withheld.
func IsGrounded(answer, context string) bool {
	lowerAnswer := strings.ToLower(answer)
	if strings.Contains(lowerAnswer, "not covered") {
		return true
	}

	sampled := 0
	for _, word := range strings.Fields(context) {
		if len(word) <= 4 {
			continue
		}
		if strings.Contains(lowerAnswer, strings.ToLower(word)) {
			return true
		}
		sampled++
		if sampled >= groundingKeywordLimit {
			break
		}
	}
	return false
}
