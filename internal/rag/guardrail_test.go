package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsGroundedMatchesContextKeyword(t *testing.T) {
	context := "Photosynthesis converts sunlight into chemical energy inside chloroplasts."
	answer := "Plants use photosynthesis to make their own food."
	assert.True(t, IsGrounded(answer, context))
}

func TestIsGroundedCaseInsensitive(t *testing.T) {
	context := "PHOTOSYNTHESIS happens in LEAVES."
	answer := "photosynthesis is how plants eat."
	assert.True(t, IsGrounded(answer, context))
}

func TestIsGroundedRejectsUnrelatedAnswer(t *testing.T) {
	context := "Photosynthesis converts sunlight into chemical energy."
	answer := "The war of 1812 was fought in North America."
	assert.False(t, IsGrounded(answer, context))
}

func TestIsGroundedRefusalAlwaysGrounded(t *testing.T) {
	// The refusal phrase is grounded regardless of context content.
	assert.True(t, IsGrounded(RefusalMessage, ""))
	assert.True(t, IsGrounded(RefusalMessage, "completely unrelated context words here"))
	assert.True(t, IsGrounded("Sorry, this is not covered here.", "anything"))
}

func TestIsGroundedSamplesOnlyFirstTwentyKeywords(t *testing.T) {
	// Build a context whose first 20 long words never appear in the answer,
	// with a matching word appearing only after the sample window.
	var b strings.Builder
	for i := 0; i < 25; i++ {
		b.WriteString("irrelevantword")
		b.WriteString(strings.Repeat("x", i+1))
		b.WriteString(" ")
	}
	b.WriteString("chloroplast")
	answer := "The chloroplast captures light."
	assert.False(t, IsGrounded(answer, b.String()))
}

func TestIsGroundedIgnoresShortWords(t *testing.T) {
	// Words of four characters or fewer never count as evidence.
	context := "the and for with a to is"
	answer := "the answer is with a to"
	assert.False(t, IsGrounded(answer, context))
}
