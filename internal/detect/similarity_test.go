package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThemeSimilarity(t *testing.T) {
	theme := "rest reflection quiet"

	// All theme tokens present
	assert.Equal(t, 1.0, themeSimilarity("Took time for rest, quiet reflection by the window", theme))

	// Partial overlap
	assert.InDelta(t, 1.0/3.0, themeSimilarity("Finally got some rest after work", theme), 1e-9)

	// No overlap
	assert.Equal(t, 0.0, themeSimilarity("Busy commute and loud meetings all day", theme))

	// Empty inputs
	assert.Equal(t, 0.0, themeSimilarity("", theme))
	assert.Equal(t, 0.0, themeSimilarity("anything", ""))
}

func TestTokenizeDropsStopwordsAndPunctuation(t *testing.T) {
	tokens := tokenize("The rest, and THE quiet; of it all!")
	assert.True(t, tokens["rest"])
	assert.True(t, tokens["quiet"])
	assert.False(t, tokens["the"])
	assert.False(t, tokens["and"])
	assert.False(t, tokens["of"])
	assert.False(t, tokens["it"])
}
