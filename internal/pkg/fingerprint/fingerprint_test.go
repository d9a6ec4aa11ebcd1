package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOf(t *testing.T) {
	a := Of("ord-1", "100", "card")
	assert.Len(t, a, 64)
	assert.Equal(t, a, Of("ord-1", "100", "card"))
	assert.NotEqual(t, a, Of("ord-1", "100", "cash"))
	// separators keep field boundaries
	assert.NotEqual(t, Of("ab", "c"), Of("a", "bc"))
}
