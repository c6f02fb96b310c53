package gossip

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifier(t *testing.T) {
	// Equality is derived solely from the string form, so identifiers
	// partition streams and work as map keys.
	assert.Equal(t, NewIdentifier("x"), NewIdentifier("x"))
	assert.NotEqual(t, NewIdentifier("x"), NewIdentifier("y"))
	assert.Equal(t, "x", NewIdentifier("x").String())

	m := map[Identifier]int{
		NewIdentifier("x"): 1,
	}
	assert.Equal(t, 1, m[NewIdentifier("x")])
}
