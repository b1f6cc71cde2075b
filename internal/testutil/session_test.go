package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedSessionGenerator(t *testing.T) {
	gen := NewFixedSessionGenerator("session-a")
	assert.Equal(t, "session-a", gen.Generate())
	assert.Equal(t, "session-a", gen.Generate())
}

func TestFixedSessionGenerator_Default(t *testing.T) {
	assert.Equal(t, "test-session-default", NewFixedSessionGenerator("").Generate())
}
