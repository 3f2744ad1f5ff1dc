package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringForm(t *testing.T) {
	a := New("alice", 1)
	assert.Equal(t, "alice.1", a.String())
}

func TestEquals(t *testing.T) {
	a := New("alice", 1)
	b := New("alice", 1)
	c := New("alice", 2)
	d := New("bob", 1)

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.False(t, a.Equals(d))
}
