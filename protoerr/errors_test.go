package protoerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsCarryDiagnostics(t *testing.T) {
	var err error = NewSessionError("no sessions")
	assert.Contains(t, err.Error(), "no sessions")

	uk := NewUntrustedIdentityKeyError("alice.1", []byte{1, 2, 3})
	assert.Equal(t, "alice.1", uk.ID)
	assert.Equal(t, []byte{1, 2, 3}, uk.Key)

	var target *UntrustedIdentityKeyError
	assert.True(t, errors.As(error(uk), &target))
}

func TestInvalidKeyIdErrorCarriesID(t *testing.T) {
	err := NewInvalidKeyIdError(42)
	assert.Equal(t, uint32(42), err.KeyID)
	assert.Contains(t, err.Error(), "42")
}
