package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_MessageFormat(t *testing.T) {
	plain := ValidationError("points out of range")
	assert.Equal(t, "validation: points out of range", plain.Error())

	cause := stderrors.New("disk full")
	wrapped := PersistenceError("writing state document", cause)
	assert.Equal(t, "persistence: writing state document: disk full", wrapped.Error())
}

func TestError_UnwrapPreservesCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := TransportError("sending mail", cause)

	assert.ErrorIs(t, err, cause)

	// Still unwrappable through further fmt wrapping.
	outer := fmt.Errorf("request failed: %w", err)
	assert.ErrorIs(t, outer, cause)
}

func TestIsType(t *testing.T) {
	err := ConflictError("emoji already bound")

	assert.True(t, IsType(err, TypeConflict))
	assert.False(t, IsType(err, TypeValidation))
	assert.False(t, IsType(stderrors.New("plain"), TypeConflict))
	assert.False(t, IsType(nil, TypeConflict))

	// Detection survives wrapping.
	outer := fmt.Errorf("command failed: %w", err)
	assert.True(t, IsType(outer, TypeConflict))
}

func TestWithContext_Chains(t *testing.T) {
	err := NotFoundError("role is not linked").
		WithContext("role_id", "r1").
		WithContext("attempts", 3)

	assert.Equal(t, "r1", err.Context["role_id"])
	assert.Equal(t, 3, err.Context["attempts"])
}

func TestAsStructuredError(t *testing.T) {
	assert.Nil(t, AsStructuredError(nil))

	structured := ValidationError("bad mode")
	assert.Same(t, structured, AsStructuredError(structured))

	wrapped := fmt.Errorf("outer: %w", structured)
	assert.Same(t, structured, AsStructuredError(wrapped))

	plain := stderrors.New("mystery")
	converted := AsStructuredError(plain)
	require.NotNil(t, converted)
	assert.Equal(t, TypeTransport, converted.Type)
	assert.ErrorIs(t, converted, plain)
}
