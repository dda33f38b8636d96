package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := New(ConfigurationExhausted, "partition", "no sizes after %d tries", 5)
	assert.Equal(t, "partition: CONFIGURATION_EXHAUSTED: no sizes after 5 tries", err.Error())

	noOp := &Error{Kind: InvalidArgument, Message: "bad"}
	assert.Equal(t, "INVALID_ARGUMENT: bad", noOp.Error())
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(StoreUnavailable, "op", nil))
	assert.NoError(t, Store("op", nil))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Store("store.create_node", cause)
	require.Error(t, err)

	assert.True(t, IsStoreUnavailable(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestWrapDoesNotDoubleWrapSameKind(t *testing.T) {
	inner := Store("store.read", errors.New("boom"))
	outer := Store("attack.deletion", inner)
	assert.Same(t, inner, outer)
}

func TestKindHelpersThroughFmtWrap(t *testing.T) {
	tests := []struct {
		kind  Kind
		check func(error) bool
	}{
		{ConfigurationExhausted, IsConfigurationExhausted},
		{StoreUnavailable, IsStoreUnavailable},
		{InvariantViolation, IsInvariantViolation},
		{EmptyValueDomain, IsEmptyValueDomain},
		{InvalidArgument, IsInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := fmt.Errorf("outer: %w", New(tt.kind, "op", "msg"))
			assert.True(t, tt.check(err))
			assert.Equal(t, tt.kind, KindOf(err))
		})
	}
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.False(t, IsStoreUnavailable(errors.New("plain")))
}
