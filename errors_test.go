package tagbus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStructuredError(t *testing.T) {
	err := NewTagError("SEND", 3, CodeBusy)
	require.Equal(t, "SEND", err.Op)
	require.Equal(t, CodeBusy, err.Code)
	require.Equal(t, "tagbus: busy (op=SEND)", err.Error())
}

func TestErrorNoContext(t *testing.T) {
	err := NewError("GET", CodeInvalidArgument)
	require.Equal(t, "tagbus: invalid argument", err.Error())
}

func TestWrapErrorPreservesCode(t *testing.T) {
	inner := NewLevelError("RECEIVE", 0, 1, CodeInterrupted)
	wrapped := WrapError("CTL", 0, -1, inner)
	require.Equal(t, CodeInterrupted, wrapped.Code)
	require.True(t, errors.Is(wrapped, &Error{Code: CodeInterrupted}))
}

func TestWrapErrorOpaqueCause(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := WrapError("SEND", 2, 5, cause)
	require.Equal(t, CodeOutOfMemory, wrapped.Code)
	require.ErrorIs(t, wrapped, cause)
}

func TestIsCode(t *testing.T) {
	err := NewTagError("CTL", 1, CodeRemoving)
	require.True(t, IsCode(err, CodeRemoving))
	require.False(t, IsCode(err, CodeBusy))
	require.False(t, IsCode(errors.New("plain"), CodeRemoving))
}
