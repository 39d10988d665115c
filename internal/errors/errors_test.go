package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapUnexpectedType(t *testing.T) {
	err := WrapUnexpectedType("*model.User", 42)
	require.True(t, errors.Is(err, ErrorUnexpectedType))
	require.Equal(t, "unexpected type: expected *model.User, got int", err.Error())
}

func TestWrapMissingContextValue(t *testing.T) {
	err := WrapMissingContextValue("user")
	require.True(t, errors.Is(err, ErrorMissingContextValue))
	require.Equal(t, "missing context value: user", err.Error())
}
