package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifiedError_Error(t *testing.T) {
	err := StructuralMismatch("doctype differs").Build()
	require.Equal(t, "[structural_mismatch] doctype differs", err.Error())

	wrapped := WrapError(fmt.Errorf("boom"), CategoryParse, "failed to parse").Build()
	require.Equal(t, "[parse] failed to parse: boom", wrapped.Error())
}

func TestClassifiedError_IsMatchesCategory(t *testing.T) {
	err := fmt.Errorf("build: %w", InsufficientInput("need two documents").WithContext("count", 1).Build())

	require.True(t, errors.Is(err, ErrInsufficientInput))
	require.False(t, errors.Is(err, ErrStructuralMismatch))
	require.True(t, HasCategory(err, CategoryInsufficientInput))
	require.Equal(t, CategoryInsufficientInput, GetCategory(err))
}

func TestClassifiedError_Context(t *testing.T) {
	err := NameExhaustion("no free name").WithContext("candidate", "div").Build()
	ctx := err.Context()
	require.Equal(t, "div", ctx["candidate"])

	ctx["candidate"] = "changed"
	require.Equal(t, "div", err.Context()["candidate"])
}

func TestGetCategory_Unclassified(t *testing.T) {
	require.Equal(t, CategoryInternal, GetCategory(errors.New("plain")))
	_, ok := AsClassified(errors.New("plain"))
	require.False(t, ok)
}
