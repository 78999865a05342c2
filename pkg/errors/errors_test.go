package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	simdberrors "github.com/spartasim/simdb/pkg/errors"
)

func TestIsHelpersMatchWrappedErrors(t *testing.T) {
	conflict := simdberrors.NewDBAccessConflict("Employees", fmt.Errorf("database is locked"))
	wrapped := fmt.Errorf("insert failed: %w", conflict)

	assert.True(t, simdberrors.IsAccessConflict(wrapped))
	assert.False(t, simdberrors.IsSchemaError(wrapped))
	assert.Equal(t, "DB_ACCESS_CONFLICT", simdberrors.Code(wrapped))
}

func TestCodeUnknownForPlainError(t *testing.T) {
	require.Equal(t, "UNKNOWN_ERROR", simdberrors.Code(fmt.Errorf("boom")))
}

func TestInterruptSingleton(t *testing.T) {
	assert.Same(t, simdberrors.ErrInterrupt(), simdberrors.ErrInterrupt())
	assert.True(t, simdberrors.IsInterrupt(simdberrors.ErrInterrupt()))
}
