package catalog

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTypesUnwrap(t *testing.T) {
	t.Parallel()
	cause := errors.New("connection reset")

	wrapped := fmt.Errorf("run: %w", &FetchError{URL: "https://othoba.com", Attempts: 4, Err: cause})
	var fetchErr *FetchError
	require.ErrorAs(t, wrapped, &fetchErr)
	assert.Equal(t, 4, fetchErr.Attempts)
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "after 4 attempt(s)")

	var extractErr *ExtractionError
	require.ErrorAs(t, error(&ExtractionError{Index: 2, Err: ErrNoName}), &extractErr)
	assert.ErrorIs(t, extractErr, ErrNoName)

	var persistErr *PersistenceError
	require.ErrorAs(t, fmt.Errorf("export: %w", &PersistenceError{Op: "blob", Err: cause}), &persistErr)
	assert.Equal(t, "persist blob: connection reset", persistErr.Error())
}
