package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicates(t *testing.T) {
	toolErr := NewExternalToolError("repos/x/y", errors.New("boom"))
	notFound := NewNotFoundError("run", "42")
	parseErr := NewParseError("device perf CSV", errors.New("bad header"))

	assert.True(t, IsExternalTool(toolErr))
	assert.False(t, IsExternalTool(notFound))

	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsNotFound(parseErr))

	assert.True(t, IsParse(parseErr))
	assert.False(t, IsParse(toolErr))
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("processing run: %w", NewNotFoundError("job", "201"))
	assert.True(t, IsNotFound(wrapped))
	assert.Contains(t, wrapped.Error(), "job 201 not found")
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewExternalToolError("repos/x/y", cause)
	assert.ErrorIs(t, err, cause)
}
