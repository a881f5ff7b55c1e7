package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type typedErr struct{}

func (typedErr) Error() string   { return "typed" }
func (typedErr) ErrorCode() Code { return CodeInvariantViolation }
func (typedErr) Reason() string  { return "Typed" }

func TestCodeOf(t *testing.T) {
	t.Run("nil error has no code", func(t *testing.T) {
		assert.Equal(t, Code(""), CodeOf(nil))
	})

	t.Run("plain error defaults to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})

	t.Run("wrapped coded error keeps its code", func(t *testing.T) {
		err := fmt.Errorf("context: %w", New(CodeNotFound, "missing"))
		assert.Equal(t, CodeNotFound, CodeOf(err))
		assert.True(t, HasCode(err, CodeNotFound))
	})

	t.Run("typed errors expose their own code and reason", func(t *testing.T) {
		err := fmt.Errorf("op: %w", typedErr{})
		assert.Equal(t, CodeInvariantViolation, CodeOf(err))
		assert.Equal(t, "Typed", ReasonOf(err))
	})
}

func TestWrap(t *testing.T) {
	cause := errors.New("db down")
	err := Wrap(cause, CodeInternal, "load token")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "load token: db down", err.Error())
}
