package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "sentinel", err: ErrMachineBusy, want: KindConflict},
		{name: "wrapped sentinel", err: fmt.Errorf("start: %w", ErrNoActiveSession), want: KindNotFound},
		{name: "validation", err: Validation("room is required"), want: KindValidation},
		{name: "plain error", err: errors.New("disk on fire"), want: KindInternal},
		{name: "internal wrapper", err: Internal(errors.New("db down")), want: KindInternal},
		{name: "forbidden", err: ErrNotSessionOwner, want: KindForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestErrorIs(t *testing.T) {
	wrapped := fmt.Errorf("finish machine 1: %w", ErrNoActiveSession)
	assert.True(t, errors.Is(wrapped, ErrNoActiveSession))
	assert.False(t, errors.Is(wrapped, ErrMachineBusy))

	cause := errors.New("connection reset")
	internal := Internal(cause)
	assert.True(t, errors.Is(internal, cause))
	assert.Contains(t, internal.Error(), "connection reset")
}
