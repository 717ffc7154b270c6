package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallStatusTransitions(t *testing.T) {
	all := []CallStatus{CallRinging, CallAccepted, CallDeclined, CallCancelled}
	for _, from := range all {
		for _, to := range all {
			want := from == CallRinging && to != CallRinging
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
	assert.False(t, CallRinging.Terminal())
	assert.True(t, CallCancelled.Terminal())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "", KindOf(nil))
	assert.Equal(t, "not_found", KindOf(fmt.Errorf("%w: call offer", ErrNotFound)))
	assert.Equal(t, "invalid_state", KindOf(fmt.Errorf("wrapped twice: %w", fmt.Errorf("%w: x", ErrInvalidState))))
	assert.Equal(t, "internal", KindOf(errors.New("boom")))
}

func TestNewUser(t *testing.T) {
	u, err := NewUser("uid-1", "  Ada  ")
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.DisplayName)
	assert.NotEmpty(t, u.ID)

	_, err = NewUser("", "x")
	assert.ErrorIs(t, err, ErrIdentityEmpty)

	_, err = NewUser("uid-2", strings.Repeat("n", MaxDisplayNameLen+1))
	assert.ErrorIs(t, err, ErrDisplayNameTooLong)

	cyr, err := NewUser("uid-3", strings.Repeat("Ж", MaxDisplayNameLen))
	require.NoError(t, err, "limit counts characters")
	assert.Equal(t, strings.Repeat("Ж", MaxDisplayNameLen), cyr.DisplayName)
	_, err = NewUser("uid-4", strings.Repeat("Ж", MaxDisplayNameLen+1))
	assert.ErrorIs(t, err, ErrDisplayNameTooLong)

	var nobody *User
	assert.Equal(t, UnknownName, nobody.Name())
	assert.Equal(t, UnknownName, (&User{}).Name())
}

func TestChannelNames(t *testing.T) {
	assert.Equal(t, "call_abc", CallChannelName("abc"))
	assert.Equal(t, "live_abc", LiveChannelName("abc"))
}
