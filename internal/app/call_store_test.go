package app

import (
	"fmt"
	"testing"
	"time"

	"github.com/dkeye/Ringcast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func ringing(id string) domain.CallOffer {
	return domain.CallOffer{
		CallID:         id,
		ChannelName:    domain.CallChannelName(id),
		CallerIdentity: "alice",
		CalleeIdentity: "bob",
		Status:         domain.CallRinging,
	}
}

func insert(s *CallStore, o domain.CallOffer) error {
	_, err := s.Insert(o)
	return err
}

func TestCallStore_InsertGet(t *testing.T) {
	clk := newClock()
	s := NewCallStore(time.Minute, 0, clk.Now)
	require.NoError(t, insert(s, ringing("c1")))
	_, err := s.Insert(ringing("c1"))
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	got, ok := s.Get("c1")
	require.True(t, ok)
	assert.Equal(t, clk.Now(), got.CreatedAt)

	got.Status = domain.CallAccepted
	again, _ := s.Get("c1")
	assert.Equal(t, domain.CallRinging, again.Status, "Get returns a copy")

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestCallStore_TransitionIsTerminal(t *testing.T) {
	s := NewCallStore(time.Minute, 0, newClock().Now)
	require.NoError(t, insert(s, ringing("c1")))

	o, err := s.Transition("c1", domain.CallAccepted, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.CallAccepted, o.Status)
	assert.False(t, o.ResolvedAt.IsZero())

	for _, to := range []domain.CallStatus{domain.CallAccepted, domain.CallDeclined, domain.CallCancelled, domain.CallRinging} {
		o, err = s.Transition("c1", to, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidState, "to %s", to)
		assert.Equal(t, domain.CallAccepted, o.Status)
	}

	_, err = s.Transition("nope", domain.CallAccepted, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCallStore_TransitionCheckRejects(t *testing.T) {
	s := NewCallStore(time.Minute, 0, newClock().Now)
	require.NoError(t, insert(s, ringing("c1")))

	deny := fmt.Errorf("%w: not yours", domain.ErrForbidden)
	_, err := s.Transition("c1", domain.CallDeclined, func(domain.CallOffer) error { return deny })
	assert.ErrorIs(t, err, domain.ErrForbidden)

	o, _ := s.Get("c1")
	assert.Equal(t, domain.CallRinging, o.Status, "rejected check leaves state untouched")
}

func TestCallStore_PruneRingingOnly(t *testing.T) {
	clk := newClock()
	s := NewCallStore(time.Minute, 0, clk.Now)
	require.NoError(t, insert(s, ringing("old")))
	require.NoError(t, insert(s, ringing("answered")))
	_, err := s.Transition("answered", domain.CallAccepted, nil)
	require.NoError(t, err)

	clk.Advance(30 * time.Second)
	require.NoError(t, insert(s, ringing("fresh")))

	clk.Advance(31 * time.Second)
	assert.Equal(t, 1, s.PruneExpired())

	_, ok := s.Get("old")
	assert.False(t, ok)
	_, ok = s.Get("fresh")
	assert.True(t, ok)

	clk.Advance(24 * time.Hour)
	s.PruneExpired()
	_, ok = s.Get("answered")
	assert.True(t, ok, "terminal offers survive when no grace TTL is set")
}

func TestCallStore_PruneTerminalAfterGrace(t *testing.T) {
	clk := newClock()
	s := NewCallStore(time.Minute, 10*time.Minute, clk.Now)
	require.NoError(t, insert(s, ringing("c1")))
	clk.Advance(50 * time.Second)
	_, err := s.Transition("c1", domain.CallDeclined, nil)
	require.NoError(t, err)

	clk.Advance(9 * time.Minute)
	assert.Equal(t, 0, s.PruneExpired())
	clk.Advance(2 * time.Minute)
	assert.Equal(t, 1, s.PruneExpired())
	assert.Equal(t, 0, s.Len())
}

func TestCallStore_RemoveAndDefaults(t *testing.T) {
	s := NewCallStore(0, 0, nil)
	assert.Equal(t, DefaultRingTTL, s.ringTTL)
	require.NoError(t, insert(s, ringing("c1")))
	got, ok := s.Get("c1")
	require.True(t, ok)
	assert.Equal(t, time.UTC, got.CreatedAt.Location(), "default clock stamps UTC like the live sessions")
	assert.True(t, s.Remove("c1"))
	assert.False(t, s.Remove("c1"))
}
