package app

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkeye/Ringcast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func session(id string, host domain.Identity, at time.Time) domain.LiveSession {
	return domain.LiveSession{
		SessionID:    id,
		ChannelName:  domain.LiveChannelName(id),
		HostIdentity: host,
		StartedAt:    at,
	}
}

func TestLiveStore_OnePerHost(t *testing.T) {
	s := NewLiveStore()
	now := time.Now()
	require.NoError(t, s.Insert(session("s1", "h", now)))
	assert.ErrorIs(t, s.Insert(session("s2", "h", now)), domain.ErrInvalidState)

	got, ok := s.GetByHost("h")
	require.True(t, ok)
	assert.Equal(t, "s1", got.SessionID)

	removed, ok := s.RemoveByHost("h", "")
	require.True(t, ok)
	assert.Equal(t, "s1", removed.SessionID)
	_, ok = s.RemoveByHost("h", "")
	assert.False(t, ok)

	require.NoError(t, s.Insert(session("s3", "h", now)), "slot is reusable after end")
}

func TestLiveStore_RemoveByHostMatchesSession(t *testing.T) {
	s := NewLiveStore()
	require.NoError(t, s.Insert(session("s1", "h", time.Now())))
	_, ok := s.RemoveByHost("h", "other")
	assert.False(t, ok)
	_, ok = s.GetByHost("h")
	assert.True(t, ok)
}

func TestLiveStore_ListSorted(t *testing.T) {
	s := NewLiveStore()
	base := time.Now()
	require.NoError(t, s.Insert(session("late", "h1", base.Add(2*time.Second))))
	require.NoError(t, s.Insert(session("early", "h2", base)))
	require.NoError(t, s.Insert(session("mid", "h3", base.Add(time.Second))))

	var ids []string
	for _, ls := range s.List() {
		ids = append(ids, ls.SessionID)
	}
	assert.Equal(t, []string{"early", "mid", "late"}, ids)
}

func TestLiveStore_ConcurrentInsertSingleWinner(t *testing.T) {
	s := NewLiveStore()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Insert(session("x", "h", time.Now())) == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}
