package orch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dkeye/Ringcast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.o.StartLive(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "live_"+first.SessionID, first.ChannelName)
	assert.Equal(t, domain.SessionUID("alice"), first.UID)

	_, err = h.o.StartLive(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, 1, h.media.count(), "second start mints nothing")

	ended, err := h.o.EndLive(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, ended.SessionID)

	second, err := h.o.StartLive(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)

	for _, name := range []string{"alice", "bob", "anon"} {
		assert.Equal(t, []string{EventLiveStarted, EventLiveEnded, EventLiveStarted}, h.conns[name].types(t), name)
	}
	started := h.conns["anon"].events(t)[0].Data.(map[string]any)
	assert.Equal(t, first.SessionID, started["sessionId"])
	assert.Equal(t, "Alice", started["hostDisplayName"])

	h.drain()
	pubs := h.topics.all()
	require.Len(t, pubs, 2)
	assert.Equal(t, DefaultLiveTopic, pubs[0].Topic)
	assert.Equal(t, "Alice is live", pubs[0].Notification.Body)
	assert.Equal(t, h.clock.Now().Format(time.RFC3339), pubs[0].Data["startedAt"])
}

func TestEndLiveWhenNotLive(t *testing.T) {
	h := newHarness(t)
	_, err := h.o.EndLive(context.Background(), "bob")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Empty(t, h.conns["anon"].events(t))
}

func TestStartLiveUnknownHost(t *testing.T) {
	h := newHarness(t)
	_, err := h.o.StartLive(context.Background(), "stranger")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, h.o.ListLive())
}

func TestStartLiveReleasesSlotWhenMintFails(t *testing.T) {
	h := newHarness(t)
	h.media.err = fmt.Errorf("%w: no certificate", domain.ErrUnavailable)

	_, err := h.o.StartLive(context.Background(), "alice")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Empty(t, h.o.ListLive())
	assert.Empty(t, h.conns["anon"].events(t))

	h.media.err = nil
	_, err = h.o.StartLive(context.Background(), "alice")
	assert.NoError(t, err)
}

func TestHostToken(t *testing.T) {
	h := newHarness(t)
	_, ok, err := h.o.HostToken("alice")
	require.NoError(t, err)
	assert.False(t, ok)

	started, err := h.o.StartLive(context.Background(), "alice")
	require.NoError(t, err)

	again, ok, err := h.o.HostToken("alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, started.SessionID, again.SessionID)
	assert.Equal(t, started.ChannelName, again.ChannelName)
	assert.Equal(t, 2, h.media.count())
	assert.Len(t, h.o.ListLive(), 1, "host token does not touch session state")
}

func TestListLive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.o.StartLive(ctx, "bob")
	require.NoError(t, err)
	h.clock.Advance(time.Second)
	_, err = h.o.StartLive(ctx, "alice")
	require.NoError(t, err)

	list := h.o.ListLive()
	require.Len(t, list, 2)
	assert.Equal(t, domain.Identity("bob"), list[0].HostIdentity)
	assert.Equal(t, domain.Identity("alice"), list[1].HostIdentity)
}
