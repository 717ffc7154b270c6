package orch

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/Ringcast/internal/core"
	"github.com/dkeye/Ringcast/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type StartLiveResult struct {
	SessionID string `json:"sessionId"`
	core.MediaToken
}

type EndLiveResult struct {
	SessionID string `json:"sessionId"`
}

type liveEndedPayload struct {
	SessionID   string `json:"sessionId"`
	ChannelName string `json:"channelName"`
}

// StartLive opens the host's broadcast. The store insert is the only
// enforcement point of one session per host; the lookup before it just
// fails fast without touching the directory.
func (o *Orchestrator) StartLive(ctx context.Context, host domain.Identity) (StartLiveResult, error) {
	if host == "" {
		return StartLiveResult{}, fmt.Errorf("%w: host identity required", domain.ErrInvalidRequest)
	}
	if _, ok := o.Live.GetByHost(host); ok {
		return StartLiveResult{}, fmt.Errorf("%w: already live, end the current stream first", domain.ErrInvalidState)
	}
	user, err := o.Users.FindByIdentity(ctx, host)
	if err != nil {
		return StartLiveResult{}, fmt.Errorf("%w: lookup host: %w", domain.ErrUnavailable, err)
	}
	if user == nil {
		return StartLiveResult{}, fmt.Errorf("%w: user not found", domain.ErrNotFound)
	}

	sessionID := uuid.NewString()
	session := domain.LiveSession{
		SessionID:       sessionID,
		ChannelName:     domain.LiveChannelName(sessionID),
		HostIdentity:    host,
		HostDisplayName: user.Name(),
		StartedAt:       o.now(),
	}
	if err := o.Live.Insert(session); err != nil {
		return StartLiveResult{}, err
	}

	tok, err := o.mint(session.ChannelName, domain.SessionUID(host), core.RolePublisher)
	if err != nil {
		// Nothing was announced yet, so the slot can be released.
		o.Live.RemoveByHost(host, sessionID)
		return StartLiveResult{}, err
	}
	log.Info().Str("module", "orch").Str("session_id", sessionID).Str("host", string(host)).Msg("live started")

	o.Registry.BroadcastAll(EventLiveStarted, session)
	o.publishTopic(o.liveTopic(), map[string]string{
		"type":            EventLiveStarted,
		"sessionId":       session.SessionID,
		"channelName":     session.ChannelName,
		"hostUserId":      string(session.HostIdentity),
		"hostDisplayName": session.HostDisplayName,
		"startedAt":       session.StartedAt.Format(time.RFC3339),
	}, &core.Notification{
		Title: "Live now",
		Body:  session.HostDisplayName + " is live",
	})
	return StartLiveResult{SessionID: sessionID, MediaToken: tok}, nil
}

func (o *Orchestrator) EndLive(ctx context.Context, host domain.Identity) (EndLiveResult, error) {
	session, ok := o.Live.RemoveByHost(host, "")
	if !ok {
		return EndLiveResult{}, fmt.Errorf("%w: you are not live", domain.ErrInvalidState)
	}
	log.Info().Str("module", "orch").Str("session_id", session.SessionID).Str("host", string(host)).Msg("live ended")
	o.Registry.BroadcastAll(EventLiveEnded, liveEndedPayload{
		SessionID:   session.SessionID,
		ChannelName: session.ChannelName,
	})
	return EndLiveResult{SessionID: session.SessionID}, nil
}

// HostToken re-mints the host's publisher token; ok is false when not live.
func (o *Orchestrator) HostToken(host domain.Identity) (res StartLiveResult, ok bool, err error) {
	session, ok := o.Live.GetByHost(host)
	if !ok {
		return StartLiveResult{}, false, nil
	}
	tok, err := o.mint(session.ChannelName, domain.SessionUID(host), core.RolePublisher)
	if err != nil {
		return StartLiveResult{}, true, err
	}
	return StartLiveResult{SessionID: session.SessionID, MediaToken: tok}, true, nil
}

func (o *Orchestrator) ListLive() []domain.LiveSession {
	return o.Live.List()
}
