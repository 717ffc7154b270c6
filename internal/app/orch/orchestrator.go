package orch

import (
	"context"
	"time"

	"github.com/dkeye/Ringcast/internal/app"
	"github.com/dkeye/Ringcast/internal/core"
	"github.com/rs/zerolog/log"
)

// Event names pushed over the connection registry and in push data payloads.
const (
	EventIncomingCall  = "incoming_call"
	EventCallAccepted  = "call_accepted"
	EventCallDeclined  = "call_declined"
	EventCallCancelled = "call_cancelled"
	EventLiveStarted   = "live_started"
	EventLiveEnded     = "live_ended"
)

const (
	DefaultTokenTTL  = time.Hour
	DefaultLiveTopic = "live_sessions"
)

// Orchestrator drives the call and live state machines.
// Every operation validates, commits one state write, then fans out.
type Orchestrator struct {
	Registry *app.Registry
	Calls    core.CallOfferStore
	Live     core.LiveSessionStore
	Users    core.UserDirectory
	Media    core.MediaTokenIssuer
	Push     core.PushGateway
	Topics   core.TopicBroadcaster
	Tasks    *app.Dispatcher

	TokenTTL  time.Duration
	LiveTopic string
	Clock     func() time.Time
}

func (o *Orchestrator) now() time.Time {
	if o.Clock != nil {
		return o.Clock()
	}
	return time.Now().UTC()
}

func (o *Orchestrator) tokenTTL() time.Duration {
	if o.TokenTTL > 0 {
		return o.TokenTTL
	}
	return DefaultTokenTTL
}

func (o *Orchestrator) liveTopic() string {
	if o.LiveTopic != "" {
		return o.LiveTopic
	}
	return DefaultLiveTopic
}

// RunPruner expires stale call offers every interval until ctx is done.
func (o *Orchestrator) RunPruner(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Info().Str("module", "orch").Dur("interval", interval).Msg("pruner started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "orch").Msg("pruner stopped")
			return nil
		case <-ticker.C:
			o.Calls.PruneExpired()
		}
	}
}
