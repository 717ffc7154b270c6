package orch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dkeye/Ringcast/internal/core"
	"github.com/dkeye/Ringcast/internal/domain"
	"github.com/rs/zerolog/log"
)

// pushToUser queues a push to a user record already in hand.
func (o *Orchestrator) pushToUser(u *domain.User, data map[string]string, n *core.Notification) {
	if u == nil {
		return
	}
	if !u.HasPushToken() {
		log.Warn().Str("module", "orch").Str("identity", string(u.Identity)).Str("event", data["type"]).
			Msg("no push token, push skipped")
		return
	}
	user := *u
	o.Tasks.Go("push:"+data["type"], func(ctx context.Context) error {
		return o.sendPush(ctx, &user, data, n)
	})
}

// pushToIdentity resolves the recipient inside the background task.
func (o *Orchestrator) pushToIdentity(id domain.Identity, data map[string]string, n *core.Notification) {
	o.Tasks.Go("push:"+data["type"], func(ctx context.Context) error {
		u, err := o.Users.FindByIdentity(ctx, id)
		if err != nil {
			return fmt.Errorf("lookup %s: %w", id, err)
		}
		if !u.HasPushToken() {
			log.Debug().Str("module", "orch").Str("identity", string(id)).Msg("no push token, push skipped")
			return nil
		}
		return o.sendPush(ctx, u, data, n)
	})
}

func (o *Orchestrator) sendPush(ctx context.Context, u *domain.User, data map[string]string, n *core.Notification) error {
	if o.Push == nil {
		return nil
	}
	err := o.Push.SendToDevice(ctx, u.PushToken, data, n)
	if errors.Is(err, core.ErrPushTokenInvalid) {
		log.Warn().Str("module", "orch").Str("user_id", string(u.ID)).Msg("clearing stale push token")
		return o.Users.ClearPushToken(ctx, u.ID)
	}
	return err
}

func (o *Orchestrator) publishTopic(topic string, data map[string]string, n *core.Notification) {
	if o.Topics == nil {
		return
	}
	o.Tasks.Go("topic:"+topic, func(ctx context.Context) error {
		return o.Topics.PublishToTopic(ctx, topic, data, n)
	})
}

// SetPushToken stores the device token of id; an empty token clears it.
func (o *Orchestrator) SetPushToken(ctx context.Context, id domain.Identity, token string) error {
	if id == "" {
		return fmt.Errorf("%w: identity required", domain.ErrInvalidRequest)
	}
	return o.Users.SetPushToken(ctx, id, strings.TrimSpace(token))
}
