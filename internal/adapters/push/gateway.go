// Package push delivers device and topic notifications through an FCM-style HTTP endpoint.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dkeye/Ringcast/internal/core"
	"github.com/rs/zerolog/log"
)

type message struct {
	To           string             `json:"to"`
	Priority     string             `json:"priority"`
	Data         map[string]string  `json:"data,omitempty"`
	Notification *core.Notification `json:"notification,omitempty"`
}

type response struct {
	Failure int `json:"failure"`
	Results []struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	} `json:"results"`
	Error *struct {
		Status string `json:"status"`
	} `json:"error"`
}

// Permanent per-token failures; the token will never work again.
var deadTokenErrors = map[string]bool{
	"NotRegistered":       true,
	"InvalidRegistration": true,
	"UNREGISTERED":        true,
}

// HTTPGateway implements core.PushGateway and core.TopicBroadcaster.
type HTTPGateway struct {
	Endpoint  string
	ServerKey string
	HTTP      *http.Client
}

func NewHTTPGateway(endpoint, serverKey string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		Endpoint:  endpoint,
		ServerKey: serverKey,
		HTTP:      &http.Client{Timeout: timeout},
	}
}

func (g *HTTPGateway) SendToDevice(ctx context.Context, token string, data map[string]string, n *core.Notification) error {
	return g.post(ctx, message{To: token, Priority: "high", Data: data, Notification: n})
}

func (g *HTTPGateway) PublishToTopic(ctx context.Context, topic string, data map[string]string, n *core.Notification) error {
	return g.post(ctx, message{To: "/topics/" + topic, Priority: "high", Data: data, Notification: n})
}

func (g *HTTPGateway) post(ctx context.Context, m message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode push: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("content-type", "application/json")
	if g.ServerKey != "" {
		req.Header.Set("authorization", "key="+g.ServerKey)
	}

	resp, err := g.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("push request: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	var r response
	_ = json.NewDecoder(resp.Body).Decode(&r)

	if resp.StatusCode == http.StatusNotFound || (r.Error != nil && deadTokenErrors[r.Error.Status]) {
		return fmt.Errorf("push status %s: %w", resp.Status, core.ErrPushTokenInvalid)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("push status %s", resp.Status)
	}
	for _, res := range r.Results {
		if deadTokenErrors[res.Error] {
			return fmt.Errorf("push rejected %s: %w", res.Error, core.ErrPushTokenInvalid)
		}
		if res.Error != "" {
			return fmt.Errorf("push rejected: %s", res.Error)
		}
	}
	log.Debug().Str("module", "push").Str("type", m.Data["type"]).Msg("push delivered")
	return nil
}

// LogGateway stands in when no push endpoint is configured.
type LogGateway struct{}

func (LogGateway) SendToDevice(_ context.Context, _ string, data map[string]string, n *core.Notification) error {
	log.Info().Str("module", "push").Str("type", data["type"]).Bool("notification", n != nil).Msg("push disabled, device message dropped")
	return nil
}

func (LogGateway) PublishToTopic(_ context.Context, topic string, data map[string]string, _ *core.Notification) error {
	log.Info().Str("module", "push").Str("topic", topic).Str("type", data["type"]).Msg("push disabled, topic message dropped")
	return nil
}
