package orch

import (
	"fmt"

	"github.com/dkeye/Ringcast/internal/core"
	"github.com/dkeye/Ringcast/internal/domain"
)

type MediaStatus struct {
	Configured bool   `json:"configured"`
	Message    string `json:"message,omitempty"`
}

func (o *Orchestrator) mint(channelName string, uid uint32, role core.MediaRole) (core.MediaToken, error) {
	if o.Media == nil {
		return core.MediaToken{}, fmt.Errorf("%w: media token issuer not configured", domain.ErrUnavailable)
	}
	return o.Media.Mint(channelName, uid, role, o.tokenTTL())
}

// MintToken issues an ad-hoc media token for channelName.
// A zero uid derives one from the identity; an empty role means publisher.
func (o *Orchestrator) MintToken(id domain.Identity, channelName string, uid uint32, role core.MediaRole) (core.MediaToken, error) {
	if channelName == "" {
		return core.MediaToken{}, fmt.Errorf("%w: channel name required", domain.ErrInvalidRequest)
	}
	if role == "" {
		role = core.RolePublisher
	}
	if !role.Valid() {
		return core.MediaToken{}, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidRequest, role)
	}
	if uid == 0 {
		uid = domain.SessionUID(id)
	}
	return o.mint(channelName, uid, role)
}

func (o *Orchestrator) MediaConfig() (string, error) {
	if o.Media == nil {
		return "", fmt.Errorf("%w: media token issuer not configured", domain.ErrUnavailable)
	}
	return o.Media.AppID()
}

func (o *Orchestrator) MediaStatus() MediaStatus {
	if _, err := o.MediaConfig(); err != nil {
		return MediaStatus{Message: err.Error()}
	}
	return MediaStatus{Configured: true}
}
