package core

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Ringcast/internal/domain"
)

// Claims is what a verified credential yields.
type Claims struct {
	Identity domain.Identity
	Extra    map[string]any
}

// IdentityVerifier fails with domain.ErrUnauthenticated on invalid or expired credentials.
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (Claims, error)
}

// UserDirectory returns (nil, nil) when a user is absent.
type UserDirectory interface {
	FindByIdentity(ctx context.Context, id domain.Identity) (*domain.User, error)
	FindByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	SetPushToken(ctx context.Context, id domain.Identity, token string) error
	ClearPushToken(ctx context.Context, id domain.UserID) error
}

type MediaRole string

const (
	RolePublisher  MediaRole = "publisher"
	RoleSubscriber MediaRole = "subscriber"
)

func (r MediaRole) Valid() bool { return r == RolePublisher || r == RoleSubscriber }

type MediaToken struct {
	Token       string `json:"token"`
	ChannelName string `json:"channelName"`
	UID         uint32 `json:"uid"`
	AppID       string `json:"appId"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// MediaTokenIssuer fails with domain.ErrUnavailable when unconfigured.
type MediaTokenIssuer interface {
	Mint(channelName string, uid uint32, role MediaRole, ttl time.Duration) (MediaToken, error)
	AppID() (string, error)
}

// Notification is the user-visible part of a push; nil means data-only.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ErrPushTokenInvalid means the device token is permanently dead and must be cleared.
var ErrPushTokenInvalid = errors.New("push token invalid")

// PushGateway is best-effort; callers never retry.
type PushGateway interface {
	SendToDevice(ctx context.Context, token string, data map[string]string, n *Notification) error
}

type TopicBroadcaster interface {
	PublishToTopic(ctx context.Context, topic string, data map[string]string, n *Notification) error
}
