// Package media mints channel credentials for the external real-time media service.
package media

import (
	"fmt"
	"time"

	"github.com/dkeye/Ringcast/internal/core"
	"github.com/dkeye/Ringcast/internal/domain"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog/log"
)

// Claims is the payload the media service checks when a client joins a channel.
type Claims struct {
	Channel string         `json:"channel"`
	UID     uint32         `json:"uid"`
	Role    core.MediaRole `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs channel credentials with the app certificate.
type TokenIssuer struct {
	appID       string
	certificate []byte
	now         func() time.Time
}

func NewTokenIssuer(appID, certificate string) *TokenIssuer {
	if appID == "" || certificate == "" {
		log.Warn().Str("module", "media").Msg("media credentials missing, token minting disabled")
	}
	return &TokenIssuer{appID: appID, certificate: []byte(certificate), now: time.Now}
}

func (i *TokenIssuer) AppID() (string, error) {
	if i.appID == "" {
		return "", fmt.Errorf("%w: media app id not configured", domain.ErrUnavailable)
	}
	if len(i.certificate) == 0 {
		return "", fmt.Errorf("%w: media app certificate not configured", domain.ErrUnavailable)
	}
	return i.appID, nil
}

func (i *TokenIssuer) Mint(channelName string, uid uint32, role core.MediaRole, ttl time.Duration) (core.MediaToken, error) {
	appID, err := i.AppID()
	if err != nil {
		return core.MediaToken{}, err
	}
	if channelName == "" || uid == 0 || !role.Valid() {
		return core.MediaToken{}, fmt.Errorf("%w: channel, uid and role are required", domain.ErrInvalidRequest)
	}
	now := i.now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Channel: channelName,
		UID:     uid,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    appID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}).SignedString(i.certificate)
	if err != nil {
		return core.MediaToken{}, fmt.Errorf("%w: sign media token: %w", domain.ErrUnavailable, err)
	}
	log.Debug().Str("module", "media").Str("channel", channelName).Uint32("uid", uid).Str("role", string(role)).Msg("minted media token")
	return core.MediaToken{
		Token:       token,
		ChannelName: channelName,
		UID:         uid,
		AppID:       appID,
		ExpiresIn:   int64(ttl / time.Second),
	}, nil
}
