// Package identity verifies the bearer credentials issued by the identity provider.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/Ringcast/internal/core"
	"github.com/dkeye/Ringcast/internal/domain"
	"github.com/golang-jwt/jwt/v4"
)

var ErrNoSecret = errors.New("auth secret not configured")

type claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier accepts HS256 tokens whose subject is the caller's identity.
type JWTVerifier struct {
	secret []byte
	issuer string
	parser *jwt.Parser
}

func NewJWTVerifier(secret, issuer string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &JWTVerifier{
		secret: []byte(secret),
		issuer: issuer,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}, nil
}

func (v *JWTVerifier) Verify(_ context.Context, credential string) (core.Claims, error) {
	var c claims
	_, err := v.parser.ParseWithClaims(credential, &c, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return core.Claims{}, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	if v.issuer != "" && !c.VerifyIssuer(v.issuer, true) {
		return core.Claims{}, fmt.Errorf("%w: unexpected issuer %q", domain.ErrUnauthenticated, c.Issuer)
	}
	if c.Subject == "" {
		return core.Claims{}, fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
	}
	extra := map[string]any{}
	if c.Name != "" {
		extra["name"] = c.Name
	}
	if c.Email != "" {
		extra["email"] = c.Email
	}
	return core.Claims{Identity: domain.Identity(c.Subject), Extra: extra}, nil
}
