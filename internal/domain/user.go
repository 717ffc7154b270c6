// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// MaxDisplayNameLen counts characters, not bytes.
	MaxDisplayNameLen = 64
	UnknownName       = "Unknown"
)

var (
	ErrDisplayNameTooLong = errors.New("display name too long")
	ErrIdentityEmpty      = errors.New("identity empty")
)

// Identity is the opaque handle issued by the identity provider.
// The core never generates one, only compares them.
type Identity string

type UserID string

type User struct {
	ID          UserID   `json:"id"`
	Identity    Identity `json:"identity"`
	DisplayName string   `json:"displayName"`
	PushToken   string   `json:"-"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(identity Identity, displayName string) (*User, error) {
	if identity == "" {
		return nil, ErrIdentityEmpty
	}
	u := &User{ID: UserID(uuid.NewString()), Identity: identity}
	if err := u.SetDisplayName(displayName); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) SetDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxDisplayNameLen {
		return ErrDisplayNameTooLong
	}
	u.DisplayName = name
	return nil
}

// Name returns the display name or UnknownName when none is set.
func (u *User) Name() string {
	if u == nil || u.DisplayName == "" {
		return UnknownName
	}
	return u.DisplayName
}

func (u *User) HasPushToken() bool { return u != nil && u.PushToken != "" }
