package user

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrIDRequired    = errors.New("user: id is required")
	ErrEmailRequired = errors.New("user: email is required")
	ErrNotFound      = errors.New("user: not found")
)

type ID string

// User is the contact card the notification dispatcher needs for a booking party.
type User struct {
	ID          ID
	Email       string
	DisplayName string
}

// Directory resolves user profiles owned by the identity provider.
type Directory interface {
	ByID(ctx context.Context, id ID) (*User, error)
}

func New(id ID, email, displayName string) (*User, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, ErrIDRequired
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrEmailRequired
	}
	return &User{ID: id, Email: email, DisplayName: strings.TrimSpace(displayName)}, nil
}

// Greeting returns the name used in email salutations.
func (u *User) Greeting() string {
	if u == nil {
		return "there"
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return "there"
}
