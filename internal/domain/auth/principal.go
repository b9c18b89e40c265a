package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"geargrab/internal/domain/user"
)

var (
	ErrTokenRequired = errors.New("auth: token is required")
	ErrTokenInvalid  = errors.New("auth: token is invalid or expired")
	ErrUserRequired  = errors.New("auth: user is required")
)

type Token string

// Principal is the caller identity resolved from a verified bearer token.
type Principal struct {
	UserID    user.ID
	Email     string
	Name      string
	Admin     bool
	ExpiresAt time.Time
}

func NewPrincipal(id user.ID, email, name string, admin bool, expiresAt time.Time) (Principal, error) {
	if strings.TrimSpace(string(id)) == "" {
		return Principal{}, ErrUserRequired
	}
	return Principal{
		UserID:    id,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Name:      strings.TrimSpace(name),
		Admin:     admin,
		ExpiresAt: expiresAt.UTC(),
	}, nil
}

func (p Principal) Expired(at time.Time) bool {
	if p.ExpiresAt.IsZero() {
		return false
	}
	if at.IsZero() {
		at = time.Now()
	}
	return !p.ExpiresAt.After(at.UTC())
}

// TokenVerifier turns a bearer token into a principal.
type TokenVerifier interface {
	Verify(ctx context.Context, token Token) (Principal, error)
}

// AdminSet marks configured user ids as administrators.
type AdminSet map[user.ID]struct{}

func NewAdminSet(ids []string) AdminSet {
	set := make(AdminSet, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			set[user.ID(id)] = struct{}{}
		}
	}
	return set
}

func (s AdminSet) Contains(id user.ID) bool {
	_, ok := s[id]
	return ok
}
