package auth

import (
	"context"
	"strings"
	"time"

	domainauth "geargrab/internal/domain/auth"
	"geargrab/internal/domain/user"
)

// InsecureVerifier accepts "<uid>" or "<uid>:<email>" as the bearer token. Local runs only.
type InsecureVerifier struct {
	Admins domainauth.AdminSet
}

func (v InsecureVerifier) Verify(_ context.Context, token domainauth.Token) (domainauth.Principal, error) {
	raw := strings.TrimSpace(string(token))
	if raw == "" {
		return domainauth.Principal{}, domainauth.ErrTokenRequired
	}
	uid, email, _ := strings.Cut(raw, ":")
	id := user.ID(uid)
	p, err := domainauth.NewPrincipal(id, email, "", v.Admins.Contains(id), time.Time{})
	if err != nil {
		return domainauth.Principal{}, domainauth.ErrTokenInvalid
	}
	return p, nil
}
