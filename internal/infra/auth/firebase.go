package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	domainauth "geargrab/internal/domain/auth"
	"geargrab/internal/domain/user"
)

type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseVerifier checks Firebase ID tokens. Callers with the "admin" custom claim or
// listed in Admins are administrators.
type FirebaseVerifier struct {
	Client idTokenVerifier
	Admins domainauth.AdminSet
	Logger *slog.Logger
}

func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string, admins domainauth.AdminSet, logger *slog.Logger) (*FirebaseVerifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth: %w", err)
	}
	return &FirebaseVerifier{Client: client, Admins: admins, Logger: logger}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token domainauth.Token) (domainauth.Principal, error) {
	if token == "" {
		return domainauth.Principal{}, domainauth.ErrTokenRequired
	}
	tok, err := v.Client.VerifyIDToken(ctx, string(token))
	if err != nil {
		if v.Logger != nil {
			v.Logger.DebugContext(ctx, "id token rejected", "error", err)
		}
		return domainauth.Principal{}, fmt.Errorf("%w: %w", domainauth.ErrTokenInvalid, err)
	}
	email, _ := tok.Claims["email"].(string)
	name, _ := tok.Claims["name"].(string)
	admin, _ := tok.Claims["admin"].(bool)
	id := user.ID(tok.UID)
	return domainauth.NewPrincipal(id, email, name, admin || v.Admins.Contains(id), time.Unix(tok.Expires, 0))
}
