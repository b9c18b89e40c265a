package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "geargrab/internal/domain/auth"
)

type stubTokens map[string]*fbauth.Token

func (s stubTokens) VerifyIDToken(_ context.Context, idToken string) (*fbauth.Token, error) {
	if tok, ok := s[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("ID token has invalid signature")
}

func TestFirebaseVerifierMapsClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	v := &FirebaseVerifier{
		Client: stubTokens{
			"renter-token": {UID: "renter-1", Expires: exp, Claims: map[string]interface{}{"email": "R@example.com", "name": "Rita"}},
			"staff-token":  {UID: "staff-1", Expires: exp, Claims: map[string]interface{}{"admin": true}},
			"ops-token":    {UID: "ops-1", Expires: exp},
		},
		Admins: domainauth.NewAdminSet([]string{"ops-1"}),
	}
	ctx := context.Background()

	p, err := v.Verify(ctx, "renter-token")
	require.NoError(t, err)
	assert.EqualValues(t, "renter-1", p.UserID)
	assert.Equal(t, "r@example.com", p.Email)
	assert.Equal(t, "Rita", p.Name)
	assert.False(t, p.Admin)

	p, err = v.Verify(ctx, "staff-token")
	require.NoError(t, err)
	assert.True(t, p.Admin)

	p, err = v.Verify(ctx, "ops-token")
	require.NoError(t, err)
	assert.True(t, p.Admin)
}

func TestFirebaseVerifierRejectsUnknownToken(t *testing.T) {
	v := &FirebaseVerifier{Client: stubTokens{}}

	_, err := v.Verify(context.Background(), "forged")
	require.ErrorIs(t, err, domainauth.ErrTokenInvalid)

	_, err = v.Verify(context.Background(), "")
	require.ErrorIs(t, err, domainauth.ErrTokenRequired)
}

func TestInsecureVerifier(t *testing.T) {
	v := InsecureVerifier{Admins: domainauth.NewAdminSet([]string{"root"})}

	p, err := v.Verify(context.Background(), "owner-1:owner@example.com")
	require.NoError(t, err)
	assert.EqualValues(t, "owner-1", p.UserID)
	assert.Equal(t, "owner@example.com", p.Email)
	assert.False(t, p.Admin)

	p, err = v.Verify(context.Background(), "root")
	require.NoError(t, err)
	assert.True(t, p.Admin)

	_, err = v.Verify(context.Background(), ":x@example.com")
	require.ErrorIs(t, err, domainauth.ErrTokenInvalid)
}
