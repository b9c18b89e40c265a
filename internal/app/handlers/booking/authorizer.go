package booking

import (
	"context"
	"strings"
)

// callerScoped is implemented by messages issued on behalf of a signed-in user.
type callerScoped interface {
	Caller() string
}

// CallerAuthorizer rejects user-scoped messages that carry no caller identity. Ownership
// checks happen in the service where the booking is loaded.
type CallerAuthorizer struct{}

func (CallerAuthorizer) Authorize(ctx context.Context, message any) error {
	scoped, ok := message.(callerScoped)
	if !ok {
		return nil
	}
	if strings.TrimSpace(scoped.Caller()) == "" {
		return ErrUnauthenticated
	}
	return nil
}
