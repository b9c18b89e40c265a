package middleware

import (
	"context"

	"geargrab/internal/app/commands"
	"geargrab/internal/app/queries"
)

// Authorizer decides whether a message may run for the caller it carries.
type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// Validator checks a message before any handler sees it.
type Validator interface {
	Validate(ctx context.Context, message any) error
}

type check func(ctx context.Context, message any) error

// guard runs c before the wrapped bus and stops the message when it fails.
func guard(c check) (CommandMiddleware, QueryMiddleware) {
	cmd := func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, msg commands.Command) (any, error) {
			if err := c(ctx, msg); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, msg)
		})
	}
	query := func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := c(ctx, q); err != nil {
				return nil, err
			}
			return next.Ask(ctx, q)
		})
	}
	return cmd, query
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	cmd, _ := guard(a.Authorize)
	return cmd
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	_, query := guard(a.Authorize)
	return query
}

func Validation(v Validator) CommandMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	cmd, _ := guard(v.Validate)
	return cmd
}

func QueryValidation(v Validator) QueryMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	_, query := guard(v.Validate)
	return query
}
