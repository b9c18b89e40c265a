package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"geargrab/internal/app/middleware"
	domainbooking "geargrab/internal/domain/booking"
)

// ErrInvalid wraps every validation failure so the HTTP layer can map it to 400.
var ErrInvalid = errors.New("validation failed")

// Validator checks struct tags on bus messages and request payloads.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := Register(v); err != nil {
		panic(err)
	}
	return &Validator{v: v}
}

// Register installs the booking-specific tags on v. It is also applied to gin's binding engine.
func Register(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"booking_status": func(fl validator.FieldLevel) bool {
			return domainbooking.Status(fl.Field().String()).Valid()
		},
		"payment_type": func(fl validator.FieldLevel) bool {
			_, err := domainbooking.ParsePaymentType(fl.Field().String())
			return err == nil
		},
		"actor_type": func(fl validator.FieldLevel) bool {
			return domainbooking.ActorType(fl.Field().String()).Valid()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("validation: register %s: %w", tag, err)
		}
	}
	return nil
}

func (v *Validator) Validate(ctx context.Context, message any) error {
	err := v.v.StructCtx(ctx, message)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return nil
		}
		return err
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(parts, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "email":
		return field + " must be a valid email"
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}

var _ middleware.Validator = (*Validator)(nil)
