package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"geargrab/internal/app/middleware"
	bookingapp "geargrab/internal/app/handlers/booking"
	bookingsvc "geargrab/internal/app/services/booking"
	domainbooking "geargrab/internal/domain/booking"
	domainlistings "geargrab/internal/domain/listings"
	domainpricing "geargrab/internal/domain/pricing"
	"geargrab/internal/domain/shared/daterange"
	"geargrab/internal/infra/validation"
)

// statusFor maps service errors onto HTTP statuses. Upstream failures get a generic
// message; their detail only goes to the log.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domainbooking.ErrBookingNotFound),
		errors.Is(err, domainlistings.ErrListingNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, bookingapp.ErrUnauthenticated):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, bookingsvc.ErrForbidden),
		errors.Is(err, domainbooking.ErrNotOwner),
		errors.Is(err, domainbooking.ErrNotRenter),
		errors.Is(err, domainbooking.ErrNotParticipant),
		errors.Is(err, domainbooking.ErrSelfBooking):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, bookingsvc.ErrPaymentGateway),
		errors.Is(err, bookingsvc.ErrSchedulingFailed),
		errors.Is(err, bookingsvc.ErrRefundIncomplete):
		return http.StatusBadGateway, "upstream service unavailable, please retry"
	case errors.Is(err, domainbooking.ErrInvalidTransition),
		errors.Is(err, domainbooking.ErrConcurrentUpdate),
		errors.Is(err, domainbooking.ErrPaymentNotAllowed),
		errors.Is(err, domainbooking.ErrUpfrontRequired),
		errors.Is(err, domainbooking.ErrNothingToCharge),
		errors.Is(err, domainlistings.ErrListingInactive),
		errors.Is(err, domainlistings.ErrDatesUnavailable),
		errors.Is(err, middleware.ErrIdempotencyKeyReused):
		return http.StatusConflict, err.Error()
	case isValidationError(err):
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

func isValidationError(err error) bool {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs),
		errors.Is(err, validation.ErrInvalid),
		errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, domainbooking.ErrStartInPast),
		errors.Is(err, domainbooking.ErrUnknownStatus),
		errors.Is(err, domainbooking.ErrUnknownPaymentType),
		errors.Is(err, domainbooking.ErrInvalidDelivery),
		errors.Is(err, domainbooking.ErrInvalidInsurance),
		errors.Is(err, domainbooking.ErrSpecialRequestLimit),
		errors.Is(err, domainpricing.ErrInvalidDays):
		return true
	}
	return false
}

func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status, msg := statusFor(err)
	if logger != nil {
		fields := []any{"status", status, "error", err, "path", c.FullPath(), "request_id", c.GetString("request_id")}
		if p, ok := currentPrincipal(c); ok {
			fields = append(fields, "user_id", p.ID)
		}
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "booking request failed", fields...)
	}
	c.JSON(status, gin.H{"error": msg})
}
