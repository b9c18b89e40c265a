package ginserver

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"geargrab/internal/app/commands"
	"geargrab/internal/app/dto"
	bookingapp "geargrab/internal/app/handlers/booking"
	"geargrab/internal/app/policies"
	"geargrab/internal/infra/payments/stripepay"
)

const maxWebhookBody = 64 << 10

type WebhookHTTP interface {
	Stripe(c *gin.Context)
}

// WebhookHandler receives Stripe events. The signature authenticates the call; the inbox
// drops redeliveries of an event that was already applied.
type WebhookHandler struct {
	Commands commands.Bus
	Inbox    policies.Inbox
	Secret   string
	Logger   *slog.Logger
}

func (h WebhookHandler) Stripe(c *gin.Context) {
	ctx := c.Request.Context()
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not read body"})
		return
	}
	event, err := stripepay.ParseWebhook(payload, c.GetHeader("Stripe-Signature"), h.Secret)
	if err != nil {
		h.log().WarnContext(ctx, "stripe webhook rejected", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		return
	}
	if event.Outcome == stripepay.OutcomeIgnored {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, event.ID)
		if err != nil {
			h.log().ErrorContext(ctx, "webhook inbox unavailable", "event_id", event.ID, "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "try again"})
			return
		}
		if seen {
			c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
			return
		}
	}

	outcome := bookingapp.PaymentSucceeded
	if event.Outcome == stripepay.OutcomeFailed {
		outcome = bookingapp.PaymentFailed
	}
	cmd := bookingapp.ProcessPaymentCommand{Outcome: outcome, Result: event.Result}
	result, err := commands.Dispatch[bookingapp.ProcessPaymentCommand, *dto.PaymentOutcomeDTO](ctx, h.Commands, cmd)
	if err != nil {
		status, _ := statusFor(err)
		if status < http.StatusInternalServerError && status != http.StatusConflict {
			// Redelivery cannot fix a missing booking or a malformed leg.
			h.log().WarnContext(ctx, "stripe webhook not applicable", "event_id", event.ID, "payment_id", event.Result.PaymentID, "error", err)
			c.JSON(http.StatusOK, gin.H{"received": true, "applied": false})
			return
		}
		if h.Inbox != nil {
			if ferr := h.Inbox.Forget(ctx, event.ID); ferr != nil {
				err = errors.Join(err, ferr)
			}
		}
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "applied": result.Applied})
}

func (h WebhookHandler) log() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.New(slog.DiscardHandler)
}

var _ WebhookHTTP = WebhookHandler{}
