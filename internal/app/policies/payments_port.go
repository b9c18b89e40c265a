package policies

import (
	"context"
	"errors"

	"geargrab/internal/domain/shared/money"
)

// ErrGatewayUnavailable wraps any failure reported by the payment provider.
var ErrGatewayUnavailable = errors.New("payments: gateway request failed")

const (
	MetadataBookingID   = "bookingId"
	MetadataListingID   = "listingId"
	MetadataRenterID    = "renterId"
	MetadataOwnerID     = "ownerId"
	MetadataPaymentType = "paymentType"
)

type ChargeRequest struct {
	Amount         money.Money
	Description    string
	Metadata       map[string]string
	IdempotencyKey string
	ReceiptEmail   string
}

type Charge struct {
	ID           string
	Status       string
	ClientSecret string
}

type RefundRequest struct {
	PaymentID      string
	Amount         money.Money
	Reason         string
	IdempotencyKey string
}

type Refund struct {
	ID        string
	PaymentID string
	Amount    money.Money
	Status    string
}

// PaymentGateway charges and refunds booking legs.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (Charge, error)
	Refund(ctx context.Context, req RefundRequest) (Refund, error)
}

// PaymentResult is the outcome the gateway reports asynchronously for a charge.
type PaymentResult struct {
	EventID       string
	PaymentID     string
	BookingID     string
	PaymentType   string
	Amount        money.Money
	FailureReason string
}
