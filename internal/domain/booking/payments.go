package booking

import (
	"fmt"
	"time"

	"geargrab/internal/domain/shared/money"
)

// PaymentType names one of the three independently charged legs of a booking.
type PaymentType string

const (
	PaymentUpfront         PaymentType = "upfront"
	PaymentRental          PaymentType = "rental"
	PaymentSecurityDeposit PaymentType = "security_deposit"
)

func ParsePaymentType(raw string) (PaymentType, error) {
	switch t := PaymentType(raw); t {
	case PaymentUpfront, PaymentRental, PaymentSecurityDeposit:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPaymentType, raw)
}

type LegStatus string

const (
	LegPending  LegStatus = "pending"
	LegPaid     LegStatus = "paid"
	LegHeld     LegStatus = "held"
	LegRefunded LegStatus = "refunded"
	LegFailed   LegStatus = "failed"
	LegReleased LegStatus = "released"
)

type PaymentLeg struct {
	Status    LegStatus   `json:"status"`
	PaymentID string      `json:"paymentId,omitempty"`
	RefundID  string      `json:"refundId,omitempty"`
	Amount    money.Money `json:"amount"`
	UpdatedAt time.Time   `json:"updatedAt"`
	// AfterClose marks funds collected once the booking could no longer use them.
	AfterClose bool `json:"afterClose,omitempty"`
}

// Collected reports whether the gateway currently holds money for this leg.
func (l PaymentLeg) Collected() bool {
	return l.Status == LegPaid || l.Status == LegHeld
}

type Payments struct {
	Upfront         PaymentLeg `json:"upfront"`
	Rental          PaymentLeg `json:"rental"`
	SecurityDeposit PaymentLeg `json:"securityDeposit"`
}

func (p *Payments) Leg(t PaymentType) (*PaymentLeg, error) {
	switch t {
	case PaymentUpfront:
		return &p.Upfront, nil
	case PaymentRental:
		return &p.Rental, nil
	case PaymentSecurityDeposit:
		return &p.SecurityDeposit, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPaymentType, t)
}

// collectedStatus is the status a leg takes after a successful charge.
func collectedStatus(t PaymentType) LegStatus {
	if t == PaymentSecurityDeposit {
		return LegHeld
	}
	return LegPaid
}

// returnedStatus is the status a leg takes once its money went back to the renter.
func returnedStatus(t PaymentType) LegStatus {
	if t == PaymentSecurityDeposit {
		return LegReleased
	}
	return LegRefunded
}
