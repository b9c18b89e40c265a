package booking

import "fmt"

type Status string

const (
	StatusPendingPayment       Status = "pending_payment"
	StatusPendingOwnerApproval Status = "pending_owner_approval"
	StatusConfirmed            Status = "confirmed"
	StatusActive               Status = "active"
	StatusCompleted            Status = "completed"
	StatusCancelled            Status = "cancelled"
	StatusDisputed             Status = "disputed"
	StatusPaymentFailed        Status = "payment_failed"
)

var allStatuses = []Status{
	StatusPendingPayment,
	StatusPendingOwnerApproval,
	StatusConfirmed,
	StatusActive,
	StatusCompleted,
	StatusCancelled,
	StatusDisputed,
	StatusPaymentFailed,
}

var transitions = map[Status][]Status{
	StatusPendingPayment:       {StatusPendingOwnerApproval, StatusCancelled, StatusPaymentFailed},
	StatusPendingOwnerApproval: {StatusConfirmed, StatusCancelled, StatusPaymentFailed},
	StatusConfirmed:            {StatusActive, StatusCompleted, StatusCancelled, StatusDisputed, StatusPaymentFailed},
	StatusActive:               {StatusCompleted, StatusCancelled, StatusDisputed},
	StatusDisputed:             {StatusActive, StatusCompleted, StatusCancelled},
	StatusPaymentFailed:        {StatusPendingOwnerApproval, StatusConfirmed, StatusCancelled},
	StatusCompleted:            {},
	StatusCancelled:            {},
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return s, nil
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Statuses lists every known status in lifecycle order.
func Statuses() []Status {
	return append([]Status(nil), allStatuses...)
}
