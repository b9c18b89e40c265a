package booking

import (
	"errors"
	"time"

	"geargrab/internal/domain/shared/daterange"
)

var ErrStartInPast = errors.New("booking: start date is in the past")

// ValidateRequestedRange rejects rentals that begin before today (UTC).
func ValidateRequestedRange(dr daterange.DateRange, now time.Time) error {
	if dr.StartDay().Before(daterange.CalendarDay(now)) {
		return ErrStartInPast
	}
	return nil
}
