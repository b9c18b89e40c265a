package daterange

import (
	"errors"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: end date must be after start date")
)

const day = 24 * time.Hour

// DateRange represents a half-open rental interval [Start, End).
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: start.UTC(), End: end.UTC()}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrInvalidRange
	}
	if !dr.End.After(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Days counts rental days, rounding any partial day up.
func (dr DateRange) Days() int {
	span := dr.End.Sub(dr.Start)
	if span <= 0 {
		return 0
	}
	days := int(span / day)
	if span%day != 0 {
		days++
	}
	return days
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.Start.Before(other.End) && other.Start.Before(dr.End)
}

// Contains reports whether other lies fully inside dr.
func (dr DateRange) Contains(other DateRange) bool {
	return !other.Start.Before(dr.Start) && !other.End.After(dr.End)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = t.UTC()
	return !t.Before(dr.Start) && t.Before(dr.End)
}

// StartDay truncates the start to its UTC calendar date.
func (dr DateRange) StartDay() time.Time {
	return CalendarDay(dr.Start)
}

func CalendarDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
