package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"geargrab/internal/domain/shared/daterange"
	"geargrab/internal/domain/shared/money"
)

var (
	ErrListingNotFound  = errors.New("listings: not found")
	ErrListingInactive  = errors.New("listings: listing is not available for booking")
	ErrDatesUnavailable = errors.New("listings: requested dates are outside the listing availability")
	ErrTitleRequired    = errors.New("listings: title is required")
	ErrOwnerRequired    = errors.New("listings: owner is required")
	ErrDailyPrice       = errors.New("listings: daily price must be positive")
	ErrDeposit          = errors.New("listings: security deposit must be non-negative")
)

type ListingID string

type ListingStatus string

const (
	ListingDraft    ListingStatus = "draft"
	ListingActive   ListingStatus = "active"
	ListingInactive ListingStatus = "inactive"
)

// Listing is the read model of a rentable item. Catalog management lives elsewhere;
// this service only reads listings to price and route bookings.
type Listing struct {
	ID              ListingID
	OwnerID         string
	Title           string
	Description     string
	Category        string
	Location        string
	DailyPrice      money.Money
	SecurityDeposit money.Money
	Status          ListingStatus
	// Availability holds the windows the owner opened for rental. Empty means always available.
	Availability []daterange.DateRange
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
}

type CreateListingParams struct {
	ID              ListingID
	OwnerID         string
	Title           string
	Description     string
	Category        string
	Location        string
	DailyPrice      money.Money
	SecurityDeposit money.Money
	Availability    []daterange.DateRange
	Now             time.Time
}

func NewListing(params CreateListingParams) (*Listing, error) {
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if strings.TrimSpace(params.OwnerID) == "" {
		return nil, ErrOwnerRequired
	}
	if !params.DailyPrice.IsPositive() {
		return nil, ErrDailyPrice
	}
	if params.SecurityDeposit.Amount < 0 {
		return nil, ErrDeposit
	}
	deposit := params.SecurityDeposit
	if deposit.Currency == "" {
		deposit = money.Zero(params.DailyPrice.Currency)
	}
	now := params.Now.UTC()
	return &Listing{
		ID:              params.ID,
		OwnerID:         strings.TrimSpace(params.OwnerID),
		Title:           strings.TrimSpace(params.Title),
		Description:     params.Description,
		Category:        params.Category,
		Location:        params.Location,
		DailyPrice:      params.DailyPrice,
		SecurityDeposit: deposit,
		Status:          ListingDraft,
		Availability:    append([]daterange.DateRange(nil), params.Availability...),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (l *Listing) Activate(now time.Time) {
	l.Status = ListingActive
	l.UpdatedAt = now.UTC()
}

func (l *Listing) IsActive() bool {
	return l.Status == ListingActive
}

// CheckBookable verifies the listing can be rented for the requested range.
func (l *Listing) CheckBookable(dr daterange.DateRange) error {
	if !l.IsActive() {
		return ErrListingInactive
	}
	if len(l.Availability) == 0 {
		return nil
	}
	for _, window := range l.Availability {
		if window.Contains(dr) {
			return nil
		}
	}
	return ErrDatesUnavailable
}
