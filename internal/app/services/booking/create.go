package booking

import (
	"context"
	"strings"
	"time"

	domainbooking "geargrab/internal/domain/booking"
	domainlistings "geargrab/internal/domain/listings"
	"geargrab/internal/domain/shared/daterange"
)

type CreateRequest struct {
	ListingID       string
	RenterID        string
	StartDate       time.Time
	EndDate         time.Time
	DeliveryMethod  string
	InsuranceTier   string
	SpecialRequests string
}

// CreateBooking prices the listing for the requested dates and stores a booking awaiting
// its upfront payment. Nothing is written when validation fails.
func (s *Service) CreateBooking(ctx context.Context, req CreateRequest) (_ *domainbooking.Booking, err error) {
	ctx, span := s.startSpan(ctx, "booking.create", "")
	defer func() { endSpan(span, err) }()

	if s.Bookings == nil || s.Listings == nil {
		return nil, ErrNotConfigured
	}
	dr, err := daterange.New(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := domainbooking.ValidateRequestedRange(dr, now); err != nil {
		return nil, err
	}

	listing, err := s.Listings.ByID(ctx, domainlistings.ListingID(strings.TrimSpace(req.ListingID)))
	if err != nil {
		return nil, err
	}
	if err := listing.CheckBookable(dr); err != nil {
		return nil, err
	}
	quote, err := s.Pricing.QuoteListing(listing, dr)
	if err != nil {
		return nil, err
	}

	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:              domainbooking.BookingID(s.newID()),
		Listing:         listing,
		RenterID:        req.RenterID,
		Range:           dr,
		DeliveryMethod:  domainbooking.DeliveryMethod(strings.ToLower(strings.TrimSpace(req.DeliveryMethod))),
		InsuranceTier:   domainbooking.InsuranceTier(strings.ToLower(strings.TrimSpace(req.InsuranceTier))),
		SpecialRequests: req.SpecialRequests,
		Pricing:         quote,
		CreatedAt:       now,
	})
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}
	s.logger().InfoContext(ctx, "booking created",
		"booking_id", b.ID,
		"listing_id", b.ListingID,
		"renter_id", b.RenterID,
		"days", quote.Days,
		"total", quote.TotalPrice.String(),
	)
	return b, nil
}
