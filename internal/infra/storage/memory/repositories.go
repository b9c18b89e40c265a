package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	domainbooking "geargrab/internal/domain/booking"
	domainlistings "geargrab/internal/domain/listings"
	"geargrab/internal/domain/shared/daterange"
)

// ListingRepository is an in-memory implementation for demo purposes.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		items: make(map[domainlistings.ListingID]*domainlistings.Listing),
	}
}

// ByID returns a copy of the listing or ErrListingNotFound.
func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrListingNotFound
	}
	clone := *listing
	clone.Availability = append([]daterange.DateRange(nil), listing.Availability...)
	return &clone, nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *listing
	clone.Availability = append([]daterange.DateRange(nil), listing.Availability...)
	r.items[listing.ID] = &clone
	return nil
}

// BookingRepository stores booking snapshots in memory with the same version check as
// the Mongo repository.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return cloneBooking(booking), nil
}

// Save writes the booking when the stored version still matches and bumps the version.
func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[booking.ID]
	switch {
	case ok && stored.Version != booking.Version:
		return domainbooking.ErrConcurrentUpdate
	case !ok && booking.Version != 0:
		return domainbooking.ErrConcurrentUpdate
	}
	booking.Version++
	r.items[booking.ID] = cloneBooking(booking)
	return nil
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renterID string) ([]*domainbooking.Booking, error) {
	return r.list(func(b *domainbooking.Booking) bool { return b.RenterID == strings.TrimSpace(renterID) })
}

func (r *BookingRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domainbooking.Booking, error) {
	return r.list(func(b *domainbooking.Booking) bool { return b.OwnerID == strings.TrimSpace(ownerID) })
}

func (r *BookingRepository) list(match func(*domainbooking.Booking) bool) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if match(booking) {
			matches = append(matches, cloneBooking(booking))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	clone := *b
	clone.ClearEvents()
	clone.Timeline = append([]domainbooking.TimelineEntry(nil), b.Timeline...)
	clone.ProcessedPayments = append([]string(nil), b.ProcessedPayments...)
	return &clone
}

var (
	_ domainbooking.Repository  = (*BookingRepository)(nil)
	_ domainlistings.Repository = (*ListingRepository)(nil)
)
