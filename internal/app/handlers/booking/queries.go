package booking

import (
	"context"
	"fmt"

	"geargrab/internal/app/dto"
	"geargrab/internal/app/queries"
	bookingsvc "geargrab/internal/app/services/booking"
	domainbooking "geargrab/internal/domain/booking"
)

const (
	getBookingStatusKey = "booking.status"
	getBookingKey       = "booking.get"
	listBookingsKey     = "booking.list"
)

// GetBookingStatusQuery is answered for the booking parties and admins only.
type GetBookingStatusQuery struct {
	BookingID string `validate:"required"`
	ViewerID  string `validate:"required"`
	IsAdmin   bool
}

func (q GetBookingStatusQuery) Key() string { return getBookingStatusKey }

func (q GetBookingStatusQuery) Caller() string { return q.ViewerID }

type GetBookingStatusHandler struct {
	Service Lifecycle
}

func (h *GetBookingStatusHandler) Handle(ctx context.Context, q GetBookingStatusQuery) (dto.BookingStatusDTO, error) {
	b, err := loadVisible(ctx, h.Service, q.BookingID, q.ViewerID, q.IsAdmin)
	if err != nil {
		return dto.BookingStatusDTO{}, err
	}
	return dto.BookingStatusDTO{
		ID:            string(b.ID),
		Status:        string(b.Status),
		PaymentStatus: dto.MapPayments(b.Payments),
		Timeline:      dto.MapTimeline(b.Timeline),
	}, nil
}

type GetBookingQuery struct {
	BookingID string `validate:"required"`
	ViewerID  string `validate:"required"`
	IsAdmin   bool
}

func (q GetBookingQuery) Key() string { return getBookingKey }

func (q GetBookingQuery) Caller() string { return q.ViewerID }

type GetBookingHandler struct {
	Service Lifecycle
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (*dto.BookingDTO, error) {
	b, err := loadVisible(ctx, h.Service, q.BookingID, q.ViewerID, q.IsAdmin)
	if err != nil {
		return nil, err
	}
	return dto.MapBooking(b), nil
}

func loadVisible(ctx context.Context, svc Lifecycle, bookingID, viewerID string, isAdmin bool) (*domainbooking.Booking, error) {
	b, err := svc.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if _, ok := b.RoleOf(viewerID); !ok && !isAdmin {
		return nil, fmt.Errorf("%w: booking %s", bookingsvc.ErrForbidden, bookingID)
	}
	return b, nil
}

type ListBookingsQuery struct {
	UserID string `validate:"required"`
	Role   string `validate:"required,oneof=renter owner"`
}

func (q ListBookingsQuery) Key() string { return listBookingsKey }

func (q ListBookingsQuery) Caller() string { return q.UserID }

type ListBookingsHandler struct {
	Service Lifecycle
}

func (h *ListBookingsHandler) Handle(ctx context.Context, q ListBookingsQuery) (dto.BookingCollection, error) {
	role := domainbooking.ActorType(q.Role)
	items, err := h.Service.ListBookings(ctx, q.UserID, role)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	out := dto.BookingCollection{Items: make([]dto.BookingSummary, 0, len(items))}
	for _, b := range items {
		out.Items = append(out.Items, dto.MapBookingSummary(b, role))
	}
	return out, nil
}

var (
	_ queries.Handler[GetBookingStatusQuery, dto.BookingStatusDTO] = (*GetBookingStatusHandler)(nil)
	_ queries.Handler[GetBookingQuery, *dto.BookingDTO]            = (*GetBookingHandler)(nil)
	_ queries.Handler[ListBookingsQuery, dto.BookingCollection]    = (*ListBookingsHandler)(nil)
)
