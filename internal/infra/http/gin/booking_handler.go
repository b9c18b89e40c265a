package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"geargrab/internal/app/commands"
	"geargrab/internal/app/dto"
	bookingapp "geargrab/internal/app/handlers/booking"
	"geargrab/internal/app/queries"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	List(c *gin.Context)
	Status(c *gin.Context)
	Details(c *gin.Context)
	UpdateStatus(c *gin.Context)
	Approve(c *gin.Context)
	Cancel(c *gin.Context)
	Complete(c *gin.Context)
	Checkout(c *gin.Context)
}

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	ListingID       string `json:"listing_id" binding:"required"`
	StartDate       string `json:"start_date" binding:"required"`
	EndDate         string `json:"end_date" binding:"required"`
	DeliveryMethod  string `json:"delivery_method" binding:"omitempty,oneof=pickup delivery"`
	InsuranceTier   string `json:"insurance_tier" binding:"omitempty,oneof=none basic premium"`
	SpecialRequests string `json:"special_requests" binding:"max=2000"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required,booking_status"`
	Notes  string `json:"notes" binding:"max=1000"`
	As     string `json:"as" binding:"omitempty,oneof=renter owner"`
}

type cancelRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
	As     string `json:"as" binding:"omitempty,oneof=renter owner"`
}

type checkoutRequest struct {
	PaymentType string `json:"payment_type" binding:"required,payment_type"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("start_date: %v", err)})
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("end_date: %v", err)})
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		ListingID:       req.ListingID,
		RenterID:        user.ID,
		StartDate:       start,
		EndDate:         end,
		DeliveryMethod:  req.DeliveryMethod,
		InsuranceTier:   req.InsuranceTier,
		SpecialRequests: req.SpecialRequests,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.BookingDTO](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) List(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	query := bookingapp.ListBookingsQuery{UserID: user.ID, Role: c.DefaultQuery("role", "renter")}
	result, err := queries.Ask[bookingapp.ListBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Status(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	query := bookingapp.GetBookingStatusQuery{BookingID: c.Param("id"), ViewerID: user.ID, IsAdmin: user.Admin}
	result, err := queries.Ask[bookingapp.GetBookingStatusQuery, dto.BookingStatusDTO](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Details(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	query := bookingapp.GetBookingQuery{BookingID: c.Param("id"), ViewerID: user.ID, IsAdmin: user.Admin}
	result, err := queries.Ask[bookingapp.GetBookingQuery, *dto.BookingDTO](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) UpdateStatus(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.UpdateBookingStatusCommand{
		BookingID: c.Param("id"),
		Status:    req.Status,
		ActorID:   user.ID,
		ActorType: actorType(user, req.As),
		Notes:     req.Notes,
	}
	h.dispatchBooking(c, cmd)
}

func (h BookingHandler) Approve(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	h.dispatchBooking(c, bookingapp.ApproveBookingCommand{BookingID: c.Param("id"), OwnerID: user.ID})
}

func (h BookingHandler) Complete(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	h.dispatchBooking(c, bookingapp.CompleteBookingCommand{BookingID: c.Param("id"), UserID: user.ID})
}

func (h BookingHandler) Cancel(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req cancelRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	cmd := bookingapp.CancelBookingCommand{
		BookingID: c.Param("id"),
		UserID:    user.ID,
		UserType:  actorType(user, req.As),
		Reason:    req.Reason,
	}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *dto.CancelResultDTO](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Checkout(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.StartPaymentCommand{
		BookingID:       c.Param("id"),
		RenterID:        user.ID,
		PaymentType:     req.PaymentType,
		Email:           user.Email,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.StartPaymentCommand, *dto.CheckoutDTO](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) dispatchBooking(c *gin.Context, cmd commands.Command) {
	res, err := h.Commands.Dispatch(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// actorType picks the role a caller acts in. Admins always act as admin; parties say
// which side they are on and default to renter.
func actorType(p principal, as string) string {
	if p.Admin {
		return "admin"
	}
	if as == "" {
		return "renter"
	}
	return as
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or RFC 3339, got %q", raw)
	}
	return t.UTC(), nil
}

var _ BookingHTTP = BookingHandler{}
