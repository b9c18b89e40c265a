package dto

import (
	"time"

	domainbooking "geargrab/internal/domain/booking"
	"geargrab/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Formatted string `json:"formatted"`
}

type PricingDTO struct {
	DailyPrice      MoneyDTO `json:"daily_price"`
	Days            int      `json:"days"`
	BasePrice       MoneyDTO `json:"base_price"`
	ServiceFee      MoneyDTO `json:"service_fee"`
	TotalPrice      MoneyDTO `json:"total_price"`
	SecurityDeposit MoneyDTO `json:"security_deposit"`
}

type PaymentLegDTO struct {
	Status    string    `json:"status"`
	PaymentID string    `json:"payment_id,omitempty"`
	RefundID  string    `json:"refund_id,omitempty"`
	Amount    MoneyDTO  `json:"amount"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PaymentsDTO struct {
	Upfront         PaymentLegDTO `json:"upfront"`
	Rental          PaymentLegDTO `json:"rental"`
	SecurityDeposit PaymentLegDTO `json:"security_deposit"`
}

type TimelineEntryDTO struct {
	Timestamp   time.Time `json:"timestamp"`
	Event       string    `json:"event"`
	Description string    `json:"description"`
	Actor       string    `json:"actor"`
	ActorID     string    `json:"actor_id,omitempty"`
}

type BookingDTO struct {
	ID                 string             `json:"id"`
	ListingID          string             `json:"listing_id"`
	ListingTitle       string             `json:"listing_title"`
	OwnerID            string             `json:"owner_id"`
	RenterID           string             `json:"renter_id"`
	StartDate          time.Time          `json:"start_date"`
	EndDate            time.Time          `json:"end_date"`
	DeliveryMethod     string             `json:"delivery_method"`
	InsuranceTier      string             `json:"insurance_tier"`
	SpecialRequests    string             `json:"special_requests,omitempty"`
	Pricing            PricingDTO         `json:"pricing"`
	Status             string             `json:"status"`
	Payments           PaymentsDTO        `json:"payments"`
	Timeline           []TimelineEntryDTO `json:"timeline"`
	CancellationReason string             `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
	Version            int64              `json:"version"`
}

// BookingStatusDTO is the polling view of a booking.
type BookingStatusDTO struct {
	ID            string             `json:"id"`
	Status        string             `json:"status"`
	PaymentStatus PaymentsDTO        `json:"payment_status"`
	Timeline      []TimelineEntryDTO `json:"timeline"`
}

type BookingSummary struct {
	ID           string    `json:"id"`
	ListingID    string    `json:"listing_id"`
	ListingTitle string    `json:"listing_title"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Total        MoneyDTO  `json:"total"`
	CreatedAt    time.Time `json:"created_at"`
}

type BookingCollection struct {
	Items []BookingSummary `json:"items"`
}

type CheckoutDTO struct {
	BookingID    string   `json:"booking_id"`
	PaymentID    string   `json:"payment_id"`
	ClientSecret string   `json:"client_secret"`
	PaymentType  string   `json:"payment_type"`
	Amount       MoneyDTO `json:"amount"`
}

type RefundDTO struct {
	PaymentType string `json:"payment_type"`
	PaymentID   string `json:"payment_id"`
	RefundID    string `json:"refund_id,omitempty"`
	Failed      bool   `json:"failed"`
}

type CancelResultDTO struct {
	Booking *BookingDTO `json:"booking"`
	Refunds []RefundDTO `json:"refunds"`
}

type PaymentOutcomeDTO struct {
	BookingID string `json:"booking_id"`
	PaymentID string `json:"payment_id"`
	Applied   bool   `json:"applied"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		Amount:    value.Amount,
		Currency:  value.Currency,
		Formatted: value.String(),
	}
}

func MapPayments(p domainbooking.Payments) PaymentsDTO {
	return PaymentsDTO{
		Upfront:         mapLeg(p.Upfront),
		Rental:          mapLeg(p.Rental),
		SecurityDeposit: mapLeg(p.SecurityDeposit),
	}
}

func mapLeg(l domainbooking.PaymentLeg) PaymentLegDTO {
	return PaymentLegDTO{
		Status:    string(l.Status),
		PaymentID: l.PaymentID,
		RefundID:  l.RefundID,
		Amount:    MapMoney(l.Amount),
		UpdatedAt: l.UpdatedAt,
	}
}

func MapTimeline(entries []domainbooking.TimelineEntry) []TimelineEntryDTO {
	out := make([]TimelineEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, TimelineEntryDTO{
			Timestamp:   e.Timestamp,
			Event:       e.Event,
			Description: e.Description,
			Actor:       string(e.Actor),
			ActorID:     e.ActorID,
		})
	}
	return out
}

func MapBooking(b *domainbooking.Booking) *BookingDTO {
	if b == nil {
		return nil
	}
	return &BookingDTO{
		ID:              string(b.ID),
		ListingID:       string(b.ListingID),
		ListingTitle:    b.ListingTitle,
		OwnerID:         b.OwnerID,
		RenterID:        b.RenterID,
		StartDate:       b.Range.Start,
		EndDate:         b.Range.End,
		DeliveryMethod:  string(b.DeliveryMethod),
		InsuranceTier:   string(b.InsuranceTier),
		SpecialRequests: b.SpecialRequests,
		Pricing: PricingDTO{
			DailyPrice:      MapMoney(b.Pricing.DailyPrice),
			Days:            b.Pricing.Days,
			BasePrice:       MapMoney(b.Pricing.BasePrice),
			ServiceFee:      MapMoney(b.Pricing.ServiceFee),
			TotalPrice:      MapMoney(b.Pricing.TotalPrice),
			SecurityDeposit: MapMoney(b.Pricing.SecurityDeposit),
		},
		Status:             string(b.Status),
		Payments:           MapPayments(b.Payments),
		Timeline:           MapTimeline(b.Timeline),
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
		Version:            b.Version,
	}
}

func MapBookingSummary(b *domainbooking.Booking, role domainbooking.ActorType) BookingSummary {
	return BookingSummary{
		ID:           string(b.ID),
		ListingID:    string(b.ListingID),
		ListingTitle: b.ListingTitle,
		Role:         string(role),
		Status:       string(b.Status),
		StartDate:    b.Range.Start,
		EndDate:      b.Range.End,
		Total:        MapMoney(b.Pricing.TotalPrice),
		CreatedAt:    b.CreatedAt,
	}
}
