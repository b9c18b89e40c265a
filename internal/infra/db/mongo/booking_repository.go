package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "geargrab/internal/domain/booking"
	"geargrab/internal/domain/listings"
	domainpricing "geargrab/internal/domain/pricing"
	"geargrab/internal/domain/shared/daterange"
	"geargrab/internal/domain/shared/money"
)

const bookingCollection = "agg_booking"

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(bookingCollection)}
}

func ensureBookingIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(bookingCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "renter_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save replaces the document only while its stored version equals b.Version. A new
// booking (version 0) is inserted through the upsert; a duplicate _id means another
// writer got there first.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainbooking.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renterID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"renter_id": renterID})
}

func (r *BookingRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"owner_id": ownerID})
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

type bookingDocument struct {
	ID                 string             `bson:"_id"`
	ListingID          string             `bson:"listing_id"`
	ListingTitle       string             `bson:"listing_title"`
	OwnerID            string             `bson:"owner_id"`
	RenterID           string             `bson:"renter_id"`
	Range              rangeDocument      `bson:"range"`
	DeliveryMethod     string             `bson:"delivery_method"`
	InsuranceTier      string             `bson:"insurance_tier"`
	SpecialRequests    string             `bson:"special_requests,omitempty"`
	Pricing            pricingDocument    `bson:"pricing"`
	Status             string             `bson:"status"`
	Payments           paymentsDocument   `bson:"payments"`
	Timeline           []timelineDocument `bson:"timeline"`
	ProcessedPayments  []string           `bson:"processed_payments"`
	CancellationReason string             `bson:"cancellation_reason,omitempty"`
	ResumeStatus       string             `bson:"resume_status,omitempty"`
	CreatedAt          int64              `bson:"created_at"`
	UpdatedAt          int64              `bson:"updated_at"`
	Version            int64              `bson:"version"`
}

type pricingDocument struct {
	DailyPrice      documentMoney `bson:"daily_price"`
	Days            int           `bson:"days"`
	BasePrice       documentMoney `bson:"base_price"`
	ServiceFee      documentMoney `bson:"service_fee"`
	TotalPrice      documentMoney `bson:"total_price"`
	SecurityDeposit documentMoney `bson:"security_deposit"`
}

type legDocument struct {
	Status     string        `bson:"status"`
	PaymentID  string        `bson:"payment_id,omitempty"`
	RefundID   string        `bson:"refund_id,omitempty"`
	Amount     documentMoney `bson:"amount"`
	UpdatedAt  int64         `bson:"updated_at"`
	AfterClose bool          `bson:"after_close,omitempty"`
}

type paymentsDocument struct {
	Upfront         legDocument `bson:"upfront"`
	Rental          legDocument `bson:"rental"`
	SecurityDeposit legDocument `bson:"security_deposit"`
}

type timelineDocument struct {
	Timestamp   int64  `bson:"ts"`
	Event       string `bson:"event"`
	Description string `bson:"description"`
	Actor       string `bson:"actor"`
	ActorID     string `bson:"actor_id,omitempty"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	timeline := make([]timelineDocument, 0, len(b.Timeline))
	for _, e := range b.Timeline {
		timeline = append(timeline, timelineDocument{
			Timestamp:   timeToTimestamp(e.Timestamp),
			Event:       e.Event,
			Description: e.Description,
			Actor:       string(e.Actor),
			ActorID:     e.ActorID,
		})
	}
	processed := b.ProcessedPayments
	if processed == nil {
		processed = []string{}
	}
	return bookingDocument{
		ID:                 string(b.ID),
		ListingID:          string(b.ListingID),
		ListingTitle:       b.ListingTitle,
		OwnerID:            b.OwnerID,
		RenterID:           b.RenterID,
		Range:              rangeDocument{Start: timeToTimestamp(b.Range.Start), End: timeToTimestamp(b.Range.End)},
		DeliveryMethod:     string(b.DeliveryMethod),
		InsuranceTier:      string(b.InsuranceTier),
		SpecialRequests:    b.SpecialRequests,
		Pricing:            newPricingDocument(b.Pricing),
		Status:             string(b.Status),
		Payments:           newPaymentsDocument(b.Payments),
		Timeline:           timeline,
		ProcessedPayments:  processed,
		CancellationReason: b.CancellationReason,
		ResumeStatus:       string(b.ResumeStatus),
		CreatedAt:          timeToTimestamp(b.CreatedAt),
		UpdatedAt:          timeToTimestamp(b.UpdatedAt),
		Version:            b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	timeline := make([]domainbooking.TimelineEntry, 0, len(d.Timeline))
	for _, e := range d.Timeline {
		timeline = append(timeline, domainbooking.TimelineEntry{
			Timestamp:   timestampToTime(e.Timestamp),
			Event:       e.Event,
			Description: e.Description,
			Actor:       domainbooking.ActorType(e.Actor),
			ActorID:     e.ActorID,
		})
	}
	return &domainbooking.Booking{
		ID:                 domainbooking.BookingID(d.ID),
		ListingID:          listings.ListingID(d.ListingID),
		ListingTitle:       d.ListingTitle,
		OwnerID:            d.OwnerID,
		RenterID:           d.RenterID,
		Range:              daterange.DateRange{Start: timestampToTime(d.Range.Start), End: timestampToTime(d.Range.End)},
		DeliveryMethod:     domainbooking.DeliveryMethod(d.DeliveryMethod),
		InsuranceTier:      domainbooking.InsuranceTier(d.InsuranceTier),
		SpecialRequests:    d.SpecialRequests,
		Pricing:            d.Pricing.toQuote(),
		Status:             domainbooking.Status(d.Status),
		Payments:           d.Payments.toPayments(),
		Timeline:           timeline,
		ProcessedPayments:  append([]string(nil), d.ProcessedPayments...),
		CancellationReason: d.CancellationReason,
		ResumeStatus:       domainbooking.Status(d.ResumeStatus),
		CreatedAt:          timestampToTime(d.CreatedAt),
		UpdatedAt:          timestampToTime(d.UpdatedAt),
		Version:            d.Version,
	}
}

func moneyDoc(m money.Money) documentMoney {
	return documentMoney{Amount: m.Amount, Currency: m.Currency}
}

func (d documentMoney) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

func newPricingDocument(q domainpricing.Quote) pricingDocument {
	return pricingDocument{
		DailyPrice:      moneyDoc(q.DailyPrice),
		Days:            q.Days,
		BasePrice:       moneyDoc(q.BasePrice),
		ServiceFee:      moneyDoc(q.ServiceFee),
		TotalPrice:      moneyDoc(q.TotalPrice),
		SecurityDeposit: moneyDoc(q.SecurityDeposit),
	}
}

func (d pricingDocument) toQuote() domainpricing.Quote {
	return domainpricing.Quote{
		DailyPrice:      d.DailyPrice.toMoney(),
		Days:            d.Days,
		BasePrice:       d.BasePrice.toMoney(),
		ServiceFee:      d.ServiceFee.toMoney(),
		TotalPrice:      d.TotalPrice.toMoney(),
		SecurityDeposit: d.SecurityDeposit.toMoney(),
	}
}

func newLegDocument(l domainbooking.PaymentLeg) legDocument {
	return legDocument{
		Status:     string(l.Status),
		PaymentID:  l.PaymentID,
		RefundID:   l.RefundID,
		Amount:     moneyDoc(l.Amount),
		UpdatedAt:  timeToTimestamp(l.UpdatedAt),
		AfterClose: l.AfterClose,
	}
}

func (d legDocument) toLeg() domainbooking.PaymentLeg {
	return domainbooking.PaymentLeg{
		Status:     domainbooking.LegStatus(d.Status),
		PaymentID:  d.PaymentID,
		RefundID:   d.RefundID,
		Amount:     d.Amount.toMoney(),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
		AfterClose: d.AfterClose,
	}
}

func newPaymentsDocument(p domainbooking.Payments) paymentsDocument {
	return paymentsDocument{
		Upfront:         newLegDocument(p.Upfront),
		Rental:          newLegDocument(p.Rental),
		SecurityDeposit: newLegDocument(p.SecurityDeposit),
	}
}

func (d paymentsDocument) toPayments() domainbooking.Payments {
	return domainbooking.Payments{
		Upfront:         d.Upfront.toLeg(),
		Rental:          d.Rental.toLeg(),
		SecurityDeposit: d.SecurityDeposit.toLeg(),
	}
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
