package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "geargrab/internal/domain/listings"
	"geargrab/internal/domain/shared/daterange"
)

// ListingRepository reads the listing catalog. Save exists for fixture loading.
type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection("listings")}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrListingNotFound
		}
		return nil, err
	}
	return doc.toListing(), nil
}

func (r *ListingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	doc := newListingDocument(l)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

type listingDocument struct {
	ID              string          `bson:"_id"`
	OwnerID         string          `bson:"owner_id"`
	Title           string          `bson:"title"`
	Description     string          `bson:"description,omitempty"`
	Category        string          `bson:"category,omitempty"`
	Location        string          `bson:"location,omitempty"`
	DailyPrice      documentMoney   `bson:"daily_price"`
	SecurityDeposit documentMoney   `bson:"security_deposit"`
	Status          string          `bson:"status"`
	Availability    []rangeDocument `bson:"availability,omitempty"`
	CreatedAt       int64           `bson:"created_at"`
	UpdatedAt       int64           `bson:"updated_at"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	windows := make([]rangeDocument, 0, len(l.Availability))
	for _, w := range l.Availability {
		windows = append(windows, rangeDocument{Start: timeToTimestamp(w.Start), End: timeToTimestamp(w.End)})
	}
	return listingDocument{
		ID:              string(l.ID),
		OwnerID:         l.OwnerID,
		Title:           l.Title,
		Description:     l.Description,
		Category:        l.Category,
		Location:        l.Location,
		DailyPrice:      moneyDoc(l.DailyPrice),
		SecurityDeposit: moneyDoc(l.SecurityDeposit),
		Status:          string(l.Status),
		Availability:    windows,
		CreatedAt:       timeToTimestamp(l.CreatedAt),
		UpdatedAt:       timeToTimestamp(l.UpdatedAt),
	}
}

func (d listingDocument) toListing() *domainlistings.Listing {
	var windows []daterange.DateRange
	for _, w := range d.Availability {
		windows = append(windows, daterange.DateRange{Start: timestampToTime(w.Start), End: timestampToTime(w.End)})
	}
	return &domainlistings.Listing{
		ID:              domainlistings.ListingID(d.ID),
		OwnerID:         d.OwnerID,
		Title:           d.Title,
		Description:     d.Description,
		Category:        d.Category,
		Location:        d.Location,
		DailyPrice:      d.DailyPrice.toMoney(),
		SecurityDeposit: d.SecurityDeposit.toMoney(),
		Status:          domainlistings.ListingStatus(d.Status),
		Availability:    windows,
		CreatedAt:       timestampToTime(d.CreatedAt),
		UpdatedAt:       timestampToTime(d.UpdatedAt),
	}
}

var _ domainlistings.Repository = (*ListingRepository)(nil)
