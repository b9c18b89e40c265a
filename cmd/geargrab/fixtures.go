package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	domainlistings "geargrab/internal/domain/listings"
	"geargrab/internal/domain/shared/daterange"
	"geargrab/internal/domain/shared/money"
	domainuser "geargrab/internal/domain/user"
)

type fixtureFile struct {
	Users    []userFixture    `json:"users"`
	Listings []listingFixture `json:"listings"`
}

type userFixture struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type listingFixture struct {
	ID                   string          `json:"id"`
	OwnerID              string          `json:"owner_id"`
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	Category             string          `json:"category"`
	Location             string          `json:"location"`
	Currency             string          `json:"currency"`
	DailyPriceCents      int64           `json:"daily_price_cents"`
	SecurityDepositCents int64           `json:"security_deposit_cents"`
	Availability         []periodFixture `json:"availability"`
	Inactive             bool            `json:"inactive"`
}

type periodFixture struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// loadFixtures seeds users and listings, which are owned by other services in production.
func loadFixtures(ctx context.Context, path, currency string, st stores, logger *slog.Logger) error {
	if path == "" {
		path = defaultFixturesPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("fixtures file empty", "path", path)
		return nil
	}
	var fx fixtureFile
	if err := json.Unmarshal(data, &fx); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	for _, u := range fx.Users {
		user, err := domainuser.New(domainuser.ID(u.ID), u.Email, u.DisplayName)
		if err != nil {
			logger.Error("fixture user invalid", "user_id", u.ID, "error", err)
			continue
		}
		if err := st.users.Save(ctx, user); err != nil {
			logger.Error("cannot store fixture user", "user_id", u.ID, "error", err)
		}
	}

	now := time.Now().UTC()
	imported := 0
	for _, l := range fx.Listings {
		listing, err := l.toListing(now, currency)
		if err != nil {
			logger.Error("fixture invalid", "listing_id", l.ID, "error", err)
			continue
		}
		if err := st.listings.Save(ctx, listing); err != nil {
			logger.Error("cannot store fixture listing", "listing_id", l.ID, "error", err)
			continue
		}
		imported++
	}
	logger.Info("fixtures imported", "users", len(fx.Users), "listings", imported, "path", path)
	return nil
}

func (l listingFixture) toListing(now time.Time, fallbackCurrency string) (*domainlistings.Listing, error) {
	currency := strings.ToUpper(l.Currency)
	if currency == "" {
		currency = fallbackCurrency
	}
	daily, err := money.New(l.DailyPriceCents, currency)
	if err != nil {
		return nil, err
	}
	deposit, err := money.New(l.SecurityDepositCents, currency)
	if err != nil {
		return nil, err
	}
	periods := make([]daterange.DateRange, 0, len(l.Availability))
	for _, p := range l.Availability {
		start, err := time.Parse(time.DateOnly, p.Start)
		if err != nil {
			return nil, fmt.Errorf("availability start: %w", err)
		}
		end, err := time.Parse(time.DateOnly, p.End)
		if err != nil {
			return nil, fmt.Errorf("availability end: %w", err)
		}
		dr, err := daterange.New(start, end)
		if err != nil {
			return nil, err
		}
		periods = append(periods, dr)
	}
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:              domainlistings.ListingID(l.ID),
		OwnerID:         l.OwnerID,
		Title:           l.Title,
		Description:     l.Description,
		Category:        l.Category,
		Location:        l.Location,
		DailyPrice:      daily,
		SecurityDeposit: deposit,
		Availability:    periods,
		Now:             now,
	})
	if err != nil {
		return nil, err
	}
	if !l.Inactive {
		listing.Activate(now)
	}
	return listing, nil
}

func defaultFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "fixtures.json"),
		filepath.Join("..", "..", "data", "fixtures.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
