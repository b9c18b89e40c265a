package pricing

import (
	"errors"

	"geargrab/internal/domain/listings"
	"geargrab/internal/domain/shared/daterange"
	"geargrab/internal/domain/shared/money"
)

var (
	ErrInvalidDays     = errors.New("pricing: rental must last at least one day")
	ErrNegativePrice   = errors.New("pricing: daily price cannot be negative")
	ErrNegativeFeeRate = errors.New("pricing: service fee rate cannot be negative")
	ErrCurrencyUnset   = errors.New("pricing: currency must be defined")
)

// DefaultServiceFeeBps is the marketplace fee (15%) charged on top of the base price.
const DefaultServiceFeeBps int64 = 1500

// Quote is the price snapshot frozen on a booking at creation.
type Quote struct {
	DailyPrice      money.Money `json:"dailyPrice"`
	Days            int         `json:"days"`
	BasePrice       money.Money `json:"basePrice"`
	ServiceFee      money.Money `json:"serviceFee"`
	TotalPrice      money.Money `json:"totalPrice"`
	SecurityDeposit money.Money `json:"securityDeposit"`
}

// Calculate prices a rental: base = daily × days, fee = base × rate rounded half up
// to the cent, total = base + fee.
func Calculate(dailyPrice money.Money, days int, feeBps int64) (Quote, error) {
	if dailyPrice.Currency == "" {
		return Quote{}, ErrCurrencyUnset
	}
	if days <= 0 {
		return Quote{}, ErrInvalidDays
	}
	if dailyPrice.Amount < 0 {
		return Quote{}, ErrNegativePrice
	}
	if feeBps < 0 {
		return Quote{}, ErrNegativeFeeRate
	}
	base := dailyPrice.Multiply(int64(days))
	fee, err := base.ApplyRate(feeBps)
	if err != nil {
		return Quote{}, err
	}
	total, err := base.Add(fee)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		DailyPrice:      dailyPrice,
		Days:            days,
		BasePrice:       base,
		ServiceFee:      fee,
		TotalPrice:      total,
		SecurityDeposit: money.Zero(dailyPrice.Currency),
	}, nil
}

// Calculator binds the fee rate so callers can quote listings directly.
type Calculator struct {
	ServiceFeeBps int64
}

func NewCalculator(feeBps int64) Calculator {
	return Calculator{ServiceFeeBps: feeBps}
}

// QuoteListing prices the listing for the range and carries its security deposit.
func (c Calculator) QuoteListing(listing *listings.Listing, dr daterange.DateRange) (Quote, error) {
	q, err := Calculate(listing.DailyPrice, dr.Days(), c.ServiceFeeBps)
	if err != nil {
		return Quote{}, err
	}
	if listing.SecurityDeposit.Currency != "" {
		q.SecurityDeposit = listing.SecurityDeposit
	}
	return q, nil
}
