// Package entity defines the domain models for the prices feature.
package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SpotVendor is the vendor tag of the benchmark (spot) price series.
// Rows carrying it are not retail offers.
const SpotVendor = "spot"

// PriceObservation is a single dated price reported by a vendor
// for a product or benchmark category.
type PriceObservation struct {
	Date     time.Time       // Calendar date of the observation
	Vendor   string          // Reporting vendor (e.g., "jmbullion", "spot")
	Category string          // Metal+product slug (e.g., "gold-american-eagles")
	Price    decimal.Decimal // Reported price in USD
}

// Average is the result of a latest-date cross-vendor average.
// Valid is false when no row matched.
type Average struct {
	Value decimal.Decimal
	Valid bool
}
