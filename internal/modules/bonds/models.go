package bonds

import "time"

// Bond is a stored bond definition. CouponRate is an annual fraction
// (0.02 = 2%), Frequency the number of coupon payments per year, and
// DiscountRate the marking rate used when the revaluation job prices the
// bond.
type Bond struct {
	ID           string
	Name         string
	CouponRate   float64
	Frequency    int
	Nominal      float64
	MaturityDate time.Time
	DiscountRate float64
	CreatedAt    time.Time
}

// Valuation is a stored snapshot of a bond priced on a settlement date.
// Snapshots form the bond's valuation history and are never mutated.
type Valuation struct {
	ID              string
	BondID          string
	SettlementDate  time.Time
	DiscountRate    float64
	CleanPrice      float64
	DirtyPrice      float64
	AccruedInterest float64
	CreatedAt       time.Time
}

// PriceInput bundles the inputs for an ad-hoc valuation.
type PriceInput struct {
	Settlement   time.Time
	Maturity     time.Time
	CouponRate   float64
	DiscountRate float64
	Frequency    int
	Nominal      float64
}

// YieldInput bundles the inputs for an ad-hoc yield-to-maturity solve.
type YieldInput struct {
	Price      float64
	Settlement time.Time
	Maturity   time.Time
	CouponRate float64
	Frequency  int
	Nominal    float64
}
