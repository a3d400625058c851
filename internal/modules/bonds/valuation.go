package bonds

import (
	"fmt"
	"math"
	"time"
)

// zeroCouponThreshold mirrors the upstream guard: coupon rates below 0.1%
// in absolute value accrue nothing.
const zeroCouponThreshold = 1e-3

// ValuationResult holds the outputs of a single bond valuation. DirtyPrice
// is the cash amount exchanged (clean plus accrued).
type ValuationResult struct {
	CleanPrice      float64 `json:"clean_price"`
	DirtyPrice      float64 `json:"dirty_price"`
	AccruedInterest float64 `json:"accrued_interest"`
}

// Value computes clean price, dirty price and accrued interest for a bond
// with the given annual couponRate (a fraction, e.g. 0.02), discounted at
// discountRate, with frequency coupon payments per year and the given face
// value. The schedule is derived once and shared by the accrual and the
// cashflow walk.
func Value(settlement, maturity time.Time, couponRate, discountRate float64, frequency int, nominal float64) (ValuationResult, error) {
	if err := validateFinite("coupon rate", couponRate); err != nil {
		return ValuationResult{}, err
	}
	if err := validateFinite("discount rate", discountRate); err != nil {
		return ValuationResult{}, err
	}
	if err := validateFinite("nominal", nominal); err != nil {
		return ValuationResult{}, err
	}

	p, err := CouponPeriod(settlement, maturity, frequency)
	if err != nil {
		return ValuationResult{}, err
	}

	dirty, _, err := discountedCashflows(p, dateOnly(settlement), dateOnly(maturity), couponRate, discountRate, frequency, nominal)
	if err != nil {
		return ValuationResult{}, err
	}

	accrued := accruedInPeriod(p, dateOnly(settlement), couponRate, frequency, nominal)

	return ValuationResult{
		CleanPrice:      dirty - accrued,
		DirtyPrice:      dirty,
		AccruedInterest: accrued,
	}, nil
}

// CleanPrice returns the present value of all remaining cashflows minus
// accrued interest.
func CleanPrice(settlement, maturity time.Time, couponRate, discountRate float64, frequency int, nominal float64) (float64, error) {
	res, err := Value(settlement, maturity, couponRate, discountRate, frequency, nominal)
	if err != nil {
		return 0, err
	}
	return res.CleanPrice, nil
}

// DirtyPrice returns the present value of all remaining cashflows - the
// cash amount actually exchanged at settlement.
func DirtyPrice(settlement, maturity time.Time, couponRate, discountRate float64, frequency int, nominal float64) (float64, error) {
	res, err := Value(settlement, maturity, couponRate, discountRate, frequency, nominal)
	if err != nil {
		return 0, err
	}
	return res.DirtyPrice, nil
}

// AccruedInterest returns the portion of the next coupon earned since the
// prior coupon date, using linear actual-day accrual over the current
// period. A NaN coupon rate or one below the zero-coupon threshold accrues
// nothing, matching the upstream pricer's explicit guard.
func AccruedInterest(settlement, maturity time.Time, couponRate float64, frequency int, nominal float64) (float64, error) {
	if math.IsNaN(couponRate) || math.Abs(couponRate) < zeroCouponThreshold {
		return 0, nil
	}
	if err := validateFinite("nominal", nominal); err != nil {
		return 0, err
	}

	p, err := CouponPeriod(settlement, maturity, frequency)
	if err != nil {
		return 0, err
	}

	return accruedInPeriod(p, dateOnly(settlement), couponRate, frequency, nominal), nil
}

// accruedInPeriod applies the linear day-count fraction to one coupon
// payment. A settlement exactly on a coupon date brackets as
// prior < settlement == next, so the fraction is 1 and the seller is owed
// the entire not-yet-paid coupon; one day into the new period the fraction
// restarts at 1/periodDays.
func accruedInPeriod(p Period, settlement time.Time, couponRate float64, frequency int, nominal float64) float64 {
	if math.IsNaN(couponRate) || math.Abs(couponRate) < zeroCouponThreshold {
		return 0
	}
	frac := float64(DaysBetween(p.Prior, settlement)) / float64(p.Days())
	return couponRate * nominal / float64(frequency) * frac
}

// discountedCashflows walks the coupon dates from the next coupon to
// maturity, summing discounted cashflows and their derivative with respect
// to the discount rate (used by the yield solver).
//
// The first cashflow is discounted by the fractional exponent
// w = days(settlement, next) / days(prior, next), the street convention
// for valuing between coupon dates; each later coupon adds one whole
// period to the exponent. The final cashflow bundles the last coupon with
// redemption of the nominal.
//
// The walk steps forward one clamped period at a time exactly like the
// upstream pricer, but is bounded: once it exceeds twice the analytically
// expected period count, or a candidate overshoots maturity, it reports
// ErrNonTerminatingSchedule instead of looping forever.
func discountedCashflows(p Period, settlement, maturity time.Time, couponRate, discountRate float64, frequency int, nominal float64) (pv, deriv float64, err error) {
	months := 12 / frequency
	w := float64(DaysBetween(settlement, p.Next)) / float64(p.Days())

	maxPeriods := 2*monthsBetween(p.Next, maturity)/months + 4
	if maxPeriods > maxScheduleSteps {
		maxPeriods = maxScheduleSteps
	}

	coupon := couponRate * nominal / float64(frequency)
	base := 1.0 + discountRate/float64(frequency)

	n := 0
	for cand := p.Next; !cand.Equal(maturity); cand = AddMonths(cand, months) {
		if n >= maxPeriods || cand.After(maturity) {
			return 0, 0, fmt.Errorf("%w: stepping %d-month periods from %s does not reach %s",
				ErrNonTerminatingSchedule, months, p.Next.Format(dateLayout), maturity.Format(dateLayout))
		}

		e := float64(n) + w
		pv += coupon / math.Pow(base, e)
		deriv -= e * coupon / (math.Pow(base, e+1) * float64(frequency))
		n++
	}

	// Final cashflow: redemption of the nominal bundled with the last
	// coupon, discounted with the same exponent formula.
	e := float64(n) + w
	final := nominal * (1.0 + couponRate/float64(frequency))
	pv += final / math.Pow(base, e)
	deriv -= e * final / (math.Pow(base, e+1) * float64(frequency))

	return pv, deriv, nil
}

// validateFinite rejects NaN and infinite numeric inputs before they can
// propagate through the discounting formulas.
func validateFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s", ErrNonFiniteInput, name)
	}
	return nil
}
