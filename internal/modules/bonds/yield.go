package bonds

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
)

// Solver constants. The upstream pricer leaned on its solver library's
// defaults; these are pinned so behavior is reproducible across platforms.
const (
	ytmInitialGuess  = 0.01  // 1%, the upstream seed
	ytmTolerance     = 1e-12 // on |observed - modeled| clean price
	ytmMaxIterations = 100
	derivativeFloor  = 1e-15
)

// YieldFromPrice inverts the clean price formula: it finds the discount
// rate at which the modeled clean price equals the observed market price,
// using Newton-Raphson with the analytic price derivative.
//
// The iteration starts at 1% and stops when the price error is within
// 1e-12, failing with ErrNoConvergence after 100 iterations or with
// ErrDerivativeVanished when the price sensitivity collapses (a flat
// objective cannot be inverted).
func YieldFromPrice(price float64, settlement, maturity time.Time, couponRate float64, frequency int, nominal float64) (float64, error) {
	if err := validateFinite("price", price); err != nil {
		return 0, err
	}
	if err := validateFinite("coupon rate", couponRate); err != nil {
		return 0, err
	}
	if err := validateFinite("nominal", nominal); err != nil {
		return 0, err
	}

	p, err := CouponPeriod(settlement, maturity, frequency)
	if err != nil {
		return 0, err
	}

	settlementDay := dateOnly(settlement)
	maturityDay := dateOnly(maturity)

	// Accrued interest does not depend on the discount rate; compute once.
	accrued := accruedInPeriod(p, settlementDay, couponRate, frequency, nominal)

	y := ytmInitialGuess
	for iter := 0; iter < ytmMaxIterations; iter++ {
		dirty, deriv, err := discountedCashflows(p, settlementDay, maturityDay, couponRate, y, frequency, nominal)
		if err != nil {
			return 0, err
		}

		clean := dirty - accrued
		if scalar.EqualWithinAbs(clean, price, ytmTolerance) {
			return y, nil
		}
		if math.Abs(deriv) < derivativeFloor {
			return 0, fmt.Errorf("%w: |dP/dy| < %g at iteration %d", ErrDerivativeVanished, derivativeFloor, iter)
		}

		y += (price - clean) / deriv
	}

	return 0, fmt.Errorf("%w: no root within %d iterations for price %.6f", ErrNoConvergence, ytmMaxIterations, price)
}
