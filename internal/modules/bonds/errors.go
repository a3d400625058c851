package bonds

import "errors"

// Failure modes of schedule derivation, valuation and yield solving.
// Every failure is surfaced to the immediate caller; nothing is retried
// internally (the math is deterministic) and there is no partial success.
var (
	// ErrInvalidFrequency - frequency must be positive and divide 12 so
	// that period-month arithmetic stays exact.
	ErrInvalidFrequency = errors.New("coupon frequency must be a positive divisor of 12")

	// ErrMaturityBeforeSettlement - the bond has already matured, or the
	// input dates are swapped; no coupon schedule exists.
	ErrMaturityBeforeSettlement = errors.New("maturity date must be after settlement date")

	// ErrSchedulePrecondition - the derived prior coupon date does not land
	// strictly before settlement; the (settlement, maturity, frequency)
	// combination is inconsistent with a coupon lattice.
	ErrSchedulePrecondition = errors.New("prior coupon date is not before settlement")

	// ErrNonTerminatingSchedule - maturity cannot be reached by stepping
	// whole periods forward from the next coupon date. Happens when
	// day-of-month clamping drifts the lattice off the maturity date
	// (e.g. a maturity on the 31st with semiannual periods).
	ErrNonTerminatingSchedule = errors.New("maturity is not on the coupon schedule lattice")

	// ErrNonFiniteInput - a NaN or infinite rate, price or nominal was
	// supplied where a finite value is required.
	ErrNonFiniteInput = errors.New("input must be a finite number")

	// ErrDerivativeVanished - the price sensitivity to yield collapsed to
	// zero, so Newton iteration cannot take another step.
	ErrDerivativeVanished = errors.New("price derivative vanished during yield iteration")

	// ErrNoConvergence - the yield solver exhausted its iteration budget
	// without matching the observed price.
	ErrNoConvergence = errors.New("yield solver did not converge")
)
