package bonds

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Service orchestrates bond valuation and yield solving, and records
// snapshots for stored bonds. All pricing calls are pure functions of
// their inputs; the service only adds validation, logging and persistence.
type Service struct {
	bondRepo      *BondRepository
	valuationRepo *ValuationRepository
	log           zerolog.Logger
}

// NewService creates a new bonds service.
func NewService(bondRepo *BondRepository, valuationRepo *ValuationRepository, log zerolog.Logger) *Service {
	return &Service{
		bondRepo:      bondRepo,
		valuationRepo: valuationRepo,
		log:           log.With().Str("service", "bonds").Logger(),
	}
}

// Price values a bond at the given discount rate.
func (s *Service) Price(in PriceInput) (ValuationResult, error) {
	res, err := Value(in.Settlement, in.Maturity, in.CouponRate, in.DiscountRate, in.Frequency, in.Nominal)
	if err != nil {
		return ValuationResult{}, err
	}

	s.log.Debug().
		Str("settlement", dateOnly(in.Settlement).Format(dateLayout)).
		Str("maturity", dateOnly(in.Maturity).Format(dateLayout)).
		Float64("discount_rate", in.DiscountRate).
		Float64("clean_price", res.CleanPrice).
		Msg("Valued bond")

	return res, nil
}

// Yield solves for the yield to maturity implied by an observed clean
// price.
func (s *Service) Yield(in YieldInput) (float64, error) {
	ytm, err := YieldFromPrice(in.Price, in.Settlement, in.Maturity, in.CouponRate, in.Frequency, in.Nominal)
	if err != nil {
		return 0, err
	}

	s.log.Debug().
		Float64("price", in.Price).
		Float64("ytm", ytm).
		Msg("Solved yield to maturity")

	return ytm, nil
}

// Revalue prices a stored bond at its marking discount rate on the given
// settlement date and appends the snapshot to the valuation history.
func (s *Service) Revalue(bond Bond, settlement time.Time) (*Valuation, error) {
	res, err := Value(settlement, bond.MaturityDate, bond.CouponRate, bond.DiscountRate, bond.Frequency, bond.Nominal)
	if err != nil {
		return nil, fmt.Errorf("failed to revalue bond %s: %w", bond.ID, err)
	}

	return s.valuationRepo.Create(&Valuation{
		BondID:          bond.ID,
		SettlementDate:  dateOnly(settlement),
		DiscountRate:    bond.DiscountRate,
		CleanPrice:      res.CleanPrice,
		DirtyPrice:      res.DirtyPrice,
		AccruedInterest: res.AccruedInterest,
	})
}

// PruneHistory removes valuation snapshots settled before the cutoff date
// and returns the number removed.
func (s *Service) PruneHistory(cutoff time.Time) (int, error) {
	removed, err := s.valuationRepo.PruneOlderThan(cutoff)
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		s.log.Info().
			Int("removed", removed).
			Str("cutoff", dateOnly(cutoff).Format(dateLayout)).
			Msg("Pruned valuation history")
	}
	return removed, nil
}

// RevalueAll revalues every stored bond, skipping bonds that can no longer
// be valued (e.g. already matured) and logging each skip. Returns the
// number of snapshots written.
func (s *Service) RevalueAll(settlement time.Time) (int, error) {
	bonds, err := s.bondRepo.List()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, bond := range bonds {
		if _, err := s.Revalue(bond, settlement); err != nil {
			s.log.Warn().
				Err(err).
				Str("bond_id", bond.ID).
				Str("name", bond.Name).
				Msg("Skipping bond during revaluation")
			continue
		}
		count++
	}

	s.log.Info().
		Int("valued", count).
		Int("total", len(bonds)).
		Str("settlement", dateOnly(settlement).Format(dateLayout)).
		Msg("Revaluation completed")

	return count, nil
}
