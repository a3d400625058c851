package bonds

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ValuationRepository persists valuation snapshots in history.db. The
// history is append-only; snapshots are removed only when their bond is
// deleted.
type ValuationRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewValuationRepository creates a new valuation history repository.
func NewValuationRepository(db *sql.DB, log zerolog.Logger) *ValuationRepository {
	return &ValuationRepository{
		db:  db,
		log: log.With().Str("repo", "valuations").Logger(),
	}
}

// InitSchema creates the valuations table and its bond index if missing.
func (r *ValuationRepository) InitSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS valuations (
			id TEXT PRIMARY KEY,
			bond_id TEXT NOT NULL,
			settlement_date INTEGER NOT NULL,
			discount_rate REAL NOT NULL,
			clean_price REAL NOT NULL,
			dirty_price REAL NOT NULL,
			accrued_interest REAL NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_valuations_bond_id ON valuations(bond_id, settlement_date);
	`
	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create valuations table: %w", err)
	}
	return nil
}

// Create appends a valuation snapshot, assigning its ID and creation time.
func (r *ValuationRepository) Create(v *Valuation) (*Valuation, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	v.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO valuations (id, bond_id, settlement_date, discount_rate, clean_price, dirty_price, accrued_interest, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		v.ID,
		v.BondID,
		dateOnly(v.SettlementDate).Unix(),
		v.DiscountRate,
		v.CleanPrice,
		v.DirtyPrice,
		v.AccruedInterest,
		v.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert valuation: %w", err)
	}

	return v, nil
}

// ListByBond returns up to limit snapshots for a bond, newest settlement
// first.
func (r *ValuationRepository) ListByBond(bondID string, limit int) ([]Valuation, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, bond_id, settlement_date, discount_rate, clean_price, dirty_price, accrued_interest, created_at
		FROM valuations WHERE bond_id = ?
		ORDER BY settlement_date DESC, created_at DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, bondID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list valuations for bond %s: %w", bondID, err)
	}
	defer rows.Close()

	var result []Valuation
	for rows.Next() {
		var v Valuation
		var settlementUnix, createdUnix int64

		if err := rows.Scan(
			&v.ID,
			&v.BondID,
			&settlementUnix,
			&v.DiscountRate,
			&v.CleanPrice,
			&v.DirtyPrice,
			&v.AccruedInterest,
			&createdUnix,
		); err != nil {
			return nil, fmt.Errorf("failed to scan valuation: %w", err)
		}

		v.SettlementDate = time.Unix(settlementUnix, 0).UTC()
		v.CreatedAt = time.Unix(createdUnix, 0).UTC()
		result = append(result, v)
	}
	return result, rows.Err()
}

// LatestByBond returns the most recent snapshot for a bond, or nil when
// none exists.
func (r *ValuationRepository) LatestByBond(bondID string) (*Valuation, error) {
	valuations, err := r.ListByBond(bondID, 1)
	if err != nil {
		return nil, err
	}
	if len(valuations) == 0 {
		return nil, nil
	}
	return &valuations[0], nil
}

// PruneOlderThan removes snapshots whose settlement date falls before the
// cutoff, across all bonds. Returns the number of snapshots removed.
func (r *ValuationRepository) PruneOlderThan(cutoff time.Time) (int, error) {
	res, err := r.db.Exec(`DELETE FROM valuations WHERE settlement_date < ?`, dateOnly(cutoff).Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune valuations before %s: %w", dateOnly(cutoff).Format(dateLayout), err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// DeleteByBond removes all snapshots for a bond. Called when the bond
// definition itself is deleted.
func (r *ValuationRepository) DeleteByBond(bondID string) error {
	if _, err := r.db.Exec(`DELETE FROM valuations WHERE bond_id = ?`, bondID); err != nil {
		return fmt.Errorf("failed to delete valuations for bond %s: %w", bondID, err)
	}
	return nil
}
