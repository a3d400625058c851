package bonds

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BondRepository persists bond definitions in bonds.db. Dates are stored
// as Unix timestamps at midnight UTC, the convention used across the
// databases.
type BondRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewBondRepository creates a new bond repository.
func NewBondRepository(db *sql.DB, log zerolog.Logger) *BondRepository {
	return &BondRepository{
		db:  db,
		log: log.With().Str("repo", "bonds").Logger(),
	}
}

// InitSchema creates the bonds table if it does not exist.
func (r *BondRepository) InitSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS bonds (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			coupon_rate REAL NOT NULL,
			frequency INTEGER NOT NULL,
			nominal REAL NOT NULL,
			maturity_date INTEGER NOT NULL,
			discount_rate REAL NOT NULL,
			created_at INTEGER NOT NULL
		)
	`
	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create bonds table: %w", err)
	}
	return nil
}

// Create inserts a new bond, assigning its ID and creation time.
func (r *BondRepository) Create(bond *Bond) (*Bond, error) {
	if bond.ID == "" {
		bond.ID = uuid.NewString()
	}
	bond.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO bonds (id, name, coupon_rate, frequency, nominal, maturity_date, discount_rate, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		bond.ID,
		bond.Name,
		bond.CouponRate,
		bond.Frequency,
		bond.Nominal,
		dateOnly(bond.MaturityDate).Unix(),
		bond.DiscountRate,
		bond.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert bond: %w", err)
	}

	r.log.Debug().Str("bond_id", bond.ID).Str("name", bond.Name).Msg("Bond created")
	return bond, nil
}

// GetByID returns the bond with the given ID, or nil when it does not
// exist.
func (r *BondRepository) GetByID(id string) (*Bond, error) {
	query := `
		SELECT id, name, coupon_rate, frequency, nominal, maturity_date, discount_rate, created_at
		FROM bonds WHERE id = ?
	`
	bond, err := scanBond(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bond %s: %w", id, err)
	}
	return bond, nil
}

// List returns all bonds ordered by maturity date.
func (r *BondRepository) List() ([]Bond, error) {
	query := `
		SELECT id, name, coupon_rate, frequency, nominal, maturity_date, discount_rate, created_at
		FROM bonds ORDER BY maturity_date ASC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bonds: %w", err)
	}
	defer rows.Close()

	var result []Bond
	for rows.Next() {
		bond, err := scanBond(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bond: %w", err)
		}
		result = append(result, *bond)
	}
	return result, rows.Err()
}

// Delete removes a bond definition. Valuation history is kept in a
// separate database and cleaned up by the caller.
func (r *BondRepository) Delete(id string) error {
	if _, err := r.db.Exec(`DELETE FROM bonds WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete bond %s: %w", id, err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBond(row scanner) (*Bond, error) {
	var bond Bond
	var maturityUnix, createdUnix int64

	if err := row.Scan(
		&bond.ID,
		&bond.Name,
		&bond.CouponRate,
		&bond.Frequency,
		&bond.Nominal,
		&maturityUnix,
		&bond.DiscountRate,
		&createdUnix,
	); err != nil {
		return nil, err
	}

	bond.MaturityDate = time.Unix(maturityUnix, 0).UTC()
	bond.CreatedAt = time.Unix(createdUnix, 0).UTC()
	return &bond, nil
}
