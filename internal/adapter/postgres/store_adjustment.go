package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Strob0t/ProposalForge/internal/domain/adjustment"
)

const rateColumns = `id, unit_id, year,
	january::text, february::text, march::text, april::text, may::text, june::text,
	july::text, august::text, september::text, october::text, november::text, december::text,
	updated_at`

func scanRate(row scannable) (*adjustment.MonthlyRate, error) {
	var (
		r      adjustment.MonthlyRate
		months [12]*string
	)
	dest := []any{&r.ID, &r.UnitID, &r.Year}
	for i := range months {
		dest = append(dest, &months[i])
	}
	dest = append(dest, &r.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	var values [12]decimal.Decimal
	for i, m := range months {
		d, err := parseDecimal(m)
		if err != nil {
			return nil, fmt.Errorf("rate %s month %d: %w", r.ID, i+1, err)
		}
		values[i] = d
	}
	r.SetMonths(values)
	return &r, nil
}

// ListAdjustmentRates returns a unit's rate history ordered by year.
func (s *Store) ListAdjustmentRates(ctx context.Context, unitID string) ([]adjustment.MonthlyRate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+rateColumns+` FROM monthly_adjustment_rates WHERE unit_id = $1 ORDER BY year`, unitID)
	if err != nil {
		return nil, storeErr(err, "list adjustment rates for unit %s", unitID)
	}
	defer rows.Close()

	var out []adjustment.MonthlyRate
	for rows.Next() {
		r, err := scanRate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan adjustment rate: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "list adjustment rates for unit %s", unitID)
	}
	return orEmpty(out), nil
}

// UpsertAdjustmentRate writes one year of rates, replacing any existing row
// for the same unit and year.
func (s *Store) UpsertAdjustmentRate(ctx context.Context, r *adjustment.MonthlyRate) (*adjustment.MonthlyRate, error) {
	args := []any{r.UnitID, r.Year}
	for _, m := range r.Months() {
		args = append(args, m.String())
	}

	out, err := scanRate(s.pool.QueryRow(ctx,
		`INSERT INTO monthly_adjustment_rates
		   (unit_id, year, january, february, march, april, may, june,
		    july, august, september, october, november, december)
		 VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8::numeric,
		         $9::numeric, $10::numeric, $11::numeric, $12::numeric, $13::numeric, $14::numeric)
		 ON CONFLICT (unit_id, year) DO UPDATE SET
		   january = EXCLUDED.january, february = EXCLUDED.february, march = EXCLUDED.march,
		   april = EXCLUDED.april, may = EXCLUDED.may, june = EXCLUDED.june,
		   july = EXCLUDED.july, august = EXCLUDED.august, september = EXCLUDED.september,
		   october = EXCLUDED.october, november = EXCLUDED.november, december = EXCLUDED.december,
		   updated_at = NOW()
		 RETURNING `+rateColumns, args...))
	if err != nil {
		return nil, storeErr(err, "upsert adjustment rate %s/%d", r.UnitID, r.Year)
	}
	return out, nil
}
