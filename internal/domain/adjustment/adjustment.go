// Package adjustment compounds monthly price-adjustment rates of financed
// units. All arithmetic is exact decimal arithmetic.
package adjustment

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places kept for rates and running products.
const Scale = 8

// Placeholder is displayed instead of a zero percentage.
const Placeholder = "-"

var (
	one     = decimal.NewFromInt(1)
	half    = decimal.New(5, -1)
	hundred = decimal.NewFromInt(100)
)

// MonthlyRate holds one calendar year of fractional month rates for a unit
// (0.01 = 1%). A zero month means no adjustment.
type MonthlyRate struct {
	ID        string          `json:"id,omitempty"`
	UnitID    string          `json:"unit_id"`
	Year      int             `json:"year"`
	January   decimal.Decimal `json:"january"`
	February  decimal.Decimal `json:"february"`
	March     decimal.Decimal `json:"march"`
	April     decimal.Decimal `json:"april"`
	May       decimal.Decimal `json:"may"`
	June      decimal.Decimal `json:"june"`
	July      decimal.Decimal `json:"july"`
	August    decimal.Decimal `json:"august"`
	September decimal.Decimal `json:"september"`
	October   decimal.Decimal `json:"october"`
	November  decimal.Decimal `json:"november"`
	December  decimal.Decimal `json:"december"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Months returns the twelve rates in calendar order.
func (m *MonthlyRate) Months() [12]decimal.Decimal {
	return [12]decimal.Decimal{
		m.January, m.February, m.March, m.April, m.May, m.June,
		m.July, m.August, m.September, m.October, m.November, m.December,
	}
}

// SetMonths assigns the twelve rates in calendar order.
func (m *MonthlyRate) SetMonths(v [12]decimal.Decimal) {
	m.January, m.February, m.March, m.April = v[0], v[1], v[2], v[3]
	m.May, m.June, m.July, m.August = v[4], v[5], v[6], v[7]
	m.September, m.October, m.November, m.December = v[8], v[9], v[10], v[11]
}

// Validate rejects out-of-range years and rates at or below -100%.
func (m *MonthlyRate) Validate() error {
	if m.Year < 1900 || m.Year > 2200 {
		return fmt.Errorf("year %d out of range", m.Year)
	}
	for i, r := range m.Months() {
		if r.LessThanOrEqual(one.Neg()) {
			return fmt.Errorf("%s rate must be greater than -1", time.Month(i+1))
		}
	}
	return nil
}

// roundHalfUp rounds d to places decimals with ties going toward +Inf.
func roundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Shift(places).Add(half).Floor().Shift(-places)
}

// Round8 rounds d to Scale decimals, half-up.
func Round8(d decimal.Decimal) decimal.Decimal {
	return roundHalfUp(d, Scale)
}

// sortedByYear returns a copy of records ordered by ascending year.
func sortedByYear(records []MonthlyRate) []MonthlyRate {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b MonthlyRate) int { return a.Year - b.Year })
	return out
}

// compound multiplies product by (1 + r) for every month of rec, rounding
// the rate and the running product at each step.
func compound(product decimal.Decimal, rec *MonthlyRate) decimal.Decimal {
	for _, r := range rec.Months() {
		product = Round8(product.Mul(one.Add(Round8(r))))
	}
	return product
}

// Accumulate returns the compound rate over all records, ordered by year
// and month. The result is a fraction rounded to Scale decimals.
func Accumulate(records []MonthlyRate) decimal.Decimal {
	product := one
	for _, rec := range sortedByYear(records) {
		product = compound(product, &rec)
	}
	return Round8(product.Sub(one))
}

// FormatRate renders a single month rate as a percentage rounded half-up to
// two decimals.
func FormatRate(rate decimal.Decimal) string {
	pct := roundHalfUp(Round8(rate).Mul(hundred), 2)
	if pct.IsZero() {
		return Placeholder
	}
	return pct.StringFixed(2) + "%"
}

// FormatTotal renders an accumulated rate as a percentage truncated (floor)
// to two decimals.
func FormatTotal(total decimal.Decimal) string {
	pct := total.Mul(hundred).Shift(2).Floor().Shift(-2)
	if pct.IsZero() {
		return Placeholder
	}
	return pct.StringFixed(2) + "%"
}

// Row is one rendered year of a rate table.
type Row struct {
	Year        int        `json:"year"`
	Months      [12]string `json:"months"`
	Accumulated string     `json:"accumulated"` // Compound rate from the first year through this one
}

// Table is the rendered rate history of a unit.
type Table struct {
	UnitID       string          `json:"unit_id"`
	Rows         []Row           `json:"rows"`
	Total        decimal.Decimal `json:"total"`
	TotalDisplay string          `json:"total_display"`
}

// BuildTable renders records as display rows. The running figure of each
// row uses the same stepwise rounding as Accumulate, so the last row always
// matches the total.
func BuildTable(unitID string, records []MonthlyRate) Table {
	sorted := sortedByYear(records)
	t := Table{UnitID: unitID, Rows: make([]Row, 0, len(sorted))}

	product := one
	for i := range sorted {
		rec := &sorted[i]
		row := Row{Year: rec.Year}
		for m, r := range rec.Months() {
			row.Months[m] = FormatRate(r)
		}
		product = compound(product, rec)
		row.Accumulated = FormatTotal(Round8(product.Sub(one)))
		t.Rows = append(t.Rows, row)
	}

	t.Total = Round8(product.Sub(one))
	t.TotalDisplay = FormatTotal(t.Total)
	return t
}
