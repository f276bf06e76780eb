// Package pay turns shift spans into hours and money.
//
// Amounts are decimals, so weekly sums carry no floating point drift; they
// are rounded to cents only when formatted.
package pay

import (
	"fmt"

	"github.com/ginjaninja78/shiftpay/internal/types"
	"github.com/shopspring/decimal"
)

// Calculator applies one hourly rate and one flat tax rate.
type Calculator struct {
	// Rate is the gross pay per hour.
	Rate decimal.Decimal

	// TaxRate is the fraction withheld, between 0 and 1.
	TaxRate decimal.Decimal
}

// NewCalculator builds a Calculator from float settings.
func NewCalculator(rate, taxRate float64) Calculator {
	return Calculator{
		Rate:    decimal.NewFromFloat(rate),
		TaxRate: decimal.NewFromFloat(taxRate),
	}
}

// Calculate returns hours = end - start, gross = hours * rate and
// net = gross * (1 - tax rate).
func (c Calculator) Calculate(span types.ShiftSpan) types.PayRecord {
	hours := span.Hours()
	gross := decimal.NewFromInt(int64(hours)).Mul(c.Rate)
	net := gross.Mul(decimal.NewFromInt(1).Sub(c.TaxRate))
	return types.PayRecord{Span: span, Hours: hours, Gross: gross, Net: net}
}

// Totals accumulates pay records over one scan.
type Totals struct {
	Hours int
	Gross decimal.Decimal
	Net   decimal.Decimal
	Count int
}

// Add folds one record into the totals.
func (t *Totals) Add(rec types.PayRecord) {
	t.Hours += rec.Hours
	t.Gross = t.Gross.Add(rec.Gross)
	t.Net = t.Net.Add(rec.Net)
	t.Count++
}

// BuildReport calculates every span and sums the week.
func (c Calculator) BuildReport(target, employer string, spans []types.ShiftSpan) *types.Report {
	r := &types.Report{Target: target, Employer: employer}
	var totals Totals
	for _, span := range spans {
		rec := c.Calculate(span)
		totals.Add(rec)
		r.Records = append(r.Records, rec)
	}
	r.TotalHours = totals.Hours
	r.TotalGross = totals.Gross
	r.TotalNet = totals.Net
	return r
}

// FormatHour renders a whole hour on a 12-hour clock: 12 is "12:00 PM",
// 0 and 24 are "12:00 AM", hours after noon are PM and the rest AM.
func FormatHour(h int) string {
	switch {
	case h == 12:
		return "12:00 PM"
	case h == 0 || h == 24:
		return "12:00 AM"
	case h > 12:
		return fmt.Sprintf("%d:00 PM", h-12)
	default:
		return fmt.Sprintf("%d:00 AM", h)
	}
}

// FormatMoney renders an amount as dollars rounded to cents.
func FormatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
