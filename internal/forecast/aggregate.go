package forecast

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
)

// LabelLayout is the date layout used in period labels.
const LabelLayout = "02-Jan-2006"

// Aggregate groups one item's daily points (ascending by date) into reporting buckets. Weekly
// buckets follow ISO weeks; monthly buckets follow calendar months. Each bucket is labelled with
// its last date.
func Aggregate(points []domain.ForecastPoint, freq domain.Frequency) []domain.AggregationBucket {
	if freq == domain.FrequencyDaily {
		out := make([]domain.AggregationBucket, len(points))
		for i, p := range points {
			out[i] = domain.AggregationBucket{Label: p.Date.Format(LabelLayout), Qty: p.Qty, Date: p.Date}
		}
		return out
	}

	type key struct{ year, period int }
	keyOf := func(p domain.ForecastPoint) key {
		if freq == domain.FrequencyWeekly {
			y, w := p.Date.ISOWeek()
			return key{y, w}
		}
		return key{p.Date.Year(), int(p.Date.Month())}
	}

	var (
		out  []domain.AggregationBucket
		cur  key
		sum  decimal.Decimal
		last domain.ForecastPoint
	)
	flush := func() {
		kind := "Week"
		if freq == domain.FrequencyMonthly {
			kind = "Month"
		}
		out = append(out, domain.AggregationBucket{
			Label: fmt.Sprintf("%s (%s %d)", last.Date.Format(LabelLayout), kind, cur.period),
			Qty:   sum.Round(2).InexactFloat64(),
			Date:  last.Date,
		})
	}

	for i, p := range points {
		k := keyOf(p)
		if i > 0 && k != cur {
			flush()
			sum = decimal.Zero
		}
		cur = k
		sum = sum.Add(decimal.NewFromFloat(p.Qty))
		last = p
	}
	if len(points) > 0 {
		flush()
	}
	return out
}
