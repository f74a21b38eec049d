package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// FormatPrice renders an amount as dollars with two decimals, e.g. "$25.00".
func FormatPrice(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// summaryDateLayout matches the month/day/year short date shown on the
// orders page.
const summaryDateLayout = "1/2/2006"

func formatDate(t time.Time) string {
	return t.UTC().Format(summaryDateLayout)
}
