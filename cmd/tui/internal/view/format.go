package view

import (
	"time"

	"github.com/shopspring/decimal"
)

const opTimeout = 5 * time.Second

// FormatAmount renders minor units with two decimal places.
func FormatAmount(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
