package models

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// maxMinor is the largest amount in minor units a BIGINT column holds.
var maxMinor = decimal.NewFromInt(math.MaxInt64)

// ParseOptionalInt parses a non-negative integer form field. Blank means "unlimited" (nil).
func ParseOptionalInt(field, raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, Invalid(field, "must be a whole number, got %q", raw)
	}
	if n < 0 {
		return nil, Invalid(field, "must not be negative")
	}
	return &n, nil
}

// ParseOptionalDate parses YYYY-MM-DD or RFC 3339. Blank means nil.
func ParseOptionalDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, Invalid(field, "must be a date (YYYY-MM-DD), got %q", raw)
	}
	return &t, nil
}

// ParseMoney converts a major-unit amount ("1500", "99.90") to integer minor units.
// Blank means nil. More than two decimal places or a negative amount is rejected.
func ParseMoney(field, raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, Invalid(field, "must be an amount, got %q", raw)
	}
	if d.IsNegative() {
		return nil, Invalid(field, "must not be negative")
	}
	if d.Exponent() < -2 && !d.Equal(d.Truncate(2)) {
		return nil, Invalid(field, "must have at most two decimal places")
	}
	shifted := d.Shift(2)
	if shifted.GreaterThan(maxMinor) {
		return nil, Invalid(field, "is too large")
	}
	minor := shifted.IntPart()
	return &minor, nil
}

// FormatMoney renders integer minor units as a major-unit string ("1500.00").
func FormatMoney(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
