// Package core provides hour parsing and numeric helpers.
//
// Hours are entered in tenths (7.5, 7,5) and shown as "7.5 [h]".
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseHours converts a decimal string to an hour amount.
//
// It accepts both dot (7.5) and comma (7,5) decimal separators. Only one
// significant fractional digit is allowed; trailing zeros are ignored.
//
// Examples:
//
//	ParseHours("7.5")  -> 7.5, nil
//	ParseHours("7,50") -> 7.5, nil
//	ParseHours("7.25") -> 0, ErrInvalidHours
func ParseHours(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidHours
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidHours
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidHours
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidHours
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || iv > int64(MaxDailyHours) {
		return 0, ErrInvalidHours
	}
	var tenths int64
	if len(fracPart) > 0 {
		tenths = int64(fracPart[0] - '0')
		if strings.Trim(fracPart[1:], "0") != "" {
			return 0, ErrInvalidHours
		}
	}
	v := float64(iv*10+tenths) / 10
	if err := ValidateHours(v); err != nil {
		return 0, err
	}
	return v, nil
}

// ValidateHours checks that v is in (0, MaxDailyHours] and a multiple of 0.1.
func ValidateHours(v float64) error {
	if math.IsNaN(v) || v <= 0 || v > MaxDailyHours {
		return ErrInvalidHours
	}
	if math.Abs(v*10-math.Round(v*10)) > 1e-9 {
		return ErrInvalidHours
	}
	return nil
}

// FormatHours renders an amount as "<amount> [h]"; whole values keep one decimal.
func FormatHours(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s + " [h]"
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
