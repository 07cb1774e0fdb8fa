package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pmtrack/internal/core"
)

// DateToken is a parsed DD/MM/YYYY string.
type DateToken struct {
	Day        string // zero padded
	Month      string // zero padded
	Year       string
	WeekNumber int
	WeekYear   int
	Weekday    time.Weekday
	Canonical  string
	Date       core.Date
}

// ParseDateToken parses a DD/MM/YYYY token. Day and month may omit the
// leading zero; the year must have four digits. Impossible calendar dates
// such as 31/02/2024 are rejected.
func ParseDateToken(token string) (DateToken, error) {
	token = strings.TrimSpace(token)
	parts := strings.Split(token, "/")
	if len(parts) != 3 {
		return DateToken{}, malformed(token)
	}
	day, okD := atoiDigits(parts[0], 1, 2)
	month, okM := atoiDigits(parts[1], 1, 2)
	year, okY := atoiDigits(parts[2], 4, 4)
	if !okD || !okM || !okY || year < 1 {
		return DateToken{}, malformed(token)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range values; a changed field means an impossible date.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return DateToken{}, malformed(token)
	}

	d := newDay(t)
	return DateToken{
		Day:        fmt.Sprintf("%02d", day),
		Month:      fmt.Sprintf("%02d", month),
		Year:       fmt.Sprintf("%04d", year),
		WeekNumber: d.WeekNumber,
		WeekYear:   d.WeekYear,
		Weekday:    d.Weekday,
		Canonical:  d.Key,
		Date:       d.Date,
	}, nil
}

func atoiDigits(s string, minLen, maxLen int) (int, bool) {
	if len(s) < minLen || len(s) > maxLen {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func malformed(token string) error {
	return fmt.Errorf("parse date token %q: %w", token, core.ErrMalformedDate)
}
