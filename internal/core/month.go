package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const MonthLayout = "2006-01"

// MonthKey identifies an aggregation period, rendered as YYYY-MM.
type MonthKey struct {
	Year  int
	Month time.Month
}

var ErrInvalidMonth = errors.New("invalid month key")

// MonthOf returns the month key containing t.
func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// ParseMonthKey parses a zero-padded YYYY-MM string.
func ParseMonthKey(s string) (MonthKey, error) {
	s = strings.TrimSpace(s)
	if len(s) != len(MonthLayout) || s[4] != '-' {
		return MonthKey{}, &ValidationError{Field: "month", Value: s, Err: ErrInvalidMonth}
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil {
		return MonthKey{}, &ValidationError{Field: "month", Value: s, Err: ErrInvalidMonth}
	}
	m, err := strconv.Atoi(s[5:])
	if err != nil || m < 1 || m > 12 {
		return MonthKey{}, &ValidationError{Field: "month", Value: s, Err: ErrInvalidMonth}
	}
	return MonthKey{Year: y, Month: time.Month(m)}, nil
}

func (k MonthKey) IsZero() bool {
	return k.Year == 0 && k.Month == 0
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// Bounds returns the first and last calendar day of the month.
func (k MonthKey) Bounds() (Date, Date) {
	first := time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return Date{Time: first}, Date{Time: last}
}

// Contains reports whether d falls inside the month.
func (k MonthKey) Contains(d Date) bool {
	return d.Year() == k.Year && d.Time.Month() == k.Month
}

// Before reports whether k is an earlier month than other.
func (k MonthKey) Before(other MonthKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

func (k MonthKey) Next() MonthKey {
	return MonthOf(time.Date(k.Year, k.Month+1, 1, 0, 0, 0, 0, time.UTC))
}

func (k MonthKey) Prev() MonthKey {
	return MonthOf(time.Date(k.Year, k.Month-1, 1, 0, 0, 0, 0, time.UTC))
}

func (k MonthKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *MonthKey) UnmarshalText(b []byte) error {
	parsed, err := ParseMonthKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
