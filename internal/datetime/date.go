package datetime

import (
	"fmt"
	"strconv"
	"time"
)

const (
	minYear = 1900
	maxYear = 3000
)

// Date is a calendar date without time or zone, formatted YYYY-MM-DD.
type Date struct {
	t time.Time
}

// NewDate creates a date where month and day start with 1. It panics on an
// invalid calendar date; use ParseDate for untrusted input.
func NewDate(year, month, day int) Date {
	d, err := newDate(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

func newDate(year, month, day int) (Date, error) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return Date{}, fmt.Errorf("invalid date %04d-%02d-%02d", year, month, day)
	}
	return Date{t: t}, nil
}

// DateOf returns the UTC calendar date of ts.
func DateOf(ts Timestamp) Date {
	t := ts.Time()
	return Date{t: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses the strict YYYY-MM-DD form with the year in 1900..3000.
func ParseDate(s string) (Date, error) {
	const format = "dddd-dd-dd"
	if len(s) != len(format) {
		return Date{}, fmt.Errorf("expected string length of %d, got %d", len(format), len(s))
	}
	for i := 0; i < len(format); i++ {
		c := s[i]
		if format[i] == 'd' {
			if c < '0' || c > '9' {
				return Date{}, fmt.Errorf("expected digit at index %d, got %q", i, c)
			}
		} else if c != format[i] {
			return Date{}, fmt.Errorf("expected %q at index %d, got %q", format[i], i, c)
		}
	}
	year, err := parseNumber(s[0:4], minYear, maxYear)
	if err != nil {
		return Date{}, err
	}
	month, err := parseNumber(s[5:7], 1, 12)
	if err != nil {
		return Date{}, err
	}
	day, err := parseNumber(s[8:10], 1, 31)
	if err != nil {
		return Date{}, err
	}
	return newDate(year, month, day)
}

func parseNumber(s string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("cannot parse %s", s)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("value is out of range of %d..%d, got %d", lo, hi, v)
	}
	return v, nil
}

func (d Date) Year() int  { return d.t.Year() }
func (d Date) Month() int { return int(d.t.Month()) }
func (d Date) Day() int   { return d.t.Day() }

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time { return d.t }

// AddDays returns the date the given number of days later.
func (d Date) AddDays(days uint) Date {
	return Date{t: d.t.AddDate(0, 0, int(days))}
}

// RemoveDays returns the date the given number of days earlier.
func (d Date) RemoveDays(days uint) Date {
	return Date{t: d.t.AddDate(0, 0, -int(days))}
}

// DaysFromMonday returns the zero-based weekday number, Tuesday is 1.
func (d Date) DaysFromMonday() uint {
	return uint((d.t.Weekday() + 6) % 7)
}

// StartOfWeek returns the Monday of the date's week.
func (d Date) StartOfWeek() Date { return d.RemoveDays(d.DaysFromMonday()) }

// StartOfMonth returns the first day of the date's month.
func (d Date) StartOfMonth() Date { return d.RemoveDays(uint(d.Day() - 1)) }

// StartOfYear returns January 1st of the date's year.
func (d Date) StartOfYear() Date { return NewDate(d.Year(), 1, 1) }

// Diff returns the absolute duration between two dates.
func (d Date) Diff(other Date) Duration {
	delta := d.t.Sub(other.t)
	if delta < 0 {
		delta = -delta
	}
	return DurationFromMilliseconds(uint64(delta.Milliseconds()))
}

// Equal reports whether both values are the same day.
func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year(), d.Month(), d.Day())
}
