package domain

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	MonthLayout = "2006-01"
	DateLayout  = "2006-01-02"
)

var (
	ErrInvalidMonth  = errors.New("month must be formatted as YYYY-MM")
	ErrInvalidPeriod = errors.New("invalid period")
)

// Month is a calendar month independent of any time zone.
type Month struct {
	Year  int
	Month time.Month
}

func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return Month{}, ErrInvalidMonth
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the calendar month of t in loc.
func MonthOf(t time.Time, loc *time.Location) Month {
	lt := t.In(loc)
	return Month{Year: lt.Year(), Month: lt.Month()}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) IsZero() bool { return m.Year == 0 }

// FirstDay is the first date of the month as a UTC midnight date value.
func (m Month) FirstDay() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// NextFirstDay is the exclusive upper bound of the month's dates.
func (m Month) NextFirstDay() time.Time {
	return m.FirstDay().AddDate(0, 1, 0)
}

func (m Month) DaysIn() int {
	return m.NextFirstDay().AddDate(0, 0, -1).Day()
}

// Dates lists every date of the month.
func (m Month) Dates() []time.Time {
	n := m.DaysIn()
	out := make([]time.Time, 0, n)
	first := m.FirstDay()
	for i := 0; i < n; i++ {
		out = append(out, first.AddDate(0, 0, i))
	}
	return out
}

// Contains reports whether the date value d belongs to the month.
func (m Month) Contains(d time.Time) bool {
	return d.Year() == m.Year && d.Month() == m.Month
}

// DateOf truncates an instant to its calendar date in loc, returned as a UTC midnight value.
func DateOf(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses YYYY-MM-DD into a UTC midnight date value.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

type PeriodType string

const (
	PeriodMonth PeriodType = "month"
	PeriodYear  PeriodType = "year"
)

// Period is a month or a whole year used by the finance ledgers.
type Period struct {
	Type  PeriodType
	Year  int
	Month time.Month
}

// ParsePeriod accepts "YYYY-MM" for monthly and "YYYY" for yearly periods.
func ParsePeriod(typ PeriodType, value string) (Period, error) {
	switch typ {
	case PeriodMonth:
		m, err := ParseMonth(value)
		if err != nil {
			return Period{}, err
		}
		return MonthPeriod(m), nil
	case PeriodYear:
		y, err := strconv.Atoi(value)
		if err != nil || y < 1900 || y > 9999 || len(value) != 4 {
			return Period{}, fmt.Errorf("%w: year must be formatted as YYYY", ErrInvalidPeriod)
		}
		return Period{Type: PeriodYear, Year: y}, nil
	default:
		return Period{}, fmt.Errorf("%w: type must be month or year", ErrInvalidPeriod)
	}
}

// ParsePeriodKey infers the type from the key length ("2025" or "2025-03").
func ParsePeriodKey(key string) (Period, error) {
	if len(key) == 4 {
		return ParsePeriod(PeriodYear, key)
	}
	return ParsePeriod(PeriodMonth, key)
}

func MonthPeriod(m Month) Period {
	return Period{Type: PeriodMonth, Year: m.Year, Month: m.Month}
}

func (p Period) String() string {
	if p.Type == PeriodYear {
		return fmt.Sprintf("%04d", p.Year)
	}
	return Month{Year: p.Year, Month: p.Month}.String()
}

// DateRange returns [from, to) as UTC midnight date values.
func (p Period) DateRange() (time.Time, time.Time) {
	if p.Type == PeriodYear {
		from := time.Date(p.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0)
	}
	m := Month{Year: p.Year, Month: p.Month}
	return m.FirstDay(), m.NextFirstDay()
}

// Bounds returns [from, to) as instants in loc, for timestamp columns.
func (p Period) Bounds(loc *time.Location) (time.Time, time.Time) {
	from, to := p.DateRange()
	return time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc),
		time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, loc)
}

// ContainsDate reports whether a date value falls inside the period.
func (p Period) ContainsDate(d time.Time) bool {
	from, to := p.DateRange()
	return !d.Before(from) && d.Before(to)
}
