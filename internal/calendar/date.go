package calendar

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DateLayout is the on-disk and display layout for calendar dates.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Date is a civil date with no time-of-day or zone. It is comparable, so it
// can key maps, and its zero value means "unset".
type Date struct {
	year  int
	month time.Month
	day   int
}

// NewDate returns the date for the given year, month and day. Out-of-range
// values normalise the same way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return fromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

func fromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

// DateOf truncates a time to its calendar date in the time's own location.
func DateOf(t time.Time) Date { return fromTime(t) }

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(value string) (Date, error) {
	trimmed := strings.TrimSpace(value)
	t, err := time.Parse(DateLayout, trimmed)
	if err != nil {
		return Date{}, fmt.Errorf("calendar: parse date %q: %w", value, err)
	}
	return fromTime(t), nil
}

// MustParseDate is ParseDate for literals known to be valid.
func MustParseDate(value string) Date {
	d, err := ParseDate(value)
	if err != nil {
		panic(err)
	}
	return d
}

// Time returns the date as midnight UTC.
func (d Date) Time() time.Time {
	if d.IsZero() {
		return time.Time{}
	}
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether the date was never set.
func (d Date) IsZero() bool { return d == Date{} }

func (d Date) Year() int             { return d.year }
func (d Date) Month() time.Month     { return d.month }
func (d Date) Day() int              { return d.day }
func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }

// AddDays returns the date n days later (earlier when n is negative).
func (d Date) AddDays(n int) Date { return fromTime(d.Time().AddDate(0, 0, n)) }

// AddWeeks returns the date n weeks later.
func (d Date) AddWeeks(n int) Date { return d.AddDays(7 * n) }

// DaysSince returns the signed number of days from other to d.
func (d Date) DaysSince(other Date) int {
	return int((d.Time().Unix() - other.Time().Unix()) / secondsPerDay)
}

func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool  { return d.Compare(other) > 0 }
func (d Date) Equal(other Date) bool  { return d == other }

// Compare returns -1, 0 or +1 in the manner of time.Time.Compare.
func (d Date) Compare(other Date) int { return d.Time().Compare(other.Time()) }

// Monday returns the Monday of the week containing d.
func (d Date) Monday() Date {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// Format renders the date with a time layout.
func (d Date) Format(layout string) string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(layout)
}

func (d Date) String() string { return d.Format(DateLayout) }

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(data []byte) error {
	return d.SetValue(string(data))
}

// SetValue parses value into d. An empty value resets d to the zero date.
func (d *Date) SetValue(value string) error {
	if strings.TrimSpace(value) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalYAML writes the date as a plain YYYY-MM-DD scalar.
func (d Date) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML accepts both bare and quoted YYYY-MM-DD scalars, so JSON
// exports decode the same way as YAML ones.
func (d *Date) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("calendar: line %d: date must be a scalar", node.Line)
	}
	value := node.Value
	// Full timestamps are truncated to their date.
	if len(value) > len(DateLayout) && strings.ContainsAny(value[len(DateLayout):], "Tt ") {
		value = value[:len(DateLayout)]
	}
	return d.SetValue(value)
}
