package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the only calendar date format the API accepts and emits.
// Go layouts are written against the reference time: 2006/01/02 means
// YYYY/MM/DD with zero-padded month and day.
const DateLayout = "2006/01/02"

// Date is a calendar date without a time of day.
//
// It embeds time.Time (always UTC midnight) so callers get comparison and
// formatting for free, but it marshals as "YYYY/MM/DD" instead of RFC 3339.
type Date struct {
	time.Time
}

// ParseDate parses s strictly as YYYY/MM/DD.
// time.Parse already rejects out-of-range months/days and trailing text.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// NewDate builds a Date from year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// String formats d as YYYY/MM/DD. The zero value is 0001/01/01, not "".
func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner. SQLite hands back the stored TEXT; drivers
// with a native date type hand back time.Time.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = NewDate(v.Year(), v.Month(), v.Day())
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("model: cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	parsed, err := ParseDate(s)
	if err != nil {
		// Rows written by other tools may use ISO dashes.
		t, isoErr := time.Parse(time.DateOnly, s)
		if isoErr != nil {
			return err
		}
		parsed = Date{Time: t}
	}
	*d = parsed
	return nil
}
