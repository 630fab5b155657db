// Package calendar interprets the naive date-time strings stored on events
// and renders them for external calendars.
//
// Stored values carry no UTC offset. They are wall-clock times in the single
// zone shared by organizers and attendees, so they are built from their
// numeric parts with time.Date and never handed to an ISO-8601 parser, which
// would read them as UTC and shift the displayed date.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LocalLayout is the storage format of naive date-times.
const LocalLayout = "2006-01-02T15:04"

// ParseLocal parses "YYYY-MM-DDTHH:MM" (time optional, defaulting to 00:00)
// as a wall-clock time in time.Local. A trailing ":SS" is accepted and
// dropped; zone suffixes and signed fields are rejected.
func ParseLocal(s string) (time.Time, error) {
	return ParseLocalIn(s, time.Local)
}

// ParseLocalIn is ParseLocal with an explicit zone.
func ParseLocalIn(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date-time")
	}
	if loc == nil {
		loc = time.Local
	}

	datePart, timePart, hasTime := strings.Cut(s, "T")

	dateFields := strings.Split(datePart, "-")
	if len(dateFields) != 3 {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", datePart)
	}
	year, err := atoiRange(dateFields[0], 1, 9999, "year")
	if err != nil {
		return time.Time{}, err
	}
	month, err := atoiRange(dateFields[1], 1, 12, "month")
	if err != nil {
		return time.Time{}, err
	}
	day, err := atoiRange(dateFields[2], 1, daysIn(time.Month(month), year), "day")
	if err != nil {
		return time.Time{}, err
	}

	hour, minute := 0, 0
	if hasTime {
		if timePart == "" {
			return time.Time{}, fmt.Errorf("invalid date-time %q: missing time after T", s)
		}
		timeFields := strings.Split(timePart, ":")
		if len(timeFields) < 2 || len(timeFields) > 3 {
			return time.Time{}, fmt.Errorf("invalid time %q: want HH:MM", timePart)
		}
		if hour, err = atoiRange(timeFields[0], 0, 23, "hour"); err != nil {
			return time.Time{}, err
		}
		if minute, err = atoiRange(timeFields[1], 0, 59, "minute"); err != nil {
			return time.Time{}, err
		}
		// seconds are checked then dropped; a zone suffix such as "Z" fails here
		if len(timeFields) == 3 {
			if _, err = atoiRange(timeFields[2], 0, 59, "second"); err != nil {
				return time.Time{}, err
			}
		}
	}

	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc), nil
}

// FormatLocal renders t's wall clock in LocalLayout.
func FormatLocal(t time.Time) string {
	return t.Format(LocalLayout)
}

// NormalizeLocal validates s and returns it in canonical LocalLayout form.
func NormalizeLocal(s string) (string, error) {
	t, err := ParseLocal(s)
	if err != nil {
		return "", err
	}
	return FormatLocal(t), nil
}

// atoiRange accepts unsigned decimal digits only.
func atoiRange(s string, min, max int, name string) (int, error) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%s %d out of range [%d, %d]", name, n, min, max)
	}
	return n, nil
}

func daysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
