// Package duedate turns loosely written due dates ("20", "9/20", "25-09-20")
// into canonical YYYY-MM-DD strings relative to a reference day.
package duedate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layout is the canonical due date format stored in the database.
const Layout = "2006-01-02"

// ErrInvalidDate is matched by every error returned from Normalize.
var ErrInvalidDate = errors.New("invalid due date")

// Field names the date component a FieldError refers to.
type Field string

const (
	FieldYear  Field = "year"
	FieldMonth Field = "month"
	FieldDay   Field = "day"
)

// FieldError reports a date part that is not a non-negative integer.
type FieldError struct {
	Field Field
	Text  string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Field, e.Text)
}

func (e *FieldError) Is(target error) bool { return target == ErrInvalidDate }

// PartCountError reports input that does not split into 1, 2 or 3 parts.
type PartCountError struct {
	Input string
	Parts int
}

func (e *PartCountError) Error() string {
	return fmt.Sprintf("bad number of parts in %q: got %d, want YYYY-MM-DD, MM-DD or DD", e.Input, e.Parts)
}

func (e *PartCountError) Is(target error) bool { return target == ErrInvalidDate }

// CalendarError reports numeric parts that do not name a real day.
type CalendarError struct {
	Year  int
	Month int
	Day   int
}

func (e *CalendarError) Error() string {
	return fmt.Sprintf("unable to construct date from year %d, month %d, day %d", e.Year, e.Month, e.Day)
}

func (e *CalendarError) Is(target error) bool { return target == ErrInvalidDate }

// Normalize resolves raw against today.
//
// Omitted parts are filled with the nearest matching day that is not before
// today: a month-day already passed this year moves to next year, a bare day
// already passed this month moves to next month. Two-digit years are read as
// 20YY.
func Normalize(raw string, today time.Time) (string, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), "/", "-")

	var parts []string
	if cleaned != "" {
		parts = strings.Split(cleaned, "-")
	}

	ty, tm, td := today.Date()

	switch len(parts) {
	case 3:
		year, err := parsePart(FieldYear, parts[0])
		if err != nil {
			return "", err
		}
		month, err := parsePart(FieldMonth, parts[1])
		if err != nil {
			return "", err
		}
		day, err := parsePart(FieldDay, parts[2])
		if err != nil {
			return "", err
		}
		// Two-digit years stop working after 2099.
		if year < 100 {
			year += 2000
		}
		return build(year, month, day)

	case 2:
		month, err := parsePart(FieldMonth, parts[0])
		if err != nil {
			return "", err
		}
		day, err := parsePart(FieldDay, parts[1])
		if err != nil {
			return "", err
		}
		year := ty
		if month < int(tm) || (month == int(tm) && day < td) {
			year++
		}
		return build(year, month, day)

	case 1:
		day, err := parsePart(FieldDay, parts[0])
		if err != nil {
			return "", err
		}
		year, month := ty, int(tm)
		if day < td {
			if tm == time.December {
				year, month = year+1, 1
			} else {
				month++
			}
		}
		return build(year, month, day)

	default:
		return "", &PartCountError{Input: cleaned, Parts: len(parts)}
	}
}

// parsePart accepts an unsigned decimal with at most one leading '+'.
func parsePart(field Field, text string) (int, error) {
	digits := strings.TrimPrefix(text, "+")
	if strings.HasPrefix(digits, "+") {
		return 0, &FieldError{Field: field, Text: text}
	}
	n, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, &FieldError{Field: field, Text: text}
	}
	return int(n), nil
}

func build(year, month, day int) (string, error) {
	if year < 1 || year > 9999 || month < 1 || month > 12 || day < 1 || day > DaysIn(time.Month(month), year) {
		return "", &CalendarError{Year: year, Month: month, Day: day}
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format(Layout), nil
}

// DaysIn returns the number of days in month of year.
func DaysIn(month time.Month, year int) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
