package booking

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"moviebook-cli/model"
)

// ErrInvalidTiming is returned when a show timing is not "H:MM AM|PM".
var ErrInvalidTiming = errors.New("cannot determine show start time")

var timingPattern = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})\s*([AaPp][Mm])\s*$`)

// Clock is a wall-clock time of day on the 24-hour clock.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseTiming parses show timings like "10:00 AM" or "7:30pm".
func ParseTiming(timing string) (Clock, error) {
	m := timingPattern.FindStringSubmatch(timing)
	if m == nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidTiming, timing)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidTiming, timing)
	}
	pm := strings.EqualFold(m[3], "pm")
	return Clock{Hour: To24Hour(hour, pm), Minute: minute}, nil
}

// To24Hour converts a 12-hour clock hour.
func To24Hour(hour int, pm bool) int {
	switch {
	case pm && hour != 12:
		return hour + 12
	case !pm && hour == 12:
		return 0
	default:
		return hour
	}
}

// CalendarDay returns midnight in loc of t's calendar day. Listed show dates
// arrive as UTC midnights and name a day, not an instant.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, loc)
}

// ResolveBookingDate picks the day a booking is for: the explicit date when
// given, then the show's own date, then today. The show's date is read as a
// calendar day in now's location.
func ResolveBookingDate(explicit *time.Time, show model.Show, now time.Time) time.Time {
	switch {
	case explicit != nil && !explicit.IsZero():
		return *explicit
	case show.Date != nil && !show.Date.IsZero():
		return CalendarDay(*show.Date, now.Location())
	default:
		return now
	}
}

// ParseDate reads a YYYY-MM-DD day in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}

// ShowStart places timing on date's calendar day in date's location.
func ShowStart(date time.Time, timing string) (time.Time, error) {
	clock, err := ParseTiming(timing)
	if err != nil {
		return time.Time{}, err
	}
	y, mo, d := date.Date()
	return time.Date(y, mo, d, clock.Hour, clock.Minute, 0, 0, date.Location()), nil
}

// IsExpired reports whether the show started before now.
func IsExpired(start, now time.Time) bool {
	return start.Before(now)
}

// Expired combines ShowStart and IsExpired. The timing is placed on date's
// calendar day in now's location. An unparseable timing is an error.
func Expired(date time.Time, timing string, now time.Time) (bool, error) {
	start, err := ShowStart(CalendarDay(date, now.Location()), timing)
	if err != nil {
		return false, err
	}
	return IsExpired(start, now), nil
}
