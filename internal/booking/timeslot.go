package booking

import (
	"fmt"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	// Clinic hours: bookable times are [08:00, 17:00) on a 30 minute grid.
	openingHour = 8
	closingHour = 17
)

// nowFunc is swapped out by tests that need a fixed clock.
var nowFunc = time.Now

// AppointmentDate is a calendar date with no time component.
// The zero value is invalid; construct via ParseAppointmentDate.
type AppointmentDate struct {
	t time.Time // midnight UTC
}

// ParseAppointmentDate parses s as YYYY-MM-DD and enforces the booking window:
// not before today, not more than one year ahead.
func ParseAppointmentDate(s string) (AppointmentDate, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return AppointmentDate{}, &ValidationError{Field: "date", Value: s, Reason: "must be a valid YYYY-MM-DD date"}
	}

	today := truncateToDate(nowFunc())
	if t.Before(today) {
		return AppointmentDate{}, &ValidationError{Field: "date", Value: s, Reason: "must not be in the past"}
	}
	// One calendar year, not 365 days, so the window is stable across leap days.
	if t.After(today.AddDate(1, 0, 0)) {
		return AppointmentDate{}, &ValidationError{Field: "date", Value: s, Reason: "must not be more than one year ahead"}
	}

	return AppointmentDate{t: t}, nil
}

// DateFromTime converts an already-persisted timestamp back into an
// AppointmentDate without re-running the booking-window checks. Repositories
// use it when rehydrating records whose dates were valid at creation time.
func DateFromTime(t time.Time) AppointmentDate {
	return AppointmentDate{t: truncateToDate(t.UTC())}
}

func (d AppointmentDate) String() string                { return d.t.Format(dateLayout) }
func (d AppointmentDate) Time() time.Time               { return d.t }
func (d AppointmentDate) IsZero() bool                  { return d.t.IsZero() }
func (d AppointmentDate) Equal(o AppointmentDate) bool  { return d.t.Equal(o.t) }
func (d AppointmentDate) Before(o AppointmentDate) bool { return d.t.Before(o.t) }
func (d AppointmentDate) After(o AppointmentDate) bool  { return d.t.After(o.t) }

func parseDateLayout(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func truncateToDate(t time.Time) time.Time {
	y, m, day := t.UTC().Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// AppointmentTime is a clinic time-of-day on the 30 minute grid.
// The zero value is invalid; construct via ParseAppointmentTime.
type AppointmentTime struct {
	hour   int
	minute int
	set    bool
}

// ParseAppointmentTime parses s as HH:MM and enforces clinic hours and the
// 30 minute granularity.
func ParseAppointmentTime(s string) (AppointmentTime, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return AppointmentTime{}, &ValidationError{Field: "time", Value: s, Reason: "must be a valid HH:MM time"}
	}

	h, m := t.Hour(), t.Minute()
	if m != 0 && m != 30 {
		return AppointmentTime{}, &ValidationError{Field: "time", Value: s, Reason: "minutes must be :00 or :30"}
	}
	if h < openingHour || h >= closingHour {
		return AppointmentTime{}, &ValidationError{Field: "time", Value: s, Reason: "must be within clinic hours 08:00-17:00"}
	}

	return AppointmentTime{hour: h, minute: m, set: true}, nil
}

// TimeFromParts rebuilds an AppointmentTime from persisted hour/minute
// values without re-running the clinic-hours checks. Repository use only.
func TimeFromParts(hour, minute int) AppointmentTime {
	return AppointmentTime{hour: hour, minute: minute, set: true}
}

func (t AppointmentTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.hour, t.minute)
}

func (t AppointmentTime) IsZero() bool { return !t.set }

func (t AppointmentTime) Equal(o AppointmentTime) bool {
	return t.hour == o.hour && t.minute == o.minute
}

func (t AppointmentTime) Before(o AppointmentTime) bool {
	if t.hour != o.hour {
		return t.hour < o.hour
	}
	return t.minute < o.minute
}

func (t AppointmentTime) After(o AppointmentTime) bool { return o.Before(t) }

// Minutes returns the time as minutes since midnight, used for ordering and
// for the half-open window intersection test.
func (t AppointmentTime) Minutes() int { return t.hour*60 + t.minute }

// At combines a date and a time into a single instant in UTC.
func (d AppointmentDate) At(t AppointmentTime) time.Time {
	return d.t.Add(time.Duration(t.Minutes()) * time.Minute)
}

// SlotKey identifies the capacity-limiting unit for booking: one exact
// (date, time) pair. It doubles as the distributed-lock key suffix.
func SlotKey(d AppointmentDate, t AppointmentTime) string {
	return d.String() + "|" + t.String()
}

// CompareSlots orders two (date, time) pairs ascending. It returns a negative
// number, zero, or a positive number in the manner of strings.Compare, so it
// plugs straight into slices.SortStableFunc.
func CompareSlots(d1 AppointmentDate, t1 AppointmentTime, d2 AppointmentDate, t2 AppointmentTime) int {
	switch {
	case d1.Before(d2):
		return -1
	case d1.After(d2):
		return 1
	}
	switch {
	case t1.Before(t2):
		return -1
	case t1.After(t2):
		return 1
	}
	return 0
}
