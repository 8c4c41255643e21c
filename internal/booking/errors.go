package booking

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrScheduleNotFound    = errors.New("schedule not found")
	ErrSlotContended       = errors.New("slot is currently being booked, please retry")
	ErrStatusChanged       = errors.New("appointment status changed concurrently")
)

// ValidationError reports a single field that failed format or range rules.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// SlotUnavailableError reports a slot whose capacity rule was violated. Count
// is the occupancy observed at validation time so callers can suggest
// alternatives.
type SlotUnavailableError struct {
	Date  AppointmentDate
	Time  AppointmentTime
	Count int
	Max   int
}

func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("slot %s %s is full (%d/%d)", e.Date, e.Time, e.Count, e.Max)
}

// DuplicateAppointmentError reports a patient who already holds a confirmed
// appointment on the given date.
type DuplicateAppointmentError struct {
	PatientID uuid.UUID
	Date      AppointmentDate
}

func (e *DuplicateAppointmentError) Error() string {
	return fmt.Sprintf("patient %s already has a confirmed appointment on %s", e.PatientID, e.Date)
}

// ScheduleConflictError reports a doctor calendar entry that overlaps an
// existing one. The conflicting entry's slot is carried for diagnostics.
type ScheduleConflictError struct {
	DoctorID uuid.UUID
	Date     AppointmentDate
	Time     AppointmentTime
}

func (e *ScheduleConflictError) Error() string {
	return fmt.Sprintf("doctor %s already has a schedule entry at %s %s", e.DoctorID, e.Date, e.Time)
}

// InvalidStateTransitionError reports a status change that the appointment
// state machine does not permit from the current status.
type InvalidStateTransitionError struct {
	From AppointmentStatus
	Op   string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s an appointment with status %q", e.Op, e.From)
}
