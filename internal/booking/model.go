package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// IsActive reports whether the status still occupies slot capacity.
func (s AppointmentStatus) IsActive() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

// IsTerminal reports whether the status permits no further transitions.
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Appointment is the patient booking record. The repository assigns ID on
// creation; before persistence it is uuid.Nil. All business state changes go
// through the state machine methods, never through direct field writes.
type Appointment struct {
	ID             uuid.UUID
	PatientID      uuid.UUID
	PatientName    string
	ReasonForVisit string
	Date           AppointmentDate
	Time           AppointmentTime
	DoctorID       *uuid.UUID
	DoctorName     *string
	ContactNumber  *string
	Status         AppointmentStatus
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// NewAppointment builds a scheduled appointment, validating required text
// fields. Date and Time are assumed to be already-constructed value objects.
func NewAppointment(patientID uuid.UUID, patientName, reason string, date AppointmentDate, t AppointmentTime) (*Appointment, error) {
	patientName = strings.TrimSpace(patientName)
	if patientName == "" {
		return nil, &ValidationError{Field: "patient_name", Value: patientName, Reason: "must not be empty"}
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, &ValidationError{Field: "reason_for_visit", Value: reason, Reason: "must not be empty"}
	}
	if patientID == uuid.Nil {
		return nil, &ValidationError{Field: "patient_id", Value: patientID.String(), Reason: "must be a valid UUID"}
	}

	return &Appointment{
		PatientID:      patientID,
		PatientName:    patientName,
		ReasonForVisit: reason,
		Date:           date,
		Time:           t,
		Status:         StatusScheduled,
		CreatedAt:      nowFunc().UTC(),
	}, nil
}

func (a *Appointment) touch() {
	now := nowFunc().UTC()
	a.UpdatedAt = &now
}

// Changeset carries a partial update to an appointment's non-status fields.
// Nil pointers mean "leave unchanged". Status is deliberately absent: status
// only moves through the state machine.
type Changeset struct {
	PatientName    *string
	ReasonForVisit *string
	Date           *AppointmentDate
	Time           *AppointmentTime
	DoctorID       *uuid.UUID
	DoctorName     *string
	ContactNumber  *string
}

// ChangesSlot reports whether applying the changeset would move the
// appointment to a different (date, time) pair.
func (c Changeset) ChangesSlot(a *Appointment) bool {
	if c.Date != nil && !c.Date.Equal(a.Date) {
		return true
	}
	if c.Time != nil && !c.Time.Equal(a.Time) {
		return true
	}
	return false
}

// Apply merges the changeset into the appointment, re-running the same field
// validations as creation. Terminal appointments reject updates.
func (a *Appointment) Apply(c Changeset) error {
	if a.Status.IsTerminal() {
		return &InvalidStateTransitionError{From: a.Status, Op: "update"}
	}

	if c.PatientName != nil {
		name := strings.TrimSpace(*c.PatientName)
		if name == "" {
			return &ValidationError{Field: "patient_name", Value: *c.PatientName, Reason: "must not be empty"}
		}
		a.PatientName = name
	}
	if c.ReasonForVisit != nil {
		reason := strings.TrimSpace(*c.ReasonForVisit)
		if reason == "" {
			return &ValidationError{Field: "reason_for_visit", Value: *c.ReasonForVisit, Reason: "must not be empty"}
		}
		a.ReasonForVisit = reason
	}
	if c.Date != nil {
		a.Date = *c.Date
	}
	if c.Time != nil {
		a.Time = *c.Time
	}
	if c.DoctorID != nil {
		a.DoctorID = c.DoctorID
	}
	if c.DoctorName != nil {
		a.DoctorName = c.DoctorName
	}
	if c.ContactNumber != nil {
		a.ContactNumber = c.ContactNumber
	}

	a.touch()
	return nil
}

// Schedule is one doctor-date-time reservation on a doctor's working
// calendar. It blocks doctor availability and is validated independently of
// patient appointments.
type Schedule struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	Date      AppointmentDate
	Time      AppointmentTime
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// NewSchedule builds a calendar entry for a doctor. Conflict detection
// against existing entries happens in the service, not here.
func NewSchedule(doctorID uuid.UUID, date AppointmentDate, t AppointmentTime) (*Schedule, error) {
	if doctorID == uuid.Nil {
		return nil, &ValidationError{Field: "doctor_id", Value: doctorID.String(), Reason: "must be a valid UUID"}
	}
	return &Schedule{
		DoctorID:  doctorID,
		Date:      date,
		Time:      t,
		CreatedAt: nowFunc().UTC(),
	}, nil
}

// ScheduleChangeset carries a partial update to a schedule entry.
type ScheduleChangeset struct {
	Date *AppointmentDate
	Time *AppointmentTime
}

// ChangesSlot reports whether applying the changeset moves the entry.
func (c ScheduleChangeset) ChangesSlot(s *Schedule) bool {
	if c.Date != nil && !c.Date.Equal(s.Date) {
		return true
	}
	if c.Time != nil && !c.Time.Equal(s.Time) {
		return true
	}
	return false
}

// Apply merges the changeset into the schedule entry.
func (s *Schedule) Apply(c ScheduleChangeset) {
	if c.Date != nil {
		s.Date = *c.Date
	}
	if c.Time != nil {
		s.Time = *c.Time
	}
	now := nowFunc().UTC()
	s.UpdatedAt = &now
}
