package booking

import "github.com/google/uuid"

// MaxSlotCapacity is the number of appointments one (date, time) slot holds.
// Creation is gated on the count of active appointments; confirmation is gated
// on the count of already-confirmed ones.
const MaxSlotCapacity = 4

// The conflict policy is pure: every function here decides over data the
// caller already loaded, so the same rules produce the same outcome no matter
// which storage adapter is active. The adapters reuse these functions for
// their read-side counts.

// CountActiveForSlot counts appointments occupying the exact (date, time)
// pair whose status is scheduled or confirmed, skipping excludeID.
func CountActiveForSlot(appts []Appointment, date AppointmentDate, t AppointmentTime, excludeID uuid.UUID) int {
	n := 0
	for i := range appts {
		a := &appts[i]
		if a.ID == excludeID {
			continue
		}
		if a.Status.IsActive() && a.Date.Equal(date) && a.Time.Equal(t) {
			n++
		}
	}
	return n
}

// CountConfirmedForSlot counts confirmed appointments in the slot, skipping
// excludeID.
func CountConfirmedForSlot(appts []Appointment, date AppointmentDate, t AppointmentTime, excludeID uuid.UUID) int {
	n := 0
	for i := range appts {
		a := &appts[i]
		if a.ID == excludeID {
			continue
		}
		if a.Status == StatusConfirmed && a.Date.Equal(date) && a.Time.Equal(t) {
			n++
		}
	}
	return n
}

// HasConfirmedOnDate reports whether the patient holds a confirmed
// appointment on the date, skipping excludeID. Scheduled duplicates are fine;
// confirmation is the gating act.
func HasConfirmedOnDate(appts []Appointment, patientID uuid.UUID, date AppointmentDate, excludeID uuid.UUID) bool {
	for i := range appts {
		a := &appts[i]
		if a.ID == excludeID {
			continue
		}
		if a.PatientID == patientID && a.Status == StatusConfirmed && a.Date.Equal(date) {
			return true
		}
	}
	return false
}

// CheckSlotCapacity turns an observed occupancy into a typed failure when the
// slot is full.
func CheckSlotCapacity(date AppointmentDate, t AppointmentTime, count int) error {
	if count >= MaxSlotCapacity {
		return &SlotUnavailableError{Date: date, Time: t, Count: count, Max: MaxSlotCapacity}
	}
	return nil
}

// FindScheduleConflicts returns the existing entries that conflict with a
// candidate (doctorID, date, time) reservation: same doctor, same date,
// intersecting time window. Point-in-time entries have no duration, so window
// intersection reduces to time equality; if a duration model is added the
// half-open [start, end) overlap test replaces the equality below. The entry
// being updated is excluded by id so a record never conflicts with itself.
func FindScheduleConflicts(existing []Schedule, doctorID uuid.UUID, date AppointmentDate, t AppointmentTime, excludeID uuid.UUID) []Schedule {
	var conflicts []Schedule
	for i := range existing {
		s := &existing[i]
		if s.ID == excludeID {
			continue
		}
		if s.DoctorID != doctorID || !s.Date.Equal(date) {
			continue
		}
		if s.Time.Equal(t) {
			conflicts = append(conflicts, *s)
		}
	}
	return conflicts
}
