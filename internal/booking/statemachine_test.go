package booking

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newTestAppointment(t *testing.T) *Appointment {
	t.Helper()
	appt, err := NewAppointment(uuid.New(), "Jane Roe", "Annual physical",
		mustDate(t, "2025-06-10"), mustTime(t, "09:00"))
	assert.NoError(t, err)
	return appt
}

func TestNewAppointmentValidation(t *testing.T) {
	setFixedClock(t)
	date, at := mustDate(t, "2025-06-10"), mustTime(t, "09:00")

	t.Run("trims text fields", func(t *testing.T) {
		appt, err := NewAppointment(uuid.New(), "  Jane Roe  ", " checkup ", date, at)
		assert.NoError(t, err)
		assert.Equal(t, "Jane Roe", appt.PatientName)
		assert.Equal(t, "checkup", appt.ReasonForVisit)
		assert.Equal(t, StatusScheduled, appt.Status)
		assert.Equal(t, uuid.Nil, appt.ID, "id is assigned by the repository")
		assert.Nil(t, appt.UpdatedAt)
	})

	t.Run("rejects blank name", func(t *testing.T) {
		_, err := NewAppointment(uuid.New(), "   ", "checkup", date, at)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Equal(t, "patient_name", verr.Field)
	})

	t.Run("rejects blank reason", func(t *testing.T) {
		_, err := NewAppointment(uuid.New(), "Jane Roe", "", date, at)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Equal(t, "reason_for_visit", verr.Field)
	})

	t.Run("rejects nil patient id", func(t *testing.T) {
		_, err := NewAppointment(uuid.Nil, "Jane Roe", "checkup", date, at)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestConfirmTransition(t *testing.T) {
	setFixedClock(t)

	appt := newTestAppointment(t)
	assert.NoError(t, appt.Confirm())
	assert.Equal(t, StatusConfirmed, appt.Status)
	assert.NotNil(t, appt.UpdatedAt)

	var terr *InvalidStateTransitionError
	assert.ErrorAs(t, appt.Confirm(), &terr, "confirming twice is rejected")
	assert.Equal(t, StatusConfirmed, terr.From)
}

func TestCancelTransition(t *testing.T) {
	setFixedClock(t)

	t.Run("from scheduled", func(t *testing.T) {
		appt := newTestAppointment(t)
		assert.NoError(t, appt.Cancel())
		assert.Equal(t, StatusCancelled, appt.Status)
	})

	t.Run("from confirmed", func(t *testing.T) {
		appt := newTestAppointment(t)
		assert.NoError(t, appt.Confirm())
		assert.NoError(t, appt.Cancel())
	})

	t.Run("double cancel is an error, not a no-op", func(t *testing.T) {
		appt := newTestAppointment(t)
		assert.NoError(t, appt.Cancel())
		var terr *InvalidStateTransitionError
		assert.ErrorAs(t, appt.Cancel(), &terr)
		assert.Equal(t, StatusCancelled, terr.From)
		assert.Equal(t, "cancel", terr.Op)
	})
}

func TestCompleteTransition(t *testing.T) {
	setFixedClock(t)

	t.Run("only from confirmed", func(t *testing.T) {
		appt := newTestAppointment(t)
		var terr *InvalidStateTransitionError
		assert.ErrorAs(t, appt.Complete(), &terr)
	})

	t.Run("rejects future appointments", func(t *testing.T) {
		appt := newTestAppointment(t)
		appt.Time = mustTime(t, "16:30") // fixed clock is 12:00
		assert.NoError(t, appt.Confirm())
		var verr *ValidationError
		assert.ErrorAs(t, appt.Complete(), &verr)
		assert.Equal(t, StatusConfirmed, appt.Status)
	})

	t.Run("completes a past confirmed appointment", func(t *testing.T) {
		appt := newTestAppointment(t) // 09:00, already past at 12:00
		assert.NoError(t, appt.Confirm())
		assert.NoError(t, appt.Complete())
		assert.Equal(t, StatusCompleted, appt.Status)

		var terr *InvalidStateTransitionError
		assert.ErrorAs(t, appt.Cancel(), &terr, "completed is terminal")
	})
}

func TestRescheduleTransition(t *testing.T) {
	setFixedClock(t)
	newDate, newTime := mustDate(t, "2025-06-11"), mustTime(t, "10:00")

	t.Run("confirmed resets to scheduled", func(t *testing.T) {
		appt := newTestAppointment(t)
		assert.NoError(t, appt.Confirm())
		assert.NoError(t, appt.Reschedule(newDate, newTime))
		assert.Equal(t, StatusScheduled, appt.Status, "changed slot must be re-cleared")
		assert.True(t, appt.Date.Equal(newDate))
		assert.True(t, appt.Time.Equal(newTime))
	})

	t.Run("rejected from terminal states", func(t *testing.T) {
		appt := newTestAppointment(t)
		assert.NoError(t, appt.Cancel())
		var terr *InvalidStateTransitionError
		assert.ErrorAs(t, appt.Reschedule(newDate, newTime), &terr)
	})
}

func TestChangesetApply(t *testing.T) {
	setFixedClock(t)

	t.Run("merges only set fields", func(t *testing.T) {
		appt := newTestAppointment(t)
		name := "John Doe"
		contact := "555-0100"
		assert.NoError(t, appt.Apply(Changeset{PatientName: &name, ContactNumber: &contact}))
		assert.Equal(t, "John Doe", appt.PatientName)
		assert.Equal(t, "555-0100", *appt.ContactNumber)
		assert.Equal(t, "Annual physical", appt.ReasonForVisit)
		assert.Equal(t, StatusScheduled, appt.Status, "update never touches status")
		assert.NotNil(t, appt.UpdatedAt)
	})

	t.Run("re-validates text fields", func(t *testing.T) {
		appt := newTestAppointment(t)
		blank := "   "
		var verr *ValidationError
		assert.ErrorAs(t, appt.Apply(Changeset{ReasonForVisit: &blank}), &verr)
	})

	t.Run("rejected on terminal appointments", func(t *testing.T) {
		appt := newTestAppointment(t)
		assert.NoError(t, appt.Cancel())
		name := "John Doe"
		var terr *InvalidStateTransitionError
		assert.ErrorAs(t, appt.Apply(Changeset{PatientName: &name}), &terr)
	})

	t.Run("detects slot changes", func(t *testing.T) {
		appt := newTestAppointment(t)
		sameDate := appt.Date
		otherTime := mustTime(t, "10:30")
		assert.False(t, Changeset{Date: &sameDate}.ChangesSlot(appt))
		assert.True(t, Changeset{Time: &otherTime}.ChangesSlot(appt))
	})
}
