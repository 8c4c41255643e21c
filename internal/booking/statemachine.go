package booking

// State machine for Appointment.Status. Capacity and duplicate rules are the
// service's job; these methods enforce only which transitions exist.
//
//	scheduled ──confirm──▶ confirmed ──complete──▶ completed
//	    │                      │
//	    └───────cancel─────────┴──────▶ cancelled
//	    ▲                      │
//	    └──────reschedule──────┘   (reschedule also loops scheduled→scheduled)
//
// cancelled and completed are terminal.

// Confirm moves scheduled → confirmed.
func (a *Appointment) Confirm() error {
	if a.Status != StatusScheduled {
		return &InvalidStateTransitionError{From: a.Status, Op: "confirm"}
	}
	a.Status = StatusConfirmed
	a.touch()
	return nil
}

// Cancel moves scheduled or confirmed → cancelled. Cancelling twice is an
// error, not a no-op: the second cancel is reported so callers learn the
// record was already closed.
func (a *Appointment) Cancel() error {
	if !a.Status.IsActive() {
		return &InvalidStateTransitionError{From: a.Status, Op: "cancel"}
	}
	a.Status = StatusCancelled
	a.touch()
	return nil
}

// Complete moves confirmed → completed, and only once the appointment's
// date and time have passed.
func (a *Appointment) Complete() error {
	if a.Status != StatusConfirmed {
		return &InvalidStateTransitionError{From: a.Status, Op: "complete"}
	}
	if a.Date.At(a.Time).After(nowFunc().UTC()) {
		return &ValidationError{Field: "status", Value: string(StatusCompleted), Reason: "appointment is still in the future"}
	}
	a.Status = StatusCompleted
	a.touch()
	return nil
}

// Reschedule moves the appointment to a new slot and resets the status to
// scheduled. A confirmed appointment loses its confirmation: the new slot has
// to be re-cleared for capacity before it counts as confirmed again.
func (a *Appointment) Reschedule(newDate AppointmentDate, newTime AppointmentTime) error {
	if !a.Status.IsActive() {
		return &InvalidStateTransitionError{From: a.Status, Op: "reschedule"}
	}
	a.Date = newDate
	a.Time = newTime
	a.Status = StatusScheduled
	a.touch()
	return nil
}
