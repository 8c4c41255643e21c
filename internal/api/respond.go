package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/hackgods/clinic-scheduling/internal/booking"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// writeBookingError maps the booking error taxonomy onto HTTP. Every member
// is an expected business outcome, so only unrecognized errors become 500s.
func writeBookingError(w http.ResponseWriter, err error) {
	var (
		validationErr *booking.ValidationError
		slotErr       *booking.SlotUnavailableError
		dupErr        *booking.DuplicateAppointmentError
		conflictErr   *booking.ScheduleConflictError
		transitionErr *booking.InvalidStateTransitionError
	)

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, "validation_failed", validationErr.Error())
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, booking.ErrScheduleNotFound):
		writeError(w, http.StatusNotFound, "schedule_not_found", err.Error())
	case errors.As(err, &slotErr):
		writeError(w, http.StatusConflict, "slot_unavailable", slotErr.Error())
	case errors.As(err, &dupErr):
		writeError(w, http.StatusConflict, "duplicate_appointment", dupErr.Error())
	case errors.As(err, &conflictErr):
		writeError(w, http.StatusConflict, "schedule_conflict", conflictErr.Error())
	case errors.As(err, &transitionErr):
		writeError(w, http.StatusConflict, "invalid_status_transition", transitionErr.Error())
	case errors.Is(err, booking.ErrSlotContended):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, booking.ErrStatusChanged):
		writeError(w, http.StatusConflict, "appointment_modified", "appointment was modified concurrently, please retry")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
