package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/booking"
)

func createAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		cmd := booking.CreateAppointmentCommand{
			PatientID:      patientID,
			PatientName:    req.PatientName,
			ReasonForVisit: req.ReasonForVisit,
			Date:           req.Date,
			Time:           req.Time,
			DoctorName:     req.DoctorName,
			ContactNumber:  req.ContactNumber,
		}
		if req.DoctorID != nil {
			doctorID, err := uuid.Parse(*req.DoctorID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
				return
			}
			cmd.DoctorID = &doctorID
		}

		appt, err := svc.CreateAppointment(r.Context(), cmd)
		if err != nil {
			writeBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var (
			appts []booking.Appointment
			err   error
		)
		switch {
		case q.Get("date") != "":
			appts, err = svc.ListAppointmentsByDate(r.Context(), q.Get("date"))
		case q.Get("start") != "" || q.Get("end") != "":
			appts, err = svc.ListAppointmentsByDateRange(r.Context(), q.Get("start"), q.Get("end"))
		default:
			appts, err = svc.ListAppointments(r.Context())
		}
		if err != nil {
			writeBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

func getAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			writeBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func updateAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req UpdateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		cmd := booking.UpdateAppointmentCommand{
			PatientName:    req.PatientName,
			ReasonForVisit: req.ReasonForVisit,
			Date:           req.Date,
			Time:           req.Time,
			DoctorName:     req.DoctorName,
			ContactNumber:  req.ContactNumber,
		}
		if req.DoctorID != nil {
			doctorID, err := uuid.Parse(*req.DoctorID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
				return
			}
			cmd.DoctorID = &doctorID
		}

		appt, err := svc.UpdateAppointment(r.Context(), id, cmd)
		if err != nil {
			writeBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func confirmAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return transitionHandler(svc.ConfirmAppointment)
}

func cancelAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return transitionHandler(svc.CancelAppointment)
}

func completeAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return transitionHandler(svc.CompleteAppointment)
}

func rescheduleAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req RescheduleAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.RescheduleAppointment(r.Context(), id, req.Date, req.Time)
		if err != nil {
			writeBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func deleteAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteAppointment(r.Context(), id); err != nil {
			writeBookingError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listPatientAppointmentsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		appts, err := svc.ListAppointmentsByPatient(r.Context(), patientID)
		if err != nil {
			writeBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

// transitionHandler wraps the single-id state machine operations, which all
// share a shape: parse id, run, return the updated appointment.
func transitionHandler(op func(ctx context.Context, id uuid.UUID) (*booking.Appointment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		appt, err := op(r.Context(), id)
		if err != nil {
			writeBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
