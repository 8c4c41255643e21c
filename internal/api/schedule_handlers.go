package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/booking"
)

func createScheduleHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		sched, err := svc.CreateSchedule(r.Context(), booking.CreateScheduleCommand{
			DoctorID: doctorID,
			Date:     req.Date,
			Time:     req.Time,
		})
		if err != nil {
			writeBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toScheduleResponse(sched))
	}
}

func listSchedulesHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			scheds []booking.Schedule
			err    error
		)
		if date := r.URL.Query().Get("date"); date != "" {
			scheds, err = svc.ListSchedulesByDate(r.Context(), date)
		} else {
			scheds, err = svc.ListSchedules(r.Context())
		}
		if err != nil {
			writeBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toScheduleResponses(scheds))
	}
}

func getScheduleHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseScheduleIDParam(w, r)
		if !ok {
			return
		}

		sched, err := svc.GetSchedule(r.Context(), id)
		if err != nil {
			writeBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toScheduleResponse(sched))
	}
}

func updateScheduleHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseScheduleIDParam(w, r)
		if !ok {
			return
		}

		var req UpdateScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		sched, err := svc.UpdateSchedule(r.Context(), id, booking.UpdateScheduleCommand{
			Date: req.Date,
			Time: req.Time,
		})
		if err != nil {
			writeBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toScheduleResponse(sched))
	}
}

func deleteScheduleHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseScheduleIDParam(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteSchedule(r.Context(), id); err != nil {
			writeBookingError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listDoctorSchedulesHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		scheds, err := svc.ListSchedulesByDoctor(r.Context(), doctorID)
		if err != nil {
			writeBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toScheduleResponses(scheds))
	}
}

func parseScheduleIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_schedule_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
