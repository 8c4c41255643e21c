package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/booking"
)

type CreateAppointmentRequest struct {
	PatientID      string  `json:"patient_id"`
	PatientName    string  `json:"patient_name"`
	ReasonForVisit string  `json:"reason_for_visit"`
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	DoctorID       *string `json:"doctor_id,omitempty"`
	DoctorName     *string `json:"doctor_name,omitempty"`
	ContactNumber  *string `json:"contact_number,omitempty"`
}

type UpdateAppointmentRequest struct {
	PatientName    *string `json:"patient_name,omitempty"`
	ReasonForVisit *string `json:"reason_for_visit,omitempty"`
	Date           *string `json:"date,omitempty"`
	Time           *string `json:"time,omitempty"`
	DoctorID       *string `json:"doctor_id,omitempty"`
	DoctorName     *string `json:"doctor_name,omitempty"`
	ContactNumber  *string `json:"contact_number,omitempty"`
}

type RescheduleAppointmentRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type AppointmentResponse struct {
	ID             uuid.UUID  `json:"id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	PatientName    string     `json:"patient_name"`
	ReasonForVisit string     `json:"reason_for_visit"`
	Date           string     `json:"date"`
	Time           string     `json:"time"`
	DoctorID       *uuid.UUID `json:"doctor_id,omitempty"`
	DoctorName     *string    `json:"doctor_name,omitempty"`
	ContactNumber  *string    `json:"contact_number,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:             a.ID,
		PatientID:      a.PatientID,
		PatientName:    a.PatientName,
		ReasonForVisit: a.ReasonForVisit,
		Date:           a.Date.String(),
		Time:           a.Time.String(),
		DoctorID:       a.DoctorID,
		DoctorName:     a.DoctorName,
		ContactNumber:  a.ContactNumber,
		Status:         string(a.Status),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func toAppointmentResponses(appts []booking.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for i := range appts {
		out = append(out, toAppointmentResponse(&appts[i]))
	}
	return out
}

type CreateScheduleRequest struct {
	DoctorID string `json:"doctor_id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}

type UpdateScheduleRequest struct {
	Date *string `json:"date,omitempty"`
	Time *string `json:"time,omitempty"`
}

type ScheduleResponse struct {
	ID        uuid.UUID  `json:"id"`
	DoctorID  uuid.UUID  `json:"doctor_id"`
	Date      string     `json:"date"`
	Time      string     `json:"time"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func toScheduleResponse(s *booking.Schedule) ScheduleResponse {
	return ScheduleResponse{
		ID:        s.ID,
		DoctorID:  s.DoctorID,
		Date:      s.Date.String(),
		Time:      s.Time.String(),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func toScheduleResponses(scheds []booking.Schedule) []ScheduleResponse {
	out := make([]ScheduleResponse, 0, len(scheds))
	for i := range scheds {
		out = append(out, toScheduleResponse(&scheds[i]))
	}
	return out
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
