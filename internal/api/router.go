package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/clinic-scheduling/internal/booking"
)

type RouterConfig struct {
	Service *booking.Service
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", createAppointmentHandler(cfg.Service))
		r.Get("/", listAppointmentsHandler(cfg.Service))
		r.Get("/{id}", getAppointmentHandler(cfg.Service))
		r.Patch("/{id}", updateAppointmentHandler(cfg.Service))
		r.Delete("/{id}", deleteAppointmentHandler(cfg.Service))
		r.Post("/{id}/confirm", confirmAppointmentHandler(cfg.Service))
		r.Post("/{id}/cancel", cancelAppointmentHandler(cfg.Service))
		r.Post("/{id}/complete", completeAppointmentHandler(cfg.Service))
		r.Post("/{id}/reschedule", rescheduleAppointmentHandler(cfg.Service))
	})

	r.Get("/patients/{id}/appointments", listPatientAppointmentsHandler(cfg.Service))

	r.Route("/schedules", func(r chi.Router) {
		r.Post("/", createScheduleHandler(cfg.Service))
		r.Get("/", listSchedulesHandler(cfg.Service))
		r.Get("/{id}", getScheduleHandler(cfg.Service))
		r.Patch("/{id}", updateScheduleHandler(cfg.Service))
		r.Delete("/{id}", deleteScheduleHandler(cfg.Service))
	})

	r.Get("/doctors/{id}/schedules", listDoctorSchedulesHandler(cfg.Service))

	return r
}
