package booking

import (
	"context"

	"github.com/google/uuid"
)

// AppointmentRepository contains all persistence the appointment use cases
// need. Implementations must make Create and Update atomic with respect to
// the slot-capacity rule: a write that would push a slot past capacity fails
// with *SlotUnavailableError instead of persisting, so two concurrent
// requests can never both land in a full slot.
type AppointmentRepository interface {
	GetAll(ctx context.Context) ([]Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
	GetByDate(ctx context.Context, date AppointmentDate) ([]Appointment, error)
	GetByDateRange(ctx context.Context, start, end AppointmentDate) ([]Appointment, error)

	// Read-side conflict checks
	CountActiveForSlot(ctx context.Context, date AppointmentDate, t AppointmentTime, excludeID uuid.UUID) (int, error)
	CountConfirmedForSlot(ctx context.Context, date AppointmentDate, t AppointmentTime, excludeID uuid.UUID) (int, error)
	HasConfirmedOnDate(ctx context.Context, patientID uuid.UUID, date AppointmentDate, excludeID uuid.UUID) (bool, error)

	// Create assigns and returns the appointment's id.
	Create(ctx context.Context, a *Appointment) (uuid.UUID, error)
	// UpdateFromStatus persists the snapshot only while the stored record
	// still holds the from status, failing with ErrStatusChanged otherwise.
	// Every status transition is a read-modify-write; the guard keeps one
	// from clobbering another that committed in between.
	UpdateFromStatus(ctx context.Context, id uuid.UUID, from AppointmentStatus, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ScheduleRepository persists doctor calendar entries.
type ScheduleRepository interface {
	GetAll(ctx context.Context) ([]Schedule, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error)
	GetByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Schedule, error)
	GetByDate(ctx context.Context, date AppointmentDate) ([]Schedule, error)

	FindConflicts(ctx context.Context, doctorID uuid.UUID, date AppointmentDate, t AppointmentTime, excludeID uuid.UUID) ([]Schedule, error)

	Create(ctx context.Context, s *Schedule) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, s *Schedule) error
	Delete(ctx context.Context, id uuid.UUID) error
}
