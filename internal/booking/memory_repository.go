package booking

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryAppointmentRepository is a volatile in-memory adapter. It is the
// reference implementation for the repository contract: the mutex makes the
// capacity check and the write one atomic unit, so it gives the same
// write-time guarantee as the Postgres adapter's advisory lock.
type MemoryAppointmentRepository struct {
	mu    sync.RWMutex
	appts map[uuid.UUID]Appointment
}

func NewMemoryAppointmentRepository() *MemoryAppointmentRepository {
	return &MemoryAppointmentRepository{
		appts: make(map[uuid.UUID]Appointment),
	}
}

func (r *MemoryAppointmentRepository) GetAll(ctx context.Context) ([]Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(func(Appointment) bool { return true }), nil
}

func (r *MemoryAppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *MemoryAppointmentRepository) GetByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(func(a Appointment) bool { return a.PatientID == patientID }), nil
}

func (r *MemoryAppointmentRepository) GetByDate(ctx context.Context, date AppointmentDate) ([]Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(func(a Appointment) bool { return a.Date.Equal(date) }), nil
}

func (r *MemoryAppointmentRepository) GetByDateRange(ctx context.Context, start, end AppointmentDate) ([]Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(func(a Appointment) bool {
		return !a.Date.Before(start) && !a.Date.After(end)
	}), nil
}

func (r *MemoryAppointmentRepository) CountActiveForSlot(ctx context.Context, date AppointmentDate, t AppointmentTime, excludeID uuid.UUID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return CountActiveForSlot(r.all(), date, t, excludeID), nil
}

func (r *MemoryAppointmentRepository) CountConfirmedForSlot(ctx context.Context, date AppointmentDate, t AppointmentTime, excludeID uuid.UUID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return CountConfirmedForSlot(r.all(), date, t, excludeID), nil
}

func (r *MemoryAppointmentRepository) HasConfirmedOnDate(ctx context.Context, patientID uuid.UUID, date AppointmentDate, excludeID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return HasConfirmedOnDate(r.all(), patientID, date, excludeID), nil
}

func (r *MemoryAppointmentRepository) Create(ctx context.Context, a *Appointment) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.Status.IsActive() {
		count := CountActiveForSlot(r.all(), a.Date, a.Time, uuid.Nil)
		if err := CheckSlotCapacity(a.Date, a.Time, count); err != nil {
			return uuid.Nil, err
		}
	}

	id := uuid.New()
	stored := *a
	stored.ID = id
	r.appts[id] = stored
	return id, nil
}

func (r *MemoryAppointmentRepository) UpdateFromStatus(ctx context.Context, id uuid.UUID, from AppointmentStatus, a *Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.appts[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	if cur.Status != from {
		return ErrStatusChanged
	}

	if a.Status.IsActive() {
		count := CountActiveForSlot(r.all(), a.Date, a.Time, id)
		if a.Status == StatusConfirmed {
			count = CountConfirmedForSlot(r.all(), a.Date, a.Time, id)
		}
		if err := CheckSlotCapacity(a.Date, a.Time, count); err != nil {
			return err
		}
	}

	stored := *a
	stored.ID = id
	r.appts[id] = stored
	return nil
}

func (r *MemoryAppointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appts[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(r.appts, id)
	return nil
}

// all returns the backing records as a slice; callers must hold the lock.
func (r *MemoryAppointmentRepository) all() []Appointment {
	out := make([]Appointment, 0, len(r.appts))
	for _, a := range r.appts {
		out = append(out, a)
	}
	return out
}

func (r *MemoryAppointmentRepository) snapshot(keep func(Appointment) bool) []Appointment {
	var out []Appointment
	for _, a := range r.appts {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// MemoryScheduleRepository is the in-memory doctor calendar adapter.
type MemoryScheduleRepository struct {
	mu     sync.RWMutex
	scheds map[uuid.UUID]Schedule
}

func NewMemoryScheduleRepository() *MemoryScheduleRepository {
	return &MemoryScheduleRepository{
		scheds: make(map[uuid.UUID]Schedule),
	}
}

func (r *MemoryScheduleRepository) GetAll(ctx context.Context) ([]Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(func(Schedule) bool { return true }), nil
}

func (r *MemoryScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scheds[id]
	if !ok {
		return nil, ErrScheduleNotFound
	}
	return &s, nil
}

func (r *MemoryScheduleRepository) GetByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(func(s Schedule) bool { return s.DoctorID == doctorID }), nil
}

func (r *MemoryScheduleRepository) GetByDate(ctx context.Context, date AppointmentDate) ([]Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(func(s Schedule) bool { return s.Date.Equal(date) }), nil
}

func (r *MemoryScheduleRepository) FindConflicts(ctx context.Context, doctorID uuid.UUID, date AppointmentDate, t AppointmentTime, excludeID uuid.UUID) ([]Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return FindScheduleConflicts(r.allLocked(), doctorID, date, t, excludeID), nil
}

func (r *MemoryScheduleRepository) Create(ctx context.Context, s *Schedule) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New()
	stored := *s
	stored.ID = id
	r.scheds[id] = stored
	return id, nil
}

func (r *MemoryScheduleRepository) Update(ctx context.Context, id uuid.UUID, s *Schedule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.scheds[id]; !ok {
		return ErrScheduleNotFound
	}
	stored := *s
	stored.ID = id
	r.scheds[id] = stored
	return nil
}

func (r *MemoryScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.scheds[id]; !ok {
		return ErrScheduleNotFound
	}
	delete(r.scheds, id)
	return nil
}

func (r *MemoryScheduleRepository) allLocked() []Schedule {
	out := make([]Schedule, 0, len(r.scheds))
	for _, s := range r.scheds {
		out = append(out, s)
	}
	return out
}

func (r *MemoryScheduleRepository) snapshot(keep func(Schedule) bool) []Schedule {
	var out []Schedule
	for _, s := range r.scheds {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}
