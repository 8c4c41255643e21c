package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Compile-time check to ensure mockAppointmentRepository implements AppointmentRepository
var _ AppointmentRepository = (*mockAppointmentRepository)(nil)

// mockAppointmentRepository is a func-field mock; unset funcs fail loudly.
type mockAppointmentRepository struct {
	GetAllFunc                func(ctx context.Context) ([]Appointment, error)
	GetByIDFunc               func(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetByPatientFunc          func(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
	GetByDateFunc             func(ctx context.Context, date AppointmentDate) ([]Appointment, error)
	GetByDateRangeFunc        func(ctx context.Context, start, end AppointmentDate) ([]Appointment, error)
	CountActiveForSlotFunc    func(ctx context.Context, date AppointmentDate, t AppointmentTime, excludeID uuid.UUID) (int, error)
	CountConfirmedForSlotFunc func(ctx context.Context, date AppointmentDate, t AppointmentTime, excludeID uuid.UUID) (int, error)
	HasConfirmedOnDateFunc    func(ctx context.Context, patientID uuid.UUID, date AppointmentDate, excludeID uuid.UUID) (bool, error)
	CreateFunc                func(ctx context.Context, a *Appointment) (uuid.UUID, error)
	UpdateFromStatusFunc      func(ctx context.Context, id uuid.UUID, from AppointmentStatus, a *Appointment) error
	DeleteFunc                func(ctx context.Context, id uuid.UUID) error
}

func (m *mockAppointmentRepository) GetAll(ctx context.Context) ([]Appointment, error) {
	if m.GetAllFunc != nil {
		return m.GetAllFunc(ctx)
	}
	return nil, errors.New("GetAllFunc not implemented in mock")
}

func (m *mockAppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, errors.New("GetByIDFunc not implemented in mock")
}

func (m *mockAppointmentRepository) GetByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	if m.GetByPatientFunc != nil {
		return m.GetByPatientFunc(ctx, patientID)
	}
	return nil, errors.New("GetByPatientFunc not implemented in mock")
}

func (m *mockAppointmentRepository) GetByDate(ctx context.Context, date AppointmentDate) ([]Appointment, error) {
	if m.GetByDateFunc != nil {
		return m.GetByDateFunc(ctx, date)
	}
	return nil, errors.New("GetByDateFunc not implemented in mock")
}

func (m *mockAppointmentRepository) GetByDateRange(ctx context.Context, start, end AppointmentDate) ([]Appointment, error) {
	if m.GetByDateRangeFunc != nil {
		return m.GetByDateRangeFunc(ctx, start, end)
	}
	return nil, errors.New("GetByDateRangeFunc not implemented in mock")
}

func (m *mockAppointmentRepository) CountActiveForSlot(ctx context.Context, date AppointmentDate, t AppointmentTime, excludeID uuid.UUID) (int, error) {
	if m.CountActiveForSlotFunc != nil {
		return m.CountActiveForSlotFunc(ctx, date, t, excludeID)
	}
	return 0, errors.New("CountActiveForSlotFunc not implemented in mock")
}

func (m *mockAppointmentRepository) CountConfirmedForSlot(ctx context.Context, date AppointmentDate, t AppointmentTime, excludeID uuid.UUID) (int, error) {
	if m.CountConfirmedForSlotFunc != nil {
		return m.CountConfirmedForSlotFunc(ctx, date, t, excludeID)
	}
	return 0, errors.New("CountConfirmedForSlotFunc not implemented in mock")
}

func (m *mockAppointmentRepository) HasConfirmedOnDate(ctx context.Context, patientID uuid.UUID, date AppointmentDate, excludeID uuid.UUID) (bool, error) {
	if m.HasConfirmedOnDateFunc != nil {
		return m.HasConfirmedOnDateFunc(ctx, patientID, date, excludeID)
	}
	return false, errors.New("HasConfirmedOnDateFunc not implemented in mock")
}

func (m *mockAppointmentRepository) Create(ctx context.Context, a *Appointment) (uuid.UUID, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, a)
	}
	return uuid.Nil, errors.New("CreateFunc not implemented in mock")
}

func (m *mockAppointmentRepository) UpdateFromStatus(ctx context.Context, id uuid.UUID, from AppointmentStatus, a *Appointment) error {
	if m.UpdateFromStatusFunc != nil {
		return m.UpdateFromStatusFunc(ctx, id, from, a)
	}
	return errors.New("UpdateFromStatusFunc not implemented in mock")
}

func (m *mockAppointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return errors.New("DeleteFunc not implemented in mock")
}

// mockLocker records lock keys and can simulate contention. Before, when
// set, runs after acquisition and before the critical section, to interleave
// a competing write at the worst possible moment.
type mockLocker struct {
	Err    error
	Keys   []string
	Before func()
}

func (m *mockLocker) WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	m.Keys = append(m.Keys, key)
	if m.Err != nil {
		return m.Err
	}
	if m.Before != nil {
		m.Before()
	}
	return fn(ctx)
}
