package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"

	"github.com/google/uuid"

	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

// Service orchestrates the booking use cases: validate input, load existing
// records, apply the conflict policy, mutate the aggregate, persist once.
// It holds no state of its own; the repositories and locker are injected so
// every storage backend runs the same rules.
type Service struct {
	appts  AppointmentRepository
	scheds ScheduleRepository
	locker redisclient.Locker
}

func NewService(appts AppointmentRepository, scheds ScheduleRepository, locker redisclient.Locker) *Service {
	return &Service{
		appts:  appts,
		scheds: scheds,
		locker: locker,
	}
}

type CreateAppointmentCommand struct {
	PatientID      uuid.UUID
	PatientName    string
	ReasonForVisit string
	Date           string
	Time           string
	DoctorID       *uuid.UUID
	DoctorName     *string
	ContactNumber  *string
}

// CreateAppointment reserves a slot for a patient. The duplicate rule runs
// first, then the capacity rule, both inside the per-slot lock so concurrent
// requests for the same slot cannot both observe free capacity.
func (s *Service) CreateAppointment(ctx context.Context, cmd CreateAppointmentCommand) (*Appointment, error) {
	date, err := ParseAppointmentDate(cmd.Date)
	if err != nil {
		return nil, err
	}
	t, err := ParseAppointmentTime(cmd.Time)
	if err != nil {
		return nil, err
	}

	appt, err := NewAppointment(cmd.PatientID, cmd.PatientName, cmd.ReasonForVisit, date, t)
	if err != nil {
		return nil, err
	}
	appt.DoctorID = cmd.DoctorID
	appt.DoctorName = cmd.DoctorName
	appt.ContactNumber = cmd.ContactNumber

	err = s.withSlotLock(ctx, SlotKey(date, t), func(lockCtx context.Context) error {
		dup, err := s.appts.HasConfirmedOnDate(lockCtx, appt.PatientID, date, uuid.Nil)
		if err != nil {
			return fmt.Errorf("check confirmed on date: %w", err)
		}
		if dup {
			return &DuplicateAppointmentError{PatientID: appt.PatientID, Date: date}
		}

		count, err := s.appts.CountActiveForSlot(lockCtx, date, t, uuid.Nil)
		if err != nil {
			return fmt.Errorf("count active for slot: %w", err)
		}
		if err := CheckSlotCapacity(date, t, count); err != nil {
			return err
		}

		id, err := s.appts.Create(lockCtx, appt)
		if err != nil {
			return s.retryAfterWriteRejection(lockCtx, err, date, t)
		}
		appt.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	return appt, nil
}

type UpdateAppointmentCommand struct {
	PatientName    *string
	ReasonForVisit *string
	Date           *string
	Time           *string
	DoctorID       *uuid.UUID
	DoctorName     *string
	ContactNumber  *string
}

// UpdateAppointment merges a partial update over the existing record. When
// the update moves the appointment to a different slot, both booking rules
// are re-run against the new slot with the current record excluded.
func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, cmd UpdateAppointmentCommand) (*Appointment, error) {
	appt, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ch := Changeset{
		PatientName:    cmd.PatientName,
		ReasonForVisit: cmd.ReasonForVisit,
		DoctorID:       cmd.DoctorID,
		DoctorName:     cmd.DoctorName,
		ContactNumber:  cmd.ContactNumber,
	}
	if cmd.Date != nil {
		date, err := ParseAppointmentDate(*cmd.Date)
		if err != nil {
			return nil, err
		}
		ch.Date = &date
	}
	if cmd.Time != nil {
		t, err := ParseAppointmentTime(*cmd.Time)
		if err != nil {
			return nil, err
		}
		ch.Time = &t
	}

	if !ch.ChangesSlot(appt) {
		for attempt := 0; ; attempt++ {
			if attempt > 0 {
				appt, err = s.appts.GetByID(ctx, id)
				if err != nil {
					return nil, err
				}
			}
			from := appt.Status
			if err := appt.Apply(ch); err != nil {
				return nil, err
			}
			err = s.appts.UpdateFromStatus(ctx, id, from, appt)
			if errors.Is(err, ErrStatusChanged) && attempt == 0 {
				continue
			}
			if err != nil {
				return nil, err
			}
			return appt, nil
		}
	}

	newDate, newTime := appt.Date, appt.Time
	if ch.Date != nil {
		newDate = *ch.Date
	}
	if ch.Time != nil {
		newTime = *ch.Time
	}

	err = s.withSlotLock(ctx, SlotKey(newDate, newTime), func(lockCtx context.Context) error {
		fresh, err := s.appts.GetByID(lockCtx, id)
		if err != nil {
			return err
		}
		if err := s.checkBookingRules(lockCtx, fresh.PatientID, newDate, newTime, id); err != nil {
			return err
		}
		from := fresh.Status
		if err := fresh.Apply(ch); err != nil {
			return err
		}
		if err := s.appts.UpdateFromStatus(lockCtx, id, from, fresh); err != nil {
			return s.retryAfterWriteRejection(lockCtx, err, newDate, newTime)
		}
		appt = fresh
		return nil
	})
	if errors.Is(err, ErrStatusChanged) {
		return nil, s.transitionConflict(ctx, id, "update")
	}
	if err != nil {
		return nil, err
	}

	return appt, nil
}

// ConfirmAppointment moves scheduled → confirmed. Confirmation is gated
// strictly on the count of already-confirmed appointments in the slot, and on
// the patient holding no other confirmed appointment that day.
func (s *Service) ConfirmAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusScheduled {
		return nil, &InvalidStateTransitionError{From: appt.Status, Op: "confirm"}
	}

	err = s.withSlotLock(ctx, SlotKey(appt.Date, appt.Time), func(lockCtx context.Context) error {
		// Re-read under the lock: the record may have moved since the
		// fail-fast check above.
		fresh, err := s.appts.GetByID(lockCtx, id)
		if err != nil {
			return err
		}
		if fresh.Status != StatusScheduled {
			return &InvalidStateTransitionError{From: fresh.Status, Op: "confirm"}
		}

		confirmed, err := s.appts.CountConfirmedForSlot(lockCtx, fresh.Date, fresh.Time, id)
		if err != nil {
			return fmt.Errorf("count confirmed for slot: %w", err)
		}
		if err := CheckSlotCapacity(fresh.Date, fresh.Time, confirmed); err != nil {
			return err
		}

		dup, err := s.appts.HasConfirmedOnDate(lockCtx, fresh.PatientID, fresh.Date, id)
		if err != nil {
			return fmt.Errorf("check confirmed on date: %w", err)
		}
		if dup {
			return &DuplicateAppointmentError{PatientID: fresh.PatientID, Date: fresh.Date}
		}

		if err := fresh.Confirm(); err != nil {
			return err
		}
		if err := s.appts.UpdateFromStatus(lockCtx, id, StatusScheduled, fresh); err != nil {
			return s.retryAfterWriteRejection(lockCtx, err, fresh.Date, fresh.Time)
		}
		appt = fresh
		return nil
	})
	if errors.Is(err, ErrStatusChanged) {
		return nil, s.transitionConflict(ctx, id, "confirm")
	}
	if err != nil {
		return nil, err
	}

	return appt, nil
}

// CancelAppointment moves an active appointment to cancelled. It takes no
// slot lock: cancellation frees capacity and gates on nothing, and the status
// guard on the write keeps it from clobbering a concurrent transition. One
// retry absorbs a scheduled→confirmed flip between the read and the write.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	for attempt := 0; ; attempt++ {
		appt, err := s.appts.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		from := appt.Status
		if err := appt.Cancel(); err != nil {
			return nil, err
		}
		err = s.appts.UpdateFromStatus(ctx, id, from, appt)
		if errors.Is(err, ErrStatusChanged) && attempt == 0 {
			continue
		}
		if err != nil {
			return nil, err
		}
		return appt, nil
	}
}

// CompleteAppointment moves a confirmed, no-longer-future appointment to
// completed.
func (s *Service) CompleteAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	for attempt := 0; ; attempt++ {
		appt, err := s.appts.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := appt.Complete(); err != nil {
			return nil, err
		}
		err = s.appts.UpdateFromStatus(ctx, id, StatusConfirmed, appt)
		if errors.Is(err, ErrStatusChanged) && attempt == 0 {
			continue
		}
		if err != nil {
			return nil, err
		}
		return appt, nil
	}
}

// RescheduleAppointment moves the appointment to a new slot. The status
// always resets to scheduled: a changed slot must be re-cleared for capacity
// even if the original booking was confirmed.
func (s *Service) RescheduleAppointment(ctx context.Context, id uuid.UUID, newDateStr, newTimeStr string) (*Appointment, error) {
	newDate, err := ParseAppointmentDate(newDateStr)
	if err != nil {
		return nil, err
	}
	newTime, err := ParseAppointmentTime(newTimeStr)
	if err != nil {
		return nil, err
	}

	appt, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appt.Status.IsActive() {
		return nil, &InvalidStateTransitionError{From: appt.Status, Op: "reschedule"}
	}

	err = s.withSlotLock(ctx, SlotKey(newDate, newTime), func(lockCtx context.Context) error {
		fresh, err := s.appts.GetByID(lockCtx, id)
		if err != nil {
			return err
		}
		if err := s.checkBookingRules(lockCtx, fresh.PatientID, newDate, newTime, id); err != nil {
			return err
		}
		from := fresh.Status
		if err := fresh.Reschedule(newDate, newTime); err != nil {
			return err
		}
		if err := s.appts.UpdateFromStatus(lockCtx, id, from, fresh); err != nil {
			return s.retryAfterWriteRejection(lockCtx, err, newDate, newTime)
		}
		appt = fresh
		return nil
	})
	if errors.Is(err, ErrStatusChanged) {
		return nil, s.transitionConflict(ctx, id, "reschedule")
	}
	if err != nil {
		return nil, err
	}

	return appt, nil
}

// DeleteAppointment is an administrative hard delete. It bypasses the state
// machine, so every call is logged.
func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	appt, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.appts.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("administrative delete appointment_id=%s patient_id=%s status=%s slot=%s",
		id, appt.PatientID, appt.Status, SlotKey(appt.Date, appt.Time))
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appts.GetByID(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context) ([]Appointment, error) {
	appts, err := s.appts.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	sortBySlot(appts)
	return appts, nil
}

func (s *Service) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	appts, err := s.appts.GetByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	sortBySlot(appts)
	return appts, nil
}

func (s *Service) ListAppointmentsByDate(ctx context.Context, dateStr string) ([]Appointment, error) {
	date, err := parseLookupDate(dateStr)
	if err != nil {
		return nil, err
	}
	appts, err := s.appts.GetByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list appointments by date: %w", err)
	}
	sortBySlot(appts)
	return appts, nil
}

func (s *Service) ListAppointmentsByDateRange(ctx context.Context, startStr, endStr string) ([]Appointment, error) {
	start, err := parseLookupDate(startStr)
	if err != nil {
		return nil, err
	}
	end, err := parseLookupDate(endStr)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, &ValidationError{Field: "date_range", Value: startStr + ".." + endStr, Reason: "end must not be before start"}
	}
	appts, err := s.appts.GetByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list appointments by date range: %w", err)
	}
	sortBySlot(appts)
	return appts, nil
}

// checkBookingRules runs the same-day duplicate rule then the slot capacity
// rule for the target slot, excluding the record being modified.
func (s *Service) checkBookingRules(ctx context.Context, patientID uuid.UUID, date AppointmentDate, t AppointmentTime, excludeID uuid.UUID) error {
	dup, err := s.appts.HasConfirmedOnDate(ctx, patientID, date, excludeID)
	if err != nil {
		return fmt.Errorf("check confirmed on date: %w", err)
	}
	if dup {
		return &DuplicateAppointmentError{PatientID: patientID, Date: date}
	}

	count, err := s.appts.CountActiveForSlot(ctx, date, t, excludeID)
	if err != nil {
		return fmt.Errorf("count active for slot: %w", err)
	}
	return CheckSlotCapacity(date, t, count)
}

// transitionConflict reports the status that beat a guarded write, re-read
// after the fact so the caller learns what the record moved to.
func (s *Service) transitionConflict(ctx context.Context, id uuid.UUID, op string) error {
	cur, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return &InvalidStateTransitionError{From: cur.Status, Op: op}
}

// retryAfterWriteRejection handles a write-time capacity rejection from the
// repository. The earlier read is no longer authoritative, so the count is
// re-read once to surface accurate diagnostics; any other error passes
// through unchanged.
func (s *Service) retryAfterWriteRejection(ctx context.Context, err error, date AppointmentDate, t AppointmentTime) error {
	var slotErr *SlotUnavailableError
	if !errors.As(err, &slotErr) {
		return err
	}
	count, cerr := s.appts.CountActiveForSlot(ctx, date, t, uuid.Nil)
	if cerr != nil {
		return slotErr
	}
	return &SlotUnavailableError{Date: date, Time: t, Count: count, Max: MaxSlotCapacity}
}

func (s *Service) withSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	err := s.locker.WithSlotLock(ctx, key, fn)
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return ErrSlotContended
	}
	return err
}

func sortBySlot(appts []Appointment) {
	slices.SortStableFunc(appts, func(a, b Appointment) int {
		return CompareSlots(a.Date, a.Time, b.Date, b.Time)
	})
}

// parseLookupDate parses a YYYY-MM-DD query parameter without the booking
// window rules: listing past appointments is legitimate.
func parseLookupDate(s string) (AppointmentDate, error) {
	t, err := parseDateLayout(s)
	if err != nil {
		return AppointmentDate{}, &ValidationError{Field: "date", Value: s, Reason: "must be a valid YYYY-MM-DD date"}
	}
	return DateFromTime(t), nil
}
