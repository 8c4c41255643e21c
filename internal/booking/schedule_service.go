package booking

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Schedule use cases. Same fail-fast shape as the appointment side: validate
// value objects, detect conflicts, persist once. Schedule writes take the
// doctor's slot lock so two concurrent entries for the same doctor slot
// cannot both pass conflict detection.

type CreateScheduleCommand struct {
	DoctorID uuid.UUID
	Date     string
	Time     string
}

func (s *Service) CreateSchedule(ctx context.Context, cmd CreateScheduleCommand) (*Schedule, error) {
	date, err := ParseAppointmentDate(cmd.Date)
	if err != nil {
		return nil, err
	}
	t, err := ParseAppointmentTime(cmd.Time)
	if err != nil {
		return nil, err
	}

	sched, err := NewSchedule(cmd.DoctorID, date, t)
	if err != nil {
		return nil, err
	}

	err = s.withSlotLock(ctx, scheduleLockKey(cmd.DoctorID, date, t), func(lockCtx context.Context) error {
		if err := s.checkScheduleConflicts(lockCtx, cmd.DoctorID, date, t, uuid.Nil); err != nil {
			return err
		}
		id, err := s.scheds.Create(lockCtx, sched)
		if err != nil {
			return fmt.Errorf("create schedule: %w", err)
		}
		sched.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sched, nil
}

type UpdateScheduleCommand struct {
	Date *string
	Time *string
}

// UpdateSchedule moves a calendar entry. Conflicts are always re-validated
// when date or time change; an entry never conflicts with itself.
func (s *Service) UpdateSchedule(ctx context.Context, id uuid.UUID, cmd UpdateScheduleCommand) (*Schedule, error) {
	sched, err := s.scheds.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var ch ScheduleChangeset
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

	if !ch.ChangesSlot(sched) {
		sched.Apply(ch)
		if err := s.scheds.Update(ctx, id, sched); err != nil {
			return nil, err
		}
		return sched, nil
	}

	newDate, newTime := sched.Date, sched.Time
	if ch.Date != nil {
		newDate = *ch.Date
	}
	if ch.Time != nil {
		newTime = *ch.Time
	}

	err = s.withSlotLock(ctx, scheduleLockKey(sched.DoctorID, newDate, newTime), func(lockCtx context.Context) error {
		if err := s.checkScheduleConflicts(lockCtx, sched.DoctorID, newDate, newTime, id); err != nil {
			return err
		}
		sched.Apply(ch)
		return s.scheds.Update(lockCtx, id, sched)
	})
	if err != nil {
		return nil, err
	}

	return sched, nil
}

func (s *Service) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	if _, err := s.scheds.GetByID(ctx, id); err != nil {
		return err
	}
	return s.scheds.Delete(ctx, id)
}

func (s *Service) GetSchedule(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	return s.scheds.GetByID(ctx, id)
}

func (s *Service) ListSchedules(ctx context.Context) ([]Schedule, error) {
	scheds, err := s.scheds.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	sortSchedulesBySlot(scheds)
	return scheds, nil
}

func (s *Service) ListSchedulesByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Schedule, error) {
	scheds, err := s.scheds.GetByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list schedules by doctor: %w", err)
	}
	sortSchedulesBySlot(scheds)
	return scheds, nil
}

func (s *Service) ListSchedulesByDate(ctx context.Context, dateStr string) ([]Schedule, error) {
	date, err := parseLookupDate(dateStr)
	if err != nil {
		return nil, err
	}
	scheds, err := s.scheds.GetByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list schedules by date: %w", err)
	}
	sortSchedulesBySlot(scheds)
	return scheds, nil
}

func (s *Service) checkScheduleConflicts(ctx context.Context, doctorID uuid.UUID, date AppointmentDate, t AppointmentTime, excludeID uuid.UUID) error {
	conflicts, err := s.scheds.FindConflicts(ctx, doctorID, date, t, excludeID)
	if err != nil {
		return fmt.Errorf("find schedule conflicts: %w", err)
	}
	if len(conflicts) > 0 {
		c := conflicts[0]
		return &ScheduleConflictError{DoctorID: c.DoctorID, Date: c.Date, Time: c.Time}
	}
	return nil
}

func scheduleLockKey(doctorID uuid.UUID, date AppointmentDate, t AppointmentTime) string {
	return "doctor:" + doctorID.String() + "|" + SlotKey(date, t)
}

func sortSchedulesBySlot(scheds []Schedule) {
	slices.SortStableFunc(scheds, func(a, b Schedule) int {
		return CompareSlots(a.Date, a.Time, b.Date, b.Time)
	})
}
