package booking

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCreateSchedule(t *testing.T) {
	setFixedClock(t)
	ctx := context.Background()

	t.Run("reserves a doctor slot", func(t *testing.T) {
		svc, _, _ := newTestService()
		sched, err := svc.CreateSchedule(ctx, CreateScheduleCommand{
			DoctorID: uuid.New(), Date: "2025-06-10", Time: "09:00",
		})
		assert.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, sched.ID)
	})

	t.Run("same doctor same slot conflicts", func(t *testing.T) {
		svc, _, _ := newTestService()
		doctor := uuid.New()

		_, err := svc.CreateSchedule(ctx, CreateScheduleCommand{DoctorID: doctor, Date: "2025-06-10", Time: "09:00"})
		assert.NoError(t, err)

		_, err = svc.CreateSchedule(ctx, CreateScheduleCommand{DoctorID: doctor, Date: "2025-06-10", Time: "09:00"})
		var conflictErr *ScheduleConflictError
		assert.ErrorAs(t, err, &conflictErr)
		assert.Equal(t, doctor, conflictErr.DoctorID)
	})

	t.Run("different doctors share the slot freely", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, err := svc.CreateSchedule(ctx, CreateScheduleCommand{DoctorID: uuid.New(), Date: "2025-06-10", Time: "09:00"})
		assert.NoError(t, err)
		_, err = svc.CreateSchedule(ctx, CreateScheduleCommand{DoctorID: uuid.New(), Date: "2025-06-10", Time: "09:00"})
		assert.NoError(t, err)
	})

	t.Run("validates value objects", func(t *testing.T) {
		svc, _, _ := newTestService()
		var verr *ValidationError
		_, err := svc.CreateSchedule(ctx, CreateScheduleCommand{DoctorID: uuid.New(), Date: "2025-06-10", Time: "07:00"})
		assert.ErrorAs(t, err, &verr)
	})
}

func TestUpdateSchedule(t *testing.T) {
	setFixedClock(t)
	ctx := context.Background()

	t.Run("moving onto an occupied slot fails with no partial write", func(t *testing.T) {
		svc, _, _ := newTestService()
		doctor := uuid.New()

		_, err := svc.CreateSchedule(ctx, CreateScheduleCommand{DoctorID: doctor, Date: "2025-06-10", Time: "09:00"})
		assert.NoError(t, err)
		second, err := svc.CreateSchedule(ctx, CreateScheduleCommand{DoctorID: doctor, Date: "2025-06-10", Time: "10:00"})
		assert.NoError(t, err)

		taken := "09:00"
		_, err = svc.UpdateSchedule(ctx, second.ID, UpdateScheduleCommand{Time: &taken})
		var conflictErr *ScheduleConflictError
		assert.ErrorAs(t, err, &conflictErr)

		kept, err := svc.GetSchedule(ctx, second.ID)
		assert.NoError(t, err)
		assert.Equal(t, "10:00", kept.Time.String())
	})

	t.Run("an entry does not conflict with itself", func(t *testing.T) {
		svc, _, _ := newTestService()
		sched, err := svc.CreateSchedule(ctx, CreateScheduleCommand{DoctorID: uuid.New(), Date: "2025-06-10", Time: "09:00"})
		assert.NoError(t, err)

		sameTime, newDate := "09:00", "2025-06-11"
		moved, err := svc.UpdateSchedule(ctx, sched.ID, UpdateScheduleCommand{Date: &newDate, Time: &sameTime})
		assert.NoError(t, err)
		assert.Equal(t, "2025-06-11", moved.Date.String())
		assert.NotNil(t, moved.UpdatedAt)
	})

	t.Run("missing entry", func(t *testing.T) {
		svc, _, _ := newTestService()
		newDate := "2025-06-11"
		_, err := svc.UpdateSchedule(ctx, uuid.New(), UpdateScheduleCommand{Date: &newDate})
		assert.ErrorIs(t, err, ErrScheduleNotFound)
	})
}

func TestDeleteSchedule(t *testing.T) {
	setFixedClock(t)
	ctx := context.Background()
	svc, _, _ := newTestService()

	sched, err := svc.CreateSchedule(ctx, CreateScheduleCommand{DoctorID: uuid.New(), Date: "2025-06-10", Time: "09:00"})
	assert.NoError(t, err)

	assert.NoError(t, svc.DeleteSchedule(ctx, sched.ID))
	assert.ErrorIs(t, svc.DeleteSchedule(ctx, sched.ID), ErrScheduleNotFound)

	// The slot is free again after deletion
	_, err = svc.CreateSchedule(ctx, CreateScheduleCommand{DoctorID: sched.DoctorID, Date: "2025-06-10", Time: "09:00"})
	assert.NoError(t, err)
}

func TestListSchedulesByDoctor(t *testing.T) {
	setFixedClock(t)
	ctx := context.Background()
	svc, _, _ := newTestService()

	doctor := uuid.New()
	for _, slot := range [][2]string{
		{"2025-06-11", "09:00"},
		{"2025-06-10", "14:00"},
		{"2025-06-10", "08:30"},
	} {
		_, err := svc.CreateSchedule(ctx, CreateScheduleCommand{DoctorID: doctor, Date: slot[0], Time: slot[1]})
		assert.NoError(t, err)
	}
	_, err := svc.CreateSchedule(ctx, CreateScheduleCommand{DoctorID: uuid.New(), Date: "2025-06-10", Time: "08:30"})
	assert.NoError(t, err)

	scheds, err := svc.ListSchedulesByDoctor(ctx, doctor)
	assert.NoError(t, err)
	assert.Len(t, scheds, 3)
	assert.Equal(t, "08:30", scheds[0].Time.String(), "ascending by date then time")
	assert.Equal(t, "14:00", scheds[1].Time.String())
	assert.Equal(t, "2025-06-11", scheds[2].Date.String())
}
