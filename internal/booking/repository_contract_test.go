package booking

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/db"
)

// Contract suite: every storage adapter must satisfy these guarantees so the
// booking rules behave identically regardless of backend. The memory adapter
// always runs; the Postgres adapter runs when POSTGRES_TEST_DSN is set and
// the migrations have been applied.

type repoFixture struct {
	appts   AppointmentRepository
	scheds  ScheduleRepository
	cleanup func()
}

func memoryFixture(t *testing.T) repoFixture {
	t.Helper()
	return repoFixture{
		appts:   NewMemoryAppointmentRepository(),
		scheds:  NewMemoryScheduleRepository(),
		cleanup: func() {},
	}
}

func postgresFixture(t *testing.T) repoFixture {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	ctx := context.Background()
	pool, err := db.ConnectPostgres(ctx, dsn)
	require.NoError(t, err)

	truncate := func() {
		_, err := pool.Exec(ctx, `TRUNCATE appointments, schedules`)
		require.NoError(t, err)
	}
	truncate()

	return repoFixture{
		appts:  NewPgAppointmentRepository(pool),
		scheds: NewPgScheduleRepository(pool),
		cleanup: func() {
			truncate()
			pool.Close()
		},
	}
}

func forEachBackend(t *testing.T, run func(t *testing.T, fx repoFixture)) {
	t.Helper()
	backends := map[string]func(*testing.T) repoFixture{
		"memory":   memoryFixture,
		"postgres": postgresFixture,
	}
	for name, newFixture := range backends {
		t.Run(name, func(t *testing.T) {
			fx := newFixture(t)
			defer fx.cleanup()
			run(t, fx)
		})
	}
}

func contractAppointment(t *testing.T, date, timeStr string, status AppointmentStatus) *Appointment {
	t.Helper()
	appt, err := NewAppointment(uuid.New(), "Contract Patient", "checkup",
		mustDate(t, date), mustTime(t, timeStr))
	require.NoError(t, err)
	appt.Status = status
	return appt
}

func TestAppointmentRepositoryContract(t *testing.T) {
	setFixedClock(t)
	ctx := context.Background()

	t.Run("create assigns id and round-trips", func(t *testing.T) {
		forEachBackend(t, func(t *testing.T, fx repoFixture) {
			appt := contractAppointment(t, "2025-06-10", "09:00", StatusScheduled)
			contact := "555-0100"
			appt.ContactNumber = &contact

			id, err := fx.appts.Create(ctx, appt)
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, id)

			got, err := fx.appts.GetByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, appt.PatientID, got.PatientID)
			assert.Equal(t, "Contract Patient", got.PatientName)
			assert.True(t, got.Date.Equal(appt.Date))
			assert.True(t, got.Time.Equal(appt.Time))
			assert.Equal(t, "555-0100", *got.ContactNumber)
			assert.Equal(t, StatusScheduled, got.Status)
		})
	})

	t.Run("missing ids fail with not found", func(t *testing.T) {
		forEachBackend(t, func(t *testing.T, fx repoFixture) {
			_, err := fx.appts.GetByID(ctx, uuid.New())
			assert.ErrorIs(t, err, ErrAppointmentNotFound)

			appt := contractAppointment(t, "2025-06-10", "09:00", StatusScheduled)
			assert.ErrorIs(t, fx.appts.UpdateFromStatus(ctx, uuid.New(), StatusScheduled, appt), ErrAppointmentNotFound)
			assert.ErrorIs(t, fx.appts.Delete(ctx, uuid.New()), ErrAppointmentNotFound)
		})
	})

	t.Run("slot counts distinguish active from confirmed", func(t *testing.T) {
		forEachBackend(t, func(t *testing.T, fx repoFixture) {
			date, at := mustDate(t, "2025-06-10"), mustTime(t, "09:00")

			scheduled := contractAppointment(t, "2025-06-10", "09:00", StatusScheduled)
			confirmed := contractAppointment(t, "2025-06-10", "09:00", StatusConfirmed)
			cancelled := contractAppointment(t, "2025-06-10", "09:00", StatusCancelled)

			scheduledID, err := fx.appts.Create(ctx, scheduled)
			require.NoError(t, err)
			_, err = fx.appts.Create(ctx, confirmed)
			require.NoError(t, err)
			_, err = fx.appts.Create(ctx, cancelled)
			require.NoError(t, err)

			active, err := fx.appts.CountActiveForSlot(ctx, date, at, uuid.Nil)
			require.NoError(t, err)
			assert.Equal(t, 2, active)

			confirmedCount, err := fx.appts.CountConfirmedForSlot(ctx, date, at, uuid.Nil)
			require.NoError(t, err)
			assert.Equal(t, 1, confirmedCount)

			excluded, err := fx.appts.CountActiveForSlot(ctx, date, at, scheduledID)
			require.NoError(t, err)
			assert.Equal(t, 1, excluded)
		})
	})

	t.Run("write path enforces capacity", func(t *testing.T) {
		forEachBackend(t, func(t *testing.T, fx repoFixture) {
			for i := 0; i < MaxSlotCapacity; i++ {
				_, err := fx.appts.Create(ctx, contractAppointment(t, "2025-06-10", "09:00", StatusScheduled))
				require.NoError(t, err)
			}

			_, err := fx.appts.Create(ctx, contractAppointment(t, "2025-06-10", "09:00", StatusScheduled))
			var slotErr *SlotUnavailableError
			assert.ErrorAs(t, err, &slotErr,
				"the adapter itself must reject a write into a full slot")
		})
	})

	t.Run("writes are guarded on the status the caller read", func(t *testing.T) {
		forEachBackend(t, func(t *testing.T, fx repoFixture) {
			appt := contractAppointment(t, "2025-06-10", "09:00", StatusScheduled)
			id, err := fx.appts.Create(ctx, appt)
			require.NoError(t, err)

			stale := *appt
			stale.Status = StatusConfirmed
			assert.ErrorIs(t, fx.appts.UpdateFromStatus(ctx, id, StatusConfirmed, &stale), ErrStatusChanged,
				"a write asserting a status the record never held must fail")

			cancelled := *appt
			cancelled.Status = StatusCancelled
			require.NoError(t, fx.appts.UpdateFromStatus(ctx, id, StatusScheduled, &cancelled))

			got, err := fx.appts.GetByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, StatusCancelled, got.Status)

			resurrect := *appt
			resurrect.Status = StatusConfirmed
			assert.ErrorIs(t, fx.appts.UpdateFromStatus(ctx, id, StatusScheduled, &resurrect), ErrStatusChanged,
				"a snapshot read before the cancel cannot bring the record back")
		})
	})

	t.Run("confirmed on date honors exclusion", func(t *testing.T) {
		forEachBackend(t, func(t *testing.T, fx repoFixture) {
			date := mustDate(t, "2025-06-10")
			appt := contractAppointment(t, "2025-06-10", "09:00", StatusConfirmed)

			id, err := fx.appts.Create(ctx, appt)
			require.NoError(t, err)

			has, err := fx.appts.HasConfirmedOnDate(ctx, appt.PatientID, date, uuid.Nil)
			require.NoError(t, err)
			assert.True(t, has)

			has, err = fx.appts.HasConfirmedOnDate(ctx, appt.PatientID, date, id)
			require.NoError(t, err)
			assert.False(t, has)
		})
	})

	t.Run("date range is inclusive", func(t *testing.T) {
		forEachBackend(t, func(t *testing.T, fx repoFixture) {
			for _, d := range []string{"2025-06-10", "2025-06-11", "2025-06-12"} {
				_, err := fx.appts.Create(ctx, contractAppointment(t, d, "09:00", StatusScheduled))
				require.NoError(t, err)
			}

			got, err := fx.appts.GetByDateRange(ctx, mustDate(t, "2025-06-10"), mustDate(t, "2025-06-11"))
			require.NoError(t, err)
			assert.Len(t, got, 2)

			byDate, err := fx.appts.GetByDate(ctx, mustDate(t, "2025-06-12"))
			require.NoError(t, err)
			assert.Len(t, byDate, 1)
		})
	})

	t.Run("delete removes the record", func(t *testing.T) {
		forEachBackend(t, func(t *testing.T, fx repoFixture) {
			id, err := fx.appts.Create(ctx, contractAppointment(t, "2025-06-10", "09:00", StatusScheduled))
			require.NoError(t, err)

			require.NoError(t, fx.appts.Delete(ctx, id))
			_, err = fx.appts.GetByID(ctx, id)
			assert.ErrorIs(t, err, ErrAppointmentNotFound)
		})
	})
}

func TestScheduleRepositoryContract(t *testing.T) {
	setFixedClock(t)
	ctx := context.Background()

	t.Run("round-trip and conflicts", func(t *testing.T) {
		forEachBackend(t, func(t *testing.T, fx repoFixture) {
			doctor := uuid.New()
			sched, err := NewSchedule(doctor, mustDate(t, "2025-06-10"), mustTime(t, "09:00"))
			require.NoError(t, err)

			id, err := fx.scheds.Create(ctx, sched)
			require.NoError(t, err)

			got, err := fx.scheds.GetByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, doctor, got.DoctorID)

			conflicts, err := fx.scheds.FindConflicts(ctx, doctor, sched.Date, sched.Time, uuid.Nil)
			require.NoError(t, err)
			assert.Len(t, conflicts, 1)

			conflicts, err = fx.scheds.FindConflicts(ctx, doctor, sched.Date, sched.Time, id)
			require.NoError(t, err)
			assert.Empty(t, conflicts, "self-exclusion")

			conflicts, err = fx.scheds.FindConflicts(ctx, uuid.New(), sched.Date, sched.Time, uuid.Nil)
			require.NoError(t, err)
			assert.Empty(t, conflicts, "other doctors are unaffected")
		})
	})

	t.Run("missing ids fail with not found", func(t *testing.T) {
		forEachBackend(t, func(t *testing.T, fx repoFixture) {
			_, err := fx.scheds.GetByID(ctx, uuid.New())
			assert.ErrorIs(t, err, ErrScheduleNotFound)

			sched, err := NewSchedule(uuid.New(), mustDate(t, "2025-06-10"), mustTime(t, "09:00"))
			require.NoError(t, err)
			assert.ErrorIs(t, fx.scheds.Update(ctx, uuid.New(), sched), ErrScheduleNotFound)
			assert.ErrorIs(t, fx.scheds.Delete(ctx, uuid.New()), ErrScheduleNotFound)
		})
	})

	t.Run("get by doctor and by date filter correctly", func(t *testing.T) {
		forEachBackend(t, func(t *testing.T, fx repoFixture) {
			doctor := uuid.New()
			for i, slot := range [][2]string{
				{"2025-06-10", "09:00"},
				{"2025-06-11", "09:00"},
			} {
				sched, err := NewSchedule(doctor, mustDate(t, slot[0]), mustTime(t, slot[1]))
				require.NoError(t, err, "entry %d", i)
				_, err = fx.scheds.Create(ctx, sched)
				require.NoError(t, err)
			}

			other, err := NewSchedule(uuid.New(), mustDate(t, "2025-06-10"), mustTime(t, "09:00"))
			require.NoError(t, err)
			_, err = fx.scheds.Create(ctx, other)
			require.NoError(t, err)

			byDoctor, err := fx.scheds.GetByDoctor(ctx, doctor)
			require.NoError(t, err)
			assert.Len(t, byDoctor, 2)

			byDate, err := fx.scheds.GetByDate(ctx, mustDate(t, "2025-06-10"))
			require.NoError(t, err)
			assert.Len(t, byDate, 2)
		})
	})
}
