package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgScheduleRepository stores doctor calendar entries in Postgres.
type PgScheduleRepository struct {
	pool *pgxpool.Pool
}

func NewPgScheduleRepository(pool *pgxpool.Pool) *PgScheduleRepository {
	return &PgScheduleRepository{pool: pool}
}

const scheduleColumns = `id, doctor_id, schedule_date, schedule_time, created_at, updated_at`

func scanSchedule(row pgx.Row) (*Schedule, error) {
	var (
		s       Schedule
		date    time.Time
		timeStr string
	)

	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&date,
		&timeStr,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}

	s.Date = DateFromTime(date)
	t, err := parseStoredTime(timeStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt schedule_time %q for %s: %w", timeStr, s.ID, err)
	}
	s.Time = t
	return &s, nil
}

func (r *PgScheduleRepository) GetAll(ctx context.Context) ([]Schedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedules
		ORDER BY schedule_date, schedule_time
	`)
	if err != nil {
		return nil, err
	}
	return collectSchedules(rows)
}

func (r *PgScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE id = $1
	`, id)
	return scanSchedule(row)
}

func (r *PgScheduleRepository) GetByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Schedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE doctor_id = $1
		ORDER BY schedule_date, schedule_time
	`, doctorID)
	if err != nil {
		return nil, err
	}
	return collectSchedules(rows)
}

func (r *PgScheduleRepository) GetByDate(ctx context.Context, date AppointmentDate) ([]Schedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE schedule_date = $1
		ORDER BY schedule_time
	`, date.Time())
	if err != nil {
		return nil, err
	}
	return collectSchedules(rows)
}

func collectSchedules(rows pgx.Rows) ([]Schedule, error) {
	defer rows.Close()

	var result []Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// FindConflicts matches on exact (doctor, date, time). Point-in-time entries
// carry no duration, so window intersection is equality; a duration column
// would widen this to the half-open overlap test.
func (r *PgScheduleRepository) FindConflicts(ctx context.Context, doctorID uuid.UUID, date AppointmentDate, t AppointmentTime, excludeID uuid.UUID) ([]Schedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE doctor_id = $1
		  AND schedule_date = $2
		  AND schedule_time = $3
		  AND id <> $4
	`, doctorID, date.Time(), t.String(), excludeID)
	if err != nil {
		return nil, err
	}
	return collectSchedules(rows)
}

func (r *PgScheduleRepository) Create(ctx context.Context, s *Schedule) (uuid.UUID, error) {
	id := uuid.New()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO schedules (id, doctor_id, schedule_date, schedule_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, s.DoctorID, s.Date.Time(), s.Time.String(), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return uuid.Nil, err
	}

	return id, nil
}

func (r *PgScheduleRepository) Update(ctx context.Context, id uuid.UUID, s *Schedule) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE schedules
		SET doctor_id = $2,
		    schedule_date = $3,
		    schedule_time = $4,
		    updated_at = $5
		WHERE id = $1
	`, id, s.DoctorID, s.Date.Time(), s.Time.String(), s.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

func (r *PgScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrScheduleNotFound
	}
	return nil
}
