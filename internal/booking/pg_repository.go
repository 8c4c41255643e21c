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

// PgAppointmentRepository stores appointments in Postgres. Writes that touch
// slot capacity run inside a transaction holding a per-slot advisory lock, so
// the capacity check and the write are a single serialized unit even when the
// distributed lock above is bypassed or expires mid-request.
type PgAppointmentRepository struct {
	pool *pgxpool.Pool
}

func NewPgAppointmentRepository(pool *pgxpool.Pool) *PgAppointmentRepository {
	return &PgAppointmentRepository{pool: pool}
}

const appointmentColumns = `id, patient_id, patient_name, reason_for_visit,
	appointment_date, appointment_time, doctor_id, doctor_name, contact_number,
	status, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a       Appointment
		date    time.Time
		timeStr string
	)

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.PatientName,
		&a.ReasonForVisit,
		&date,
		&timeStr,
		&a.DoctorID,
		&a.DoctorName,
		&a.ContactNumber,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Date = DateFromTime(date)
	t, err := parseStoredTime(timeStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt appointment_time %q for %s: %w", timeStr, a.ID, err)
	}
	a.Time = t
	return &a, nil
}

func parseStoredTime(s string) (AppointmentTime, error) {
	parsed, err := time.Parse("15:04", s)
	if err != nil {
		return AppointmentTime{}, err
	}
	return TimeFromParts(parsed.Hour(), parsed.Minute()), nil
}

func (r *PgAppointmentRepository) GetAll(ctx context.Context) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		ORDER BY appointment_date, appointment_time
	`)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgAppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgAppointmentRepository) GetByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		ORDER BY appointment_date, appointment_time
	`, patientID)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgAppointmentRepository) GetByDate(ctx context.Context, date AppointmentDate) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE appointment_date = $1
		ORDER BY appointment_time
	`, date.Time())
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgAppointmentRepository) GetByDateRange(ctx context.Context, start, end AppointmentDate) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE appointment_date BETWEEN $1 AND $2
		ORDER BY appointment_date, appointment_time
	`, start.Time(), end.Time())
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgAppointmentRepository) CountActiveForSlot(ctx context.Context, date AppointmentDate, t AppointmentTime, excludeID uuid.UUID) (int, error) {
	return r.countForSlot(ctx, r.pool, date, t, excludeID, []AppointmentStatus{StatusScheduled, StatusConfirmed})
}

func (r *PgAppointmentRepository) CountConfirmedForSlot(ctx context.Context, date AppointmentDate, t AppointmentTime, excludeID uuid.UUID) (int, error) {
	return r.countForSlot(ctx, r.pool, date, t, excludeID, []AppointmentStatus{StatusConfirmed})
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *PgAppointmentRepository) countForSlot(ctx context.Context, q queryer, date AppointmentDate, t AppointmentTime, excludeID uuid.UUID, statuses []AppointmentStatus) (int, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	var count int
	err := q.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE appointment_date = $1
		  AND appointment_time = $2
		  AND status = ANY($3)
		  AND id <> $4
	`, date.Time(), t.String(), names, excludeID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PgAppointmentRepository) HasConfirmedOnDate(ctx context.Context, patientID uuid.UUID, date AppointmentDate, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM appointments
			WHERE patient_id = $1
			  AND appointment_date = $2
			  AND status = 'confirmed'
			  AND id <> $3
		)
	`, patientID, date.Time(), excludeID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Create assigns the id and inserts. The advisory lock keyed by the slot
// serializes the capacity re-check with the insert.
func (r *PgAppointmentRepository) Create(ctx context.Context, a *Appointment) (uuid.UUID, error) {
	id := uuid.New()

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := acquireSlotLock(ctx, tx, SlotKey(a.Date, a.Time)); err != nil {
			return err
		}

		count, err := r.countForSlot(ctx, tx, a.Date, a.Time, uuid.Nil, []AppointmentStatus{StatusScheduled, StatusConfirmed})
		if err != nil {
			return fmt.Errorf("recount slot occupancy: %w", err)
		}
		if err := CheckSlotCapacity(a.Date, a.Time, count); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO appointments (id, patient_id, patient_name, reason_for_visit,
				appointment_date, appointment_time, doctor_id, doctor_name, contact_number,
				status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, id, a.PatientID, a.PatientName, a.ReasonForVisit,
			a.Date.Time(), a.Time.String(), a.DoctorID, a.DoctorName, a.ContactNumber,
			a.Status, a.CreatedAt, a.UpdatedAt)
		return err
	})
	if err != nil {
		return uuid.Nil, err
	}

	return id, nil
}

// UpdateFromStatus rewrites the stored snapshot, guarded on the status the
// caller read: `AND status = $from` makes the write fail instead of clobbering
// a transition that committed in between. When the new state still occupies
// slot capacity the same advisory-lock re-check runs against the target slot.
func (r *PgAppointmentRepository) UpdateFromStatus(ctx context.Context, id uuid.UUID, from AppointmentStatus, a *Appointment) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if a.Status.IsActive() {
			if err := acquireSlotLock(ctx, tx, SlotKey(a.Date, a.Time)); err != nil {
				return err
			}

			statuses := []AppointmentStatus{StatusScheduled, StatusConfirmed}
			if a.Status == StatusConfirmed {
				statuses = []AppointmentStatus{StatusConfirmed}
			}
			count, err := r.countForSlot(ctx, tx, a.Date, a.Time, id, statuses)
			if err != nil {
				return fmt.Errorf("recount slot occupancy: %w", err)
			}
			if err := CheckSlotCapacity(a.Date, a.Time, count); err != nil {
				return err
			}
		}

		tag, err := tx.Exec(ctx, `
			UPDATE appointments
			SET patient_id = $2,
			    patient_name = $3,
			    reason_for_visit = $4,
			    appointment_date = $5,
			    appointment_time = $6,
			    doctor_id = $7,
			    doctor_name = $8,
			    contact_number = $9,
			    status = $10,
			    updated_at = $11
			WHERE id = $1
			  AND status = $12
		`, id, a.PatientID, a.PatientName, a.ReasonForVisit,
			a.Date.Time(), a.Time.String(), a.DoctorID, a.DoctorName, a.ContactNumber,
			a.Status, a.UpdatedAt, from)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var cur string
			err := tx.QueryRow(ctx, `SELECT status FROM appointments WHERE id = $1`, id).Scan(&cur)
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrAppointmentNotFound
			}
			if err != nil {
				return err
			}
			return ErrStatusChanged
		}
		return nil
	})
}

func (r *PgAppointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// acquireSlotLock takes a transaction-scoped advisory lock derived from the
// slot key. Released automatically at commit or rollback.
func acquireSlotLock(ctx context.Context, tx pgx.Tx, key string) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key)
	if err != nil {
		return fmt.Errorf("acquire slot advisory lock: %w", err)
	}
	return nil
}
