package scheduling

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swasthya/setu/internal/platform/db"
)

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) Repository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const apptCols = `id, patient_id, patient_name, doctor_id, doctor_name, date, time, type, status,
	notes, diagnosis, prescription, follow_up, user_rating, user_review, created_at, updated_at`

func (r *appointmentRepoPG) scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.DoctorID, &a.DoctorName, &a.Date, &a.Time, &a.Type, &a.Status,
		&a.Notes, &a.Diagnosis, &a.Prescription, &a.FollowUp, &a.Rating, &a.Review, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if a.Prescription == nil {
		a.Prescription = []string{}
	}
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Prescription == nil {
		a.Prescription = []string{}
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, patient_name, doctor_id, doctor_name, date, time, type, status,
			notes, diagnosis, prescription, follow_up, user_rating, user_review)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.PatientName, a.DoctorID, a.DoctorName, a.Date, a.Time, a.Type, a.Status,
		a.Notes, a.Diagnosis, a.Prescription, a.FollowUp, a.Rating, a.Review,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := r.scanAppt(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (r *appointmentRepoPG) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointments WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	args = append(args, db.LimitArg(limit), offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE `+where+
			` ORDER BY created_at DESC LIMIT $`+strconv.Itoa(n+1)+` OFFSET $`+strconv.Itoa(n+2), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := []*Appointment{}
	for rows.Next() {
		a, err := r.scanAppt(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `patient_id = $1`, []interface{}{patientID}, limit, offset)
}

func (r *appointmentRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	if status == "" {
		return r.list(ctx, `doctor_id = $1`, []interface{}{doctorID}, limit, offset)
	}
	return r.list(ctx, `doctor_id = $1 AND status = $2`, []interface{}{doctorID, status}, limit, offset)
}

// missed explains why a conditional update matched no row.
func (r *appointmentRepoPG) missed(ctx context.Context, id uuid.UUID) error {
	var status string
	err := r.conn(ctx).QueryRow(ctx, `SELECT status FROM appointments WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrInvalidTransition
}

func (r *appointmentRepoPG) conditional(ctx context.Context, id uuid.UUID, row pgx.Row) (*Appointment, error) {
	a, err := r.scanAppt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.missed(ctx, id)
	}
	return a, err
}

func (r *appointmentRepoPG) Transition(ctx context.Context, id uuid.UUID, from, to string) (*Appointment, error) {
	return r.conditional(ctx, id, r.conn(ctx).QueryRow(ctx, `
		UPDATE appointments SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+apptCols, id, from, to))
}

func (r *appointmentRepoPG) Complete(ctx context.Context, id uuid.UUID, from, diagnosis string, prescription []string, followUp *string) (*Appointment, error) {
	return r.conditional(ctx, id, r.conn(ctx).QueryRow(ctx, `
		UPDATE appointments SET status = $2, diagnosis = $4, prescription = $5, follow_up = $6, updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING `+apptCols, id, StatusCompleted, from, diagnosis, prescription, followUp))
}

func (r *appointmentRepoPG) Rate(ctx context.Context, id uuid.UUID, rating int, review *string) (*Appointment, error) {
	return r.conditional(ctx, id, r.conn(ctx).QueryRow(ctx, `
		UPDATE appointments SET user_rating = $3, user_review = $4, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+apptCols, id, StatusCompleted, rating, review))
}
