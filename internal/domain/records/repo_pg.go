package records

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swasthya/setu/internal/platform/db"
)

func conn(ctx context.Context, pool *pgxpool.Pool) db.Querier {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// =========== Medication Repository ===========

type medicationRepoPG struct{ pool *pgxpool.Pool }

func NewMedicationRepoPG(pool *pgxpool.Pool) MedicationRepository {
	return &medicationRepoPG{pool: pool}
}

const medCols = `id, patient_id, name, dosage, frequency, taken, appointment_id, created_at, updated_at`

func scanMedication(row pgx.Row) (*Medication, error) {
	var m Medication
	err := row.Scan(&m.ID, &m.PatientID, &m.Name, &m.Dosage, &m.Frequency, &m.Taken,
		&m.AppointmentID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *medicationRepoPG) Create(ctx context.Context, m *Medication) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO medications (id, patient_id, name, dosage, frequency, taken, appointment_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		m.ID, m.PatientID, m.Name, m.Dosage, m.Frequency, m.Taken, m.AppointmentID,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (r *medicationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medication, error) {
	return scanMedication(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+medCols+` FROM medications WHERE id = $1`, id))
}

func (r *medicationRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Medication, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+medCols+` FROM medications WHERE patient_id = $1 ORDER BY created_at`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []*Medication{}
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *medicationRepoPG) SetTaken(ctx context.Context, patientID, id uuid.UUID, taken bool) (*Medication, error) {
	return scanMedication(conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE medications SET taken = $3, updated_at = NOW()
		WHERE id = $1 AND patient_id = $2
		RETURNING `+medCols, id, patientID, taken))
}

func (r *medicationRepoPG) ResetTaken(ctx context.Context) (int64, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE medications SET taken = FALSE, updated_at = NOW()
		WHERE taken AND frequency <> $1`, AsNeeded)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// =========== Medical Event Repository ===========

type eventRepoPG struct{ pool *pgxpool.Pool }

func NewEventRepoPG(pool *pgxpool.Pool) EventRepository {
	return &eventRepoPG{pool: pool}
}

const eventCols = `id, patient_id, event_date, title, description, event_type, doctor_name, location, appointment_id, created_at`

func scanEvent(row pgx.Row) (*MedicalEvent, error) {
	var e MedicalEvent
	err := row.Scan(&e.ID, &e.PatientID, &e.Date, &e.Title, &e.Description, &e.Type,
		&e.DoctorName, &e.Location, &e.AppointmentID, &e.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (r *eventRepoPG) Create(ctx context.Context, e *MedicalEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO medical_events (id, patient_id, event_date, title, description, event_type,
			doctor_name, location, appointment_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at`,
		e.ID, e.PatientID, e.Date, e.Title, e.Description, e.Type,
		e.DoctorName, e.Location, e.AppointmentID,
	).Scan(&e.CreatedAt)
}

func (r *eventRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalEvent, int, error) {
	q := conn(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM medical_events WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx, `SELECT `+eventCols+` FROM medical_events WHERE patient_id = $1
		ORDER BY event_date DESC, created_at DESC LIMIT $2 OFFSET $3`, patientID, db.LimitArg(limit), offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := []*MedicalEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}

// =========== Report Repository ===========

type reportRepoPG struct{ pool *pgxpool.Pool }

func NewReportRepoPG(pool *pgxpool.Pool) ReportRepository {
	return &reportRepoPG{pool: pool}
}

// List queries leave file_data out; only GetByID returns the payload.
const reportListCols = `id, patient_id, title, report_date, report_type, doctor_name, url, NULL::text, created_at`
const reportCols = `id, patient_id, title, report_date, report_type, doctor_name, url, file_data, created_at`

func scanReport(row pgx.Row) (*Report, error) {
	var rp Report
	err := row.Scan(&rp.ID, &rp.PatientID, &rp.Title, &rp.Date, &rp.Type,
		&rp.DoctorName, &rp.URL, &rp.FileData, &rp.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &rp, nil
}

func (r *reportRepoPG) Create(ctx context.Context, rp *Report) error {
	if rp.ID == uuid.Nil {
		rp.ID = uuid.New()
	}
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO reports (id, patient_id, title, report_date, report_type, doctor_name, url, file_data)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at`,
		rp.ID, rp.PatientID, rp.Title, rp.Date, rp.Type, rp.DoctorName, rp.URL, rp.FileData,
	).Scan(&rp.CreatedAt)
}

func (r *reportRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	return scanReport(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+reportCols+` FROM reports WHERE id = $1`, id))
}

func (r *reportRepoPG) List(ctx context.Context, limit, offset int) ([]*Report, int, error) {
	return r.list(ctx, `SELECT COUNT(*) FROM reports`,
		`SELECT `+reportListCols+` FROM reports ORDER BY report_date DESC, created_at DESC LIMIT $1 OFFSET $2`,
		nil, limit, offset)
}

func (r *reportRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Report, int, error) {
	return r.list(ctx, `SELECT COUNT(*) FROM reports WHERE patient_id = $1`,
		`SELECT `+reportListCols+` FROM reports WHERE patient_id = $1
		 ORDER BY report_date DESC, created_at DESC LIMIT $2 OFFSET $3`,
		[]interface{}{patientID}, limit, offset)
}

func (r *reportRepoPG) list(ctx context.Context, countSQL, listSQL string, args []interface{}, limit, offset int) ([]*Report, int, error) {
	q := conn(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx, listSQL, append(args, db.LimitArg(limit), offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := []*Report{}
	for rows.Next() {
		rp, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rp)
	}
	return items, total, rows.Err()
}
