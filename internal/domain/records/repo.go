package records

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrValidation = errors.New("invalid record")
)

type MedicationRepository interface {
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medication, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Medication, error)
	SetTaken(ctx context.Context, patientID, id uuid.UUID, taken bool) (*Medication, error)
	// ResetTaken clears taken on every medication except as-needed ones and
	// returns how many rows changed.
	ResetTaken(ctx context.Context) (int64, error)
}

type EventRepository interface {
	Create(ctx context.Context, e *MedicalEvent) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalEvent, int, error)
}

type ReportRepository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	List(ctx context.Context, limit, offset int) ([]*Report, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Report, int, error)
}
