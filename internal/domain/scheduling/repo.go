package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("appointment not found")
	ErrInvalidTransition = errors.New("invalid appointment transition")
	ErrValidation        = errors.New("invalid appointment")
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	// ListByDoctor filters by status when status is non-empty.
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error)

	// The writes below only apply while the appointment is still in the
	// expected status. They return ErrNotFound for an unknown id and
	// ErrInvalidTransition when the status has moved on.
	Transition(ctx context.Context, id uuid.UUID, from, to string) (*Appointment, error)
	Complete(ctx context.Context, id uuid.UUID, from, diagnosis string, prescription []string, followUp *string) (*Appointment, error)
	Rate(ctx context.Context, id uuid.UUID, rating int, review *string) (*Appointment, error)
}
