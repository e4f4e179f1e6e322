package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("doctor not found")
	ErrValidation = errors.New("invalid doctor")
)

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	LinkUser(ctx context.Context, id, userID uuid.UUID) error
	// List returns the whole directory ordered by name.
	List(ctx context.Context) ([]*Doctor, error)
}
