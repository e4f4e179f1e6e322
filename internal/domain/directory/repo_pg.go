package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swasthya/setu/internal/platform/db"
	"github.com/swasthya/setu/pkg/money"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const doctorCols = `id, user_id, name, specialty, rating, image, next_available,
	fee_minor, fee_currency, is_video_enabled, about, experience, qualifications,
	verified, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var minor int64
	var currency string
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.Specialty, &d.Rating, &d.Image, &d.NextAvailable,
		&minor, &currency, &d.VideoEnabled, &d.About, &d.Experience, &d.Qualifications,
		&d.Verified, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	d.Fee = money.Money{Minor: minor, Currency: currency}
	return &d, nil
}

func currencyOf(m money.Money) string {
	if m.Currency == "" {
		return money.DefaultCurrency
	}
	return m.Currency
}

func (r *repoPG) Create(ctx context.Context, d *Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Qualifications == nil {
		d.Qualifications = []string{}
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctors (id, user_id, name, specialty, rating, image, next_available,
			fee_minor, fee_currency, is_video_enabled, about, experience, qualifications, verified)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING created_at, updated_at`,
		d.ID, d.UserID, d.Name, d.Specialty, d.Rating, d.Image, d.NextAvailable,
		d.Fee.Minor, currencyOf(d.Fee), d.VideoEnabled, d.About, d.Experience, d.Qualifications, d.Verified,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
}

func (r *repoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE user_id = $1`, userID))
}

func (r *repoPG) Update(ctx context.Context, d *Doctor) error {
	if d.Qualifications == nil {
		d.Qualifications = []string{}
	}
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE doctors SET name=$2, specialty=$3, image=$4, next_available=$5,
			fee_minor=$6, fee_currency=$7, is_video_enabled=$8, about=$9, experience=$10,
			qualifications=$11, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		d.ID, d.Name, d.Specialty, d.Image, d.NextAvailable,
		d.Fee.Minor, currencyOf(d.Fee), d.VideoEnabled, d.About, d.Experience, d.Qualifications,
	).Scan(&d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *repoPG) LinkUser(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE doctors SET user_id = $2, updated_at = NOW() WHERE id = $1`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context) ([]*Doctor, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+doctorCols+` FROM doctors ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}
