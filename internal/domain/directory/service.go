package directory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/swasthya/setu/pkg/money"
)

// Provisioned doctors start in the general list at the base fee until they
// edit their profile.
const (
	ProvisionSpecialty = "General"
	ProvisionFee       = 500
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Doctor, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Doctor, 0, len(all))
	for _, d := range all {
		if f.Matches(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

// BestValue lists the filtered directory along with its ranking. Analytics
// is nil when nothing matches.
func (s *Service) BestValue(ctx context.Context, f Filter) ([]*Doctor, *Analytics, error) {
	doctors, err := s.List(ctx, f)
	if err != nil {
		return nil, nil, err
	}
	return doctors, Rank(doctors), nil
}

func (s *Service) Specialties(ctx context.Context) ([]string, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, d := range all {
		if d.Specialty != "" && !seen[d.Specialty] {
			seen[d.Specialty] = true
			out = append(out, d.Specialty)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByUser resolves the directory entry behind a doctor account.
func (s *Service) GetByUser(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func validate(d *Doctor) error {
	if strings.TrimSpace(d.Name) == "" {
		return invalid("name is required")
	}
	if strings.TrimSpace(d.Specialty) == "" {
		return invalid("specialty is required")
	}
	if d.Rating < 0 || d.Rating > 5 {
		return invalid("rating must be between 0 and 5")
	}
	if d.Fee.Minor < 0 {
		return invalid("price must not be negative")
	}
	if d.Experience < 0 {
		return invalid("experience must not be negative")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, d *Doctor) error {
	if err := validate(d); err != nil {
		return err
	}
	if d.Fee.Currency == "" {
		d.Fee.Currency = money.DefaultCurrency
	}
	return s.repo.Create(ctx, d)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, u Update) (*Doctor, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.apply(d)
	if err := validate(d); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Provision creates the directory entry for a newly registered doctor
// account.
func (s *Service) Provision(ctx context.Context, userID uuid.UUID, name string) (*Doctor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "New Doctor"
	}
	if !strings.HasPrefix(name, "Dr. ") {
		name = "Dr. " + name
	}
	d := &Doctor{
		UserID:       &userID,
		Name:         name,
		Specialty:    ProvisionSpecialty,
		Fee:          money.FromMajor(ProvisionFee, money.DefaultCurrency),
		VideoEnabled: true,
	}
	if err := s.Create(ctx, d); err != nil {
		return nil, err
	}
	log.Info().Str("doctor_id", d.ID.String()).Str("user_id", userID.String()).Msg("doctor provisioned")
	return d, nil
}

// LinkUser attaches an existing directory entry to a doctor account.
func (s *Service) LinkUser(ctx context.Context, id, userID uuid.UUID) (*Doctor, error) {
	if err := s.repo.LinkUser(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Seed adds the doctors whose names are not yet listed and returns how many
// were inserted. Existing entries are kept so appointments stay linked.
func (s *Service) Seed(ctx context.Context, doctors []*Doctor) (int, error) {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	names := make(map[string]bool, len(existing))
	for _, d := range existing {
		names[d.Name] = true
	}

	inserted := 0
	for _, d := range doctors {
		if names[d.Name] {
			continue
		}
		if err := s.Create(ctx, d); err != nil {
			return inserted, fmt.Errorf("seed %s: %w", d.Name, err)
		}
		names[d.Name] = true
		inserted++
	}
	return inserted, nil
}
