package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/swasthya/setu/internal/domain/directory"
	"github.com/swasthya/setu/internal/domain/records"
	"github.com/swasthya/setu/internal/platform/auth"
	"github.com/swasthya/setu/internal/platform/db"
)

const (
	minPasswordLength = 6
	profileListLimit  = 100
)

var (
	ErrUnknownUser   = errors.New("invalid credentials: user not found")
	ErrBadPassword   = errors.New("invalid credentials")
	ErrUserExists    = errors.New("user already exists")
	ErrNotAPatient   = errors.New("account is not a patient")
	ErrInvalidSignup = errors.New("invalid signup")
)

// RoleMismatchError is returned when an account signs in through the wrong
// door.
type RoleMismatchError struct {
	Registered string
	Requested  string
}

func (e *RoleMismatchError) Error() string {
	return fmt.Sprintf("account registered as %s, not %s", e.Registered, e.Requested)
}

// DoctorProvisioner creates the directory entry for a new doctor account.
type DoctorProvisioner interface {
	Provision(ctx context.Context, userID uuid.UUID, name string) (*directory.Doctor, error)
}

// RecordsReader supplies the record lists shown on a profile.
type RecordsReader interface {
	ListMedications(ctx context.Context, patientID uuid.UUID) ([]*records.Medication, error)
	ListEvents(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*records.MedicalEvent, int, error)
	ListReportsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*records.Report, int, error)
}

type TokenIssuer interface {
	Issue(userID, role, patientID string) (string, error)
}

type Service struct {
	users    UserRepository
	doctors  DoctorProvisioner
	records  RecordsReader
	tokens   TokenIssuer
	tx       db.TxRunner
	hashCost int
}

func NewService(users UserRepository, doctors DoctorProvisioner, rec RecordsReader, tokens TokenIssuer, tx db.TxRunner) *Service {
	return &Service{
		users:    users,
		doctors:  doctors,
		records:  rec,
		tokens:   tokens,
		tx:       tx,
		hashCost: bcrypt.DefaultCost,
	}
}

// HashPassword hashes a password with bcrypt at the given cost.
func HashPassword(password string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) session(u *User, isNew bool) (*Session, error) {
	patientID := ""
	if u.PatientID != nil {
		patientID = u.PatientID.String()
	}
	token, err := s.tokens.Issue(u.ID.String(), u.Role, patientID)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Role: u.Role, Token: token, IsNewUser: isNew}, nil
}

// Login checks credentials. The role is only compared once the password
// matches. A relative may sign in through the patient door; any other role
// difference is refused.
func (s *Service) Login(ctx context.Context, email, password, role string) (*Session, error) {
	if role == "" {
		role = auth.RolePatient
	}
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadPassword
	}
	if u.Role != role && !(u.Role == auth.RoleRelative && role == auth.RolePatient) {
		return nil, &RoleMismatchError{Registered: u.Role, Requested: role}
	}

	sess, err := s.session(u, false)
	if err != nil {
		return nil, err
	}
	if u.Role == auth.RoleRelative && u.PatientID != nil {
		if p, err := s.users.GetByID(ctx, *u.PatientID); err == nil {
			sess.Patient = p
		}
	}
	log.Info().Str("user_id", u.ID.String()).Str("role", u.Role).Msg("user logged in")
	return sess, nil
}

// Signup registers a patient or doctor. Doctors are listed in the directory
// in the same transaction.
func (s *Service) Signup(ctx context.Context, name, email, password, role string) (*Session, error) {
	if role == "" {
		role = auth.RolePatient
	}
	if role != auth.RolePatient && role != auth.RoleDoctor {
		return nil, fmt.Errorf("%w: role must be patient or doctor", ErrInvalidSignup)
	}
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidSignup)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidSignup, minPasswordLength)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "New Patient"
		if role == auth.RoleDoctor {
			name = "New Doctor"
		}
	}

	hash, err := HashPassword(password, s.hashCost)
	if err != nil {
		return nil, err
	}
	u := &User{Name: name, Email: email, PasswordHash: hash, Role: role}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}
		if role == auth.RoleDoctor {
			if _, err := s.doctors.Provision(ctx, u.ID, u.Name); err != nil {
				return fmt.Errorf("provision doctor: %w", err)
			}
		}
		return nil
	})
	if errors.Is(err, ErrEmailTaken) {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", u.ID.String()).Str("role", role).Msg("user signed up")
	return s.session(u, true)
}

// Me describes the signed-in account without minting a new token.
func (s *Service) Me(ctx context.Context, id uuid.UUID) (*Session, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sess := &Session{User: u, Role: u.Role}
	if u.Role == auth.RoleRelative && u.PatientID != nil {
		if p, err := s.users.GetByID(ctx, *u.PatientID); err == nil {
			sess.Patient = p
		}
	}
	return sess, nil
}

// DisplayName is the account's name as shown to the other party of an
// appointment.
func (s *Service) DisplayName(ctx context.Context, id uuid.UUID) (string, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Name, nil
}

// EmergencyContact returns the contact on file for a user, or nil.
func (s *Service) EmergencyContact(ctx context.Context, id uuid.UUID) (*EmergencyContact, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.EmergencyContact, nil
}

func (s *Service) patient(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role != auth.RolePatient {
		return nil, ErrNotAPatient
	}
	return u, nil
}

func (s *Service) GetProfile(ctx context.Context, patientID uuid.UUID) (*Profile, error) {
	u, err := s.patient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	p := &Profile{User: u}
	if p.Medications, err = s.records.ListMedications(ctx, patientID); err != nil {
		return nil, err
	}
	if p.MedicalEvents, _, err = s.records.ListEvents(ctx, patientID, profileListLimit, 0); err != nil {
		return nil, err
	}
	if p.Reports, _, err = s.records.ListReportsByPatient(ctx, patientID, profileListLimit, 0); err != nil {
		return nil, err
	}
	if p.Caregivers, err = s.users.ListCaregivers(ctx, patientID); err != nil {
		return nil, err
	}
	if p.Medications == nil {
		p.Medications = []*records.Medication{}
	}
	if p.MedicalEvents == nil {
		p.MedicalEvents = []*records.MedicalEvent{}
	}
	if p.Reports == nil {
		p.Reports = []*records.Report{}
	}
	if p.Caregivers == nil {
		p.Caregivers = []*User{}
	}
	return p, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("name must not be empty")
		}
		u.Name = name
	}
	if upd.Age != nil {
		if *upd.Age < 0 || *upd.Age > 150 {
			return nil, fmt.Errorf("age must be between 0 and 150")
		}
		u.Age = upd.Age
	}
	if upd.Gender != nil {
		u.Gender = upd.Gender
	}
	if upd.BloodGroup != nil {
		if *upd.BloodGroup != "" && !validBloodGroups[strings.ToUpper(*upd.BloodGroup)] {
			return nil, fmt.Errorf("invalid bloodGroup: %s", *upd.BloodGroup)
		}
		bg := strings.ToUpper(*upd.BloodGroup)
		u.BloodGroup = &bg
	}
	if upd.MedicalHistory != nil {
		u.MedicalHistory = upd.MedicalHistory
	}
	if upd.Allergies != nil {
		cleaned := make([]string, 0, len(upd.Allergies))
		for _, a := range upd.Allergies {
			if a = strings.TrimSpace(a); a != "" {
				cleaned = append(cleaned, a)
			}
		}
		u.Allergies = cleaned
	}
	if upd.EmergencyContact != nil {
		u.EmergencyContact = upd.EmergencyContact
	}
	if err := s.users.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// InviteCaregiver creates a relative account linked to the patient.
func (s *Service) InviteCaregiver(ctx context.Context, patientID uuid.UUID, name, email, password string) (*User, error) {
	if _, err := s.patient(ctx, patientID); err != nil {
		return nil, err
	}
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidSignup)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidSignup)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidSignup, minPasswordLength)
	}
	hash, err := HashPassword(password, s.hashCost)
	if err != nil {
		return nil, err
	}
	u := &User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         auth.RoleRelative,
		PatientID:    &patientID,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	log.Info().Str("patient_id", patientID.String()).Str("caregiver_id", u.ID.String()).Msg("caregiver invited")
	return u, nil
}
