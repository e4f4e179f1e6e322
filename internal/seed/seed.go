// Package seed loads the demo directory, accounts and patient history into
// an empty database.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/swasthya/setu/internal/domain/directory"
	"github.com/swasthya/setu/internal/domain/identity"
	"github.com/swasthya/setu/internal/domain/notification"
	"github.com/swasthya/setu/internal/domain/records"
	"github.com/swasthya/setu/internal/domain/scheduling"
	"github.com/swasthya/setu/internal/platform/auth"
	"github.com/swasthya/setu/internal/platform/db"
)

type Directory interface {
	Seed(ctx context.Context, doctors []*directory.Doctor) (int, error)
	List(ctx context.Context, f directory.Filter) ([]*directory.Doctor, error)
	LinkUser(ctx context.Context, id, userID uuid.UUID) (*directory.Doctor, error)
}

type Records interface {
	AddMedication(ctx context.Context, m *records.Medication) error
	AddEvent(ctx context.Context, e *records.MedicalEvent) error
	CreateReport(ctx context.Context, r *records.Report) error
}

// Result counts what a run inserted.
type Result struct {
	Doctors       int `json:"doctors"`
	Users         int `json:"users"`
	Appointments  int `json:"appointments"`
	Medications   int `json:"medications"`
	Events        int `json:"events"`
	Reports       int `json:"reports"`
	Notifications int `json:"notifications"`
}

// Seeder writes the demo data set. Appointments and notifications go
// straight to their repositories since the history includes finished
// visits and already-read notices.
type Seeder struct {
	directory     Directory
	users         identity.UserRepository
	records       Records
	appointments  scheduling.Repository
	notifications notification.Repository
	tx            db.TxRunner
	hashCost      int
}

func NewSeeder(dir Directory, users identity.UserRepository, rec Records, appts scheduling.Repository,
	notes notification.Repository, tx db.TxRunner) *Seeder {
	if tx == nil {
		tx = db.NoopTxRunner{}
	}
	return &Seeder{
		directory:     dir,
		users:         users,
		records:       rec,
		appointments:  appts,
		notifications: notes,
		tx:            tx,
		hashCost:      bcrypt.DefaultCost,
	}
}

// Run seeds the directory and, unless the demo patient already exists, the
// demo accounts and their history. Running it again is harmless.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	res := &Result{}
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		n, err := s.directory.Seed(ctx, append(directory.DefaultDoctors(), historyDoctors()...))
		if err != nil {
			return fmt.Errorf("seed doctors: %w", err)
		}
		res.Doctors = n

		if _, err := s.users.GetByEmail(ctx, patientEmail); err == nil {
			log.Info().Msg("seed: demo accounts already present")
			return nil
		} else if !errors.Is(err, identity.ErrNotFound) {
			return err
		}
		return s.demo(ctx, res)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Interface("result", res).Msg("seed complete")
	return res, nil
}

func (s *Seeder) demo(ctx context.Context, res *Result) error {
	hash, err := identity.HashPassword(DemoPassword, s.hashCost)
	if err != nil {
		return err
	}

	patient := patientProfile()
	patient.Role = auth.RolePatient
	patient.PasswordHash = hash
	if err := s.users.Create(ctx, patient); err != nil {
		return fmt.Errorf("create demo patient: %w", err)
	}
	doctor := &identity.User{Name: doctorAccountName, Email: doctorEmail, Role: auth.RoleDoctor, PasswordHash: hash}
	if err := s.users.Create(ctx, doctor); err != nil {
		return fmt.Errorf("create demo doctor: %w", err)
	}
	relative := &identity.User{Name: "Priya Sharma", Email: relativeEmail, Role: auth.RoleRelative, PasswordHash: hash, PatientID: &patient.ID}
	if err := s.users.Create(ctx, relative); err != nil {
		return fmt.Errorf("create demo relative: %w", err)
	}
	res.Users = 3

	doctors, err := s.directory.List(ctx, directory.Filter{})
	if err != nil {
		return err
	}
	byName := make(map[string]*directory.Doctor, len(doctors))
	for _, d := range doctors {
		byName[d.Name] = d
	}
	if d, ok := byName[doctorAccountName]; ok {
		if _, err := s.directory.LinkUser(ctx, d.ID, doctor.ID); err != nil {
			return fmt.Errorf("link demo doctor: %w", err)
		}
	}

	for _, m := range medications() {
		m.PatientID = patient.ID
		if err := s.records.AddMedication(ctx, m); err != nil {
			return fmt.Errorf("seed medication %s: %w", m.Name, err)
		}
		res.Medications++
	}
	for _, e := range medicalEvents() {
		e.PatientID = patient.ID
		if err := s.records.AddEvent(ctx, e); err != nil {
			return fmt.Errorf("seed event %s: %w", e.Title, err)
		}
		res.Events++
	}
	for _, r := range reports() {
		r.PatientID = patient.ID
		if err := s.records.CreateReport(ctx, r); err != nil {
			return fmt.Errorf("seed report %s: %w", r.Title, err)
		}
		res.Reports++
	}

	for _, a := range appointments() {
		d, ok := byName[a.DoctorName]
		if !ok {
			log.Warn().Str("doctor", a.DoctorName).Msg("seed: doctor not listed, skipping appointment")
			continue
		}
		a.DoctorID = d.ID
		a.PatientID = patient.ID
		a.PatientName = patient.Name
		if err := s.appointments.Create(ctx, a); err != nil {
			return fmt.Errorf("seed appointment: %w", err)
		}
		res.Appointments++
	}

	for _, n := range notifications() {
		n.UserID = patient.ID
		if err := s.notifications.Create(ctx, n); err != nil {
			return fmt.Errorf("seed notification: %w", err)
		}
		res.Notifications++
	}
	return nil
}
