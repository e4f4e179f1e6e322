package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/swasthya/setu/internal/domain/directory"
	"github.com/swasthya/setu/internal/domain/notification"
	"github.com/swasthya/setu/internal/domain/records"
	"github.com/swasthya/setu/internal/platform/auth"
	"github.com/swasthya/setu/internal/platform/db"
	"github.com/swasthya/setu/internal/platform/websocket"
)

// Event types published on the patient, doctor and appointment topics.
const (
	EventRequested = "appointment.requested"
	EventAccepted  = "appointment.accepted"
	EventDeclined  = "appointment.declined"
	EventCompleted = "appointment.completed"
	EventRated     = "appointment.rated"
)

type DoctorDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*directory.Doctor, error)
}

// PatientNames resolves the name shown to the doctor on a request.
type PatientNames interface {
	DisplayName(ctx context.Context, id uuid.UUID) (string, error)
}

// ConsultationRecorder writes a finished visit into the patient record.
type ConsultationRecorder interface {
	RecordConsultation(ctx context.Context, c records.Consultation) (*records.MedicalEvent, []*records.Medication, error)
}

type Notifier interface {
	NotifyTemplate(ctx context.Context, userID uuid.UUID, templateID string, data map[string]string) (*notification.Notification, error)
}

type Service struct {
	repo     Repository
	doctors  DoctorDirectory
	patients PatientNames
	records  ConsultationRecorder
	notify   Notifier
	events   websocket.EventPublisher
	tx       db.TxRunner
	now      func() time.Time
}

// NewService wires the appointment workflow. notify and events may be nil.
func NewService(repo Repository, doctors DoctorDirectory, patients PatientNames, rec ConsultationRecorder,
	notify Notifier, events websocket.EventPublisher, tx db.TxRunner) *Service {
	if tx == nil {
		tx = db.NoopTxRunner{}
	}
	return &Service{
		repo:     repo,
		doctors:  doctors,
		patients: patients,
		records:  rec,
		notify:   notify,
		events:   events,
		tx:       tx,
		now:      time.Now,
	}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// check loads the appointment and rejects moves the transition table does
// not allow. The repo write stays conditional on the status read here, so
// a concurrent change still fails with ErrInvalidTransition.
func (s *Service) check(ctx context.Context, id uuid.UUID, to string) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(a.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, a.Status, to)
	}
	return a, nil
}

// Book files a new request. The appointment always starts out pending.
func (s *Service) Book(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return invalid("patientId is required")
	}
	if a.DoctorID == uuid.Nil {
		return invalid("doctorId is required")
	}
	a.Date = strings.TrimSpace(a.Date)
	a.Time = strings.TrimSpace(a.Time)
	if a.Date == "" {
		return invalid("date is required")
	}
	if a.Time == "" {
		return invalid("time is required")
	}
	if a.Type == "" {
		a.Type = TypeVideo
	}
	if !validTypes[a.Type] {
		return invalid("invalid type: %s", a.Type)
	}

	doc, err := s.doctors.Get(ctx, a.DoctorID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return invalid("unknown doctor")
		}
		return err
	}
	if strings.TrimSpace(a.DoctorName) == "" {
		a.DoctorName = doc.Name
	}
	if a.PatientName == "" && s.patients != nil {
		if name, err := s.patients.DisplayName(ctx, a.PatientID); err == nil {
			a.PatientName = name
		}
	}

	a.Status = StatusPending
	a.Diagnosis, a.FollowUp, a.Rating, a.Review = nil, nil, nil, nil
	a.Prescription = []string{}
	if err := s.repo.Create(ctx, a); err != nil {
		return err
	}
	log.Info().Str("appointment_id", a.ID.String()).Str("doctor_id", a.DoctorID.String()).Msg("appointment requested")

	s.send(ctx, a.PatientID, notification.TemplateRequestSent, map[string]string{"doctor": a.DoctorName})
	if doc.UserID != nil {
		s.send(ctx, *doc.UserID, notification.TemplateNewRequest, map[string]string{
			"patient": orDefault(a.PatientName, "A patient"),
			"mode":    modeLabel(a.Type),
			"date":    a.Date,
			"time":    a.Time,
		})
	}
	s.publish(ctx, a, doc, EventRequested)
	return nil
}

// Accept confirms a pending request.
func (s *Service) Accept(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	cur, err := s.check(ctx, id, StatusUpcoming)
	if err != nil {
		return nil, err
	}
	a, err := s.repo.Transition(ctx, id, cur.Status, StatusUpcoming)
	if err != nil {
		return nil, err
	}
	log.Info().Str("appointment_id", id.String()).Msg("appointment accepted")
	s.send(ctx, a.PatientID, notification.TemplateConfirmed, map[string]string{
		"doctor": a.DoctorName, "date": a.Date, "time": a.Time,
	})
	s.publish(ctx, a, nil, EventAccepted)
	return a, nil
}

// Decline turns a pending request down. Accepted appointments cannot be
// declined.
func (s *Service) Decline(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	cur, err := s.check(ctx, id, StatusCancelled)
	if err != nil {
		return nil, err
	}
	a, err := s.repo.Transition(ctx, id, cur.Status, StatusCancelled)
	if err != nil {
		return nil, err
	}
	log.Info().Str("appointment_id", id.String()).Msg("appointment declined")
	s.send(ctx, a.PatientID, notification.TemplateDeclined, map[string]string{
		"doctor": a.DoctorName, "date": a.Date, "time": a.Time,
	})
	s.publish(ctx, a, nil, EventDeclined)
	return a, nil
}

// CompleteConsultation closes an upcoming appointment and writes the visit
// and its prescriptions into the patient's record in one transaction.
func (s *Service) CompleteConsultation(ctx context.Context, id uuid.UUID, c Consultation) (*Appointment, error) {
	diagnosis := strings.TrimSpace(c.Diagnosis)
	if diagnosis == "" {
		return nil, invalid("diagnosis is required")
	}
	meds := make([]string, 0, len(c.Medications))
	for _, m := range c.Medications {
		if m = strings.TrimSpace(m); m != "" {
			meds = append(meds, m)
		}
	}
	followUp := strings.TrimSpace(c.FollowUp)
	var followUpPtr *string
	if followUp != "" {
		followUpPtr = &followUp
	}

	var done *Appointment
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		cur, err := s.check(ctx, id, StatusCompleted)
		if err != nil {
			return err
		}
		a, err := s.repo.Complete(ctx, id, cur.Status, diagnosis, meds, followUpPtr)
		if err != nil {
			return err
		}
		if _, _, err := s.records.RecordConsultation(ctx, records.Consultation{
			PatientID:     a.PatientID,
			AppointmentID: a.ID,
			DoctorName:    a.DoctorName,
			Diagnosis:     diagnosis,
			Medications:   meds,
			FollowUp:      followUp,
			Location:      a.Location(),
			Date:          s.now(),
		}); err != nil {
			return fmt.Errorf("record consultation: %w", err)
		}
		done = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("appointment_id", id.String()).Int("medications", len(meds)).Msg("consultation completed")
	s.send(ctx, done.PatientID, notification.TemplateConsultDone, map[string]string{
		"doctor": done.DoctorName, "diagnosis": diagnosis,
	})
	s.publish(ctx, done, nil, EventCompleted)
	return done, nil
}

// Rate attaches the patient's rating to a completed appointment. Rating
// again replaces the earlier one.
func (s *Service) Rate(ctx context.Context, id uuid.UUID, rating int, review string) (*Appointment, error) {
	if rating < 1 || rating > 5 {
		return nil, invalid("rating must be between 1 and 5")
	}
	var reviewPtr *string
	if r := strings.TrimSpace(review); r != "" {
		reviewPtr = &r
	}
	a, err := s.repo.Rate(ctx, id, rating, reviewPtr)
	if err != nil {
		return nil, err
	}
	log.Info().Str("appointment_id", id.String()).Int("rating", rating).Msg("appointment rated")

	doc := s.doctor(ctx, a.DoctorID)
	if doc != nil && doc.UserID != nil {
		s.send(ctx, *doc.UserID, notification.TemplateRatingReceived, map[string]string{"rating": strconv.Itoa(rating)})
	}
	s.publish(ctx, a, doc, EventRated)
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	if status != "" && !validStatus(status) {
		return nil, 0, invalid("invalid status: %s", status)
	}
	return s.repo.ListByDoctor(ctx, doctorID, status, limit, offset)
}

// ListPendingForDoctor is the doctor's request inbox.
func (s *Service) ListPendingForDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, StatusPending, limit, offset)
}

// OwnsDoctor reports whether userID is the account behind a directory entry.
func (s *Service) OwnsDoctor(ctx context.Context, userID, doctorID uuid.UUID) bool {
	doc := s.doctor(ctx, doctorID)
	return doc != nil && doc.UserID != nil && *doc.UserID == userID
}

// IsAssignedDoctor reports whether userID owns the directory entry the
// appointment is booked with.
func (s *Service) IsAssignedDoctor(ctx context.Context, userID uuid.UUID, a *Appointment) bool {
	return s.OwnsDoctor(ctx, userID, a.DoctorID)
}

// IsParticipant reports whether the user is the patient or the doctor of
// the appointment. It backs the websocket room guard.
func (s *Service) IsParticipant(ctx context.Context, userID, role, appointmentID string) bool {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return false
	}
	id, err := uuid.Parse(appointmentID)
	if err != nil {
		return false
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false
	}
	switch role {
	case auth.RolePatient:
		return a.PatientID == uid
	case auth.RoleDoctor:
		return s.IsAssignedDoctor(ctx, uid, a)
	}
	return false
}

func validStatus(s string) bool {
	switch s {
	case StatusPending, StatusUpcoming, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s *Service) doctor(ctx context.Context, id uuid.UUID) *directory.Doctor {
	doc, err := s.doctors.Get(ctx, id)
	if err != nil {
		return nil
	}
	return doc
}

// send delivers an in-app notification. Failures are logged and never undo
// the appointment change.
func (s *Service) send(ctx context.Context, userID uuid.UUID, templateID string, data map[string]string) {
	if s.notify == nil {
		return
	}
	if _, err := s.notify.NotifyTemplate(ctx, userID, templateID, data); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Str("template", templateID).Msg("appointment notification failed")
	}
}

// publish pushes the appointment to its room and to both parties' feeds.
func (s *Service) publish(ctx context.Context, a *Appointment, doc *directory.Doctor, eventType string) {
	if s.events == nil {
		return
	}
	if doc == nil {
		doc = s.doctor(ctx, a.DoctorID)
	}
	topics := []string{
		websocket.AppointmentTopic(a.ID.String()),
		websocket.UserTopic(a.PatientID.String()),
	}
	if doc != nil && doc.UserID != nil {
		topics = append(topics, websocket.UserTopic(doc.UserID.String()))
	}
	for _, topic := range topics {
		ev := websocket.NewEvent(topic, eventType, "appointment", a.ID.String(), a)
		if err := s.events.Publish(ctx, ev); err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("appointment event publish failed")
		}
	}
}

func modeLabel(t string) string {
	if t == TypeInPerson {
		return "in-person"
	}
	return "video"
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
