package records

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	meds    MedicationRepository
	events  EventRepository
	reports ReportRepository

	maxReportBytes int
}

func NewService(meds MedicationRepository, events EventRepository, reports ReportRepository, maxReportBytes int) *Service {
	return &Service{meds: meds, events: events, reports: reports, maxReportBytes: maxReportBytes}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// -- Medications --

func (s *Service) AddMedication(ctx context.Context, m *Medication) error {
	if m.PatientID == uuid.Nil {
		return invalid("patientId is required")
	}
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return invalid("name is required")
	}
	if m.Dosage == "" {
		m.Dosage = DefaultDosage
	}
	if m.Frequency == "" {
		m.Frequency = DefaultFrequency
	}
	return s.meds.Create(ctx, m)
}

func (s *Service) ListMedications(ctx context.Context, patientID uuid.UUID) ([]*Medication, error) {
	return s.meds.ListByPatient(ctx, patientID)
}

// MarkMedicationTaken records today's dose. The medication must belong to
// patientID.
func (s *Service) MarkMedicationTaken(ctx context.Context, patientID, medID uuid.UUID, taken bool) (*Medication, error) {
	return s.meds.SetTaken(ctx, patientID, medID, taken)
}

func (s *Service) ResetDailyMedications(ctx context.Context) (int64, error) {
	return s.meds.ResetTaken(ctx)
}

// -- Medical events --

func (s *Service) AddEvent(ctx context.Context, e *MedicalEvent) error {
	if e.PatientID == uuid.Nil {
		return invalid("patientId is required")
	}
	if strings.TrimSpace(e.Title) == "" {
		return invalid("title is required")
	}
	if e.Date == "" {
		e.Date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", e.Date); err != nil {
		return invalid("date must be YYYY-MM-DD")
	}
	if e.Type == "" {
		e.Type = "general"
	}
	if !validEventTypes[e.Type] {
		return invalid("invalid event type: %s", e.Type)
	}
	return s.events.Create(ctx, e)
}

func (s *Service) ListEvents(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalEvent, int, error) {
	return s.events.ListByPatient(ctx, patientID, limit, offset)
}

// RecordConsultation appends the visit to the patient's timeline and adds
// one medication per prescribed name. Callers that need this to commit
// with the appointment update run it inside a db transaction.
func (s *Service) RecordConsultation(ctx context.Context, c Consultation) (*MedicalEvent, []*Medication, error) {
	if c.PatientID == uuid.Nil {
		return nil, nil, invalid("patientId is required")
	}
	date := c.Date
	if date.IsZero() {
		date = time.Now()
	}
	followUp := strings.TrimSpace(c.FollowUp)
	if followUp == "" {
		followUp = "N/A"
	}

	apptID := c.AppointmentID
	event := &MedicalEvent{
		PatientID:   c.PatientID,
		Date:        date.Format("2006-01-02"),
		Title:       "Doctor Visit",
		Description: fmt.Sprintf("Diagnosis: %s. Follow up: %s", c.Diagnosis, followUp),
		Type:        "diagnosis",
	}
	if c.DoctorName != "" {
		event.DoctorName = &c.DoctorName
	}
	if c.Location != "" {
		event.Location = &c.Location
	}
	if apptID != uuid.Nil {
		event.AppointmentID = &apptID
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, nil, fmt.Errorf("create medical event: %w", err)
	}

	meds := make([]*Medication, 0, len(c.Medications))
	for _, name := range c.Medications {
		m := &Medication{
			PatientID: c.PatientID,
			Name:      name,
			Dosage:    DefaultDosage,
			Frequency: DefaultFrequency,
		}
		if apptID != uuid.Nil {
			m.AppointmentID = &apptID
		}
		if err := s.meds.Create(ctx, m); err != nil {
			return nil, nil, fmt.Errorf("create medication %q: %w", name, err)
		}
		meds = append(meds, m)
	}
	return event, meds, nil
}

// -- Reports --

func (s *Service) CreateReport(ctx context.Context, r *Report) error {
	if r.PatientID == uuid.Nil {
		return invalid("patientId is required")
	}
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return invalid("title is required")
	}
	if r.Date == "" {
		return invalid("date is required")
	}
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return invalid("date must be YYYY-MM-DD")
	}
	if !validReportTypes[r.Type] {
		return invalid("invalid report type: %q", r.Type)
	}
	if r.FileData != nil && *r.FileData != "" {
		n, err := decodedSize(*r.FileData)
		if err != nil {
			return err
		}
		if s.maxReportBytes > 0 && n > s.maxReportBytes {
			return invalid("file exceeds %d bytes", s.maxReportBytes)
		}
	}
	return s.reports.Create(ctx, r)
}

// decodedSize validates a base64 payload, raw or as a data URL, and
// returns its decoded length.
func decodedSize(data string) (int, error) {
	payload := data
	if strings.HasPrefix(payload, "data:") {
		_, after, ok := strings.Cut(payload, ",")
		if !ok || !strings.Contains(payload[:len(payload)-len(after)], ";base64") {
			return 0, invalid("fileData must be base64 encoded")
		}
		payload = after
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return 0, invalid("fileData is not valid base64")
	}
	return len(decoded), nil
}

func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (*Report, error) {
	return s.reports.GetByID(ctx, id)
}

func (s *Service) ListReports(ctx context.Context, limit, offset int) ([]*Report, int, error) {
	return s.reports.List(ctx, limit, offset)
}

func (s *Service) ListReportsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Report, int, error) {
	return s.reports.ListByPatient(ctx, patientID, limit, offset)
}
