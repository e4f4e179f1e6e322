package records

import (
	"time"

	"github.com/google/uuid"
)

// Medication is one entry on a patient's medication list. Taken tracks
// today's dose and is cleared by the daily reset job.
type Medication struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patientId"`
	Name          string     `db:"name" json:"name"`
	Dosage        string     `db:"dosage" json:"dosage"`
	Frequency     string     `db:"frequency" json:"frequency"`
	Taken         bool       `db:"taken" json:"taken"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointmentId,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

const (
	DefaultDosage    = "As prescribed"
	DefaultFrequency = "Daily"
	// AsNeeded medications have no daily dose to reset.
	AsNeeded = "As needed"
)

// MedicalEvent is a dated entry in the patient's timeline.
type MedicalEvent struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patientId"`
	Date          string     `db:"event_date" json:"date"`
	Title         string     `db:"title" json:"title"`
	Description   string     `db:"description" json:"description"`
	Type          string     `db:"event_type" json:"type"`
	DoctorName    *string    `db:"doctor_name" json:"doctorName,omitempty"`
	Location      *string    `db:"location" json:"location,omitempty"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointmentId,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
}

var validEventTypes = map[string]bool{
	"general": true, "diagnosis": true, "surgery": true, "vaccination": true,
}

// Report is an uploaded or issued document. FileData holds the base64
// payload (optionally as a data URL) and is omitted from list responses.
type Report struct {
	ID         uuid.UUID `db:"id" json:"id"`
	PatientID  uuid.UUID `db:"patient_id" json:"patientId"`
	Title      string    `db:"title" json:"title"`
	Date       string    `db:"report_date" json:"date"`
	Type       string    `db:"report_type" json:"type"`
	DoctorName *string   `db:"doctor_name" json:"doctorName,omitempty"`
	URL        *string   `db:"url" json:"url,omitempty"`
	FileData   *string   `db:"file_data" json:"fileData,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

var validReportTypes = map[string]bool{
	"Lab Report": true, "Prescription": true, "Certificate": true, "Imaging": true,
}

// Consultation is what a completed visit writes into the patient record.
type Consultation struct {
	PatientID     uuid.UUID
	AppointmentID uuid.UUID
	DoctorName    string
	Diagnosis     string
	Medications   []string
	FollowUp      string
	Location      string
	Date          time.Time
}
