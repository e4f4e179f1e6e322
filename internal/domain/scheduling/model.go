package scheduling

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending   = "pending"
	StatusUpcoming  = "upcoming"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"

	TypeVideo    = "video"
	TypeInPerson = "in-person"
)

var validTypes = map[string]bool{
	TypeVideo:    true,
	TypeInPerson: true,
}

// transitions lists the statuses each status may move to. Completed and
// cancelled appointments are final.
var transitions = map[string][]string{
	StatusPending:  {StatusUpcoming, StatusCancelled},
	StatusUpcoming: {StatusCompleted},
}

func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Appointment is a booking between a patient and a doctor. Date and time
// are the display strings chosen at booking ("Today", "2:30 PM").
type Appointment struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PatientID    uuid.UUID `db:"patient_id" json:"patientId"`
	PatientName  string    `db:"patient_name" json:"patientName,omitempty"`
	DoctorID     uuid.UUID `db:"doctor_id" json:"doctorId"`
	DoctorName   string    `db:"doctor_name" json:"doctorName"`
	Date         string    `db:"date" json:"date"`
	Time         string    `db:"time" json:"time"`
	Type         string    `db:"type" json:"type"`
	Status       string    `db:"status" json:"status"`
	Notes        *string   `db:"notes" json:"notes,omitempty"`
	Diagnosis    *string   `db:"diagnosis" json:"diagnosis,omitempty"`
	Prescription []string  `db:"prescription" json:"prescription"`
	FollowUp     *string   `db:"follow_up" json:"followUp,omitempty"`
	Rating       *int      `db:"user_rating" json:"userRating,omitempty"`
	Review       *string   `db:"user_review" json:"userReview,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Consultation is the doctor's wrap-up of an upcoming appointment.
type Consultation struct {
	Diagnosis   string   `json:"diagnosis"`
	Medications []string `json:"medications"`
	FollowUp    string   `json:"followUp"`
}

// Location is how the visit is described on the patient's timeline.
func (a *Appointment) Location() string {
	if a.Type == TypeInPerson {
		return "In-clinic visit"
	}
	return "Video Consultation"
}
