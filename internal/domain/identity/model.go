package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/swasthya/setu/internal/domain/records"
)

type EmergencyContact struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Relation string `json:"relation"`
}

// User is an account. Relatives carry the id of the patient they look after.
type User struct {
	ID               uuid.UUID         `db:"id" json:"id"`
	Name             string            `db:"name" json:"name"`
	Email            string            `db:"email" json:"email"`
	PasswordHash     string            `db:"password_hash" json:"-"`
	Role             string            `db:"role" json:"role"`
	Age              *int              `db:"age" json:"age,omitempty"`
	Gender           *string           `db:"gender" json:"gender,omitempty"`
	BloodGroup       *string           `db:"blood_group" json:"bloodGroup,omitempty"`
	MedicalHistory   *string           `db:"medical_history" json:"medicalHistory,omitempty"`
	Allergies        []string          `db:"allergies" json:"allergies"`
	EmergencyContact *EmergencyContact `db:"emergency_contact" json:"emergencyContact,omitempty"`
	PatientID        *uuid.UUID        `db:"patient_id" json:"patientId,omitempty"`
	CreatedAt        time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time         `db:"updated_at" json:"updatedAt"`
}

// Session is what login and signup hand back to the client.
type Session struct {
	User      *User  `json:"user"`
	Role      string `json:"role"`
	Token     string `json:"token,omitempty"`
	IsNewUser bool   `json:"isNewUser"`
	// Patient is the linked patient for relative accounts.
	Patient *User `json:"patient,omitempty"`
}

// Profile is a patient with the records shown on the profile page.
type Profile struct {
	*User
	Medications   []*records.Medication   `json:"medications"`
	MedicalEvents []*records.MedicalEvent `json:"medicalEvents"`
	Reports       []*records.Report       `json:"reports"`
	Caregivers    []*User                 `json:"caregivers"`
}

// ProfileUpdate is the onboarding / edit-profile form. Nil fields are left
// alone; a non-nil Allergies replaces the list.
type ProfileUpdate struct {
	Name             *string           `json:"name"`
	Age              *int              `json:"age"`
	Gender           *string           `json:"gender"`
	BloodGroup       *string           `json:"bloodGroup"`
	MedicalHistory   *string           `json:"medicalHistory"`
	Allergies        []string          `json:"allergies"`
	EmergencyContact *EmergencyContact `json:"emergencyContact"`
}

var validBloodGroups = map[string]bool{
	"A+": true, "A-": true, "B+": true, "B-": true,
	"AB+": true, "AB-": true, "O+": true, "O-": true,
}
