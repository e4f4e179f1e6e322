package seed

import (
	"github.com/swasthya/setu/internal/domain/directory"
	"github.com/swasthya/setu/internal/domain/identity"
	"github.com/swasthya/setu/internal/domain/notification"
	"github.com/swasthya/setu/internal/domain/records"
	"github.com/swasthya/setu/internal/domain/scheduling"
	"github.com/swasthya/setu/pkg/money"
)

// DemoPassword is shared by every demo account.
const DemoPassword = "password"

const (
	patientEmail  = "rahul@demo.com"
	doctorEmail   = "vikram@demo.com"
	relativeEmail = "relative@demo.com"

	// doctorAccountName is the directory entry the demo doctor signs in as.
	doctorAccountName = "Dr. Vikram Singh"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// historyDoctors are listed so the visit history can point at them. They
// are not part of the default directory.
func historyDoctors() []*directory.Doctor {
	return []*directory.Doctor{
		{
			Name:           "Dr. Aditi Gupta",
			Specialty:      "Ophthalmologist",
			Rating:         4.5,
			NextAvailable:  "Fri, 10:00 AM",
			Fee:            money.FromMajor(800, money.DefaultCurrency),
			Experience:     9,
			Qualifications: []string{"MBBS", "MS (Ophthalmology)"},
		},
	}
}

func patientProfile() *identity.User {
	return &identity.User{
		Name:           "Rahul Sharma",
		Email:          patientEmail,
		Age:            intPtr(28),
		Gender:         strPtr("Male"),
		MedicalHistory: strPtr("Asthma (Mild), Seasonal Allergies"),
		Allergies:      []string{"Penicillin", "Dust Mites"},
		EmergencyContact: &identity.EmergencyContact{
			Name:     "Priya Sharma",
			Phone:    "+91 98765 43210",
			Relation: "Spouse",
		},
	}
}

func medications() []*records.Medication {
	return []*records.Medication{
		{Name: "Albuterol Inhaler", Dosage: "2 puffs", Frequency: "As needed"},
		{Name: "Multivitamins", Dosage: "1 Tablet", Frequency: "Morning", Taken: true},
		{Name: "Cetirizine", Dosage: "10mg", Frequency: "Night"},
	}
}

func medicalEvents() []*records.MedicalEvent {
	return []*records.MedicalEvent{
		{
			Date: "2023-11-15", Title: "Annual Physical Checkup", Type: "general",
			Description: "Blood pressure 120/80. Weight 72kg. All vitals normal. Patient advised to maintain regular exercise regime.",
			DoctorName:  strPtr("Dr. Rajesh Kumar"), Location: strPtr("City General Hospital"),
		},
		{
			Date: "2023-08-10", Title: "Eye Examination", Type: "general",
			Description: "Routine vision test. Mild myopia diagnosed in left eye (-0.5D). Anti-glare glasses prescribed.",
			DoctorName:  strPtr("Dr. Aditi Gupta"), Location: strPtr("Vision Care Center"),
		},
		{
			Date: "2023-05-22", Title: "Viral Fever Treatment", Type: "diagnosis",
			Description: "Patient presented with high fever (102F) and body ache. Tested negative for Dengue/Malaria. Prescribed Paracetamol and rest.",
			DoctorName:  strPtr("Dr. Rajesh Kumar"), Location: strPtr("City General Hospital"),
		},
		{
			Date: "2022-12-05", Title: "Appendectomy", Type: "surgery",
			Description: "Emergency laparoscopic appendectomy performed. Surgery successful. No post-operative complications.",
			DoctorName:  strPtr("Dr. Suresh Menon"), Location: strPtr("Apollo Hospital"),
		},
		{
			Date: "2022-03-15", Title: "Dermatology Consult", Type: "diagnosis",
			Description: "Allergic reaction to dust mites causing skin rash on forearm. Prescribed antihistamines and topical corticosteroid cream.",
			DoctorName:  strPtr("Dr. Meera Reddy"), Location: strPtr("Skin & Glow Clinic"),
		},
	}
}

func reports() []*records.Report {
	r := func(title, date, typ, by string) *records.Report {
		return &records.Report{Title: title, Date: date, Type: typ, DoctorName: strPtr(by), URL: strPtr("#")}
	}
	return []*records.Report{
		r("Complete Blood Count (CBC)", "2023-11-15", "Lab Report", "City PathLabs"),
		r("Medical Fitness Certificate", "2023-11-16", "Certificate", "Dr. Rajesh Kumar"),
		r("Eye Vision Prescription", "2023-08-10", "Prescription", "Dr. Aditi Gupta"),
		r("Discharge Summary - Surgery", "2022-12-08", "Certificate", "Apollo Hospital"),
		r("Sick Leave Certificate (3 Days)", "2023-05-22", "Certificate", "Dr. Rajesh Kumar"),
		r("Allergy Test Panel", "2022-03-15", "Lab Report", "Dr. Meera Reddy"),
		r("Chest X-Ray PA View", "2020-09-12", "Imaging", "City Imaging Center"),
	}
}

// appointments is the demo history. DoctorName doubles as the key used to
// find the directory entry.
func appointments() []*scheduling.Appointment {
	return []*scheduling.Appointment{
		{DoctorName: "Dr. Anita Desai", Date: "Today", Time: "2:30 PM", Type: scheduling.TypeVideo, Status: scheduling.StatusUpcoming, Notes: strPtr("Routine check")},
		{DoctorName: "Dr. Vikram Singh", Date: "Tomorrow", Time: "11:00 AM", Type: scheduling.TypeVideo, Status: scheduling.StatusUpcoming, Notes: strPtr("Follow up on migraine")},

		{DoctorName: "Dr. Vikram Singh", Date: "Today", Time: "04:00 PM", Type: scheduling.TypeVideo, Status: scheduling.StatusPending, Notes: strPtr("New Patient: Frequent headaches")},
		{DoctorName: "Dr. Vikram Singh", Date: "Tomorrow", Time: "12:30 PM", Type: scheduling.TypeInPerson, Status: scheduling.StatusPending, Notes: strPtr("Review MRI Scan")},

		{
			DoctorName: "Dr. Rajesh Kumar", Date: "2023-11-15", Time: "10:00 AM", Type: scheduling.TypeInPerson, Status: scheduling.StatusCompleted,
			Notes: strPtr("Annual Physical"), Diagnosis: strPtr("Healthy"), Prescription: []string{"Multivitamins"}, Rating: intPtr(5),
		},
		{
			DoctorName: "Dr. Aditi Gupta", Date: "2023-08-10", Time: "11:30 AM", Type: scheduling.TypeInPerson, Status: scheduling.StatusCompleted,
			Notes: strPtr("Eye Exam"), Diagnosis: strPtr("Mild Myopia"), Prescription: []string{"Eye Drops", "Corrective Lenses"},
		},
		{
			DoctorName: "Dr. Meera Reddy", Date: "2023-03-15", Time: "4:00 PM", Type: scheduling.TypeVideo, Status: scheduling.StatusCompleted,
			Notes: strPtr("Skin rash"), Diagnosis: strPtr("Contact Dermatitis"), Prescription: []string{"Hydrocortisone Cream", "Levocetirizine"},
			Rating: intPtr(4), Review: strPtr("Good doctor, but video lagged a bit."),
		},
		{
			DoctorName: "Dr. Rajesh Kumar", Date: "2023-05-22", Time: "09:30 AM", Type: scheduling.TypeInPerson, Status: scheduling.StatusCompleted,
			Notes: strPtr("High Fever"), Diagnosis: strPtr("Viral Fever"), Prescription: []string{"Paracetamol 650mg", "Rest"},
		},
		{
			DoctorName: "Dr. Arjun Gupta", Date: "2022-11-20", Time: "05:00 PM", Type: scheduling.TypeInPerson, Status: scheduling.StatusCompleted,
			Notes: strPtr("Ankle Sprain"), Diagnosis: strPtr("Grade 1 Ligament Tear"), Prescription: []string{"Volini Spray", "Aceclofenac"}, Rating: intPtr(5),
		},
	}
}

func notifications() []*notification.Notification {
	return []*notification.Notification{
		{Title: "Appointment Reminder", Message: "Video consult with Dr. Anita Desai starts in 15 mins.", Type: notification.TypeReminder},
		{Title: "Lab Results Ready", Message: "Your recent blood work report is available for download.", Type: notification.TypeInfo},
		{Title: "Daily Check-in", Message: "Time for your daily wellness check.", Type: notification.TypeAlert, Read: true},
	}
}
