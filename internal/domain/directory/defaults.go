package directory

import "github.com/swasthya/setu/pkg/money"

func strPtr(s string) *string { return &s }

func inr(amount float64) money.Money { return money.FromMajor(amount, money.DefaultCurrency) }

// DefaultDoctors is the starter directory loaded by the seed command and the
// development seed endpoint. Each call returns fresh values.
func DefaultDoctors() []*Doctor {
	return []*Doctor{
		{
			Name: "Dr. Anita Desai", Specialty: "Cardiologist", Rating: 4.9,
			Image: strPtr("https://picsum.photos/100/100?random=1"), NextAvailable: "Today, 2:30 PM",
			Fee: inr(1200), VideoEnabled: true,
			About:          strPtr("Dr. Anita Desai is a senior Cardiologist with over 15 years of experience. She specializes in preventive cardiology and heart failure management."),
			Experience:     15,
			Qualifications: []string{"MBBS", "MD (Medicine)", "DM (Cardiology)"},
			Verified:       true,
		},
		{
			Name: "Dr. Rajesh Kumar", Specialty: GeneralPhysician, Rating: 4.7,
			Image: strPtr("https://picsum.photos/100/100?random=2"), NextAvailable: "Tomorrow, 9:00 AM",
			Fee:            inr(600),
			About:          strPtr("Friendly neighborhood physician focusing on holistic health and chronic disease management."),
			Experience:     8,
			Qualifications: []string{"MBBS", "DNB (Family Medicine)"},
		},
		{
			Name: "Dr. Meera Reddy", Specialty: "Dermatologist", Rating: 4.8,
			Image: strPtr("https://picsum.photos/100/100?random=3"), NextAvailable: "Today, 4:15 PM",
			Fee: inr(900), VideoEnabled: true,
			Experience:     10,
			Qualifications: []string{"MBBS", "MD (Dermatology)"},
		},
		{
			Name: "Dr. Vikram Singh", Specialty: "Neurologist", Rating: 4.9,
			Image: strPtr("https://picsum.photos/100/100?random=4"), NextAvailable: "Wed, 11:00 AM",
			Fee: inr(1500), VideoEnabled: true,
			About:          strPtr("Expert in treating migraines, epilepsy, and stroke rehabilitation. Passionate about leveraging technology for patient care."),
			Experience:     12,
			Qualifications: []string{"MBBS", "MD", "DM (Neurology)"},
			Verified:       true,
		},
		{
			Name: "Dr. Arjun Gupta", Specialty: "Orthopedist", Rating: 4.6,
			Image: strPtr("https://picsum.photos/100/100?random=5"), NextAvailable: "Thu, 10:30 AM",
			Fee: inr(1000), VideoEnabled: true,
			Experience:     14,
			Qualifications: []string{"MBBS", "MS (Orthopedics)"},
		},
	}
}
