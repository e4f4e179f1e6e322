package directory

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/swasthya/setu/pkg/money"
)

// GeneralPhysician is listed under every specialty filter.
const GeneralPhysician = "General Physician"

// Doctor is a bookable entry in the directory. Fee travels as "price" on the
// wire and still accepts the old display strings ("₹1200").
type Doctor struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	UserID         *uuid.UUID  `db:"user_id" json:"userId,omitempty"`
	Name           string      `db:"name" json:"name"`
	Specialty      string      `db:"specialty" json:"specialty"`
	Rating         float64     `db:"rating" json:"rating"`
	Image          *string     `db:"image" json:"image,omitempty"`
	NextAvailable  string      `db:"next_available" json:"nextAvailable"`
	Fee            money.Money `db:"-" json:"price"`
	VideoEnabled   bool        `db:"is_video_enabled" json:"isVideoEnabled"`
	About          *string     `db:"about" json:"about,omitempty"`
	Experience     int         `db:"experience" json:"experience"`
	Qualifications []string    `db:"qualifications" json:"qualifications"`
	Verified       bool        `db:"verified" json:"verified"`
	CreatedAt      time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updatedAt"`
}

// Filter narrows the directory. Zero value matches everyone.
type Filter struct {
	Specialty string
	VideoOnly bool
}

// Matches reports whether d passes the filter. Specialty is a
// case-insensitive substring match, and general physicians match any
// specialty.
func (f Filter) Matches(d *Doctor) bool {
	if f.VideoOnly && !d.VideoEnabled {
		return false
	}
	if s := strings.TrimSpace(f.Specialty); s != "" {
		if d.Specialty == GeneralPhysician {
			return true
		}
		return strings.Contains(strings.ToLower(d.Specialty), strings.ToLower(s))
	}
	return true
}

// Update carries the fields a doctor may change on their own profile. Nil
// fields are left alone.
type Update struct {
	Name           *string      `json:"name"`
	Specialty      *string      `json:"specialty"`
	Image          *string      `json:"image"`
	NextAvailable  *string      `json:"nextAvailable"`
	Fee            *money.Money `json:"price"`
	VideoEnabled   *bool        `json:"isVideoEnabled"`
	About          *string      `json:"about"`
	Experience     *int         `json:"experience"`
	Qualifications []string     `json:"qualifications"`
}

func (u Update) apply(d *Doctor) {
	if u.Name != nil {
		d.Name = strings.TrimSpace(*u.Name)
	}
	if u.Specialty != nil {
		d.Specialty = strings.TrimSpace(*u.Specialty)
	}
	if u.Image != nil {
		d.Image = u.Image
	}
	if u.NextAvailable != nil {
		d.NextAvailable = *u.NextAvailable
	}
	if u.Fee != nil {
		d.Fee = *u.Fee
	}
	if u.VideoEnabled != nil {
		d.VideoEnabled = *u.VideoEnabled
	}
	if u.About != nil {
		d.About = u.About
	}
	if u.Experience != nil {
		d.Experience = *u.Experience
	}
	if u.Qualifications != nil {
		d.Qualifications = u.Qualifications
	}
}
