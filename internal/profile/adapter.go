// File: internal/profile/adapter.go
package profile

import (
	"github.com/tm-webstudio/service4me-sub000/internal/shared"
)

// DBToShared converts a GORM Profile to the shared domain type.
func DBToShared(p *Profile) *shared.Profile {
	if p == nil {
		return nil
	}
	out := &shared.Profile{
		ID:          p.ID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Role:        p.Role,
		AvatarURL:   p.AvatarURL,
		Phone:       p.Phone,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Stylist != nil {
		out.Stylist = &shared.StylistProfile{
			BusinessName: p.Stylist.BusinessName,
			Location:     p.Stylist.Location,
			Phone:        p.Stylist.Phone,
			ContactEmail: p.Stylist.ContactEmail,
		}
	}
	return out
}

// seedToDB builds a new GORM Profile from signup metadata. Role is validated
// upstream; empty optional fields stay NULL.
func seedToDB(userID, email, role string, seed *shared.ProfileSeed) *Profile {
	p := &Profile{
		ID:    userID,
		Email: email,
		Role:  role,
	}
	if seed != nil {
		if seed.DisplayName != "" {
			name := seed.DisplayName
			p.DisplayName = &name
		}
		if seed.Phone != "" {
			phone := seed.Phone
			p.Phone = &phone
		}
	}
	return p
}

// applyStylistDetails copies non-empty details onto a StylistProfile row.
func applyStylistDetails(row *StylistProfile, details shared.StylistDetails) {
	row.BusinessName = details.BusinessName
	if details.Location != "" {
		loc := details.Location
		row.Location = &loc
	}
	if details.Phone != "" {
		phone := details.Phone
		row.Phone = &phone
	}
	if details.ContactEmail != "" {
		email := details.ContactEmail
		row.ContactEmail = &email
	}
}
