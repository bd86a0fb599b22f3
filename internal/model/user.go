package model

// Role is one of the fixed staff roles.
type Role string

const (
	RoleSuperAdmin Role = "super-admin"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleSpecialist Role = "specialist"
)

// Roles lists every role in display order.
var Roles = []Role{RoleSuperAdmin, RoleAdmin, RoleManager, RoleSpecialist}

func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// User is a staff member. When IsAllClinics is false the user only sees
// patients of ClinicIDs; an empty ClinicIDs means no patients at all.
type User struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Role         Role     `json:"role"`
	ClinicIDs    []string `json:"clinic_ids,omitempty"`
	IsAllClinics bool     `json:"is_all_clinics"`
}

// HasClinic reports whether clinicID is in the user's explicit clinic list.
func (u *User) HasClinic(clinicID string) bool {
	for _, id := range u.ClinicIDs {
		if id == clinicID {
			return true
		}
	}
	return false
}
