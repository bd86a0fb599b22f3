package model

// Permission names one capability in the role matrix.
type Permission string

const (
	PermViewPatients      Permission = "view_patients"
	PermViewSensitiveData Permission = "view_sensitive_data"
	PermAddPatient        Permission = "add_patient"
	PermScheduleOperation Permission = "schedule_op"
	PermViewAllClinics    Permission = "view_all_clinics"
	PermEditNotes         Permission = "edit_notes"
	PermSignConsent       Permission = "sign_consent"
)

// PermissionInfo describes a matrix row.
type PermissionInfo struct {
	ID    Permission `json:"id"`
	Label string     `json:"label"`
	Roles []Role     `json:"roles"`
}

// PermissionMatrix is the fixed role x permission table.
var PermissionMatrix = []PermissionInfo{
	{ID: PermViewPatients, Label: "View Patient List", Roles: []Role{RoleSuperAdmin, RoleAdmin, RoleManager, RoleSpecialist}},
	{ID: PermViewSensitiveData, Label: "View Contact Details (Phone/Email)", Roles: []Role{RoleSuperAdmin, RoleAdmin, RoleManager}},
	{ID: PermAddPatient, Label: "Register New Patient", Roles: []Role{RoleSuperAdmin, RoleAdmin, RoleManager}},
	{ID: PermScheduleOperation, Label: "Schedule Operations", Roles: []Role{RoleSuperAdmin, RoleAdmin, RoleManager}},
	{ID: PermViewAllClinics, Label: "View Multi-Clinic Data", Roles: []Role{RoleSuperAdmin}},
	{ID: PermEditNotes, Label: "Add Clinical Notes", Roles: []Role{RoleSuperAdmin, RoleAdmin, RoleSpecialist}},
	{ID: PermSignConsent, Label: "Legal Representative Signing", Roles: []Role{RoleSuperAdmin, RoleAdmin}},
}
