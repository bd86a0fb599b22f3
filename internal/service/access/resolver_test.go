package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capilarmax/clinic-api/internal/model"
	"github.com/capilarmax/clinic-api/internal/repository/memory"
)

func patientsIn(clinics ...string) []*model.Patient {
	out := make([]*model.Patient, 0, len(clinics))
	for i, c := range clinics {
		out = append(out, &model.Patient{
			Base:      model.Base{ID: string(rune('a' + i))},
			ClinicID:  c,
			FirstName: "P",
			LastName:  c,
			Email:     "p@example.com",
			Phone:     "0532 000 00 00",
			BirthDate: "1985-05-20",
		})
	}
	return out
}

func clinicIDs(ps []*model.Patient) []string {
	ids := make([]string, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ClinicID)
	}
	return ids
}

func TestVisiblePatientsMultiClinicUnionIgnoresActiveClinic(t *testing.T) {
	r := NewResolver(Options{})
	all := patientsIn("c1", "c2", "c3", "c1")
	user := &model.User{ID: "u3", Role: model.RoleManager, ClinicIDs: []string{"c1", "c2"}}

	for _, active := range []string{"", "c1", "c2", "c3", "unknown"} {
		got := r.VisiblePatients(all, user, active)
		assert.Equal(t, []string{"c1", "c2", "c1"}, clinicIDs(got), "active clinic %q", active)
	}
}

func TestVisiblePatientsSeedScenarioForManager(t *testing.T) {
	r := NewResolver(Options{})
	all := append(memory.SeedPatients(), patientsIn("c3")...)
	users := memory.SeedUsers()

	got := r.VisiblePatients(all, users[2], "c1")
	require.Len(t, got, 3)
	for _, p := range got {
		assert.Contains(t, []string{"c1", "c2"}, p.ClinicID)
	}
}

func TestVisiblePatientsGlobalUser(t *testing.T) {
	r := NewResolver(Options{})
	all := patientsIn("c1", "c2", "c3")
	user := &model.User{ID: "u1", Role: model.RoleSuperAdmin, IsAllClinics: true}

	assert.Len(t, r.VisiblePatients(all, user, ""), 3)
	assert.Equal(t, []string{"c2"}, clinicIDs(r.VisiblePatients(all, user, "c2")))
	assert.Empty(t, r.VisiblePatients(all, user, "c9"))
}

func TestVisiblePatientsEmptyScope(t *testing.T) {
	r := NewResolver(Options{})
	all := patientsIn("c1", "c2")

	assert.Empty(t, r.VisiblePatients(all, &model.User{Role: model.RoleManager}, ""))
	assert.Empty(t, r.VisiblePatients(all, nil, ""))
	assert.NotNil(t, r.VisiblePatients(nil, &model.User{IsAllClinics: true}, ""))
}

func TestScopeToActiveClinicOption(t *testing.T) {
	r := NewResolver(Options{ScopeToActiveClinic: true})
	all := patientsIn("c1", "c2", "c3")
	user := &model.User{Role: model.RoleManager, ClinicIDs: []string{"c1", "c2"}}

	assert.Equal(t, []string{"c2"}, clinicIDs(r.VisiblePatients(all, user, "c2")))
	assert.Equal(t, []string{"c1", "c2"}, clinicIDs(r.VisiblePatients(all, user, "")))
	assert.Empty(t, r.VisiblePatients(all, user, "c3"))
}

func TestAvailableClinics(t *testing.T) {
	r := NewResolver(Options{})
	clinics := memory.SeedClinics()

	assert.Len(t, r.AvailableClinics(&model.User{IsAllClinics: true}, clinics), 3)

	got := r.AvailableClinics(&model.User{ClinicIDs: []string{"c2"}}, clinics)
	require.Len(t, got, 1)
	assert.Equal(t, "c2", got[0].ID)
}

func TestRedactContactSpecialistIsTotal(t *testing.T) {
	for _, p := range memory.SeedPatients() {
		view := RedactContact(p, model.RoleSpecialist)

		assert.True(t, view.ContactRedacted)
		assert.Equal(t, MaskedPhone, view.Phone)
		assert.Equal(t, MaskedEmail, view.Email)
		assert.Equal(t, MaskedBirthDate, view.BirthDate)
		assert.NotContains(t, view.Phone+view.Email+view.BirthDate, p.Phone)
		assert.NotContains(t, view.Phone+view.Email+view.BirthDate, p.Email)
		assert.NotContains(t, view.Phone+view.Email+view.BirthDate, p.BirthDate)

		// the source record is left alone
		assert.NotEqual(t, MaskedPhone, p.Phone)
	}
}

func TestRedactContactOtherRolesSeeRawValues(t *testing.T) {
	p := memory.SeedPatients()[0]
	for _, role := range []model.Role{model.RoleSuperAdmin, model.RoleAdmin, model.RoleManager} {
		view := RedactContact(p, role)
		assert.False(t, view.ContactRedacted, role)
		assert.Equal(t, p.Phone, view.Phone)
		assert.Equal(t, p.Email, view.Email)
		assert.Equal(t, p.BirthDate, view.BirthDate)
	}
}

func TestCanFollowsMatrix(t *testing.T) {
	assert.True(t, Can(model.RoleSuperAdmin, model.PermViewAllClinics))
	assert.False(t, Can(model.RoleAdmin, model.PermViewAllClinics))
	assert.True(t, Can(model.RoleSpecialist, model.PermEditNotes))
	assert.False(t, Can(model.RoleSpecialist, model.PermAddPatient))
	assert.False(t, Can(model.RoleManager, model.PermSignConsent))
	assert.False(t, Can(model.Role("guest"), model.PermViewPatients))

	assert.Equal(t, []model.Permission{model.PermViewPatients, model.PermEditNotes}, Permissions(model.RoleSpecialist))
}
