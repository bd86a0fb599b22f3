package access

import (
	"github.com/capilarmax/clinic-api/internal/model"
)

// Masks shown in place of contact data for roles without view_sensitive_data.
const (
	MaskedPhone     = "***-***-**-**"
	MaskedEmail     = "*******@*******.***"
	MaskedBirthDate = "**.**.****"
)

type Options struct {
	// ScopeToActiveClinic narrows non-global users to their active clinic
	// as well. Off by default: the switcher only filters global users.
	ScopeToActiveClinic bool
}

// Resolver decides which patients a user may see and which fields of them.
// It holds no state besides its options and never returns errors: unknown
// clinics simply match nothing.
type Resolver struct {
	opts Options
}

func NewResolver(opts Options) *Resolver {
	return &Resolver{opts: opts}
}

// VisiblePatients returns the subset of all the user may see, preserving
// order. Global users see everything, or just activeClinic when one is set.
// Other users see the union of their assigned clinics.
func (r *Resolver) VisiblePatients(all []*model.Patient, user *model.User, activeClinic string) []*model.Patient {
	out := make([]*model.Patient, 0, len(all))
	if user == nil {
		return out
	}
	for _, p := range all {
		if r.CanSee(user, activeClinic, p) {
			out = append(out, p)
		}
	}
	return out
}

// CanSee is the single-patient form of VisiblePatients.
func (r *Resolver) CanSee(user *model.User, activeClinic string, p *model.Patient) bool {
	if user == nil || p == nil {
		return false
	}
	if user.IsAllClinics {
		return activeClinic == "" || p.ClinicID == activeClinic
	}
	if !user.HasClinic(p.ClinicID) {
		return false
	}
	if r.opts.ScopeToActiveClinic && activeClinic != "" {
		return p.ClinicID == activeClinic
	}
	return true
}

// AvailableClinics lists the clinics a user can pick in the switcher or
// when scheduling.
func (r *Resolver) AvailableClinics(user *model.User, clinics []*model.Clinic) []*model.Clinic {
	out := make([]*model.Clinic, 0, len(clinics))
	if user == nil {
		return out
	}
	for _, c := range clinics {
		if user.IsAllClinics || user.HasClinic(c.ID) {
			out = append(out, c)
		}
	}
	return out
}

// RedactContact projects p for display to role. The stored record is never
// touched.
func RedactContact(p *model.Patient, role model.Role) *model.PatientView {
	view := &model.PatientView{Patient: *p.Clone()}
	if Can(role, model.PermViewSensitiveData) {
		return view
	}
	view.Phone = MaskedPhone
	view.Email = MaskedEmail
	view.BirthDate = MaskedBirthDate
	view.ContactRedacted = true
	return view
}

// RedactAll applies RedactContact to every patient.
func RedactAll(patients []*model.Patient, role model.Role) []*model.PatientView {
	out := make([]*model.PatientView, 0, len(patients))
	for _, p := range patients {
		out = append(out, RedactContact(p, role))
	}
	return out
}
