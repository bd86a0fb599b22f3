package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/capilarmax/clinic-api/internal/model"
	"github.com/capilarmax/clinic-api/internal/repository"
	apperrors "github.com/capilarmax/clinic-api/pkg/errors"
)

// Directory holds the clinic and user rosters. Both are loaded once and
// never modified afterwards.
type Directory struct {
	mu      sync.RWMutex
	users   []*model.User
	clinics []*model.Clinic
}

var _ repository.DirectoryRepository = (*Directory)(nil)

func NewDirectory(users []*model.User, clinics []*model.Clinic) *Directory {
	return &Directory{users: users, clinics: clinics}
}

func (d *Directory) GetUser(ctx context.Context, id string) (*model.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, u := range d.users {
		if u.ID == id {
			c := *u
			c.ClinicIDs = append([]string{}, u.ClinicIDs...)
			return &c, nil
		}
	}
	return nil, apperrors.NotFound("user", fmt.Errorf("id %q", id))
}

func (d *Directory) ListUsers(ctx context.Context) ([]*model.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*model.User, 0, len(d.users))
	for _, u := range d.users {
		c := *u
		c.ClinicIDs = append([]string{}, u.ClinicIDs...)
		out = append(out, &c)
	}
	return out, nil
}

func (d *Directory) GetClinic(ctx context.Context, id string) (*model.Clinic, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, c := range d.clinics {
		if c.ID == id {
			clinic := *c
			return &clinic, nil
		}
	}
	return nil, apperrors.NotFound("clinic", fmt.Errorf("id %q", id))
}

func (d *Directory) ListClinics(ctx context.Context) ([]*model.Clinic, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*model.Clinic, 0, len(d.clinics))
	for _, c := range d.clinics {
		clinic := *c
		out = append(out, &clinic)
	}
	return out, nil
}
