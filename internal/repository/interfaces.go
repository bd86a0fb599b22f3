package repository

import (
	"context"

	"github.com/capilarmax/clinic-api/internal/model"
)

// All repository interfaces in one file
type (
	// PatientRepository owns patient records. Every method returning a
	// patient returns a copy; unknown ids yield a NotFound AppError.
	PatientRepository interface {
		Create(ctx context.Context, draft *model.PatientDraft) (*model.Patient, error)
		Get(ctx context.Context, id string) (*model.Patient, error)
		List(ctx context.Context) ([]*model.Patient, error)
		Update(ctx context.Context, id string, update *model.PatientUpdate) (*model.Patient, error)
		AppendVital(ctx context.Context, id string, vital model.VitalSign) (*model.Patient, error)
		AttachConsent(ctx context.Context, id string, record *model.ConsentRecord, doc model.Document) (*model.Patient, error)
		AppendNote(ctx context.Context, id string, note model.OperationNote) (*model.Patient, error)
	}

	// DirectoryRepository serves immutable users and clinics.
	DirectoryRepository interface {
		GetUser(ctx context.Context, id string) (*model.User, error)
		ListUsers(ctx context.Context) ([]*model.User, error)
		GetClinic(ctx context.Context, id string) (*model.Clinic, error)
		ListClinics(ctx context.Context) ([]*model.Clinic, error)
	}
)
