package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/capilarmax/clinic-api/internal/model"
	"github.com/capilarmax/clinic-api/internal/repository"
	apperrors "github.com/capilarmax/clinic-api/pkg/errors"
	"github.com/capilarmax/clinic-api/pkg/validator"
)

const (
	defaultFirstName = "New"
	defaultLastName  = "Patient"
)

type PatientStore struct {
	mu             sync.RWMutex
	patients       map[string]*model.Patient
	order          []string
	lastID         int
	fallbackClinic string
	validator      validator.Validator
	now            func() time.Time
}

var _ repository.PatientRepository = (*PatientStore)(nil)

// NewPatientStore returns an empty store. Drafts without a clinic are placed
// in fallbackClinic.
func NewPatientStore(fallbackClinic string) *PatientStore {
	return &PatientStore{
		patients:       make(map[string]*model.Patient),
		fallbackClinic: fallbackClinic,
		validator:      validator.New(),
		now:            time.Now,
	}
}

// Load inserts existing records (seed data) as-is. The id counter moves past
// the largest numeric id so generated ids never collide with loaded ones.
func (s *PatientStore) Load(patients []*model.Patient) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range patients {
		if _, exists := s.patients[p.ID]; !exists {
			s.order = append(s.order, p.ID)
		}
		s.patients[p.ID] = p.Clone()
		if n, err := strconv.Atoi(p.ID); err == nil && n > s.lastID {
			s.lastID = n
		}
	}
}

// Create validates the draft and registers a new pending patient.
func (s *PatientStore) Create(ctx context.Context, draft *model.PatientDraft) (*model.Patient, error) {
	if err := s.validator.Validate(draft); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Ids come from a monotonic counter rather than the collection size so a
	// removed record can never cause reuse.
	s.lastID++
	now := s.now()
	p := &model.Patient{
		Base: model.Base{
			ID:        strconv.Itoa(s.lastID),
			CreatedAt: now,
			UpdatedAt: now,
		},
		ClinicID:       firstNonEmpty(draft.ClinicID, s.fallbackClinic),
		FirstName:      firstNonEmpty(draft.FirstName, defaultFirstName),
		LastName:       firstNonEmpty(draft.LastName, defaultLastName),
		Email:          draft.Email,
		Phone:          draft.Phone,
		BirthDate:      draft.BirthDate,
		Status:         model.PatientStatusPending,
		MedicalHistory: draft.MedicalHistory,
		Medications:    draft.Medications,
		Allergies:      draft.Allergies,
		Notes:          draft.Notes,
		HepatitisB:     draft.HepatitisB,
		HepatitisC:     draft.HepatitisC,
		HIV:            draft.HIV,
		Vitals:         []model.VitalSign{},
		Photos:         []model.PhotoAlbum{},
		Documents:      []model.Document{},
	}

	s.patients[p.ID] = p
	s.order = append(s.order, p.ID)
	return p.Clone(), nil
}

func (s *PatientStore) Get(ctx context.Context, id string) (*model.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.patients[id]
	if !ok {
		return nil, notFound(id)
	}
	return p.Clone(), nil
}

// List returns all patients in registration order.
func (s *PatientStore) List(ctx context.Context) ([]*model.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Patient, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.patients[id].Clone())
	}
	return out, nil
}

// Update merges the non-nil fields of update into the stored record.
func (s *PatientStore) Update(ctx context.Context, id string, update *model.PatientUpdate) (*model.Patient, error) {
	if update == nil {
		return nil, apperrors.BadRequest("empty update", nil)
	}
	if err := s.validator.Validate(update); err != nil {
		return nil, err
	}
	return s.mutate(id, func(p *model.Patient) {
		update.Apply(p)
	})
}

// AppendVital appends a reading; timestamps are not required to be ordered.
func (s *PatientStore) AppendVital(ctx context.Context, id string, vital model.VitalSign) (*model.Patient, error) {
	return s.mutate(id, func(p *model.Patient) {
		p.Vitals = append(p.Vitals, vital)
	})
}

// AttachConsent stores a completed consent record together with its document
// entry. Earlier unsigned consent documents are marked signed.
func (s *PatientStore) AttachConsent(ctx context.Context, id string, record *model.ConsentRecord, doc model.Document) (*model.Patient, error) {
	if record == nil {
		return nil, apperrors.BadRequest("missing consent record", nil)
	}
	return s.mutate(id, func(p *model.Patient) {
		p.Consent = record.Clone()
		for i := range p.Documents {
			if p.Documents[i].Type == model.DocumentConsent {
				p.Documents[i].Signed = true
			}
		}
		p.Documents = append(p.Documents, doc)
	})
}

func (s *PatientStore) AppendNote(ctx context.Context, id string, note model.OperationNote) (*model.Patient, error) {
	return s.mutate(id, func(p *model.Patient) {
		p.OperationNotes = append(p.OperationNotes, note)
		sort.SliceStable(p.OperationNotes, func(i, j int) bool {
			return p.OperationNotes[i].Date.Before(p.OperationNotes[j].Date)
		})
	})
}

func (s *PatientStore) mutate(id string, fn func(p *model.Patient)) (*model.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.patients[id]
	if !ok {
		return nil, notFound(id)
	}
	fn(p)
	p.UpdatedAt = s.now()
	return p.Clone(), nil
}

func notFound(id string) error {
	return apperrors.NotFound("patient", fmt.Errorf("id %q", id))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
