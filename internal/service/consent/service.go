package consent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/capilarmax/clinic-api/internal/model"
	"github.com/capilarmax/clinic-api/internal/repository"
	"github.com/capilarmax/clinic-api/internal/service/audit"
	"github.com/capilarmax/clinic-api/internal/service/event"
	"github.com/capilarmax/clinic-api/internal/service/export"
	"github.com/capilarmax/clinic-api/internal/signature"
	apperrors "github.com/capilarmax/clinic-api/pkg/errors"
	"github.com/capilarmax/clinic-api/pkg/metrics"
)

// PatientLookup resolves a patient the session is allowed to see.
type PatientLookup interface {
	Lookup(ctx context.Context, sess *model.Session, id string) (*model.Patient, error)
}

// Service keeps one consent draft per session and patient. Drafts that are
// not touched for the configured TTL are dropped, like a closed modal.
type Service struct {
	patients PatientLookup
	repo     repository.PatientRepository
	events   *event.Publisher
	auditor  *audit.Logger
	metrics  *metrics.Metrics

	mu     sync.Mutex
	drafts *cache.Cache
	now    func() time.Time
}

func NewService(patients PatientLookup, repo repository.PatientRepository, events *event.Publisher,
	auditor *audit.Logger, m *metrics.Metrics, draftTTL time.Duration) *Service {
	return &Service{
		patients: patients,
		repo:     repo,
		events:   events,
		auditor:  auditor,
		metrics:  m,
		drafts:   cache.New(draftTTL, 2*draftTTL),
		now:      time.Now,
	}
}

// Open starts a draft for the patient, or returns the one already open.
func (s *Service) Open(ctx context.Context, sess *model.Session, patientID string) (*DraftView, error) {
	if _, err := s.patients.Lookup(ctx, sess, patientID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := draftKey(sess, patientID)
	if v, ok := s.drafts.Get(key); ok {
		return v.(*Draft).View(), nil
	}
	d := NewDraft(patientID, s.now())
	s.drafts.SetDefault(key, d)
	return d.View(), nil
}

func (s *Service) Draft(ctx context.Context, sess *model.Session, patientID string) (*DraftView, error) {
	var view *DraftView
	err := s.withDraft(ctx, sess, patientID, func(d *Draft) error {
		view = d.View()
		return nil
	})
	return view, err
}

func (s *Service) ToggleInitial(ctx context.Context, sess *model.Session, patientID, section string) (*DraftView, error) {
	sec, err := model.ParseSection(section)
	if err != nil {
		return nil, apperrors.NewValidation("invalid input", err.Error())
	}
	return s.edit(ctx, sess, patientID, func(d *Draft) error {
		return d.ToggleInitial(sec)
	})
}

// SetSignature captures image for party. An empty or ink-free image clears
// the slot.
func (s *Service) SetSignature(ctx context.Context, sess *model.Session, patientID, party, image string) (*DraftView, error) {
	p, err := model.ParseSignatureParty(party)
	if err != nil {
		return nil, apperrors.NewValidation("invalid input", err.Error())
	}

	var sig *model.Signature
	if image != "" {
		sig, err = signature.Capture(image)
		switch {
		case errors.Is(err, signature.ErrEmpty):
			sig = nil
		case err != nil:
			return nil, apperrors.BadRequest("invalid signature image", err)
		}
	}

	return s.edit(ctx, sess, patientID, func(d *Draft) error {
		return d.SetSignature(p, sig)
	})
}

func (s *Service) SetRepresentativeName(ctx context.Context, sess *model.Session, patientID, name string) (*DraftView, error) {
	return s.edit(ctx, sess, patientID, func(d *Draft) error {
		return d.SetRepresentativeName(name)
	})
}

func (s *Service) SetMarketing(ctx context.Context, sess *model.Session, patientID, choice string) (*DraftView, error) {
	c, err := model.ParseMarketingChoice(choice)
	if err != nil {
		return nil, apperrors.NewValidation("invalid input", err.Error())
	}
	return s.edit(ctx, sess, patientID, func(d *Draft) error {
		return d.SetMarketing(c)
	})
}

// Submit completes the draft. On success the record is attached to the
// patient along with a signed consent document and the draft is closed.
func (s *Service) Submit(ctx context.Context, sess *model.Session, patientID string) (*model.ConsentRecord, error) {
	p, err := s.patients.Lookup(ctx, sess, patientID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec, updated, missing, err := s.commit(ctx, sess, p, now)
	if err != nil {
		if missing != nil {
			s.metrics.ConsentSubmissions.WithLabelValues("rejected").Inc()
			s.auditor.Log(ctx, sess, audit.ActionConsentReject, "patient", patientID, &audit.LogOptions{
				Metadata: map[string]interface{}{"missing": missing},
			})
		}
		return nil, err
	}

	s.metrics.ConsentSubmissions.WithLabelValues("completed").Inc()
	s.auditor.Log(ctx, sess, audit.ActionConsentSign, "patient", patientID, &audit.LogOptions{
		Metadata: map[string]interface{}{
			"consent_id":   rec.ID,
			"form_version": rec.FormVersion,
			"marketing":    rec.MarketingConsent,
		},
	})
	s.events.Emit(ctx, event.ConsentCompleted, event.ConsentSigned{
		PatientID:    updated.ID,
		PatientName:  updated.FullName(),
		PatientEmail: updated.Email,
		ClinicID:     updated.ClinicID,
		Record:       rec,
		ActorID:      sess.User.ID,
	})
	return rec, nil
}

// commit runs the draft transition and attaches the record under the draft
// lock. missing is set when the draft was rejected as incomplete.
func (s *Service) commit(ctx context.Context, sess *model.Session, p *model.Patient, now time.Time) (*model.ConsentRecord, *model.Patient, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := draftKey(sess, p.ID)
	v, ok := s.drafts.Get(key)
	if !ok {
		return nil, nil, nil, apperrors.NotFound("consent draft", fmt.Errorf("patient %q", p.ID))
	}
	d := v.(*Draft)

	rec, err := d.Submit(now)
	if err != nil {
		return nil, nil, d.Missing(), err
	}

	doc := model.Document{
		ID:         uuid.NewString(),
		Name:       export.Filename(p.FullName(), now),
		Type:       model.DocumentConsent,
		UploadDate: now.Format("2006-01-02"),
		URL:        fmt.Sprintf("/api/v1/patients/%s/consent/pdf", p.ID),
		Signed:     true,
	}
	updated, err := s.repo.AttachConsent(ctx, p.ID, rec, doc)
	if err != nil {
		d.State = StateEditing
		return nil, nil, nil, fmt.Errorf("failed to attach consent: %w", err)
	}
	s.drafts.Delete(key)
	return rec, updated, nil, nil
}

// Discard drops an open draft without touching the patient.
func (s *Service) Discard(ctx context.Context, sess *model.Session, patientID string) error {
	if _, err := s.patients.Lookup(ctx, sess, patientID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := draftKey(sess, patientID)
	if _, ok := s.drafts.Get(key); !ok {
		return apperrors.NotFound("consent draft", fmt.Errorf("patient %q", patientID))
	}
	s.drafts.Delete(key)
	s.auditor.Log(ctx, sess, audit.ActionConsentDiscard, "patient", patientID, nil)
	return nil
}

// Export writes the patient's completed consent as PDF to w and returns the
// download file name.
func (s *Service) Export(ctx context.Context, sess *model.Session, patientID string, w io.Writer) (string, error) {
	p, err := s.patients.Lookup(ctx, sess, patientID)
	if err != nil {
		return "", err
	}
	if p.Consent == nil {
		return "", apperrors.NotFound("consent record", fmt.Errorf("patient %q has not signed", patientID))
	}

	if err := export.ConsentPDF(w, p.FullName(), p.Consent); err != nil {
		return "", apperrors.Internal(err)
	}

	s.metrics.ConsentExports.Inc()
	s.auditor.Log(ctx, sess, audit.ActionConsentExport, "patient", patientID, &audit.LogOptions{
		Metadata: map[string]interface{}{"consent_id": p.Consent.ID},
	})
	return export.Filename(p.FullName(), s.now()), nil
}

func (s *Service) edit(ctx context.Context, sess *model.Session, patientID string, fn func(d *Draft) error) (*DraftView, error) {
	var view *DraftView
	err := s.withDraft(ctx, sess, patientID, func(d *Draft) error {
		if err := fn(d); err != nil {
			return err
		}
		view = d.View()
		return nil
	})
	return view, err
}

func (s *Service) withDraft(ctx context.Context, sess *model.Session, patientID string, fn func(d *Draft) error) error {
	if _, err := s.patients.Lookup(ctx, sess, patientID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := draftKey(sess, patientID)
	v, ok := s.drafts.Get(key)
	if !ok {
		return apperrors.NotFound("consent draft", fmt.Errorf("patient %q", patientID))
	}
	d := v.(*Draft)
	if err := fn(d); err != nil {
		return err
	}
	// touching a draft keeps it open
	s.drafts.SetDefault(key, d)
	return nil
}

func draftKey(sess *model.Session, patientID string) string {
	return sess.ID + "/" + patientID
}
