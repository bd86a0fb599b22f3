package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/capilarmax/clinic-api/internal/model"
	"github.com/capilarmax/clinic-api/internal/repository"
	"github.com/capilarmax/clinic-api/internal/service/access"
	"github.com/capilarmax/clinic-api/internal/service/audit"
	"github.com/capilarmax/clinic-api/internal/service/event"
	apperrors "github.com/capilarmax/clinic-api/pkg/errors"
	"github.com/capilarmax/clinic-api/pkg/metrics"
	"github.com/capilarmax/clinic-api/pkg/validator"
)

const dateLayout = "2006-01-02"

type PatientService interface {
	ListPatients(ctx context.Context, sess *model.Session, filters *model.PatientFilters) ([]*model.PatientView, error)
	GetPatient(ctx context.Context, sess *model.Session, id string) (*model.PatientView, error)
	Lookup(ctx context.Context, sess *model.Session, id string) (*model.Patient, error)
	CreatePatient(ctx context.Context, sess *model.Session, draft *model.PatientDraft) (*model.PatientView, error)
	UpdatePatient(ctx context.Context, sess *model.Session, id string, update *model.PatientUpdate) (*model.PatientView, error)
	AppendVital(ctx context.Context, sess *model.Session, id string, draft *model.VitalDraft) (*model.PatientView, error)
	Schedule(ctx context.Context, sess *model.Session, id string, req *model.ScheduleRequest) (*model.PatientView, error)
	AddNote(ctx context.Context, sess *model.Session, id string, req *model.NoteRequest) (*model.PatientView, error)
	Calendar(ctx context.Context, sess *model.Session, date string) (*model.CalendarDay, error)
	Dashboard(ctx context.Context, sess *model.Session, est *model.GraftEstimateRequest) (*model.DashboardSummary, error)
	Documents(ctx context.Context, sess *model.Session, term string) ([]*model.DocumentFolder, error)
}

type Service struct {
	repo      repository.PatientRepository
	directory repository.DirectoryRepository
	resolver  *access.Resolver
	validator validator.Validator
	events    *event.Publisher
	auditor   *audit.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

var _ PatientService = (*Service)(nil)

func NewService(repo repository.PatientRepository, directory repository.DirectoryRepository, resolver *access.Resolver,
	events *event.Publisher, auditor *audit.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		resolver:  resolver,
		validator: validator.New(),
		events:    events,
		auditor:   auditor,
		metrics:   m,
		now:       time.Now,
	}
}

// ListPatients returns the caller's visible patients, narrowed by filters and
// redacted for the caller's role.
func (s *Service) ListPatients(ctx context.Context, sess *model.Session, filters *model.PatientFilters) ([]*model.PatientView, error) {
	visible, err := s.visible(ctx, sess)
	if err != nil {
		return nil, err
	}

	matched := make([]*model.Patient, 0, len(visible))
	for _, p := range visible {
		if matches(p, filters, access.Can(sess.User.Role, model.PermViewSensitiveData)) {
			matched = append(matched, p)
		}
	}

	views := access.RedactAll(matched, sess.User.Role)
	s.auditor.Log(ctx, sess, audit.ActionList, "patient", "", &audit.LogOptions{
		Redacted: !access.Can(sess.User.Role, model.PermViewSensitiveData),
		Metadata: map[string]interface{}{"count": len(views)},
	})
	return views, nil
}

func (s *Service) GetPatient(ctx context.Context, sess *model.Session, id string) (*model.PatientView, error) {
	p, err := s.Lookup(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	view := access.RedactContact(p, sess.User.Role)
	s.auditor.Log(ctx, sess, audit.ActionRead, "patient", id, &audit.LogOptions{Redacted: view.ContactRedacted})
	return view, nil
}

// Lookup returns the unredacted record if the caller may see it. Patients
// outside the caller's scope are reported as not found.
func (s *Service) Lookup(ctx context.Context, sess *model.Session, id string) (*model.Patient, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	if !s.resolver.CanSee(&sess.User, sess.ActiveClinicID, p) {
		return nil, apperrors.NotFound("patient", fmt.Errorf("id %q outside caller scope", id))
	}
	return p, nil
}

func (s *Service) CreatePatient(ctx context.Context, sess *model.Session, draft *model.PatientDraft) (*model.PatientView, error) {
	if draft.ClinicID == "" {
		draft.ClinicID = sess.ActiveClinicID
	}
	if draft.ClinicID != "" {
		if err := s.checkClinic(ctx, sess, draft.ClinicID); err != nil {
			return nil, err
		}
	}

	p, err := s.repo.Create(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	s.metrics.PatientsCreated.Inc()
	s.auditor.Log(ctx, sess, audit.ActionCreate, "patient", p.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"clinic_id": p.ClinicID},
	})
	s.events.Emit(ctx, event.PatientCreated, event.PatientChanged{
		PatientID: p.ID,
		ClinicID:  p.ClinicID,
		Status:    p.Status,
		ActorID:   sess.User.ID,
	})
	return access.RedactContact(p, sess.User.Role), nil
}

func (s *Service) UpdatePatient(ctx context.Context, sess *model.Session, id string, update *model.PatientUpdate) (*model.PatientView, error) {
	if update == nil {
		return nil, apperrors.BadRequest("empty update", nil)
	}
	if _, err := s.Lookup(ctx, sess, id); err != nil {
		return nil, err
	}
	if update.ClinicID != nil {
		if err := s.checkClinic(ctx, sess, *update.ClinicID); err != nil {
			return nil, err
		}
	}

	p, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	s.changed(ctx, sess, audit.ActionUpdate, p, update)
	return access.RedactContact(p, sess.User.Role), nil
}

func (s *Service) AppendVital(ctx context.Context, sess *model.Session, id string, draft *model.VitalDraft) (*model.PatientView, error) {
	if err := s.validator.Validate(draft); err != nil {
		return nil, err
	}
	if _, err := s.Lookup(ctx, sess, id); err != nil {
		return nil, err
	}

	vital := draft.Vital()
	if vital.Timestamp.IsZero() {
		vital.Timestamp = s.now().UTC()
	}
	p, err := s.repo.AppendVital(ctx, id, vital)
	if err != nil {
		return nil, fmt.Errorf("failed to append vital: %w", err)
	}

	s.metrics.VitalsRecorded.WithLabelValues(string(vital.Type)).Inc()
	s.auditor.Log(ctx, sess, audit.ActionRecordVital, "patient", id, &audit.LogOptions{Changes: vital})
	s.events.Emit(ctx, event.VitalRecorded, event.VitalAppended{
		PatientID: id,
		Type:      vital.Type,
		Timestamp: vital.Timestamp,
		ActorID:   sess.User.ID,
	})
	return access.RedactContact(p, sess.User.Role), nil
}

// Schedule books an operation. When the caller has exactly one clinic
// available it is used if the request names none.
func (s *Service) Schedule(ctx context.Context, sess *model.Session, id string, req *model.ScheduleRequest) (*model.PatientView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.Lookup(ctx, sess, id); err != nil {
		return nil, err
	}

	clinicID := req.ClinicID
	if clinicID == "" {
		available, err := s.availableClinics(ctx, sess)
		if err != nil {
			return nil, err
		}
		if len(available) != 1 {
			return nil, apperrors.NewValidation("invalid input", "clinic_id is required")
		}
		clinicID = available[0].ID
	}
	if err := s.checkClinic(ctx, sess, clinicID); err != nil {
		return nil, err
	}

	status := model.PatientStatusScheduled
	grafts := req.GraftCount
	update := &model.PatientUpdate{
		ClinicID:    &clinicID,
		SurgeryDate: &req.SurgeryDate,
		SurgeryTime: &req.SurgeryTime,
		GraftCount:  &grafts,
		Status:      &status,
	}
	p, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule operation: %w", err)
	}
	s.changed(ctx, sess, audit.ActionSchedule, p, update)
	return access.RedactContact(p, sess.User.Role), nil
}

func (s *Service) AddNote(ctx context.Context, sess *model.Session, id string, req *model.NoteRequest) (*model.PatientView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.Lookup(ctx, sess, id); err != nil {
		return nil, err
	}

	note := model.OperationNote{
		ID:      uuid.NewString(),
		Author:  sess.User.Name,
		Date:    s.now().UTC(),
		Content: strings.TrimSpace(req.Content),
	}
	p, err := s.repo.AppendNote(ctx, id, note)
	if err != nil {
		return nil, fmt.Errorf("failed to add note: %w", err)
	}
	s.auditor.Log(ctx, sess, audit.ActionAddNote, "patient", id, &audit.LogOptions{
		Metadata: map[string]interface{}{"note_id": note.ID},
	})
	return access.RedactContact(p, sess.User.Role), nil
}

// Calendar lists visible patients whose operation falls on date.
func (s *Service) Calendar(ctx context.Context, sess *model.Session, date string) (*model.CalendarDay, error) {
	if date == "" {
		date = s.now().Format(dateLayout)
	}
	if err := s.validator.ValidateField("date", date, "datetime="+dateLayout); err != nil {
		return nil, err
	}

	visible, err := s.visible(ctx, sess)
	if err != nil {
		return nil, err
	}
	var booked []*model.Patient
	for _, p := range visible {
		if p.SurgeryDate == date {
			booked = append(booked, p)
		}
	}
	return &model.CalendarDay{Date: date, Operations: access.RedactAll(booked, sess.User.Role)}, nil
}

func (s *Service) Dashboard(ctx context.Context, sess *model.Session, est *model.GraftEstimateRequest) (*model.DashboardSummary, error) {
	if est == nil {
		est = &model.GraftEstimateRequest{}
	}
	if est.Area == 0 {
		est.Area = model.DefaultGraftArea
	}
	if est.Density == 0 {
		est.Density = model.DefaultGraftDensity
	}
	if err := s.validator.Validate(est); err != nil {
		return nil, err
	}

	visible, err := s.visible(ctx, sess)
	if err != nil {
		return nil, err
	}
	var scheduled []*model.Patient
	for _, p := range visible {
		if p.Status == model.PatientStatusScheduled {
			scheduled = append(scheduled, p)
		}
	}

	return &model.DashboardSummary{
		TotalPatients:       len(visible),
		ScheduledOperations: len(scheduled),
		Upcoming:            access.RedactAll(scheduled, sess.User.Role),
		GraftEstimate: model.GraftEstimate{
			Area:        est.Area,
			Density:     est.Density,
			TotalGrafts: est.Area * est.Density,
		},
	}, nil
}

// Documents lists a document folder per visible patient whose full name
// contains term, case-insensitively.
func (s *Service) Documents(ctx context.Context, sess *model.Session, term string) ([]*model.DocumentFolder, error) {
	visible, err := s.visible(ctx, sess)
	if err != nil {
		return nil, err
	}

	term = strings.ToLower(strings.TrimSpace(term))
	folders := make([]*model.DocumentFolder, 0, len(visible))
	for _, p := range visible {
		name := p.FullName()
		if term != "" && !strings.Contains(strings.ToLower(name), term) {
			continue
		}
		docs := append([]model.Document{}, p.Documents...)
		folders = append(folders, &model.DocumentFolder{PatientID: p.ID, Name: name, Documents: docs})
	}

	s.auditor.Log(ctx, sess, audit.ActionList, "document", "", &audit.LogOptions{
		Metadata: map[string]interface{}{"count": len(folders)},
	})
	return folders, nil
}

func (s *Service) visible(ctx context.Context, sess *model.Session) ([]*model.Patient, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return s.resolver.VisiblePatients(all, &sess.User, sess.ActiveClinicID), nil
}

func (s *Service) availableClinics(ctx context.Context, sess *model.Session) ([]*model.Clinic, error) {
	clinics, err := s.directory.ListClinics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}
	return s.resolver.AvailableClinics(&sess.User, clinics), nil
}

// checkClinic fails unless clinicID exists and is available to the caller.
func (s *Service) checkClinic(ctx context.Context, sess *model.Session, clinicID string) error {
	clinic, err := s.directory.GetClinic(ctx, clinicID)
	if err != nil {
		return fmt.Errorf("failed to get clinic: %w", err)
	}
	if len(s.resolver.AvailableClinics(&sess.User, []*model.Clinic{clinic})) == 0 {
		return apperrors.Forbidden("clinic is not assigned to this user")
	}
	return nil
}

func (s *Service) changed(ctx context.Context, sess *model.Session, action string, p *model.Patient, update *model.PatientUpdate) {
	s.metrics.PatientUpdates.Inc()
	s.auditor.Log(ctx, sess, action, "patient", p.ID, &audit.LogOptions{Changes: update})
	s.events.Emit(ctx, event.PatientUpdated, event.PatientChanged{
		PatientID: p.ID,
		ClinicID:  p.ClinicID,
		Status:    p.Status,
		ActorID:   sess.User.ID,
	})
}

// matches applies the list page search and status filter. Contact fields are
// only searched when the caller may see them.
func matches(p *model.Patient, filters *model.PatientFilters, contact bool) bool {
	if filters == nil {
		return true
	}
	if filters.Status != "" && p.Status != filters.Status {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(filters.SearchTerm))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.FullName()), term) {
		return true
	}
	if !contact {
		return false
	}
	return strings.Contains(p.Phone, term) || strings.Contains(strings.ToLower(p.Email), term)
}
