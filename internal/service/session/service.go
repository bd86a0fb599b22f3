package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/capilarmax/clinic-api/internal/model"
	"github.com/capilarmax/clinic-api/internal/repository"
	"github.com/capilarmax/clinic-api/internal/service/access"
	"github.com/capilarmax/clinic-api/internal/service/audit"
	"github.com/capilarmax/clinic-api/pkg/auth"
	apperrors "github.com/capilarmax/clinic-api/pkg/errors"
)

var ErrSessionExpired = errors.New("session expired or unknown")

// Service signs users in by picking them from the directory and keeps the
// resulting sessions in memory for ttl.
type Service struct {
	directory repository.DirectoryRepository
	resolver  *access.Resolver
	jwt       auth.JWTService
	auditor   *audit.Logger
	sessions  *cache.Cache
	ttl       time.Duration
	now       func() time.Time
}

func NewService(directory repository.DirectoryRepository, resolver *access.Resolver, jwtSvc auth.JWTService, auditor *audit.Logger, ttl time.Duration) *Service {
	return &Service{
		directory: directory,
		resolver:  resolver,
		jwt:       jwtSvc,
		auditor:   auditor,
		sessions:  cache.New(ttl, 2*ttl),
		ttl:       ttl,
		now:       time.Now,
	}
}

// Login opens a session for userID. Users restricted to clinics start on
// their first clinic; global users start unfiltered.
func (s *Service) Login(ctx context.Context, userID string) (*model.SessionResponse, error) {
	user, err := s.directory.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	now := s.now()
	sess := &model.Session{
		ID:        uuid.NewString(),
		User:      *user,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	if !user.IsAllClinics && len(user.ClinicIDs) > 0 {
		sess.ActiveClinicID = user.ClinicIDs[0]
	}

	token, err := s.jwt.GenerateToken(sess.ID, user.ID, sess.IssuedAt, sess.ExpiresAt)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	s.sessions.Set(sess.ID, sess, s.ttl)

	s.auditor.Log(ctx, sess, audit.ActionLogin, "user", user.ID, nil)
	return &model.SessionResponse{Token: token, Session: copySession(sess)}, nil
}

// Resolve maps a bearer token onto its live session.
func (s *Service) Resolve(ctx context.Context, token string) (*model.Session, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}
	v, ok := s.sessions.Get(claims.SessionID)
	if !ok {
		return nil, apperrors.Unauthorized(ErrSessionExpired)
	}
	return copySession(v.(*model.Session)), nil
}

// SwitchClinic points the session's clinic switcher at clinicID. An empty
// clinicID clears the filter, which only global users may do.
func (s *Service) SwitchClinic(ctx context.Context, sess *model.Session, clinicID string) (*model.Session, error) {
	v, ok := s.sessions.Get(sess.ID)
	if !ok {
		return nil, apperrors.Unauthorized(ErrSessionExpired)
	}
	current := copySession(v.(*model.Session))

	if clinicID == "" {
		if !current.User.IsAllClinics {
			return nil, apperrors.NewValidation("invalid input", "clinic_id is required")
		}
	} else {
		clinic, err := s.directory.GetClinic(ctx, clinicID)
		if err != nil {
			return nil, fmt.Errorf("failed to get clinic: %w", err)
		}
		if len(s.resolver.AvailableClinics(&current.User, []*model.Clinic{clinic})) == 0 {
			return nil, apperrors.Forbidden("clinic is not assigned to this user")
		}
	}

	current.ActiveClinicID = clinicID
	remaining := current.ExpiresAt.Sub(s.now())
	if remaining <= 0 {
		s.sessions.Delete(current.ID)
		return nil, apperrors.Unauthorized(ErrSessionExpired)
	}
	// Replace fails once Logout has dropped the key.
	if err := s.sessions.Replace(current.ID, current, remaining); err != nil {
		return nil, apperrors.Unauthorized(ErrSessionExpired)
	}

	s.auditor.Log(ctx, current, audit.ActionSwitchClinic, "clinic", clinicID, nil)
	return copySession(current), nil
}

// Clinics lists the clinics the session's user may switch to.
func (s *Service) Clinics(ctx context.Context, sess *model.Session) ([]*model.Clinic, error) {
	clinics, err := s.directory.ListClinics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}
	return s.resolver.AvailableClinics(&sess.User, clinics), nil
}

// Users lists the accounts that can be picked on the login screen.
func (s *Service) Users(ctx context.Context) ([]*model.User, error) {
	users, err := s.directory.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Logout drops the session; its token stops resolving immediately.
func (s *Service) Logout(ctx context.Context, sess *model.Session) {
	s.sessions.Delete(sess.ID)
}

func copySession(sess *model.Session) *model.Session {
	c := *sess
	c.User.ClinicIDs = append([]string{}, sess.User.ClinicIDs...)
	return &c
}
