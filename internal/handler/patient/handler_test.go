package patient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capilarmax/clinic-api/internal/middleware"
	"github.com/capilarmax/clinic-api/internal/model"
	"github.com/capilarmax/clinic-api/internal/repository/memory"
	"github.com/capilarmax/clinic-api/internal/service/access"
	"github.com/capilarmax/clinic-api/internal/service/audit"
	"github.com/capilarmax/clinic-api/internal/service/event"
	"github.com/capilarmax/clinic-api/internal/service/patient"
	apperrors "github.com/capilarmax/clinic-api/pkg/errors"
	"github.com/capilarmax/clinic-api/pkg/messaging"
	"github.com/capilarmax/clinic-api/pkg/metrics"
)

// tokenSessions treats the bearer token as a user id.
type tokenSessions map[string]*model.User

func (s tokenSessions) Resolve(ctx context.Context, token string) (*model.Session, error) {
	u, ok := s[token]
	if !ok {
		return nil, apperrors.Unauthorized(nil)
	}
	sess := &model.Session{ID: "s-" + u.ID, User: *u}
	if !u.IsAllClinics && len(u.ClinicIDs) > 0 {
		sess.ActiveClinicID = u.ClinicIDs[0]
	}
	return sess, nil
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Details []string        `json:"details"`
	Data    json.RawMessage `json:"data"`
}

func setup(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewPatientStore("c1")
	store.Load(memory.SeedPatients())
	dir := memory.NewDirectory(memory.SeedUsers(), memory.SeedClinics())
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	broker := messaging.NewMemoryBroker()
	t.Cleanup(func() { broker.Close() })
	svc := patient.NewService(store, dir, access.NewResolver(access.Options{}), event.NewPublisher(broker, "", m), audit.Nop(), m)

	users := tokenSessions{}
	for _, u := range memory.SeedUsers() {
		users[u.ID] = u
	}
	auth := middleware.NewAuthMiddleware(users)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorHandler())
	v1 := r.Group("/api/v1")
	v1.Use(auth.Authenticate())
	NewHandler(svc).RegisterRoutes(v1, auth)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, user string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+user)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w.Code, env
}

func listIDs(t *testing.T, env envelope) []string {
	t.Helper()
	var views []model.PatientView
	require.NoError(t, json.Unmarshal(env.Data, &views))
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}

func TestListPatientsScope(t *testing.T) {
	r := setup(t)

	code, env := do(t, r, http.MethodGet, "/api/v1/patients", "u3", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"1", "2", "3"}, listIDs(t, env))

	code, env = do(t, r, http.MethodGet, "/api/v1/patients", "u5", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"3"}, listIDs(t, env))

	code, env = do(t, r, http.MethodGet, "/api/v1/patients?status=post-op", "u1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"2"}, listIDs(t, env))
}

func TestSpecialistSeesRedactedContact(t *testing.T) {
	r := setup(t)

	code, env := do(t, r, http.MethodGet, "/api/v1/patients/1", "u4", nil)
	require.Equal(t, http.StatusOK, code)
	var view model.PatientView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.True(t, view.ContactRedacted)
	assert.Equal(t, access.MaskedEmail, view.Email)
	assert.NotContains(t, string(env.Data), "adam@example.com")
}

func TestGetOutOfScopeIsNotFound(t *testing.T) {
	r := setup(t)
	code, _ := do(t, r, http.MethodGet, "/api/v1/patients/3", "u2", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCreatePatientPermission(t *testing.T) {
	r := setup(t)
	body := gin.H{"first_name": "Nora", "last_name": "Kent", "email": "nora@example.com"}

	code, _ := do(t, r, http.MethodPost, "/api/v1/patients", "u4", body)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := do(t, r, http.MethodPost, "/api/v1/patients", "u2", body)
	require.Equal(t, http.StatusCreated, code)
	var view model.PatientView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "4", view.ID)
	assert.Equal(t, "c1", view.ClinicID)
	assert.Equal(t, model.PatientStatusPending, view.Status)
}

func TestCreatePatientValidation(t *testing.T) {
	r := setup(t)
	code, env := do(t, r, http.MethodPost, "/api/v1/patients", "u2", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Details, "email must be a valid email")
}

func TestAppendVital(t *testing.T) {
	r := setup(t)
	body := gin.H{"type": "bp", "systolic": 120, "diastolic": 80, "timestamp": "2026-02-15T09:00:00Z"}

	code, env := do(t, r, http.MethodPost, "/api/v1/patients/1/vitals", "u4", body)
	require.Equal(t, http.StatusCreated, code)
	var view model.PatientView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.NotEmpty(t, view.Vitals)
	last := view.Vitals[len(view.Vitals)-1]
	assert.Equal(t, 120, last.Systolic)
	assert.Equal(t, model.UnitMmHg, last.Unit)

	code, _ = do(t, r, http.MethodPost, "/api/v1/patients/1/vitals", "u4", gin.H{"type": "glucose", "timestamp": "2026-02-15T09:00:00Z"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestAppendVitalLocalTimestamp(t *testing.T) {
	r := setup(t)

	body := gin.H{"type": "glucose", "glucose": 98, "timestamp": "2026-01-20T10:30"}
	code, env := do(t, r, http.MethodPost, "/api/v1/patients/1/vitals", "u2", body)
	require.Equal(t, http.StatusCreated, code)
	var view model.PatientView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.Len(t, view.Vitals, 1)
	assert.Equal(t, "2026-01-20T10:30:00Z", view.Vitals[0].Timestamp.Format(time.RFC3339))

	code, _ = do(t, r, http.MethodPost, "/api/v1/patients/1/vitals", "u2", gin.H{"type": "glucose", "glucose": 98, "timestamp": "20.01.2026"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestScheduleAndCalendar(t *testing.T) {
	r := setup(t)
	body := gin.H{"surgery_date": "2026-03-01", "surgery_time": "09:30", "graft_count": 3200}

	code, _ := do(t, r, http.MethodPost, "/api/v1/patients/3/schedule", "u4", body)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := do(t, r, http.MethodPost, "/api/v1/patients/3/schedule", "u5", body)
	require.Equal(t, http.StatusOK, code)
	var view model.PatientView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, model.PatientStatusScheduled, view.Status)

	code, env = do(t, r, http.MethodGet, "/api/v1/calendar?date=2026-03-01", "u5", nil)
	require.Equal(t, http.StatusOK, code)
	var day model.CalendarDay
	require.NoError(t, json.Unmarshal(env.Data, &day))
	require.Len(t, day.Operations, 1)
	assert.Equal(t, "3", day.Operations[0].ID)

	code, _ = do(t, r, http.MethodGet, "/api/v1/calendar?date=March", "u5", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestAddNote(t *testing.T) {
	r := setup(t)

	code, _ := do(t, r, http.MethodPost, "/api/v1/patients/1/notes", "u3", gin.H{"content": "Donor area healing well"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env := do(t, r, http.MethodPost, "/api/v1/patients/1/notes", "u4", gin.H{"content": "Donor area healing well"})
	require.Equal(t, http.StatusCreated, code)
	assert.Contains(t, string(env.Data), "Donor area healing well")
}

func TestDashboard(t *testing.T) {
	r := setup(t)

	code, env := do(t, r, http.MethodGet, "/api/v1/dashboard?area=50&density=30", "u2", nil)
	require.Equal(t, http.StatusOK, code)
	var summary model.DashboardSummary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 2, summary.TotalPatients)
	assert.Equal(t, 1500, summary.GraftEstimate.TotalGrafts)

	code, _ = do(t, r, http.MethodGet, "/api/v1/dashboard?area=5", "u2", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestDocuments(t *testing.T) {
	r := setup(t)

	code, env := do(t, r, http.MethodGet, "/api/v1/documents?search=matthew%20kaya", "u2", nil)
	require.Equal(t, http.StatusOK, code)
	var folders []model.DocumentFolder
	require.NoError(t, json.Unmarshal(env.Data, &folders))
	require.Len(t, folders, 1)
	assert.Equal(t, "2", folders[0].PatientID)
	assert.Equal(t, "Operation Report", folders[0].Documents[0].Name)

	code, env = do(t, r, http.MethodGet, "/api/v1/documents", "u5", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &folders))
	require.Len(t, folders, 1)
	assert.Equal(t, "Alice Demir", folders[0].Name)

	code, _ = do(t, r, http.MethodGet, "/api/v1/documents", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}
