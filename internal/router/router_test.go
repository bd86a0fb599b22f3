package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capilarmax/clinic-api/internal/handler"
	consenthandler "github.com/capilarmax/clinic-api/internal/handler/consent"
	patienthandler "github.com/capilarmax/clinic-api/internal/handler/patient"
	sessionhandler "github.com/capilarmax/clinic-api/internal/handler/session"
	"github.com/capilarmax/clinic-api/internal/middleware"
	"github.com/capilarmax/clinic-api/internal/repository/memory"
	"github.com/capilarmax/clinic-api/internal/service/access"
	"github.com/capilarmax/clinic-api/internal/service/audit"
	"github.com/capilarmax/clinic-api/internal/service/consent"
	"github.com/capilarmax/clinic-api/internal/service/event"
	"github.com/capilarmax/clinic-api/internal/service/patient"
	"github.com/capilarmax/clinic-api/internal/service/session"
	"github.com/capilarmax/clinic-api/pkg/auth"
	"github.com/capilarmax/clinic-api/pkg/messaging"
	"github.com/capilarmax/clinic-api/pkg/metrics"
)

func newTestRouter(t *testing.T, checks map[string]handler.ReadinessCheck) *gin.Engine {
	t.Helper()

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics("test", reg)
	broker := messaging.NewMemoryBroker()
	t.Cleanup(func() { broker.Close() })

	store := memory.NewPatientStore("c1")
	store.Load(memory.SeedPatients())
	dir := memory.NewDirectory(memory.SeedUsers(), memory.SeedClinics())
	resolver := access.NewResolver(access.Options{})
	events := event.NewPublisher(broker, "clinic.", m)

	jwtSvc, err := auth.NewJWTService("test-secret", "clinic-api")
	require.NoError(t, err)
	sessions := session.NewService(dir, resolver, jwtSvc, audit.Nop(), time.Hour)
	patients := patient.NewService(store, dir, resolver, events, audit.Nop(), m)
	consents := consent.NewService(patients, store, events, audit.Nop(), m, time.Hour)

	r := NewRouter(
		middleware.NewAuthMiddleware(sessions),
		handler.NewHandler(reg, checks),
		sessionhandler.NewHandler(sessions),
		patienthandler.NewHandler(patients),
		consenthandler.NewHandler(consents),
		RouterConfig{
			Mode:        gin.TestMode,
			CORSConfig:  middleware.CORSConfig{AllowOrigins: []string{"*"}, MaxAge: 60},
			Metrics:     m,
			MetricsPath: "/metrics",
			MaxBodySize: 1 << 10,
		},
	)
	r.Setup()
	return r.Engine()
}

func serve(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t, map[string]handler.ReadinessCheck{
		"broker": func() error { return nil },
	})

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health/live", "", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health/ready", "", nil).Code)

	w := serve(r, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_requests_total")
}

func TestReadinessFailure(t *testing.T) {
	r := newTestRouter(t, map[string]handler.ReadinessCheck{
		"broker": func() error { return errors.New("connection refused") },
	})
	w := serve(r, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	r := newTestRouter(t, nil)

	for _, path := range []string{"/api/v1/patients", "/api/v1/dashboard", "/api/v1/clinics", "/api/v1/patients/1/consent/pdf"} {
		w := serve(r, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))
	}
}

func TestLoginThenListPatients(t *testing.T) {
	r := newTestRouter(t, nil)

	w := serve(r, http.MethodPost, "/api/v1/session", "", map[string]string{"user_id": "u4"})
	require.Equal(t, http.StatusCreated, w.Code)
	var login struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.Data.Token)

	w = serve(r, http.MethodGet, "/api/v1/patients", login.Data.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Contains(t, w.Body.String(), access.MaskedPhone)
	assert.NotContains(t, w.Body.String(), "adam@example.com")

	w = serve(r, http.MethodPost, "/api/v1/patients", login.Data.Token, map[string]string{"first_name": "Nora"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBodyLimitCoversAPI(t *testing.T) {
	r := newTestRouter(t, nil)
	padding := strings.Repeat("x", 2<<10)

	w := serve(r, http.MethodPost, "/api/v1/session", "", map[string]string{"user_id": "u2", "pad": padding})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "request body exceeds 1024 bytes")

	w = serve(r, http.MethodPost, "/api/v1/session", "", map[string]string{"user_id": "u2"})
	require.Equal(t, http.StatusCreated, w.Code)
	var login struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	w = serve(r, http.MethodPost, "/api/v1/patients/1/notes", login.Data.Token, map[string]string{"content": padding})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "request body exceeds")

	// signature uploads keep their own, larger cap
	w = serve(r, http.MethodPost, "/api/v1/patients/1/consent/draft", login.Data.Token, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	w = serve(r, http.MethodPut, "/api/v1/patients/1/consent/draft/signatures/patient", login.Data.Token,
		map[string]string{"image": "data:image/png;base64," + padding})
	assert.NotContains(t, w.Body.String(), "request body exceeds")
}
