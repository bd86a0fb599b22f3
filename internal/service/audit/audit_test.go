package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/capilarmax/clinic-api/internal/model"
)

func TestLogRecordsActorAndEntity(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := New(zap.New(core))

	sess := &model.Session{
		ID:             "s1",
		User:           model.User{ID: "u4", Role: model.RoleSpecialist},
		ActiveClinicID: "c1",
	}
	l.Log(context.Background(), sess, ActionRead, "patient", "1", &LogOptions{
		Redacted: true,
		Metadata: map[string]interface{}{"clinic_id": "c1"},
	})

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "read", fields["action"])
	assert.Equal(t, "patient", fields["entity_type"])
	assert.Equal(t, "1", fields["entity_id"])
	assert.Equal(t, "u4", fields["user_id"])
	assert.Equal(t, "specialist", fields["role"])
	assert.Equal(t, true, fields["redacted"])
	assert.Equal(t, "c1", fields["clinic_id"])
}

func TestLogWithoutSession(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := New(zap.New(core))

	l.Log(context.Background(), nil, ActionLogin, "user", "u9", nil)

	require.Equal(t, 1, logs.Len())
	_, hasUser := logs.All()[0].ContextMap()["user_id"]
	assert.False(t, hasUser)
}

func TestNewFromConfigRejectsBadLevel(t *testing.T) {
	_, err := NewFromConfig(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestLogPicksUpRequestInfo(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := New(zap.New(core))

	ctx := WithRequestInfo(context.Background(), RequestInfo{IPAddress: "10.0.0.7", UserAgent: "tablet", RequestID: "req-1"})
	l.Log(ctx, nil, ActionList, "patient", "", nil)
	l.Log(ctx, nil, ActionList, "patient", "", &LogOptions{IPAddress: "192.168.1.2"})

	require.Equal(t, 2, logs.Len())
	first := logs.All()[0].ContextMap()
	assert.Equal(t, "10.0.0.7", first["ip_address"])
	assert.Equal(t, "tablet", first["user_agent"])
	assert.Equal(t, "req-1", first["request_id"])
	assert.Equal(t, "192.168.1.2", logs.All()[1].ContextMap()["ip_address"])
}
