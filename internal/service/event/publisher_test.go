package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capilarmax/clinic-api/internal/model"
	"github.com/capilarmax/clinic-api/pkg/messaging"
	"github.com/capilarmax/clinic-api/pkg/metrics"
)

type failingBroker struct{ messaging.Broker }

func (failingBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	return errors.New("connection refused")
}

func TestPublishWrapsPayloadInEnvelope(t *testing.T) {
	broker := messaging.NewMemoryBroker()
	defer broker.Close()
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	p := NewPublisher(broker, "clinic.", m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub, err := broker.Subscribe(ctx, "clinic.consent.completed")
	require.NoError(t, err)

	rec := &model.ConsentRecord{ID: "r1", FormVersion: model.ConsentFormVersion, MarketingConsent: true}
	require.NoError(t, p.Publish(ctx, ConsentCompleted, ConsentSigned{PatientID: "1", PatientName: "Adam Yilmaz", Record: rec}))

	select {
	case data := <-sub:
		env, payload, err := DecodeConsentSigned(data)
		require.NoError(t, err)
		assert.NotEmpty(t, env.ID)
		assert.Equal(t, ConsentCompleted, env.Type)
		assert.Equal(t, "Adam Yilmaz", payload.PatientName)
		assert.True(t, payload.Record.MarketingConsent)
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("consent.completed", "ok")))
}

func TestEmitSwallowsBrokerFailure(t *testing.T) {
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	p := NewPublisher(failingBroker{}, "", m)

	err := p.Publish(context.Background(), PatientCreated, PatientChanged{PatientID: "4"})
	assert.Error(t, err)

	assert.NotPanics(t, func() {
		p.Emit(context.Background(), PatientCreated, PatientChanged{PatientID: "4"})
	})
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("patient.created", "failed")))
}

func TestDecodeConsentSignedRejectsOtherTypes(t *testing.T) {
	data, _ := json.Marshal(messaging.Message{ID: "x", Type: string(PatientCreated), Payload: PatientChanged{}})
	_, _, err := DecodeConsentSigned(data)
	assert.Error(t, err)
}
