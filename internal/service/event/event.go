package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/capilarmax/clinic-api/internal/model"
)

type Type string

const (
	PatientCreated   Type = "patient.created"
	PatientUpdated   Type = "patient.updated"
	VitalRecorded    Type = "vital.recorded"
	ConsentCompleted Type = "consent.completed"
)

// PatientChanged is the payload of patient.created and patient.updated.
type PatientChanged struct {
	PatientID string              `json:"patient_id"`
	ClinicID  string              `json:"clinic_id"`
	Status    model.PatientStatus `json:"status"`
	ActorID   string              `json:"actor_id"`
}

type VitalAppended struct {
	PatientID string          `json:"patient_id"`
	Type      model.VitalType `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	ActorID   string          `json:"actor_id"`
}

// ConsentSigned carries everything the mail worker needs to render and send
// the signed form without reading the store.
type ConsentSigned struct {
	PatientID    string               `json:"patient_id"`
	PatientName  string               `json:"patient_name"`
	PatientEmail string               `json:"patient_email"`
	ClinicID     string               `json:"clinic_id"`
	Record       *model.ConsentRecord `json:"record"`
	ActorID      string               `json:"actor_id"`
}

// Envelope mirrors messaging.Message with the payload left undecoded.
type Envelope struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// DecodeConsentSigned parses a consent.completed message as read from a
// broker subscription.
func DecodeConsentSigned(data []byte) (*Envelope, *ConsentSigned, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if env.Type != ConsentCompleted {
		return &env, nil, fmt.Errorf("unexpected event type %q", env.Type)
	}
	var payload ConsentSigned
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return &env, nil, fmt.Errorf("failed to decode %s payload: %w", env.Type, err)
	}
	return &env, &payload, nil
}
