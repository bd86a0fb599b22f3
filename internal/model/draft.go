package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// PatientDraft is the registration form payload. It is validated before a
// Patient is constructed from it.
type PatientDraft struct {
	ClinicID       string `json:"clinic_id"`
	FirstName      string `json:"first_name" validate:"max=100"`
	LastName       string `json:"last_name" validate:"max=100"`
	Email          string `json:"email" validate:"omitempty,email"`
	Phone          string `json:"phone" validate:"max=40"`
	BirthDate      string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	MedicalHistory string `json:"medical_history"`
	Medications    string `json:"medications"`
	Allergies      string `json:"allergies"`
	Notes          string `json:"notes"`
	HepatitisB     bool   `json:"hepatitis_b"`
	HepatitisC     bool   `json:"hepatitis_c"`
	HIV            bool   `json:"hiv"`
}

// PatientUpdate is a partial update: only non-nil fields are merged.
type PatientUpdate struct {
	ClinicID       *string        `json:"clinic_id"`
	FirstName      *string        `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName       *string        `json:"last_name" validate:"omitempty,min=1,max=100"`
	Email          *string        `json:"email" validate:"omitempty,email"`
	Phone          *string        `json:"phone" validate:"omitempty,max=40"`
	BirthDate      *string        `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Status         *PatientStatus `json:"status" validate:"omitempty,oneof=pending scheduled post-op completed"`
	SurgeryDate    *string        `json:"surgery_date" validate:"omitempty,datetime=2006-01-02"`
	SurgeryTime    *string        `json:"surgery_time" validate:"omitempty,datetime=15:04"`
	GraftCount     *int           `json:"graft_count" validate:"omitempty,min=0"`
	MedicalHistory *string        `json:"medical_history"`
	Medications    *string        `json:"medications"`
	Allergies      *string        `json:"allergies"`
	Notes          *string        `json:"notes"`
	HepatitisB     *bool          `json:"hepatitis_b"`
	HepatitisC     *bool          `json:"hepatitis_c"`
	HIV            *bool          `json:"hiv"`
}

// Apply merges the set fields of u into p.
func (u *PatientUpdate) Apply(p *Patient) {
	setString(&p.ClinicID, u.ClinicID)
	setString(&p.FirstName, u.FirstName)
	setString(&p.LastName, u.LastName)
	setString(&p.Email, u.Email)
	setString(&p.Phone, u.Phone)
	setString(&p.BirthDate, u.BirthDate)
	setString(&p.SurgeryDate, u.SurgeryDate)
	setString(&p.SurgeryTime, u.SurgeryTime)
	setString(&p.MedicalHistory, u.MedicalHistory)
	setString(&p.Medications, u.Medications)
	setString(&p.Allergies, u.Allergies)
	setString(&p.Notes, u.Notes)
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.GraftCount != nil {
		g := *u.GraftCount
		p.GraftCount = &g
	}
	if u.HepatitisB != nil {
		p.HepatitisB = *u.HepatitisB
	}
	if u.HepatitisC != nil {
		p.HepatitisC = *u.HepatitisC
	}
	if u.HIV != nil {
		p.HIV = *u.HIV
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// VitalDraft is the tagged vitals form. Systolic/Diastolic are required for
// "bp", Glucose for "glucose".
type VitalDraft struct {
	Type      VitalType `json:"type" validate:"required,oneof=bp glucose"`
	Systolic  int       `json:"systolic" validate:"required_if=Type bp,omitempty,min=1,max=400"`
	Diastolic int       `json:"diastolic" validate:"required_if=Type bp,omitempty,min=1,max=300"`
	Glucose   int       `json:"glucose" validate:"required_if=Type glucose,omitempty,min=1,max=2000"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes" validate:"max=500"`
}

// vitalTimeLayouts are accepted for the reading time. The last two are what a
// datetime-local input submits; they are read as UTC.
var vitalTimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"}

// UnmarshalJSON accepts RFC 3339 or datetime-local timestamps. An empty or
// missing timestamp leaves Timestamp zero.
func (d *VitalDraft) UnmarshalJSON(data []byte) error {
	type plain VitalDraft
	aux := struct {
		*plain
		Timestamp string `json:"timestamp"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Timestamp == "" {
		d.Timestamp = time.Time{}
		return nil
	}
	for _, layout := range vitalTimeLayouts {
		if ts, err := time.Parse(layout, aux.Timestamp); err == nil {
			d.Timestamp = ts
			return nil
		}
	}
	return fmt.Errorf("timestamp %q is not RFC 3339 or YYYY-MM-DDTHH:MM", aux.Timestamp)
}

// Vital builds the stored reading, dropping fields that do not belong to the
// draft's variant and stamping the unit.
func (d *VitalDraft) Vital() VitalSign {
	v := VitalSign{
		Type:      d.Type,
		Timestamp: d.Timestamp,
		Notes:     d.Notes,
	}
	switch d.Type {
	case VitalBloodPressure:
		v.Systolic = d.Systolic
		v.Diastolic = d.Diastolic
		v.Unit = UnitMmHg
	case VitalGlucose:
		v.Glucose = d.Glucose
		v.Unit = UnitMgDL
	}
	return v
}

// ScheduleRequest books an operation for a patient.
type ScheduleRequest struct {
	ClinicID    string `json:"clinic_id"`
	SurgeryDate string `json:"surgery_date" validate:"required,datetime=2006-01-02"`
	SurgeryTime string `json:"surgery_time" validate:"required,datetime=15:04"`
	GraftCount  int    `json:"graft_count" validate:"required,min=1,max=10000"`
}

// NoteRequest adds an operation note.
type NoteRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

// Consent draft payloads.
type SignatureRequest struct {
	Image string `json:"image"`
}

type RepresentativeRequest struct {
	Name string `json:"name"`
}

type MarketingRequest struct {
	Choice string `json:"choice"`
}
