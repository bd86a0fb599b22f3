package model

import "time"

type VitalType string

const (
	VitalBloodPressure VitalType = "bp"
	VitalGlucose       VitalType = "glucose"
)

const (
	UnitMmHg = "mmHg"
	UnitMgDL = "mg/dL"
)

// VitalSign is a tagged variant: Type selects which reading fields are set.
type VitalSign struct {
	Type      VitalType `json:"type"`
	Systolic  int       `json:"systolic,omitempty"`
	Diastolic int       `json:"diastolic,omitempty"`
	Glucose   int       `json:"glucose,omitempty"`
	Unit      string    `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
}
