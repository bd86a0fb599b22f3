package model

import (
	"time"
)

type PatientStatus string

const (
	PatientStatusPending   PatientStatus = "pending"
	PatientStatusScheduled PatientStatus = "scheduled"
	PatientStatusPostOp    PatientStatus = "post-op"
	PatientStatusCompleted PatientStatus = "completed"
)

type AlbumType string

const (
	AlbumPreOp    AlbumType = "pre-op"
	AlbumIntraOp  AlbumType = "intra-op"
	AlbumPostOp   AlbumType = "post-op"
	AlbumFollowUp AlbumType = "follow-up"
)

type DocumentType string

const (
	DocumentConsent        DocumentType = "consent"
	DocumentMedicalHistory DocumentType = "medical-history"
	DocumentLabResults     DocumentType = "lab-results"
)

type Patient struct {
	Base
	ClinicID       string          `json:"clinic_id"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	BirthDate      string          `json:"birth_date"`
	Status         PatientStatus   `json:"status"`
	SurgeryDate    string          `json:"surgery_date,omitempty"`
	SurgeryTime    string          `json:"surgery_time,omitempty"`
	GraftCount     *int            `json:"graft_count,omitempty"`
	MedicalHistory string          `json:"medical_history,omitempty"`
	Medications    string          `json:"medications,omitempty"`
	Allergies      string          `json:"allergies,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	HepatitisB     bool            `json:"hepatitis_b"`
	HepatitisC     bool            `json:"hepatitis_c"`
	HIV            bool            `json:"hiv"`
	Vitals         []VitalSign     `json:"vitals"`
	Photos         []PhotoAlbum    `json:"photos"`
	Documents      []Document      `json:"documents"`
	Consent        *ConsentRecord  `json:"consent,omitempty"`
	OperationNotes []OperationNote `json:"operation_notes,omitempty"`
}

type PhotoAlbum struct {
	ID   string    `json:"id"`
	Type AlbumType `json:"type"`
	Date string    `json:"date"`
	URLs []string  `json:"urls"`
}

type Document struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Type       DocumentType `json:"type"`
	UploadDate string       `json:"upload_date"`
	URL        string       `json:"url"`
	Signed     bool         `json:"signed"`
}

// DocumentFolder groups one patient's documents for the documents page.
type DocumentFolder struct {
	PatientID string     `json:"patient_id"`
	Name      string     `json:"name"`
	Documents []Document `json:"documents"`
}

type OperationNote struct {
	ID      string    `json:"id"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
	Content string    `json:"content"`
}

// FullName joins first and last name the way headers and exports show it.
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// ConsentSigned reports whether a completed consent record is attached.
func (p *Patient) ConsentSigned() bool {
	return p.Consent != nil
}

// Clone returns a deep copy so callers can never mutate stored state.
func (p *Patient) Clone() *Patient {
	if p == nil {
		return nil
	}
	c := *p
	if p.GraftCount != nil {
		g := *p.GraftCount
		c.GraftCount = &g
	}
	c.Vitals = cloneSlice(p.Vitals)
	c.Documents = cloneSlice(p.Documents)
	c.OperationNotes = cloneSlice(p.OperationNotes)
	c.Photos = cloneSlice(p.Photos)
	for i := range c.Photos {
		c.Photos[i].URLs = cloneSlice(c.Photos[i].URLs)
	}
	if p.Consent != nil {
		c.Consent = p.Consent.Clone()
	}
	return &c
}

// cloneSlice copies s into a non-nil slice so empty lists encode as [].
func cloneSlice[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// PatientFilters narrows a visible patient list the way the list page does.
type PatientFilters struct {
	SearchTerm string        `form:"search"`
	Status     PatientStatus `form:"status"`
}

// PatientView is what a caller is allowed to see of a patient. When
// ContactRedacted is set the phone, email and birth date are masked.
type PatientView struct {
	Patient
	ContactRedacted bool `json:"contact_redacted"`
}
