package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSection(t *testing.T) {
	sec, err := ParseSection(" c ")
	require.NoError(t, err)
	assert.Equal(t, SectionAnesthesia, sec)
	assert.Equal(t, "Anesthesia & Medication", sec.Label())

	_, err = ParseSection("A")
	assert.Error(t, err)
}

func TestParseMarketingChoice(t *testing.T) {
	tests := map[string]MarketingChoice{
		"":          MarketingUndecided,
		"YES":       MarketingYes,
		"no":        MarketingNo,
		"undecided": MarketingUndecided,
	}
	for in, want := range tests {
		got, err := ParseMarketingChoice(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMarketingChoice("maybe")
	assert.Error(t, err)
}

func TestPatientUpdateApplyOnlySetFields(t *testing.T) {
	p := &Patient{FirstName: "Adam", LastName: "Yilmaz", Phone: "+1 305 555 0101", HIV: true}
	name := "Adem"
	hiv := false
	grafts := 3000
	(&PatientUpdate{FirstName: &name, HIV: &hiv, GraftCount: &grafts}).Apply(p)

	assert.Equal(t, "Adem", p.FirstName)
	assert.Equal(t, "Yilmaz", p.LastName)
	assert.Equal(t, "+1 305 555 0101", p.Phone)
	assert.False(t, p.HIV)
	require.NotNil(t, p.GraftCount)
	grafts = 1
	assert.Equal(t, 3000, *p.GraftCount)
}

func TestVitalDraftDropsForeignFields(t *testing.T) {
	at := time.Date(2026, 2, 15, 9, 0, 0, 0, time.UTC)

	bp := (&VitalDraft{Type: VitalBloodPressure, Systolic: 120, Diastolic: 80, Glucose: 99, Timestamp: at}).Vital()
	assert.Equal(t, UnitMmHg, bp.Unit)
	assert.Zero(t, bp.Glucose)

	g := (&VitalDraft{Type: VitalGlucose, Systolic: 120, Glucose: 99, Timestamp: at}).Vital()
	assert.Equal(t, UnitMgDL, g.Unit)
	assert.Zero(t, g.Systolic)
	assert.Equal(t, 99, g.Glucose)
}

func TestVitalDraftTimestampLayouts(t *testing.T) {
	tests := []struct {
		name string
		body string
		want time.Time
	}{
		{"rfc3339", `{"type":"bp","timestamp":"2026-01-20T10:30:00+03:00"}`, time.Date(2026, 1, 20, 7, 30, 0, 0, time.UTC)},
		{"datetime-local", `{"type":"bp","timestamp":"2026-01-20T10:30"}`, time.Date(2026, 1, 20, 10, 30, 0, 0, time.UTC)},
		{"datetime-local with seconds", `{"type":"glucose","timestamp":"2026-01-20T10:30:15"}`, time.Date(2026, 1, 20, 10, 30, 15, 0, time.UTC)},
		{"missing", `{"type":"bp"}`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d VitalDraft
			require.NoError(t, json.Unmarshal([]byte(tt.body), &d))
			assert.True(t, tt.want.Equal(d.Timestamp), "got %s", d.Timestamp)
			assert.NotEmpty(t, d.Type)
		})
	}

	var d VitalDraft
	assert.Error(t, json.Unmarshal([]byte(`{"type":"bp","timestamp":"20/01/2026"}`), &d))
}

func TestPatientCloneIsDeep(t *testing.T) {
	grafts := 2500
	p := &Patient{
		GraftCount: &grafts,
		Photos:     []PhotoAlbum{{ID: "a1", URLs: []string{"x"}}},
		Consent:    &ConsentRecord{Initials: map[Section]bool{SectionOperation: true}},
	}
	c := p.Clone()
	*c.GraftCount = 1
	c.Photos[0].URLs[0] = "y"
	c.Consent.Initials[SectionOperation] = false

	assert.Equal(t, 2500, *p.GraftCount)
	assert.Equal(t, "x", p.Photos[0].URLs[0])
	assert.True(t, p.Consent.Initials[SectionOperation])
	assert.NotNil(t, c.Vitals)
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleManager.Valid())
	assert.False(t, Role("owner").Valid())
}
