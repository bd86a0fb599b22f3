package model

// Graft calculator bounds and defaults.
const (
	DefaultGraftArea    = 100
	DefaultGraftDensity = 40
)

// GraftEstimateRequest is read from the dashboard query string.
type GraftEstimateRequest struct {
	Area    int `form:"area" json:"area" validate:"min=10,max=300"`
	Density int `form:"density" json:"density" validate:"min=20,max=100"`
}

// GraftEstimate is area (cm2) times density (follicular units per cm2).
type GraftEstimate struct {
	Area        int `json:"area"`
	Density     int `json:"density"`
	TotalGrafts int `json:"total_grafts"`
}

type DashboardSummary struct {
	TotalPatients       int            `json:"total_patients"`
	ScheduledOperations int            `json:"scheduled_operations"`
	Upcoming            []*PatientView `json:"upcoming"`
	GraftEstimate       GraftEstimate  `json:"graft_estimate"`
}

// CalendarDay lists the operations booked on one date.
type CalendarDay struct {
	Date       string         `json:"date"`
	Operations []*PatientView `json:"operations"`
}
