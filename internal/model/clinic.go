package model

// Clinic is immutable reference data.
type Clinic struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
}
