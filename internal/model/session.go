package model

import "time"

// Session is the explicit application state of one signed-in user: who is
// acting and which clinic the switcher currently points at. It is passed to
// services instead of living in globals.
type Session struct {
	ID             string    `json:"id"`
	User           User      `json:"user"`
	ActiveClinicID string    `json:"active_clinic_id,omitempty"`
	IssuedAt       time.Time `json:"issued_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// SessionResponse is returned on login.
type SessionResponse struct {
	Token   string   `json:"token"`
	Session *Session `json:"session"`
}

type LoginRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type SwitchClinicRequest struct {
	ClinicID string `json:"clinic_id"`
}
