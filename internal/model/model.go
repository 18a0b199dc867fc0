package model

import (
	"time"

	"github.com/google/uuid"
)

// Profile is an identity record. MatricNumber is globally unique and IsHOC
// is fixed at registration; there is no in-app promotion path.
type Profile struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	MatricNumber string    `json:"matric_number"`
	PasswordHash string    `json:"-"`
	Department   string    `json:"department"`
	Level        string    `json:"level"`
	IsHOC        bool      `json:"is_hoc"`
	SignatureURL string    `json:"signature_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is an attendance session opened by an HOC. At most one session
// per HOC is active at a time, and SessionCode is unique among active
// sessions only; a closed session never reactivates.
type Session struct {
	ID           uuid.UUID  `json:"id"`
	CourseCode   string     `json:"course_code"`
	LecturerName string     `json:"lecturer_name"`
	HocID        uuid.UUID  `json:"hoc_id"`
	Department   string     `json:"department"`
	Level        string     `json:"level"`
	SessionCode  string     `json:"session_code"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
}

// AttendanceLog records one signed attendance per (session, student).
// Student fields are copied at write time so reports stay stable even if
// the profile is edited later.
type AttendanceLog struct {
	ID           uuid.UUID `json:"id"`
	SessionID    uuid.UUID `json:"session_id"`
	StudentID    uuid.UUID `json:"student_id"`
	StudentName  string    `json:"student_name"`
	MatricNumber string    `json:"matric_number"`
	Department   string    `json:"department"`
	Level        string    `json:"level"`
	SignatureURL string    `json:"signature_url"`
	SignedAt     time.Time `json:"timestamp"`
}
