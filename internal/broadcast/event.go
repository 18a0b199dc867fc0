// Package broadcast is the realtime fan-out of session and attendance-log
// state changes. Subscribers register an interest filter and receive
// matching events over a channel while connected; there is no backlog or
// replay, so a client that connects while a session is already live must
// separately read current state from the store.
package broadcast

import (
	"github.com/google/uuid"

	"github.com/osakwee57-dev/My-attendance/internal/model"
)

type EventType string

const (
	EventSessionOpened    EventType = "session_opened"
	EventSessionClosed    EventType = "session_closed"
	EventAttendanceLogged EventType = "attendance_logged"
)

// Event carries the session it concerns and, for attendance events, the
// log that was written.
type Event struct {
	Type    EventType            `json:"type"`
	Session model.Session        `json:"session"`
	Log     *model.AttendanceLog `json:"log,omitempty"`
}

// Filter selects which events a subscriber receives. Exactly one of the
// three interests is normally set: audience (department + level) for
// student clients, HocID for issuer dashboards, SessionID for report
// views. Zero values are wildcards for their interest.
type Filter struct {
	Department string
	Level      string
	HocID      uuid.UUID
	SessionID  uuid.UUID
}

// Matches reports whether an event falls inside the filter.
func (f Filter) Matches(ev Event) bool {
	if f.Department != "" || f.Level != "" {
		if f.Department != ev.Session.Department || f.Level != ev.Session.Level {
			return false
		}
	}
	if f.HocID != uuid.Nil && f.HocID != ev.Session.HocID {
		return false
	}
	if f.SessionID != uuid.Nil && f.SessionID != ev.Session.ID {
		return false
	}
	return true
}

// Publisher is the capability the session controller and verification
// engine hold. Publishing is fire and forget: it never blocks on, and
// never reports errors from, subscriber delivery.
type Publisher interface {
	Publish(ev Event)
}
