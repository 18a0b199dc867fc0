// Package store defines the persistence contracts for profiles, attendance
// sessions and attendance logs. Implementations live in store/postgres and
// store/memory; both enforce the same uniqueness invariants so the services
// behave identically against either.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/osakwee57-dev/My-attendance/internal/model"
)

var (
	// ErrNotFound is returned by lookups that miss.
	ErrNotFound = errors.New("record not found")

	// ErrMatricExists signals a duplicate matric number at registration.
	ErrMatricExists = errors.New("matric number already registered")

	// ErrActiveSessionExists signals the issuer already owns an active
	// session. Enforced at the storage layer so two concurrent opens from
	// the same issuer cannot both succeed.
	ErrActiveSessionExists = errors.New("issuer already has an active session")

	// ErrActiveCodeExists signals the generated session code collides with
	// another currently active session. The caller regenerates and retries.
	ErrActiveCodeExists = errors.New("session code in use by an active session")

	// ErrLogExists signals a second attendance log for the same
	// (session, student) pair. This is the idempotence guarantee: the loser
	// of a concurrent double submit observes this instead of a second row.
	ErrLogExists = errors.New("attendance already logged for student")
)

type ProfileStore interface {
	CreateProfile(ctx context.Context, p model.Profile) error
	GetProfileByID(ctx context.Context, id uuid.UUID) (model.Profile, error)
	GetProfileByMatric(ctx context.Context, matric string) (model.Profile, error)
	UpdateSignatureURL(ctx context.Context, id uuid.UUID, url string) error
	// ListByDepartment returns non-HOC profiles in a department.
	ListByDepartment(ctx context.Context, department string) ([]model.Profile, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, s model.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (model.Session, error)
	// CloseSession flips is_active to false exactly once. It reports false
	// when the session was already inactive, so a racing double close is
	// detected at the storage layer rather than by a read beforehand.
	CloseSession(ctx context.Context, id uuid.UUID, closedAt time.Time) (bool, error)
	ActiveByIssuer(ctx context.Context, hocID uuid.UUID) (model.Session, bool, error)
	ActiveByAudience(ctx context.Context, department, level string) (model.Session, bool, error)
	RecentClosedByIssuer(ctx context.Context, hocID uuid.UUID, limit int) ([]model.Session, error)
	ActiveOlderThan(ctx context.Context, cutoff time.Time) ([]model.Session, error)
}

type LogStore interface {
	CreateLog(ctx context.Context, l model.AttendanceLog) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.AttendanceLog, error)
}
