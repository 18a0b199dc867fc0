// Package session owns the attendance-session lifecycle: open, close and
// the recovery reads clients use after a reload or reconnect.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/osakwee57-dev/My-attendance/internal/broadcast"
	"github.com/osakwee57-dev/My-attendance/internal/code"
	"github.com/osakwee57-dev/My-attendance/internal/metrics"
	"github.com/osakwee57-dev/My-attendance/internal/model"
	"github.com/osakwee57-dev/My-attendance/internal/store"
)

// codeAttempts bounds the regenerate-and-retry loop when a generated code
// collides with another active session.
const codeAttempts = 5

type Controller struct {
	sessions store.SessionStore
	bus      broadcast.Publisher
	genCode  func() string
	now      func() time.Time
	log      *zap.SugaredLogger
}

func NewController(sessions store.SessionStore, bus broadcast.Publisher, log *zap.SugaredLogger) *Controller {
	return &Controller{
		sessions: sessions,
		bus:      bus,
		genCode:  code.Generate,
		now:      time.Now,
		log:      log,
	}
}

// Open creates and broadcasts a new active session for the issuer.
// Uniqueness of (issuer, active) and (code, active) is enforced by the
// store, so two concurrent opens from the same issuer's tabs resolve to
// one success and one ErrAlreadyActive.
func (c *Controller) Open(ctx context.Context, issuer model.Profile, courseCode, lecturerName string) (model.Session, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		sess := model.Session{
			ID:           uuid.New(),
			CourseCode:   courseCode,
			LecturerName: lecturerName,
			HocID:        issuer.ID,
			Department:   issuer.Department,
			Level:        issuer.Level,
			SessionCode:  c.genCode(),
			IsActive:     true,
			CreatedAt:    c.now().UTC(),
		}

		err := c.sessions.CreateSession(ctx, sess)
		switch {
		case err == nil:
			metrics.SessionsOpened.Inc()
			c.log.Infow("session opened",
				"session", sess.ID, "hoc", issuer.ID,
				"course", courseCode, "code", sess.SessionCode)
			c.bus.Publish(broadcast.Event{Type: broadcast.EventSessionOpened, Session: sess})
			return sess, nil
		case errors.Is(err, store.ErrActiveSessionExists):
			return model.Session{}, ErrAlreadyActive
		case errors.Is(err, store.ErrActiveCodeExists):
			continue
		default:
			return model.Session{}, fmt.Errorf("create session: %w", err)
		}
	}
	return model.Session{}, ErrCodeExhausted
}

// Close terminates the session. The first successful close flips
// is_active exactly once; later calls and racing duplicates observe
// ErrAlreadyClosed.
func (c *Controller) Close(ctx context.Context, sessionID, issuerID uuid.UUID) error {
	sess, err := c.sessions.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if sess.HocID != issuerID {
		return ErrNotOwner
	}
	if !sess.IsActive {
		return ErrAlreadyClosed
	}

	closedAt := c.now().UTC()
	closed, err := c.sessions.CloseSession(ctx, sessionID, closedAt)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if !closed {
		// Lost the race with another close of the same session.
		return ErrAlreadyClosed
	}

	sess.IsActive = false
	sess.ClosedAt = &closedAt
	metrics.SessionsClosed.Inc()
	c.log.Infow("session closed", "session", sess.ID, "hoc", issuerID)
	c.bus.Publish(broadcast.Event{Type: broadcast.EventSessionClosed, Session: sess})
	return nil
}

// Get loads a session by id.
func (c *Controller) Get(ctx context.Context, sessionID uuid.UUID) (model.Session, error) {
	sess, err := c.sessions.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Session{}, ErrNotFound
	}
	return sess, err
}

// ActiveFor returns the issuer's active session, used by the dashboard to
// resume a broadcast after a reload.
func (c *Controller) ActiveFor(ctx context.Context, issuerID uuid.UUID) (model.Session, bool, error) {
	return c.sessions.ActiveByIssuer(ctx, issuerID)
}

// ActiveForAudience returns the live session for a (department, level)
// audience, the initial-fetch half of the students' fetch-then-listen
// pattern.
func (c *Controller) ActiveForAudience(ctx context.Context, department, level string) (model.Session, bool, error) {
	return c.sessions.ActiveByAudience(ctx, department, level)
}

// Recent returns the issuer's most recently closed sessions.
func (c *Controller) Recent(ctx context.Context, issuerID uuid.UUID, limit int) ([]model.Session, error) {
	return c.sessions.RecentClosedByIssuer(ctx, issuerID, limit)
}

// CloseExpired force-closes active sessions created before the cutoff and
// broadcasts each closure like a manual close. Returns how many were
// closed; used by the expiry job.
func (c *Controller) CloseExpired(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := c.now().UTC().Add(-maxAge)
	stale, err := c.sessions.ActiveOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list stale sessions: %w", err)
	}

	closedCount := 0
	for _, sess := range stale {
		closedAt := c.now().UTC()
		closed, err := c.sessions.CloseSession(ctx, sess.ID, closedAt)
		if err != nil {
			c.log.Errorw("expiry close failed", "session", sess.ID, "error", err)
			continue
		}
		if !closed {
			continue
		}
		sess.IsActive = false
		sess.ClosedAt = &closedAt
		metrics.SessionsClosed.Inc()
		c.bus.Publish(broadcast.Event{Type: broadcast.EventSessionClosed, Session: sess})
		closedCount++
	}
	return closedCount, nil
}
