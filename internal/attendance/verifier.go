// Package attendance verifies submitted session codes and writes the
// attendance log, the one-record-per-student guarantee included.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/osakwee57-dev/My-attendance/internal/broadcast"
	"github.com/osakwee57-dev/My-attendance/internal/metrics"
	"github.com/osakwee57-dev/My-attendance/internal/model"
	"github.com/osakwee57-dev/My-attendance/internal/store"
)

type Verifier struct {
	sessions store.SessionStore
	logs     store.LogStore
	bus      broadcast.Publisher
	now      func() time.Time
	log      *zap.SugaredLogger
}

func NewVerifier(sessions store.SessionStore, logs store.LogStore, bus broadcast.Publisher, log *zap.SugaredLogger) *Verifier {
	return &Verifier{
		sessions: sessions,
		logs:     logs,
		bus:      bus,
		now:      time.Now,
		log:      log,
	}
}

// Sign validates the submitted code against the session the student was
// notified about and appends the attendance log. The student's identity
// fields are denormalized onto the log at write time so later profile
// edits never alter the report.
//
// Repeated submissions are safe: the (session, student) uniqueness lives
// in the store, so a double tap or a retry after a dropped ack yields
// exactly one row and ErrAlreadySigned for the loser.
func (v *Verifier) Sign(ctx context.Context, sessionID uuid.UUID, submittedCode string, student model.Profile, signatureRef string) (model.AttendanceLog, error) {
	sess, err := v.sessions.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		// An unknown session reads the same as a wrong code.
		metrics.VerificationRejected.WithLabelValues("invalid_code").Inc()
		return model.AttendanceLog{}, ErrInvalidCode
	}
	if err != nil {
		return model.AttendanceLog{}, fmt.Errorf("load session: %w", err)
	}

	if !strings.EqualFold(strings.TrimSpace(submittedCode), sess.SessionCode) {
		metrics.VerificationRejected.WithLabelValues("invalid_code").Inc()
		return model.AttendanceLog{}, ErrInvalidCode
	}

	// The session may have closed between the open notification and this
	// submission; re-check activity at verification time.
	if !sess.IsActive {
		metrics.VerificationRejected.WithLabelValues("session_closed").Inc()
		return model.AttendanceLog{}, ErrSessionClosed
	}

	if strings.TrimSpace(signatureRef) == "" {
		metrics.VerificationRejected.WithLabelValues("signature_missing").Inc()
		return model.AttendanceLog{}, ErrSignatureMissing
	}

	entry := model.AttendanceLog{
		ID:           uuid.New(),
		SessionID:    sess.ID,
		StudentID:    student.ID,
		StudentName:  student.Name,
		MatricNumber: student.MatricNumber,
		Department:   student.Department,
		Level:        student.Level,
		SignatureURL: signatureRef,
		SignedAt:     v.now().UTC(),
	}

	if err := v.logs.CreateLog(ctx, entry); err != nil {
		if errors.Is(err, store.ErrLogExists) {
			metrics.VerificationRejected.WithLabelValues("already_signed").Inc()
			return model.AttendanceLog{}, ErrAlreadySigned
		}
		return model.AttendanceLog{}, fmt.Errorf("write attendance log: %w", err)
	}

	metrics.AttendanceLogged.Inc()
	v.log.Infow("attendance logged",
		"session", sess.ID, "student", student.ID, "matric", student.MatricNumber)
	v.bus.Publish(broadcast.Event{
		Type:    broadcast.EventAttendanceLogged,
		Session: sess,
		Log:     &entry,
	})
	return entry, nil
}
