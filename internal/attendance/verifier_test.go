package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/osakwee57-dev/My-attendance/internal/broadcast"
	"github.com/osakwee57-dev/My-attendance/internal/model"
	"github.com/osakwee57-dev/My-attendance/internal/store/memory"
)

func newTestVerifier(t *testing.T) (*Verifier, *broadcast.Bus, *memory.Store) {
	t.Helper()
	db := memory.New()
	bus := broadcast.NewBus(zap.NewNop().Sugar())
	v := NewVerifier(db, db, bus, zap.NewNop().Sugar())
	return v, bus, db
}

func seedSession(t *testing.T, db *memory.Store, active bool) model.Session {
	t.Helper()
	sess := model.Session{
		ID:          uuid.New(),
		CourseCode:  "CSC402",
		HocID:       uuid.New(),
		Department:  "Computer Science",
		Level:       "300 Level",
		SessionCode: "AB3XK9",
		IsActive:    active,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.CreateSession(context.Background(), sess); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	if !active {
		// Sessions are created active; flip through the store so the
		// seed state matches how closed sessions actually come about.
		if _, err := db.CloseSession(context.Background(), sess.ID, time.Now().UTC()); err != nil {
			t.Fatalf("close seeded session: %v", err)
		}
		sess.IsActive = false
	}
	return sess
}

func testStudent() model.Profile {
	return model.Profile{
		ID:           uuid.New(),
		Name:         "Chidi Anya",
		MatricNumber: "CSC/2021/042",
		Department:   "Computer Science",
		Level:        "300 Level",
		SignatureURL: "/signatures/chidi.png",
	}
}

func TestSignSuccess(t *testing.T) {
	v, _, db := newTestVerifier(t)
	sess := seedSession(t, db, true)
	student := testStudent()

	entry, err := v.Sign(context.Background(), sess.ID, sess.SessionCode, student, student.SignatureURL)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if entry.SessionID != sess.ID || entry.StudentID != student.ID {
		t.Errorf("log = %+v", entry)
	}
	if entry.StudentName != student.Name || entry.MatricNumber != student.MatricNumber {
		t.Errorf("student fields not captured: %+v", entry)
	}
	if entry.SignatureURL != student.SignatureURL {
		t.Errorf("signature = %q", entry.SignatureURL)
	}

	logs, err := db.ListBySession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("logs = %d, want 1", len(logs))
	}
}

func TestSignCodeIsCaseInsensitive(t *testing.T) {
	v, _, db := newTestVerifier(t)
	sess := seedSession(t, db, true)
	student := testStudent()

	if _, err := v.Sign(context.Background(), sess.ID, "ab3xk9", student, student.SignatureURL); err != nil {
		t.Fatalf("Sign with lowercase code: %v", err)
	}
}

func TestSignWrongCode(t *testing.T) {
	v, _, db := newTestVerifier(t)
	sess := seedSession(t, db, true)
	student := testStudent()

	_, err := v.Sign(context.Background(), sess.ID, "WRONG1", student, student.SignatureURL)
	if !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("Sign error = %v, want ErrInvalidCode", err)
	}

	logs, _ := db.ListBySession(context.Background(), sess.ID)
	if len(logs) != 0 {
		t.Errorf("rejected submission wrote %d logs", len(logs))
	}
}

func TestSignUnknownSession(t *testing.T) {
	v, _, _ := newTestVerifier(t)
	student := testStudent()

	// An unknown session is indistinguishable from a wrong code.
	_, err := v.Sign(context.Background(), uuid.New(), "AB3XK9", student, student.SignatureURL)
	if !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("Sign error = %v, want ErrInvalidCode", err)
	}
}

func TestSignClosedSession(t *testing.T) {
	v, _, db := newTestVerifier(t)
	sess := seedSession(t, db, false)
	student := testStudent()

	// The code still matches, so the student learns the session closed
	// rather than that their code was wrong.
	_, err := v.Sign(context.Background(), sess.ID, sess.SessionCode, student, student.SignatureURL)
	if !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("Sign error = %v, want ErrSessionClosed", err)
	}
}

func TestSignWithoutSignature(t *testing.T) {
	v, _, db := newTestVerifier(t)
	sess := seedSession(t, db, true)
	student := testStudent()
	student.SignatureURL = ""

	_, err := v.Sign(context.Background(), sess.ID, sess.SessionCode, student, "")
	if !errors.Is(err, ErrSignatureMissing) {
		t.Fatalf("Sign error = %v, want ErrSignatureMissing", err)
	}

	// No partial state was written.
	logs, _ := db.ListBySession(context.Background(), sess.ID)
	if len(logs) != 0 {
		t.Errorf("rejected submission wrote %d logs", len(logs))
	}
}

func TestSignTwice(t *testing.T) {
	v, _, db := newTestVerifier(t)
	sess := seedSession(t, db, true)
	student := testStudent()
	ctx := context.Background()

	if _, err := v.Sign(ctx, sess.ID, sess.SessionCode, student, student.SignatureURL); err != nil {
		t.Fatalf("first Sign: %v", err)
	}
	if _, err := v.Sign(ctx, sess.ID, sess.SessionCode, student, student.SignatureURL); !errors.Is(err, ErrAlreadySigned) {
		t.Fatalf("second Sign error = %v, want ErrAlreadySigned", err)
	}

	logs, _ := db.ListBySession(ctx, sess.ID)
	if len(logs) != 1 {
		t.Errorf("logs = %d, want exactly 1", len(logs))
	}
}

func TestSignConcurrentOneRow(t *testing.T) {
	v, _, db := newTestVerifier(t)
	sess := seedSession(t, db, true)
	student := testStudent()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = v.Sign(context.Background(), sess.ID, sess.SessionCode, student, student.SignatureURL)
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrAlreadySigned):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Errorf("winners = %d, want exactly 1", won)
	}

	logs, _ := db.ListBySession(context.Background(), sess.ID)
	if len(logs) != 1 {
		t.Errorf("logs = %d, want exactly 1", len(logs))
	}
}

func TestSignPublishesLogEvent(t *testing.T) {
	v, bus, db := newTestVerifier(t)
	sess := seedSession(t, db, true)
	student := testStudent()

	sub := bus.Subscribe(broadcast.Filter{SessionID: sess.ID})
	defer sub.Close()

	entry, err := v.Sign(context.Background(), sess.ID, sess.SessionCode, student, student.SignatureURL)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	select {
	case ev := <-sub.C:
		if ev.Type != broadcast.EventAttendanceLogged {
			t.Errorf("event type = %q", ev.Type)
		}
		if ev.Log == nil || ev.Log.ID != entry.ID {
			t.Errorf("event log = %+v", ev.Log)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}
