// Package memory implements the store contracts in process memory. It is
// intended for tests and dev environments; the same uniqueness rules the
// Postgres schema enforces with unique indexes are enforced here under a
// single mutex.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/osakwee57-dev/My-attendance/internal/model"
	"github.com/osakwee57-dev/My-attendance/internal/store"
)

type logKey struct {
	session uuid.UUID
	student uuid.UUID
}

type Store struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]model.Profile
	sessions map[uuid.UUID]model.Session
	logs     map[logKey]model.AttendanceLog
	logOrder []logKey
}

func New() *Store {
	return &Store{
		profiles: make(map[uuid.UUID]model.Profile),
		sessions: make(map[uuid.UUID]model.Session),
		logs:     make(map[logKey]model.AttendanceLog),
	}
}

// Profiles

func (s *Store) CreateProfile(_ context.Context, p model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.profiles {
		if strings.EqualFold(existing.MatricNumber, p.MatricNumber) {
			return store.ErrMatricExists
		}
	}
	s.profiles[p.ID] = p
	return nil
}

func (s *Store) GetProfileByID(_ context.Context, id uuid.UUID) (model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return model.Profile{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) GetProfileByMatric(_ context.Context, matric string) (model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if strings.EqualFold(p.MatricNumber, matric) {
			return p, nil
		}
	}
	return model.Profile{}, store.ErrNotFound
}

func (s *Store) UpdateSignatureURL(_ context.Context, id uuid.UUID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return store.ErrNotFound
	}
	p.SignatureURL = url
	s.profiles[id] = p
	return nil
}

func (s *Store) ListByDepartment(_ context.Context, department string) ([]model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Profile
	for _, p := range s.profiles {
		if p.Department == department && !p.IsHOC {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatricNumber < out[j].MatricNumber })
	return out, nil
}

// Sessions

func (s *Store) CreateSession(_ context.Context, sess model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sessions {
		if !existing.IsActive {
			continue
		}
		if existing.HocID == sess.HocID {
			return store.ErrActiveSessionExists
		}
		if existing.SessionCode == sess.SessionCode {
			return store.ErrActiveCodeExists
		}
	}
	s.sessions[sess.ID] = sess
	return nil
}

func (s *Store) GetSession(_ context.Context, id uuid.UUID) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return model.Session{}, store.ErrNotFound
	}
	return sess, nil
}

func (s *Store) CloseSession(_ context.Context, id uuid.UUID, closedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if !sess.IsActive {
		return false, nil
	}
	sess.IsActive = false
	sess.ClosedAt = &closedAt
	s.sessions[id] = sess
	return true, nil
}

func (s *Store) ActiveByIssuer(_ context.Context, hocID uuid.UUID) (model.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.IsActive && sess.HocID == hocID {
			return sess, true, nil
		}
	}
	return model.Session{}, false, nil
}

func (s *Store) ActiveByAudience(_ context.Context, department, level string) (model.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.IsActive && sess.Department == department && sess.Level == level {
			return sess, true, nil
		}
	}
	return model.Session{}, false, nil
}

func (s *Store) RecentClosedByIssuer(_ context.Context, hocID uuid.UUID, limit int) ([]model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Session
	for _, sess := range s.sessions {
		if !sess.IsActive && sess.HocID == hocID {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ActiveOlderThan(_ context.Context, cutoff time.Time) ([]model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Session
	for _, sess := range s.sessions {
		if sess.IsActive && sess.CreatedAt.Before(cutoff) {
			out = append(out, sess)
		}
	}
	return out, nil
}

// Attendance logs

func (s *Store) CreateLog(_ context.Context, l model.AttendanceLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := logKey{session: l.SessionID, student: l.StudentID}
	if _, exists := s.logs[key]; exists {
		return store.ErrLogExists
	}
	s.logs[key] = l
	s.logOrder = append(s.logOrder, key)
	return nil
}

func (s *Store) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.AttendanceLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.AttendanceLog
	for _, key := range s.logOrder {
		if key.session == sessionID {
			out = append(out, s.logs[key])
		}
	}
	return out, nil
}
