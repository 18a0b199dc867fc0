// Package postgres implements the store contracts on pgx. Uniqueness
// invariants live in the schema; unique violations are mapped to the store
// sentinel errors by constraint name.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osakwee57-dev/My-attendance/internal/model"
	"github.com/osakwee57-dev/My-attendance/internal/store"
)

const uniqueViolation = "23505"

type Store struct {
	pool *pgxpool.Pool
}

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Profiles

func (s *Store) CreateProfile(ctx context.Context, p model.Profile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (id, name, matric_number, password_hash, department, level, is_hoc, signature_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)
	`, p.ID, p.Name, p.MatricNumber, p.PasswordHash, p.Department, p.Level, p.IsHOC, p.SignatureURL, p.CreatedAt)
	if isUniqueViolation(err, "profiles_matric_number_key") {
		return store.ErrMatricExists
	}
	return err
}

func (s *Store) GetProfileByID(ctx context.Context, id uuid.UUID) (model.Profile, error) {
	return s.scanProfile(s.pool.QueryRow(ctx, `
		SELECT id, name, matric_number, password_hash, department, level, is_hoc, COALESCE(signature_url, ''), created_at
		FROM profiles
		WHERE id = $1
	`, id))
}

func (s *Store) GetProfileByMatric(ctx context.Context, matric string) (model.Profile, error) {
	return s.scanProfile(s.pool.QueryRow(ctx, `
		SELECT id, name, matric_number, password_hash, department, level, is_hoc, COALESCE(signature_url, ''), created_at
		FROM profiles
		WHERE LOWER(matric_number) = LOWER($1)
	`, matric))
}

func (s *Store) scanProfile(row pgx.Row) (model.Profile, error) {
	var p model.Profile
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.MatricNumber,
		&p.PasswordHash,
		&p.Department,
		&p.Level,
		&p.IsHOC,
		&p.SignatureURL,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Profile{}, store.ErrNotFound
	}
	return p, err
}

func (s *Store) UpdateSignatureURL(ctx context.Context, id uuid.UUID, url string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE profiles SET signature_url = $1 WHERE id = $2`, url, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListByDepartment(ctx context.Context, department string) ([]model.Profile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, matric_number, password_hash, department, level, is_hoc, COALESCE(signature_url, ''), created_at
		FROM profiles
		WHERE department = $1 AND is_hoc = FALSE
		ORDER BY matric_number
	`, department)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Profile
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(
			&p.ID, &p.Name, &p.MatricNumber, &p.PasswordHash,
			&p.Department, &p.Level, &p.IsHOC, &p.SignatureURL, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Sessions

func (s *Store) CreateSession(ctx context.Context, sess model.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO attendance_sessions (id, course_code, lecturer_name, hoc_id, department, level, session_code, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, sess.ID, sess.CourseCode, sess.LecturerName, sess.HocID, sess.Department, sess.Level, sess.SessionCode, sess.IsActive, sess.CreatedAt)
	if isUniqueViolation(err, "attendance_sessions_active_hoc_key") {
		return store.ErrActiveSessionExists
	}
	if isUniqueViolation(err, "attendance_sessions_active_code_key") {
		return store.ErrActiveCodeExists
	}
	return err
}

const sessionColumns = `id, course_code, lecturer_name, hoc_id, department, level, session_code, is_active, created_at, closed_at`

func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (model.Session, error) {
	return s.scanSession(s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM attendance_sessions WHERE id = $1`, id))
}

func (s *Store) CloseSession(ctx context.Context, id uuid.UUID, closedAt time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE attendance_sessions
		SET is_active = FALSE, closed_at = $1
		WHERE id = $2 AND is_active
	`, closedAt, id)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM attendance_sessions WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return false, err
		}
		if !exists {
			return false, store.ErrNotFound
		}
		return false, nil
	}
	return true, nil
}

func (s *Store) ActiveByIssuer(ctx context.Context, hocID uuid.UUID) (model.Session, bool, error) {
	sess, err := s.scanSession(s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM attendance_sessions WHERE hoc_id = $1 AND is_active`, hocID))
	if errors.Is(err, store.ErrNotFound) {
		return model.Session{}, false, nil
	}
	if err != nil {
		return model.Session{}, false, err
	}
	return sess, true, nil
}

func (s *Store) ActiveByAudience(ctx context.Context, department, level string) (model.Session, bool, error) {
	sess, err := s.scanSession(s.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM attendance_sessions
		WHERE department = $1 AND level = $2 AND is_active
		ORDER BY created_at DESC
		LIMIT 1
	`, department, level))
	if errors.Is(err, store.ErrNotFound) {
		return model.Session{}, false, nil
	}
	if err != nil {
		return model.Session{}, false, err
	}
	return sess, true, nil
}

func (s *Store) RecentClosedByIssuer(ctx context.Context, hocID uuid.UUID, limit int) ([]model.Session, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM attendance_sessions
		WHERE hoc_id = $1 AND NOT is_active
		ORDER BY created_at DESC
		LIMIT $2
	`, hocID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.collectSessions(rows)
}

func (s *Store) ActiveOlderThan(ctx context.Context, cutoff time.Time) ([]model.Session, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM attendance_sessions WHERE is_active AND created_at < $1`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.collectSessions(rows)
}

func (s *Store) scanSession(row pgx.Row) (model.Session, error) {
	var sess model.Session
	err := row.Scan(
		&sess.ID,
		&sess.CourseCode,
		&sess.LecturerName,
		&sess.HocID,
		&sess.Department,
		&sess.Level,
		&sess.SessionCode,
		&sess.IsActive,
		&sess.CreatedAt,
		&sess.ClosedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Session{}, store.ErrNotFound
	}
	return sess, err
}

func (s *Store) collectSessions(rows pgx.Rows) ([]model.Session, error) {
	var out []model.Session
	for rows.Next() {
		var sess model.Session
		if err := rows.Scan(
			&sess.ID, &sess.CourseCode, &sess.LecturerName, &sess.HocID,
			&sess.Department, &sess.Level, &sess.SessionCode, &sess.IsActive,
			&sess.CreatedAt, &sess.ClosedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Attendance logs

func (s *Store) CreateLog(ctx context.Context, l model.AttendanceLog) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO attendance_logs (id, session_id, student_id, student_name, matric_number, department, level, signature_url, signed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, l.ID, l.SessionID, l.StudentID, l.StudentName, l.MatricNumber, l.Department, l.Level, l.SignatureURL, l.SignedAt)
	if isUniqueViolation(err, "attendance_logs_session_student_key") {
		return store.ErrLogExists
	}
	return err
}

func (s *Store) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.AttendanceLog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, student_id, student_name, matric_number, department, level, signature_url, signed_at
		FROM attendance_logs
		WHERE session_id = $1
		ORDER BY signed_at
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AttendanceLog
	for rows.Next() {
		var l model.AttendanceLog
		if err := rows.Scan(
			&l.ID, &l.SessionID, &l.StudentID, &l.StudentName,
			&l.MatricNumber, &l.Department, &l.Level, &l.SignatureURL, &l.SignedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraint
}
