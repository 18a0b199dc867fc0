package http

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/osakwee57-dev/My-attendance/internal/model"
	"github.com/osakwee57-dev/My-attendance/internal/session"
)

type openSessionRequest struct {
	CourseCode   string `json:"course_code"`
	LecturerName string `json:"lecturer_name"`
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	issuer, err := s.profileFromClaims(r, claims)
	if err != nil {
		writeError(w, http.StatusNotFound, "profile_not_found")
		return
	}

	var req openSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.CourseCode = strings.TrimSpace(req.CourseCode)
	req.LecturerName = strings.TrimSpace(req.LecturerName)
	if req.CourseCode == "" || req.LecturerName == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	sess, err := s.sessions.Open(r.Context(), issuer, req.CourseCode, req.LecturerName)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrAlreadyActive):
			writeError(w, http.StatusConflict, "session_already_active")
		case errors.Is(err, session.ErrCodeExhausted):
			writeError(w, http.StatusServiceUnavailable, "code_space_exhausted")
		default:
			writeError(w, http.StatusInternalServerError, "server_error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_session_id")
		return
	}
	issuerID, err := uuid.Parse(claims.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_token")
		return
	}

	if err := s.sessions.Close(r.Context(), sessionID, issuerID); err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			writeError(w, http.StatusNotFound, "session_not_found")
		case errors.Is(err, session.ErrNotOwner):
			writeError(w, http.StatusForbidden, "not_session_owner")
		case errors.Is(err, session.ErrAlreadyClosed):
			writeError(w, http.StatusConflict, "already_closed")
		default:
			writeError(w, http.StatusInternalServerError, "server_error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func (s *Server) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	issuerID, err := uuid.Parse(claims.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_token")
		return
	}

	sess, ok, err := s.sessions.ActiveFor(r.Context(), issuerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no_active_session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleLiveSession answers "is there a session live for my class right
// now". Students poll this on page load; updates after that arrive over
// the websocket.
func (s *Server) handleLiveSession(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	sess, ok, err := s.sessions.ActiveForAudience(r.Context(), claims.Department, claims.Level)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no_live_session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleRecentSessions(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	issuerID, err := uuid.Parse(claims.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_token")
		return
	}

	sessions, err := s.sessions.Recent(r.Context(), issuerID, recentLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// maxRecentSessions caps the history page size; the dashboard shows a
// handful, so anything larger is a typo or a scrape.
const maxRecentSessions = 50

func recentLimit(r *http.Request) int {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxRecentSessions {
		limit = maxRecentSessions
	}
	return limit
}

type sessionReport struct {
	Session model.Session         `json:"session"`
	Logs    []model.AttendanceLog `json:"logs"`
	Count   int                   `json:"count"`
}

// handleSessionReport is open to any authenticated user; attendance
// reports are class-public in this system.
func (s *Server) handleSessionReport(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_session_id")
		return
	}

	sess, err := s.sessions.Get(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session_not_found")
		return
	}

	logs, err := s.logs.ListBySession(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	sortByMatricSuffix(logs)

	writeJSON(w, http.StatusOK, sessionReport{Session: sess, Logs: logs, Count: len(logs)})
}

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	students, err := s.profiles.ListByDepartment(r.Context(), claims.Department)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	sort.SliceStable(students, func(i, j int) bool {
		return matricLess(students[i].MatricNumber, students[j].MatricNumber)
	})
	writeJSON(w, http.StatusOK, students)
}

// sortByMatricSuffix orders logs by the numeric tail of the matric number,
// so CSC/2021/007 lists before CSC/2021/112 regardless of string order.
func sortByMatricSuffix(logs []model.AttendanceLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return matricLess(logs[i].MatricNumber, logs[j].MatricNumber)
	})
}

func matricLess(a, b string) bool {
	na, oka := matricSuffix(a)
	nb, okb := matricSuffix(b)
	if oka && okb && na != nb {
		return na < nb
	}
	if oka != okb {
		return oka
	}
	return a < b
}

// matricSuffix returns the trailing run of digits as a number.
func matricSuffix(matric string) (int, bool) {
	end := len(matric)
	start := end
	for start > 0 && matric[start-1] >= '0' && matric[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0, false
	}
	n, err := strconv.Atoi(matric[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
