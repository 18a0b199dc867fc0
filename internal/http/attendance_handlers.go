package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/osakwee57-dev/My-attendance/internal/attendance"
	"github.com/osakwee57-dev/My-attendance/internal/sigstore"
)

type signRequest struct {
	Code string `json:"code"`
	// Image is an optional fresh signature. Absent, the student's stored
	// signature is used.
	Image string `json:"image,omitempty"`
}

func (s *Server) handleSignAttendance(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	student, err := s.profileFromClaims(r, claims)
	if err != nil {
		writeError(w, http.StatusNotFound, "profile_not_found")
		return
	}

	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_session_id")
		return
	}

	var req signRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	signatureRef := student.SignatureURL
	var freshRef string
	if req.Image != "" {
		blob, err := sigstore.DecodeDataURL(req.Image)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_signature")
			return
		}
		freshRef, err = s.sigs.Save(r.Context(), student.ID.String(), blob)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "signature_store_failed")
			return
		}
		signatureRef = s.sigs.PublicURL(freshRef)
	}

	logEntry, err := s.verifier.Sign(r.Context(), sessionID, req.Code, student, signatureRef)
	if err != nil {
		// A fresh image uploaded for a rejected submission would
		// otherwise sit orphaned on disk. Identical bytes share a file
		// with the stored signature; leave that one alone.
		if freshRef != "" && s.sigs.PublicURL(freshRef) != student.SignatureURL {
			_ = s.sigs.Remove(freshRef)
		}
		switch {
		case errors.Is(err, attendance.ErrInvalidCode):
			writeError(w, http.StatusForbidden, "invalid_code")
		case errors.Is(err, attendance.ErrSessionClosed):
			writeError(w, http.StatusGone, "session_closed")
		case errors.Is(err, attendance.ErrAlreadySigned):
			writeError(w, http.StatusConflict, "already_signed")
		case errors.Is(err, attendance.ErrSignatureMissing):
			writeError(w, http.StatusUnprocessableEntity, "signature_missing")
		default:
			writeError(w, http.StatusInternalServerError, "server_error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, logEntry)
}

func (s *Server) handleGetSignature(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	blob, err := s.sigs.Open(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "signature_not_found")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}
