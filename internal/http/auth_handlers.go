package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/osakwee57-dev/My-attendance/internal/auth"
	"github.com/osakwee57-dev/My-attendance/internal/model"
	"github.com/osakwee57-dev/My-attendance/internal/sigstore"
	"github.com/osakwee57-dev/My-attendance/internal/store"
)

type registerRequest struct {
	Name         string `json:"name"`
	MatricNumber string `json:"matric_number"`
	Password     string `json:"password"`
	Department   string `json:"department"`
	Level        string `json:"level"`
	IsHOC        bool   `json:"is_hoc"`
	Signature    string `json:"signature,omitempty"`
}

type authResponse struct {
	AccessToken string        `json:"access_token"`
	Profile     model.Profile `json:"profile"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.MatricNumber = strings.TrimSpace(req.MatricNumber)
	req.Department = strings.TrimSpace(req.Department)
	req.Level = strings.TrimSpace(req.Level)
	if req.Name == "" || req.MatricNumber == "" || req.Password == "" || req.Department == "" || req.Level == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "password_hash_failed")
		return
	}

	profile := model.Profile{
		ID:           uuid.New(),
		Name:         req.Name,
		MatricNumber: req.MatricNumber,
		PasswordHash: hash,
		Department:   req.Department,
		Level:        req.Level,
		IsHOC:        req.IsHOC,
		CreatedAt:    time.Now().UTC(),
	}

	var sigRef string
	if req.Signature != "" {
		blob, err := sigstore.DecodeDataURL(req.Signature)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_signature")
			return
		}
		sigRef, err = s.sigs.Save(r.Context(), profile.ID.String(), blob)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "signature_store_failed")
			return
		}
		profile.SignatureURL = s.sigs.PublicURL(sigRef)
	}

	if err := s.profiles.CreateProfile(r.Context(), profile); err != nil {
		// The signature was written ahead of the profile row; take it
		// back out so rejected registrations leave no stray files.
		if sigRef != "" {
			_ = s.sigs.Remove(sigRef)
		}
		if errors.Is(err, store.ErrMatricExists) {
			writeError(w, http.StatusConflict, "matric_exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	token, err := s.issueToken(profile)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{AccessToken: token, Profile: profile})
}

type loginRequest struct {
	MatricNumber string `json:"matric_number"`
	Password     string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.MatricNumber = strings.TrimSpace(req.MatricNumber)
	if req.MatricNumber == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}

	profile, err := s.profiles.GetProfileByMatric(r.Context(), req.MatricNumber)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	if err := auth.CheckPassword(profile.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	token, err := s.issueToken(profile)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{AccessToken: token, Profile: profile})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	profile, err := s.profileFromClaims(r, claims)
	if err != nil {
		writeError(w, http.StatusNotFound, "profile_not_found")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type putSignatureRequest struct {
	Signature string `json:"signature"`
}

// handlePutSignature stores or replaces the caller's reusable signature
// image. Subsequent quick signs reference the new image; logs written
// before keep the URL they captured.
func (s *Server) handlePutSignature(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	profile, err := s.profileFromClaims(r, claims)
	if err != nil {
		writeError(w, http.StatusNotFound, "profile_not_found")
		return
	}

	var req putSignatureRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	blob, err := sigstore.DecodeDataURL(req.Signature)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_signature")
		return
	}
	ref, err := s.sigs.Save(r.Context(), profile.ID.String(), blob)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "signature_store_failed")
		return
	}

	url := s.sigs.PublicURL(ref)
	if err := s.profiles.UpdateSignatureURL(r.Context(), profile.ID, url); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"signature_url": url})
}

func (s *Server) issueToken(profile model.Profile) (string, error) {
	userType := auth.UserTypeStudent
	if profile.IsHOC {
		userType = auth.UserTypeHOC
	}
	return auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.JWTTTL, auth.Claims{
		UserID:     profile.ID.String(),
		UserType:   userType,
		Department: profile.Department,
		Level:      profile.Level,
	})
}

func (s *Server) profileFromClaims(r *http.Request, claims *auth.Claims) (model.Profile, error) {
	if claims == nil {
		return model.Profile{}, store.ErrNotFound
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return model.Profile{}, store.ErrNotFound
	}
	return s.profiles.GetProfileByID(r.Context(), id)
}
