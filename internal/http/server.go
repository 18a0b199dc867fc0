// Package http exposes the REST and websocket surface of the attendance
// service. Handlers own request validation and status mapping; domain rules
// live in the session and attendance packages.
package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/osakwee57-dev/My-attendance/internal/attendance"
	"github.com/osakwee57-dev/My-attendance/internal/auth"
	"github.com/osakwee57-dev/My-attendance/internal/broadcast"
	"github.com/osakwee57-dev/My-attendance/internal/config"
	"github.com/osakwee57-dev/My-attendance/internal/session"
	"github.com/osakwee57-dev/My-attendance/internal/sigstore"
	"github.com/osakwee57-dev/My-attendance/internal/store"
)

type Server struct {
	cfg      config.Config
	profiles store.ProfileStore
	logs     store.LogStore
	sessions *session.Controller
	verifier *attendance.Verifier
	bus      *broadcast.Bus
	sigs     *sigstore.Store
	log      *zap.SugaredLogger
}

func NewServer(
	cfg config.Config,
	profiles store.ProfileStore,
	logs store.LogStore,
	sessions *session.Controller,
	verifier *attendance.Verifier,
	bus *broadcast.Bus,
	sigs *sigstore.Store,
	log *zap.SugaredLogger,
) *Server {
	return &Server{
		cfg:      cfg,
		profiles: profiles,
		logs:     logs,
		sessions: sessions,
		verifier: verifier,
		bus:      bus,
		sigs:     sigs,
		log:      log,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)
	r.With(s.authMiddleware).Get("/auth/me", s.handleGetMe)

	r.With(s.authMiddleware).Post("/signatures", s.handlePutSignature)
	r.Get("/signatures/{name}", s.handleGetSignature)

	r.With(s.authMiddleware, s.requireHOC).Get("/roster", s.handleRoster)

	r.Route("/sessions", func(r chi.Router) {
		r.With(s.authMiddleware, s.requireHOC).Post("/", s.handleOpenSession)
		r.With(s.authMiddleware, s.requireHOC).Get("/active", s.handleActiveSession)
		r.With(s.authMiddleware, s.requireHOC).Get("/recent", s.handleRecentSessions)
		r.With(s.authMiddleware).Get("/live", s.handleLiveSession)
		r.With(s.authMiddleware, s.requireHOC).Post("/{sessionID}/close", s.handleCloseSession)
		r.With(s.authMiddleware).Get("/{sessionID}/report", s.handleSessionReport)
		r.With(s.authMiddleware).Post("/{sessionID}/sign", s.handleSignAttendance)
	})

	r.With(s.authMiddleware).Get("/ws", s.handleWebsocket)

	return r
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}

		claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireHOC(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil || claims.UserType != auth.UserTypeHOC {
			writeError(w, http.StatusForbidden, "hoc_only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type claimsKey struct{}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}
