// internal/httpserver/server.go
//
// HTTP server wiring for the local Globetrotter front end.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Round endpoints: mounted under /round (drive the round controller).
//   - Profile endpoints: mounted under /profile.
//   - Challenge endpoints: mounted under /challenge.
//   - Live updates: GET /ws streams round and profile snapshots.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled for a single origin.
//   - Errors are JSON {"error": "..."}; round errors also carry the snapshot
//     so a UI can re-render without a second request.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/globetrotter/internal/api"
	"github.com/robalobadob/globetrotter/internal/challenge"
	"github.com/robalobadob/globetrotter/internal/profile"
	"github.com/robalobadob/globetrotter/internal/round"
)

// Deps are the collaborators the server drives.
type Deps struct {
	Round        *round.Controller
	Profile      *profile.Store
	Registrar    profile.Registrar
	Challenge    *challenge.Service
	Hub          *Hub
	ClientOrigin string
}

// Server bundles router and the game collaborators.
type Server struct {
	r         *chi.Mux
	round     *round.Controller
	profile   *profile.Store
	registrar profile.Registrar
	challenge *challenge.Service
	hub       *Hub
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	s := &Server{
		r:         chi.NewRouter(),
		round:     d.Round,
		profile:   d.Profile,
		registrar: d.Registrar,
		challenge: d.Challenge,
		hub:       d.Hub,
	}
	if s.hub == nil {
		s.hub = NewHub()
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)      // add X-Request-ID
	s.r.Use(chimw.RealIP)         // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)      // recover from panics
	s.r.Use(requestLogger)        // one debug line per request
	s.r.Use(jsonContentType)      // default JSON responses
	s.r.Use(cors(d.ClientOrigin)) // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"globetrotter","endpoints":["/health","/round","/profile","/challenge","/ws"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Backend-bound routes get a handler deadline; the websocket does not.
	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(15 * time.Second))
		s.mountRound(r)
		s.mountProfile(r)
		s.mountChallenge(r)
	})
	s.r.Get("/ws", s.hub.ServeWS)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Serve handles HTTP on ln until ctx is cancelled, then shuts down,
// giving in-flight requests a few seconds to finish. A clean shutdown
// returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{Handler: s.r, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- hs.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "http://localhost:3000"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs method, path, status and duration at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("http")
	})
}

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, round.ErrBusy),
		errors.Is(err, round.ErrNotActive),
		errors.Is(err, round.ErrStale),
		errors.Is(err, round.ErrInvalidTransition),
		errors.Is(err, challenge.ErrNoUsername):
		return http.StatusConflict
	case errors.Is(err, challenge.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, profile.ErrNegativeCount):
		return http.StatusBadRequest
	case errors.Is(err, api.ErrTransport):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// messageFor prefers the backend's own message for transport failures.
func messageFor(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
