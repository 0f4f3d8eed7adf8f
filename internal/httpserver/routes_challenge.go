// internal/httpserver/routes_challenge.go
//
// HTTP routes for challenge invites under /challenge:
//   - POST /challenge         → build an invite for the current username
//   - GET  /challenge/qr.png  → QR code of the latest invite link
//   - GET  /challenge/accept  → verify ?username=&token= and look up the challenger
//
// The latest invite is cached per username so the QR code matches the link
// the player just shared.

package httpserver

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/globetrotter/internal/challenge"
)

// challengeServer wraps dependencies for /challenge endpoints.
type challengeServer struct {
	srv  *Server
	mu   sync.Mutex // guards last
	last *challenge.Invite
}

// mountChallenge registers all /challenge routes.
func (s *Server) mountChallenge(r chi.Router) {
	cs := &challengeServer{srv: s}
	r.Route("/challenge", func(r chi.Router) {
		r.Post("/", cs.handleCreate)
		r.Get("/qr.png", cs.handleQR)
		r.Get("/accept", cs.handleAccept)
	})
}

// invite builds a fresh invite, or reuses the cached one when fresh is false
// and it still belongs to the current username.
func (c *challengeServer) invite(r *http.Request, fresh bool) (challenge.Invite, error) {
	username := c.srv.profile.Username()
	c.mu.Lock()
	if !fresh && c.last != nil && c.last.Username == username {
		inv := *c.last
		c.mu.Unlock()
		return inv, nil
	}
	c.mu.Unlock()

	inv, err := c.srv.challenge.Create(r.Context(), username)
	if err != nil {
		return challenge.Invite{}, err
	}
	c.mu.Lock()
	c.last = &inv
	c.mu.Unlock()
	return inv, nil
}

func (c *challengeServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	inv, err := c.invite(r, true)
	if err != nil {
		writeError(w, statusFor(err), messageFor(err))
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (c *challengeServer) handleQR(w http.ResponseWriter, r *http.Request) {
	inv, err := c.invite(r, false)
	if err != nil {
		writeError(w, statusFor(err), messageFor(err))
		return
	}
	png, err := challenge.QR(inv.Link)
	if err != nil {
		log.Error().Err(err).Msg("qr generation")
		writeError(w, http.StatusInternalServerError, "qr generation failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (c *challengeServer) handleAccept(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	username, token := q.Get("username"), q.Get("token")
	if username == "" || token == "" {
		writeError(w, http.StatusBadRequest, "username and token required")
		return
	}
	ch, err := c.srv.challenge.Accept(r.Context(), username, token)
	if err != nil {
		writeError(w, statusFor(err), messageFor(err))
		return
	}
	writeJSON(w, http.StatusOK, ch)
}
