// internal/httpserver/routes_round.go
//
// HTTP routes for the live round under /round:
//   - GET  /round         → current snapshot
//   - POST /round/start   → abandon any round and load a new one
//   - POST /round/next    → load the next round (current must be finished)
//   - POST /round/retry   → reload after a failed destination fetch
//   - POST /round/guess   → submit {guess}
//   - POST /round/giveup  → reveal the answer
//
// Every response carries the snapshot after the action.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/globetrotter/internal/round"
)

type guessReq struct {
	Guess string `json:"guess"`
}

// roundErrorRes is an error plus the snapshot it left behind.
type roundErrorRes struct {
	Error string         `json:"error"`
	Round round.Snapshot `json:"round"`
}

// mountRound registers all /round routes.
func (s *Server) mountRound(r chi.Router) {
	r.Route("/round", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, s.round.Snapshot())
		})
		r.Post("/start", s.roundAction(s.round.Start))
		r.Post("/next", s.roundAction(s.round.Next))
		r.Post("/retry", s.roundAction(s.round.Retry))
		r.Post("/giveup", s.roundAction(s.round.GiveUp))
		r.Post("/guess", s.handleGuess)
	})
}

// roundAction adapts a controller transition to a handler.
func (s *Server) roundAction(fn func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeRound(w, fn(r.Context()))
	}
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	s.writeRound(w, s.round.Submit(r.Context(), req.Guess))
}

// writeRound answers with the snapshot, or with the error and snapshot.
func (s *Server) writeRound(w http.ResponseWriter, err error) {
	snap := s.round.Snapshot()
	if err == nil {
		writeJSON(w, http.StatusOK, snap)
		return
	}
	msg := snap.Error
	if msg == "" {
		msg = messageFor(err)
	}
	writeJSON(w, statusFor(err), roundErrorRes{Error: msg, Round: snap})
}
