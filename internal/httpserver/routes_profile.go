package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type usernameReq struct {
	Username string `json:"username"`
}

// mountProfile registers GET /profile and POST /profile/username.
func (s *Server) mountProfile(r chi.Router) {
	r.Route("/profile", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, s.profile.Snapshot())
		})
		r.Post("/username", s.handleSetUsername)
	})
}

// handleSetUsername registers the name with the backend and adopts its
// record. A blank name leaves the profile as it is.
func (s *Server) handleSetUsername(w http.ResponseWriter, r *http.Request) {
	var req usernameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if err := s.profile.SetUsername(r.Context(), s.registrar, req.Username); err != nil {
		writeError(w, statusFor(err), messageFor(err))
		return
	}
	writeJSON(w, http.StatusOK, s.profile.Snapshot())
}
