package api

import (
	"net/http"

	apperrors "github.com/lcrostarosa/nirbhaya/internal/errors"
)

// requireSession rejects the request with 401 when nobody is signed in
func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.deps.Session.IsAuthenticated() {
			s.writeError(w, r, apperrors.ErrNotAuthenticated)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	user, ok := s.deps.Session.CurrentUser()
	if !ok {
		jsonResponse(w, http.StatusOK, SessionDTO{})
		return
	}
	jsonResponse(w, http.StatusOK, SessionDTO{Authenticated: true, User: &user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body LoginBody
	if err := decodeAndValidate(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.deps.Session.Login(r.Context(), body.profile())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, SessionDTO{Authenticated: true, User: &user})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var body ProfileBody
	if err := decodeAndValidate(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.deps.Session.UpdateProfile(r.Context(), body.ProfilePatch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// handleLogout clears the session and contacts. Cancelling an active
// countdown is left to the caller; a send already under way still finishes.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Session.Logout(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, SessionDTO{})
}
