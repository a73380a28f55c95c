package api

import (
	"net/http"

	"github.com/lcrostarosa/nirbhaya/internal/news"
	"github.com/lcrostarosa/nirbhaya/internal/toast"
)

// handleHealth returns a simple health check response
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"sosState": s.deps.Workflow.State().String(),
	})
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	if s.deps.Location == nil {
		jsonError(w, http.StatusServiceUnavailable, "location not configured")
		return
	}
	sample, err := s.deps.Location.Current(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, ToLocationDTO(sample))
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	if s.deps.Articles == nil {
		jsonResponse(w, http.StatusOK, []news.Article{})
		return
	}
	jsonResponse(w, http.StatusOK, s.deps.Articles.Articles(r.Context()))
}

// handleToasts returns the notifications that have not yet expired
func (s *Server) handleToasts(w http.ResponseWriter, r *http.Request) {
	if s.deps.Toasts == nil {
		jsonResponse(w, http.StatusOK, []toast.Toast{})
		return
	}
	active := s.deps.Toasts.Active()
	if active == nil {
		active = []toast.Toast{}
	}
	jsonResponse(w, http.StatusOK, active)
}
