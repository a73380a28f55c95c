package api

import (
	"net/http"

	"go.uber.org/zap"
)

func (s *Server) handleSOSStatus(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, s.deps.Workflow.Status())
}

func (s *Server) handleSOSOpen(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deps.Workflow.Open(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, summary)
}

func (s *Server) handleSOSClose(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Workflow.Close(); err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, s.deps.Workflow.Status())
}

// handleSOSActivate starts the countdown and returns immediately. Clients
// poll GET /api/sos for the remaining seconds and the final result.
func (s *Server) handleSOSActivate(w http.ResponseWriter, r *http.Request) {
	act, err := s.deps.Workflow.Activate(s.baseCtx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("SOS activated over API", zap.String("activation_id", act.ID))

	st := s.deps.Workflow.Status()
	jsonResponse(w, http.StatusAccepted, ActivationDTO{
		ActivationID: act.ID,
		State:        st.State,
		Remaining:    st.Remaining,
		StartedAt:    act.StartedAt,
	})
}

func (s *Server) handleSOSCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Workflow.Cancel(); err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, s.deps.Workflow.Status())
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20, 200)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	records, err := s.deps.Alerts.List(r.Context(), 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	user, _ := s.deps.Session.CurrentUser()
	out := make([]AlertDTO, 0, limit)
	for _, rec := range records {
		if rec.UserID != user.ID {
			continue
		}
		out = append(out, ToAlertDTO(rec))
		if len(out) == limit {
			break
		}
	}
	jsonResponse(w, http.StatusOK, out)
}
