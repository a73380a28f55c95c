package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// registerRoutes sets up all API routes. Routes are registered with full
// paths on one router: subrouter routes carry the /api prefix matcher, which
// clears mux's method mismatch and turns 405s into 404s.
func (s *Server) registerRoutes(r *mux.Router) {
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	// Session
	r.HandleFunc("/api/session", s.handleGetSession).Methods(http.MethodGet)
	r.HandleFunc("/api/session", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/session", s.handleLogout).Methods(http.MethodDelete)
	r.HandleFunc("/api/session/profile", s.handleUpdateProfile).Methods(http.MethodPatch)

	// Trusted contacts
	r.HandleFunc("/api/contacts", s.requireSession(s.handleListContacts)).Methods(http.MethodGet)
	r.HandleFunc("/api/contacts", s.requireSession(s.handleAddContact)).Methods(http.MethodPost)
	r.HandleFunc("/api/contacts/emergency", s.requireSession(s.handleEmergencyContacts)).Methods(http.MethodGet)
	r.HandleFunc("/api/contacts/export", s.requireSession(s.handleExportContacts)).Methods(http.MethodGet)
	r.HandleFunc("/api/contacts/{id}", s.requireSession(s.handleUpdateContact)).Methods(http.MethodPatch)
	r.HandleFunc("/api/contacts/{id}", s.requireSession(s.handleDeleteContact)).Methods(http.MethodDelete)

	// SOS workflow
	r.HandleFunc("/api/sos", s.handleSOSStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/sos/open", s.handleSOSOpen).Methods(http.MethodPost)
	r.HandleFunc("/api/sos/close", s.handleSOSClose).Methods(http.MethodPost)
	r.HandleFunc("/api/sos/activate", s.handleSOSActivate).Methods(http.MethodPost)
	r.HandleFunc("/api/sos/cancel", s.handleSOSCancel).Methods(http.MethodPost)
	r.HandleFunc("/api/sos/alerts", s.requireSession(s.handleListAlerts)).Methods(http.MethodGet)

	// Collaborators
	r.HandleFunc("/api/location", s.handleLocation).Methods(http.MethodGet)
	r.HandleFunc("/api/articles", s.handleArticles).Methods(http.MethodGet)
	r.HandleFunc("/api/toasts", s.handleToasts).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}
