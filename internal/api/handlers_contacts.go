package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/lcrostarosa/nirbhaya/internal/contacts"
	"github.com/lcrostarosa/nirbhaya/internal/export"
)

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	list := s.deps.Contacts.List()
	if list == nil {
		list = []contacts.TrustedContact{}
	}
	jsonResponse(w, http.StatusOK, list)
}

func (s *Server) handleEmergencyContacts(w http.ResponseWriter, r *http.Request) {
	list := s.deps.Contacts.EmergencyOnly()
	if list == nil {
		list = []contacts.TrustedContact{}
	}
	jsonResponse(w, http.StatusOK, list)
}

func (s *Server) handleAddContact(w http.ResponseWriter, r *http.Request) {
	var body AddContactBody
	if err := decodeAndValidate(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := s.deps.Contacts.Add(r.Context(), body.NewContact)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	var body UpdateContactBody
	if err := decodeAndValidate(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := s.deps.Contacts.Update(r.Context(), mux.Vars(r)["id"], body.Patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.deps.Contacts.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"deleted": id})
}

func (s *Server) handleExportContacts(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := export.ContactsXLSX(&buf, s.deps.Contacts.List()); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="trusted-contacts.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
