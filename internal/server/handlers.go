package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/idilsaglam/violet/internal/model"
	"github.com/idilsaglam/violet/internal/server/boltdb"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /dolls", s.handleListAgents)
	mux.HandleFunc("POST /dolls", s.handleCreateAgent)
	mux.HandleFunc("PUT /dolls/{id}", s.handleUpdateAgent)
	mux.HandleFunc("DELETE /dolls/{id}", s.handleDeleteAgent)

	mux.HandleFunc("GET /clientes", s.handleListClients)
	mux.HandleFunc("POST /clientes", s.handleCreateClient)
	mux.HandleFunc("PUT /clientes/{id}", s.handleUpdateClient)
	mux.HandleFunc("DELETE /clientes/{id}", s.handleDeleteClient)

	mux.HandleFunc("GET /cartas", s.handleListLetters)
	mux.HandleFunc("POST /cartas", s.handleCreateLetter)
	mux.HandleFunc("PUT /cartas/{id}", s.handleUpdateLetter)
	mux.HandleFunc("DELETE /cartas/{id}", s.handleDeleteLetter)

	mux.HandleFunc("GET /reportes/dolls/{id}", s.handleAgentReport)

	mux.HandleFunc("GET /health", s.handleHealth)
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"mensaje"`
}

func (s *Server) jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("JSON encode error", "error", err)
	}
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message})
}

// storeError maps storage errors to statuses.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	switch {
	case errors.Is(err, boltdb.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &verr),
		errors.Is(err, boltdb.ErrNoAgentAvailable),
		errors.Is(err, boltdb.ErrNotDraft),
		errors.Is(err, boltdb.ErrBadTransition):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("storage error", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		jsonError(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) handleListAgents(w http.ResponseWriter, _ *http.Request) {
	agents, err := s.db.ListAgents()
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, agents)
}

func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var a model.Agent
	if !decode(w, r, &a) {
		return
	}
	created, err := s.db.CreateAgent(a)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, created)
}

func (s *Server) handleUpdateAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p model.AgentPatch
	if !decode(w, r, &p) {
		return
	}
	updated, err := s.db.UpdateAgent(id, p)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, updated)
}

func (s *Server) handleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.db.DeleteAgent(id); err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, messageResponse{Message: "agent deleted"})
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clients, err := s.db.ListClients(boltdb.ClientFilter{Name: q.Get("nombre"), City: q.Get("ciudad")})
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, clients)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var c model.Client
	if !decode(w, r, &c) {
		return
	}
	created, err := s.db.CreateClient(c)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, created)
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var c model.Client
	if !decode(w, r, &c) {
		return
	}
	updated, err := s.db.UpdateClient(id, c)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, updated)
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.db.DeleteClient(id); err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, messageResponse{Message: "client deleted"})
}

// handleListLetters ignores a non-numeric cliente filter.
func (s *Server) handleListLetters(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := boltdb.LetterFilter{Status: model.Status(q.Get("estado"))}
	if cid, err := strconv.ParseUint(q.Get("cliente"), 10, 64); err == nil {
		f.ClientID = cid
	}
	letters, err := s.db.ListLetters(f)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, letters)
}

func (s *Server) handleCreateLetter(w http.ResponseWriter, r *http.Request) {
	var l model.Letter
	if !decode(w, r, &l) {
		return
	}
	created, err := s.db.CreateLetter(l)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, created)
}

func (s *Server) handleUpdateLetter(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p boltdb.LetterPatch
	if !decode(w, r, &p) {
		return
	}
	updated, err := s.db.UpdateLetter(id, p)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, updated)
}

func (s *Server) handleDeleteLetter(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.db.DeleteLetter(id); err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, messageResponse{Message: "letter deleted"})
}

func (s *Server) handleAgentReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	report, err := s.db.AgentReport(id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
