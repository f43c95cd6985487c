// Package api exposes the task lifecycle and payroll operations over HTTP,
// plus a websocket feed of task events.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/cutdesk/cutdesk/internal/domain"
	"github.com/cutdesk/cutdesk/internal/payroll"
	"github.com/cutdesk/cutdesk/internal/store"
	"github.com/cutdesk/cutdesk/internal/tasks"
)

// Server is the HTTP API server
type Server struct {
	store   *store.Store
	tasks   *tasks.Service
	payroll *payroll.Engine
	addr    string
	mux     *http.ServeMux
	hub     *Hub
}

// NewServer creates a new API server
func NewServer(st *store.Store, taskSvc *tasks.Service, engine *payroll.Engine, addr string) *Server {
	s := &Server{
		store:   st,
		tasks:   taskSvc,
		payroll: engine,
		addr:    addr,
		mux:     http.NewServeMux(),
		hub:     NewHub(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/status", s.statusHandler())
	s.mux.HandleFunc("/api/tasks", s.listTasksHandler())
	s.mux.HandleFunc("/api/tasks/", s.taskHandler())
	s.mux.HandleFunc("/api/payroll/lock", s.lockStatusHandler())
	s.mux.HandleFunc("/api/payroll/bonus", s.bonusHandler())
	s.mux.HandleFunc("/api/payroll/bonus/revert", s.revertBonusHandler())
	s.mux.HandleFunc("/api/notifications", s.notificationsHandler())
	s.mux.HandleFunc("/api/notifications/", s.markReadHandler())
	s.mux.HandleFunc("/api/users/", s.userScheduleHandler())
	s.mux.HandleFunc("/ws", s.wsHandler())
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go s.hub.Run()
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler returns the server's routing mux, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Hub returns the websocket hub; wire it into the notification dispatcher
// so task events reach connected clients.
func (s *Server) Hub() *Hub {
	return s.hub
}

// SetServices injects the task and payroll services. The server is built
// before the services so its hub can join the dispatcher fan-out the
// services are constructed with.
func (s *Server) SetServices(taskSvc *tasks.Service, engine *payroll.Engine) {
	s.tasks = taskSvc
	s.payroll = engine
}

// actor resolves the caller from the X-Actor header (a username). A missing
// header or a locked account yields a nil actor and a written error.
func (s *Server) actor(w http.ResponseWriter, r *http.Request) *domain.Actor {
	username := r.Header.Get("X-Actor")
	if username == "" {
		writeError(w, http.StatusUnauthorized, "X-Actor header required")
		return nil
	}
	user, err := s.store.GetUserByUsername(username)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "unknown actor")
		return nil
	}
	if err != nil {
		writeInternalError(w, err)
		return nil
	}
	if user.Role == domain.RoleLocked {
		writeError(w, http.StatusForbidden, "account locked")
		return nil
	}

	owned, err := s.store.OwnedAgencyID(user.ID)
	if err != nil {
		writeInternalError(w, err)
		return nil
	}
	return &domain.Actor{
		ID:            user.ID,
		Role:          user.Role,
		IsTreasurer:   user.IsTreasurer,
		OwnedAgencyID: owned,
	}
}

// writeServiceError maps the service error taxonomy onto HTTP statuses
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tasks.ErrNotFound) || errors.Is(err, payroll.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tasks.ErrForbidden) || errors.Is(err, payroll.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, tasks.ErrInvalidTransition) || errors.Is(err, tasks.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, tasks.ErrConcurrencyConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, tasks.ErrPeriodPaid) || errors.Is(err, payroll.ErrAlreadyLocked):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, payroll.ErrNoData):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeInternalError(w, err)
	}
}

// writeInternalError logs the detail server-side and answers with a generic
// body, so unexpected errors never leak internals to the client.
func writeInternalError(w http.ResponseWriter, err error) {
	log.Printf("api: internal error: %v", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
