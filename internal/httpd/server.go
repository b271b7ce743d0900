// Package httpd exposes the workflow engine over HTTP. It resolves the
// acting user, consults the access policy, and invokes exactly one engine or
// queue operation per request.
package httpd

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"inkflow/internal/api"
	"inkflow/internal/config"
	"inkflow/internal/faults"
	"inkflow/internal/logging"
	"inkflow/internal/prerepro"
	"inkflow/internal/rbac"
	"inkflow/internal/store"
	"inkflow/internal/workflow"
)

const (
	actorHeader = "X-Actor-ID"
	roleHeader  = "X-Actor-Role"
)

// Server wires the engine, the claim queue, and the store behind a router.
type Server struct {
	engine *workflow.Engine
	queue  *prerepro.Queue
	store  *store.Store
	cfg    *config.Config
	logger *slog.Logger
}

// New builds a server around an open store.
func New(engine *workflow.Engine, queue *prerepro.Queue, st *store.Store, cfg *config.Config, logger *slog.Logger) *Server {
	return &Server{
		engine: engine,
		queue:  queue,
		store:  st,
		cfg:    cfg,
		logger: logging.WithComponent(logger, "httpd"),
	}
}

// Router assembles the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/files", s.handleListFiles)
		r.Post("/files", s.handleCreateFile)
		r.Get("/files/{id}", s.handleGetFile)
		r.Get("/files/{id}/audit", s.handleAuditTrail)
		r.Get("/files/{id}/timer", s.handleActiveTimer)
		r.Post("/files/{id}/actions/{action}", s.handleAction)
		r.Get("/users/{id}/session", s.handleOpenSession)
		r.Get("/departments/{code}/pending", s.handlePendingTakeover)
		r.Get("/queue", s.handleQueue)
	})
	return r
}

// actor identifies the authenticated caller, resolved from request headers.
// Real authentication sits in front of this service; the headers carry its
// verdict.
type actor struct {
	ID   int64
	Role rbac.Role
}

func (s *Server) resolveActor(w http.ResponseWriter, r *http.Request) (actor, bool) {
	id, err := strconv.ParseInt(r.Header.Get(actorHeader), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing or malformed "+actorHeader+" header")
		return actor{}, false
	}
	role, ok := rbac.ParseRole(r.Header.Get(roleHeader))
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing or unknown "+roleHeader+" header")
		return actor{}, false
	}
	return actor{ID: id, Role: role}, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeFault(w http.ResponseWriter, err error) {
	code := faults.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case "not_found":
		status = http.StatusNotFound
	case "validation_failed":
		status = http.StatusUnprocessableEntity
	case "invalid_state", "already_claimed", "not_owner", "conflict":
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
		writeError(w, status, code, "internal error")
		return
	}
	if !faults.IsExpected(err) {
		s.logger.Warn("request rejected", "code", code, "error", err)
	}
	writeError(w, status, code, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, api.ErrorResponse{Code: code, Message: message})
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("malformed id")
	}
	return id, nil
}
