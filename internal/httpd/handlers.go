package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkflow/internal/api"
	"inkflow/internal/store"
)

func (s *Server) departmentIndex(r *http.Request) (api.DepartmentIndex, error) {
	depts, err := s.store.Departments(r.Context())
	if err != nil {
		return nil, err
	}
	return api.IndexDepartments(depts), nil
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	var statuses []store.Status
	for _, raw := range r.URL.Query()["status"] {
		status, ok := store.ParseStatus(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "bad_request", "unknown status "+raw)
			return
		}
		statuses = append(statuses, status)
	}

	files, err := s.store.ListFiles(r.Context(), statuses...)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	index, err := s.departmentIndex(r)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FileListResponse{Files: api.FileViewsFrom(files, index)})
}

type createFileRequest struct {
	Title            string `json:"title"`
	RequiresApproval bool   `json:"requiresApproval"`
	TargetAssigneeID *int64 `json:"targetAssigneeId,omitempty"`
}

func (s *Server) handleCreateFile(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.resolveActor(w, r)
	if !ok {
		return
	}

	var req createFileRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", "title is required")
		return
	}

	file, err := s.store.CreateFile(r.Context(), store.NewFileParams{
		Title:            req.Title,
		RequiresApproval: req.RequiresApproval,
		TargetAssigneeID: req.TargetAssigneeID,
		NumberPrefix:     s.cfg.Workflow.FileNumberPrefix,
		CreatedBy:        &caller.ID,
	})
	if err != nil {
		s.writeFault(w, err)
		return
	}
	index, err := s.departmentIndex(r)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.FileViewFrom(file, index))
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed file id")
		return
	}

	file, err := s.store.GetFile(r.Context(), id)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	if file == nil {
		writeError(w, http.StatusNotFound, "not_found", "no such file")
		return
	}
	index, err := s.departmentIndex(r)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FileViewFrom(file, index))
}

func (s *Server) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed file id")
		return
	}

	entries, err := s.store.AuditTrail(r.Context(), id)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.AuditTrailResponse{Entries: api.AuditViewsFrom(entries)})
}

func (s *Server) handleActiveTimer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed file id")
		return
	}

	timer, err := s.store.ActiveTimer(r.Context(), id)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	if timer == nil {
		writeError(w, http.StatusNotFound, "not_found", "file has no active timer")
		return
	}
	writeJSON(w, http.StatusOK, api.TimerViewFrom(timer))
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed user id")
		return
	}

	session, err := s.store.OpenSession(r.Context(), id)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "not_found", "user has no open work session")
		return
	}
	writeJSON(w, http.StatusOK, api.SessionViewFrom(session))
}

func (s *Server) handlePendingTakeover(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	files, err := s.store.PendingTakeoverInDepartment(r.Context(), code)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	index, err := s.departmentIndex(r)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FileListResponse{Files: api.FileViewsFrom(files, index)})
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	files, err := s.store.UnclaimedPreRepro(r.Context())
	if err != nil {
		s.writeFault(w, err)
		return
	}
	index, err := s.departmentIndex(r)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FileListResponse{Files: api.FileViewsFrom(files, index)})
}
