package httpd

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkflow/internal/api"
	"inkflow/internal/faults"
	"inkflow/internal/rbac"
	"inkflow/internal/store"
)

// actionRequest carries the optional inputs of a workflow action. Which
// fields matter depends on the action: assign needs a designer, takeover a
// department, the rejection actions a note.
type actionRequest struct {
	Note       string `json:"note,omitempty"`
	DesignerID *int64 `json:"designerId,omitempty"`
	Department string `json:"department,omitempty"`
}

// handleAction authorizes and dispatches exactly one engine or queue
// operation against a file.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.resolveActor(w, r)
	if !ok {
		return
	}
	fileID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed file id")
		return
	}
	action := store.Action(chi.URLParam(r, "action"))

	var req actionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}

	ctx := r.Context()
	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	if file == nil {
		writeError(w, http.StatusNotFound, "not_found", "no such file")
		return
	}

	snapshot := rbac.FileSnapshot{
		Status:             file.Status,
		AssignedDesignerID: file.AssignedDesignerID,
		PendingTakeover:    file.PendingTakeover,
		RequiresApproval:   file.RequiresApproval,
	}
	if file.CurrentDepartmentID != nil {
		dept, err := s.store.DepartmentByID(ctx, *file.CurrentDepartmentID)
		if err != nil {
			s.writeFault(w, err)
			return
		}
		snapshot.CurrentDepartmentCode = dept.Code
	}

	hasTimer := false
	if timer, err := s.store.ActiveTimer(ctx, fileID); err != nil {
		s.writeFault(w, err)
		return
	} else if timer != nil && timer.UserID != nil && *timer.UserID == caller.ID {
		hasTimer = true
	}

	if !rbac.CanPerform(caller.Role, action, snapshot, hasTimer) {
		writeError(w, http.StatusForbidden, "forbidden",
			"role "+string(caller.Role)+" may not perform "+string(action)+" here")
		return
	}

	updated, err := s.dispatch(r, caller, action, fileID, req)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	index, err := s.departmentIndex(r)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FileViewFrom(updated, index))
}

// dispatch invokes the one operation matching the action. Unknown actions
// never reach here; the policy denies them first.
func (s *Server) dispatch(r *http.Request, caller actor, action store.Action, fileID int64, req actionRequest) (*store.File, error) {
	ctx := r.Context()
	actorID := caller.ID

	switch action {
	case store.ActionAssign:
		if req.DesignerID == nil {
			return nil, errBadInput("designerId is required")
		}
		return s.engine.Assign(ctx, fileID, *req.DesignerID, &actorID)
	case store.ActionTakeover:
		if req.Department == "" {
			return nil, errBadInput("department is required")
		}
		return s.engine.Takeover(ctx, fileID, actorID, req.Department)
	case store.ActionRequestApproval:
		return s.engine.RequestApproval(ctx, fileID, actorID)
	case store.ActionSendToCustomer:
		return s.engine.SendToCustomer(ctx, fileID, &actorID)
	case store.ActionCustomerOK:
		return s.engine.CustomerOk(ctx, fileID, &actorID)
	case store.ActionCustomerNOK:
		return s.engine.CustomerNok(ctx, fileID, &actorID, req.Note)
	case store.ActionRestartMg:
		return s.engine.RestartMg(ctx, fileID, &actorID, req.Note)
	case store.ActionQualityOK:
		return s.engine.QualityOk(ctx, fileID, &actorID)
	case store.ActionQualityNOK:
		return s.engine.QualityNok(ctx, fileID, &actorID, req.Note)
	case store.ActionDirectToQuality:
		return s.engine.DirectToQuality(ctx, fileID, actorID)
	case store.ActionSendToProduction:
		return s.engine.SendToProduction(ctx, fileID, &actorID)
	case store.ActionClaim:
		return s.queue.Claim(ctx, fileID, actorID)
	case store.ActionHandoff:
		return s.queue.Complete(ctx, fileID, actorID)
	case store.ActionReturnToQueue:
		return s.queue.ReturnToQueue(ctx, fileID, actorID)
	case store.ActionTimerStart:
		dept, err := s.store.DepartmentByCode(ctx, req.Department)
		if err != nil {
			return nil, err
		}
		if _, err := s.store.StartTimer(ctx, fileID, dept.ID, &actorID); err != nil {
			return nil, err
		}
	case store.ActionTimerStop:
		if _, err := s.store.StopTimer(ctx, fileID, &actorID); err != nil {
			return nil, err
		}
	case store.ActionSessionStart:
		dept, err := s.store.DepartmentByCode(ctx, req.Department)
		if err != nil {
			return nil, err
		}
		if _, err := s.store.StartSession(ctx, actorID, fileID, dept.ID); err != nil {
			return nil, err
		}
	case store.ActionSessionStop:
		if _, err := s.store.StopSession(ctx, actorID); err != nil {
			return nil, err
		}
	default:
		return nil, errBadInput("unknown action " + string(action))
	}
	return s.store.GetFile(ctx, fileID)
}

func errBadInput(msg string) error {
	return faults.Wrap(faults.ErrValidation, "httpd", "action", msg, nil)
}

func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
