// Package workflow implements the file status state machine. Every operation
// runs as one transaction: load and validate the file, stop open timers and
// sessions, move the file, write the audit entry, return the updated record.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"inkflow/internal/config"
	"inkflow/internal/faults"
	"inkflow/internal/logging"
	"inkflow/internal/store"
)

// Engine drives file transitions. It checks structural preconditions only
// (status, stage, ownership); role permissions are the caller's concern.
type Engine struct {
	store  *store.Store
	cfg    *config.Config
	logger *slog.Logger
}

// NewEngine builds the workflow engine on top of an open store.
func NewEngine(st *store.Store, cfg *config.Config, logger *slog.Logger) *Engine {
	return &Engine{
		store:  st,
		cfg:    cfg,
		logger: logging.WithComponent(logger, "workflow"),
	}
}

// Assign hands an awaiting file to a named designer. The file arrives in the
// repro department pending takeover.
func (e *Engine) Assign(ctx context.Context, fileID, designerID int64, actorID *int64) (*store.File, error) {
	var updated *store.File
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		file, err := loadActive(tx, fileID)
		if err != nil {
			return err
		}
		if file.Status != store.StatusAwaitingAssignment {
			return invalidState(file, "assign")
		}

		from := file.CurrentDepartmentID
		if err := stopWork(tx, file.ID, actorID); err != nil {
			return err
		}

		file.AssignedDesignerID = &designerID
		file.PendingTakeover = true
		if err := moveTo(tx, file, store.StatusAssigned); err != nil {
			return err
		}

		if err := tx.AppendAudit(store.AuditEntry{
			FileID:           file.ID,
			Action:           store.ActionAssign,
			ByUserID:         actorID,
			FromDepartmentID: from,
			ToDepartmentID:   file.CurrentDepartmentID,
			Payload:          payload{DesignerID: &designerID}.encode(),
		}); err != nil {
			return err
		}
		updated = file
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("file assigned", "file_id", fileID, "designer_id", designerID)
	return updated, nil
}

// Takeover starts active work on a file that arrived in the caller's
// department, or resumes work on a file assigned back to the caller. The
// arrival status follows from the department code; a new timer and work
// session open for the caller.
func (e *Engine) Takeover(ctx context.Context, fileID, userID int64, departmentCode string) (*store.File, error) {
	var updated *store.File
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		file, err := loadActive(tx, fileID)
		if err != nil {
			return err
		}

		dept, err := tx.DepartmentByCode(departmentCode)
		if err != nil {
			return err
		}

		pendingHere := file.PendingTakeover &&
			file.CurrentDepartmentID != nil && *file.CurrentDepartmentID == dept.ID
		resuming := (file.Status == store.StatusAssigned || file.Status == store.StatusRevisionRequired) &&
			file.AssignedDesignerID != nil && *file.AssignedDesignerID == userID
		if !pendingHere && !resuming {
			return invalidState(file, "takeover")
		}

		arrival, ok := store.ArrivalStatusFor(departmentCode)
		if !ok {
			return faults.Wrap(faults.ErrInvalidState, "workflow", "takeover",
				fmt.Sprintf("department %s does not accept takeovers", departmentCode), nil)
		}

		from := file.CurrentDepartmentID
		// Close any timer a previous occupant left open before opening ours.
		if _, err := tx.StopTimerIfOpen(file.ID); err != nil {
			return err
		}

		file.PendingTakeover = false
		if err := moveTo(tx, file, arrival); err != nil {
			return err
		}

		if _, err := tx.StartTimer(file.ID, dept.ID, &userID); err != nil {
			return err
		}
		if _, err := tx.StartSession(userID, file.ID, dept.ID); err != nil {
			return err
		}

		if err := tx.AppendAudit(store.AuditEntry{
			FileID:           file.ID,
			Action:           store.ActionTakeover,
			ByUserID:         &userID,
			FromDepartmentID: from,
			ToDepartmentID:   file.CurrentDepartmentID,
		}); err != nil {
			return err
		}
		updated = file
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("file taken over", "file_id", fileID, "user_id", userID, "department", departmentCode)
	return updated, nil
}

// loadActive fetches a file inside the transaction and rejects missing or
// terminal files.
func loadActive(tx *store.Tx, fileID int64) (*store.File, error) {
	file, err := tx.FileByID(fileID)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, faults.Wrap(faults.ErrNotFound, "workflow", "load", fmt.Sprintf("file %d does not exist", fileID), nil)
	}
	if file.Status.IsTerminal() {
		return nil, faults.Wrap(faults.ErrInvalidState, "workflow", "load",
			fmt.Sprintf("file %s was sent to production and is closed", file.FileNumber), nil)
	}
	return file, nil
}

// moveTo applies a status change together with its coupled stage and
// department, then persists the workflow fields.
func moveTo(tx *store.Tx, file *store.File, status store.Status) error {
	file.Status = status
	file.Stage = store.StageFor(status)

	if code := store.DepartmentCodeFor(status); code != "" {
		dept, err := tx.DepartmentByCode(code)
		if err != nil {
			return err
		}
		file.CurrentDepartmentID = &dept.ID
	} else {
		file.CurrentDepartmentID = nil
	}
	return tx.UpdateWorkflow(file)
}

// stopWork closes the file's open timer and the actor's open session, when
// either exists.
func stopWork(tx *store.Tx, fileID int64, actorID *int64) error {
	if _, err := tx.StopTimerIfOpen(fileID); err != nil {
		return err
	}
	if actorID != nil {
		if _, err := tx.StopSessionIfOpen(*actorID); err != nil {
			return err
		}
	}
	return nil
}

func invalidState(file *store.File, operation string) error {
	return faults.Wrap(faults.ErrInvalidState, "workflow", operation,
		fmt.Sprintf("file %s is %s", file.FileNumber, file.Status), nil)
}

func requireOwner(file *store.File, userID int64, operation string) error {
	if file.AssignedDesignerID == nil || *file.AssignedDesignerID != userID {
		return faults.Wrap(faults.ErrNotOwner, "workflow", operation,
			fmt.Sprintf("file %s is not assigned to user %d", file.FileNumber, userID), nil)
	}
	return nil
}

// requireNote enforces the mandatory rejection note before the file is
// touched. The note is persisted in the audit payload.
func (e *Engine) requireNote(note, operation string) error {
	if len(strings.TrimSpace(note)) < e.cfg.Workflow.MinRejectionNoteChars {
		return faults.Wrap(faults.ErrValidation, "workflow", operation,
			fmt.Sprintf("a note of at least %d characters is required", e.cfg.Workflow.MinRejectionNoteChars), nil)
	}
	return nil
}

type payload struct {
	Note       string `json:"note,omitempty"`
	DesignerID *int64 `json:"designer_id,omitempty"`
	ClaimantID *int64 `json:"claimant_id,omitempty"`
	Iteration  string `json:"iteration,omitempty"`
}

func (p payload) encode() string {
	raw, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(raw)
}
