// Package prerepro implements the claim queue for files waiting in pre-repro
// before entering the main workflow. Claims are optimistic: two operators may
// race for the same file and exactly one wins.
package prerepro

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"inkflow/internal/config"
	"inkflow/internal/faults"
	"inkflow/internal/logging"
	"inkflow/internal/store"
)

// Queue exposes the claim, handoff, and return operations for pre-repro
// files.
type Queue struct {
	store  *store.Store
	cfg    *config.Config
	logger *slog.Logger
}

// NewQueue builds the claim queue on top of an open store.
func NewQueue(st *store.Store, cfg *config.Config, logger *slog.Logger) *Queue {
	return &Queue{
		store:  st,
		cfg:    cfg,
		logger: logging.WithComponent(logger, "prerepro"),
	}
}

// Claim attempts to take ownership of an unclaimed pre-repro file. The claim
// is a conditional update: it succeeds only while the assignee is still null,
// so a concurrent claimant or a repeated call loses cleanly. The winner gets
// a timer opened on the file unless one is already running.
func (q *Queue) Claim(ctx context.Context, fileID, userID int64) (*store.File, error) {
	var updated *store.File
	err := q.store.WithTx(ctx, func(tx *store.Tx) error {
		file, err := tx.FileByID(fileID)
		if err != nil {
			return err
		}
		if file == nil {
			return faults.Wrap(faults.ErrNotFound, "prerepro", "claim", fmt.Sprintf("file %d does not exist", fileID), nil)
		}
		if file.Stage != store.StagePreRepro {
			return faults.Wrap(faults.ErrInvalidState, "prerepro", "claim",
				fmt.Sprintf("file %s left pre-repro already", file.FileNumber), nil)
		}

		won, err := tx.ClaimFile(fileID, userID)
		if err != nil {
			return err
		}
		if !won {
			return faults.Wrap(faults.ErrAlreadyClaimed, "prerepro", "claim",
				fmt.Sprintf("file %s is already claimed", file.FileNumber), nil)
		}

		if err := tx.AppendAudit(store.AuditEntry{
			FileID:         fileID,
			Action:         store.ActionClaim,
			ByUserID:       &userID,
			ToDepartmentID: file.CurrentDepartmentID,
		}); err != nil {
			return err
		}

		open, err := tx.StopTimerIfOpen(fileID)
		if err != nil {
			return err
		}
		deptID := file.CurrentDepartmentID
		if open != nil {
			// A timer was running; restart it under the claimant so the
			// occupancy record names who actually holds the file.
			deptID = &open.DepartmentID
		}
		if deptID != nil {
			if _, err := tx.StartTimer(fileID, *deptID, &userID); err != nil {
				return err
			}
		}

		updated, err = tx.FileByID(fileID)
		return err
	})
	if err != nil {
		return nil, err
	}
	q.logger.Info("file claimed", "file_id", fileID, "user_id", userID)
	return updated, nil
}

// Complete hands a claimed file into the main repro workflow. The destination
// designer is the target chosen at creation, or the configured fallback
// account when none was set. Only the current claimant may hand off.
func (q *Queue) Complete(ctx context.Context, fileID, userID int64) (*store.File, error) {
	var updated *store.File
	err := q.store.WithTx(ctx, func(tx *store.Tx) error {
		file, err := tx.FileByID(fileID)
		if err != nil {
			return err
		}
		if file == nil {
			return faults.Wrap(faults.ErrNotFound, "prerepro", "handoff", fmt.Sprintf("file %d does not exist", fileID), nil)
		}
		if file.Stage != store.StagePreRepro {
			return faults.Wrap(faults.ErrInvalidState, "prerepro", "handoff",
				fmt.Sprintf("file %s left pre-repro already", file.FileNumber), nil)
		}
		if file.AssignedDesignerID == nil || *file.AssignedDesignerID != userID {
			return faults.Wrap(faults.ErrNotOwner, "prerepro", "handoff",
				fmt.Sprintf("file %s must be claimed before handoff", file.FileNumber), nil)
		}

		destination := q.cfg.Workflow.FallbackAssigneeID
		if file.TargetAssigneeID != nil {
			destination = *file.TargetAssigneeID
		}

		from := file.CurrentDepartmentID
		if _, err := tx.StopTimerIfOpen(fileID); err != nil {
			return err
		}
		if _, err := tx.StopSessionIfOpen(userID); err != nil {
			return err
		}

		repro, err := tx.DepartmentByCode(store.DeptRepro)
		if err != nil {
			return err
		}

		file.Status = store.StatusAssigned
		file.Stage = store.StageRepro
		file.CurrentDepartmentID = &repro.ID
		file.AssignedDesignerID = &destination
		file.PendingTakeover = true
		if err := tx.UpdateWorkflow(file); err != nil {
			return err
		}

		if err := tx.AppendAudit(store.AuditEntry{
			FileID:           fileID,
			Action:           store.ActionHandoff,
			ByUserID:         &userID,
			FromDepartmentID: from,
			ToDepartmentID:   &repro.ID,
			Payload:          handoffPayload(userID, destination),
		}); err != nil {
			return err
		}
		updated = file
		return nil
	})
	if err != nil {
		return nil, err
	}
	q.logger.Info("file handed off", "file_id", fileID, "from_user", userID, "to_designer", *updated.AssignedDesignerID)
	return updated, nil
}

// ReturnToQueue gives a claimed file back to the shared queue. Only the
// current claimant may return it; the stage stays pre-repro and the file
// becomes claimable again.
func (q *Queue) ReturnToQueue(ctx context.Context, fileID, userID int64) (*store.File, error) {
	var updated *store.File
	err := q.store.WithTx(ctx, func(tx *store.Tx) error {
		file, err := tx.FileByID(fileID)
		if err != nil {
			return err
		}
		if file == nil {
			return faults.Wrap(faults.ErrNotFound, "prerepro", "return", fmt.Sprintf("file %d does not exist", fileID), nil)
		}
		if file.Stage != store.StagePreRepro {
			return faults.Wrap(faults.ErrInvalidState, "prerepro", "return",
				fmt.Sprintf("file %s left pre-repro already", file.FileNumber), nil)
		}
		if file.AssignedDesignerID == nil || *file.AssignedDesignerID != userID {
			return faults.Wrap(faults.ErrNotOwner, "prerepro", "return",
				fmt.Sprintf("only the current claimant may return file %s", file.FileNumber), nil)
		}

		if _, err := tx.StopTimerIfOpen(fileID); err != nil {
			return err
		}
		if _, err := tx.StopSessionIfOpen(userID); err != nil {
			return err
		}

		file.AssignedDesignerID = nil
		file.PendingTakeover = true
		if err := tx.UpdateWorkflow(file); err != nil {
			return err
		}

		if err := tx.AppendAudit(store.AuditEntry{
			FileID:           fileID,
			Action:           store.ActionReturnToQueue,
			ByUserID:         &userID,
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
	q.logger.Info("file returned to queue", "file_id", fileID, "user_id", userID)
	return updated, nil
}

func handoffPayload(claimant, designer int64) string {
	raw, err := json.Marshal(struct {
		ClaimantID int64 `json:"claimant_id"`
		DesignerID int64 `json:"designer_id"`
	}{ClaimantID: claimant, DesignerID: designer})
	if err != nil {
		return ""
	}
	return string(raw)
}
