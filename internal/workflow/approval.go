package workflow

import (
	"context"
	"fmt"

	"inkflow/internal/store"
)

// RequestApproval ends the designer's repro work. Files that came back from a
// quality rejection go straight to collation; everything else enters the
// approval round, or is rejected when the file never required approval.
func (e *Engine) RequestApproval(ctx context.Context, fileID, userID int64) (*store.File, error) {
	var updated *store.File
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		file, err := loadActive(tx, fileID)
		if err != nil {
			return err
		}
		if file.Status != store.StatusInRepro {
			return invalidState(file, "request approval")
		}
		if err := requireOwner(file, userID, "request approval"); err != nil {
			return err
		}

		next := store.StatusApprovalPrep
		if file.QualityRejectReturn {
			// The quality rejection already covered this iteration; the
			// corrected file skips the approval round entirely.
			next = store.StatusInKolaj
			file.QualityRejectReturn = false
			file.SkipQualityOnOK = false
		} else if !file.RequiresApproval {
			return invalidState(file, "request approval")
		}

		from := file.CurrentDepartmentID
		if err := stopWork(tx, file.ID, &userID); err != nil {
			return err
		}

		file.PendingTakeover = true
		if err := moveTo(tx, file, next); err != nil {
			return err
		}

		if err := tx.AppendAudit(store.AuditEntry{
			FileID:           file.ID,
			Action:           store.ActionRequestApproval,
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
	e.logger.Info("approval requested", "file_id", fileID, "user_id", userID, "status", updated.Status)
	return updated, nil
}

// SendToCustomer moves a prepared file to the virtual customer department and
// opens a timer with no user, since nobody in-house occupies it.
func (e *Engine) SendToCustomer(ctx context.Context, fileID int64, actorID *int64) (*store.File, error) {
	var updated *store.File
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		file, err := loadActive(tx, fileID)
		if err != nil {
			return err
		}
		if file.Status != store.StatusApprovalPrep {
			return invalidState(file, "send to customer")
		}

		from := file.CurrentDepartmentID
		if err := stopWork(tx, file.ID, actorID); err != nil {
			return err
		}

		file.PendingTakeover = false
		if err := moveTo(tx, file, store.StatusCustomerApproval); err != nil {
			return err
		}

		if file.CurrentDepartmentID != nil {
			if _, err := tx.StartTimer(file.ID, *file.CurrentDepartmentID, nil); err != nil {
				return err
			}
		}

		if err := tx.AppendAudit(store.AuditEntry{
			FileID:           file.ID,
			Action:           store.ActionSendToCustomer,
			ByUserID:         actorID,
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
	e.logger.Info("file sent to customer", "file_id", fileID)
	return updated, nil
}

// CustomerOk records customer approval. A pending skip-quality flag is
// consumed here and routes the file straight to collation.
func (e *Engine) CustomerOk(ctx context.Context, fileID int64, actorID *int64) (*store.File, error) {
	var updated *store.File
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		file, err := loadActive(tx, fileID)
		if err != nil {
			return err
		}
		if file.Status != store.StatusCustomerApproval {
			return invalidState(file, "customer ok")
		}

		next := store.StatusInQuality
		if file.SkipQualityOnOK {
			next = store.StatusInKolaj
			file.SkipQualityOnOK = false
		}

		from := file.CurrentDepartmentID
		if err := stopWork(tx, file.ID, actorID); err != nil {
			return err
		}

		file.PendingTakeover = true
		if err := moveTo(tx, file, next); err != nil {
			return err
		}

		if err := tx.AppendAudit(store.AuditEntry{
			FileID:           file.ID,
			Action:           store.ActionCustomerOK,
			ByUserID:         actorID,
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
	e.logger.Info("customer approved", "file_id", fileID, "status", updated.Status)
	return updated, nil
}

// CustomerNok records a customer rejection and returns the file to the same
// designer for revision. The note is mandatory.
func (e *Engine) CustomerNok(ctx context.Context, fileID int64, actorID *int64, note string) (*store.File, error) {
	if err := e.requireNote(note, "customer nok"); err != nil {
		return nil, err
	}

	var updated *store.File
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		file, err := loadActive(tx, fileID)
		if err != nil {
			return err
		}
		if file.Status != store.StatusCustomerApproval {
			return invalidState(file, "customer nok")
		}

		from := file.CurrentDepartmentID
		if err := stopWork(tx, file.ID, actorID); err != nil {
			return err
		}

		file.PendingTakeover = true
		if err := moveTo(tx, file, store.StatusRevisionRequired); err != nil {
			return err
		}

		if err := tx.AppendAudit(store.AuditEntry{
			FileID:           file.ID,
			Action:           store.ActionCustomerNOK,
			ByUserID:         actorID,
			FromDepartmentID: from,
			ToDepartmentID:   file.CurrentDepartmentID,
			Payload:          payload{Note: note}.encode(),
		}); err != nil {
			return err
		}
		updated = file
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("customer rejected", "file_id", fileID)
	return updated, nil
}

// RestartMg starts a fresh approval iteration after a customer rejection of
// the whole approach. The iteration counter advances and the file returns to
// approval preparation under the same designer.
func (e *Engine) RestartMg(ctx context.Context, fileID int64, actorID *int64, note string) (*store.File, error) {
	if err := e.requireNote(note, "restart mg"); err != nil {
		return nil, err
	}

	var updated *store.File
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		file, err := loadActive(tx, fileID)
		if err != nil {
			return err
		}
		if file.Status != store.StatusCustomerApproval {
			return invalidState(file, "restart mg")
		}

		from := file.CurrentDepartmentID
		if err := stopWork(tx, file.ID, actorID); err != nil {
			return err
		}

		file.IterationNumber++
		file.IterationLabel = fmt.Sprintf("v%d", file.IterationNumber)
		file.PendingTakeover = true
		if err := moveTo(tx, file, store.StatusApprovalPrep); err != nil {
			return err
		}

		if err := tx.AppendAudit(store.AuditEntry{
			FileID:           file.ID,
			Action:           store.ActionRestartMg,
			ByUserID:         actorID,
			FromDepartmentID: from,
			ToDepartmentID:   file.CurrentDepartmentID,
			Payload:          payload{Note: note, Iteration: file.IterationLabel}.encode(),
		}); err != nil {
			return err
		}
		updated = file
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("iteration restarted", "file_id", fileID, "iteration", updated.IterationLabel)
	return updated, nil
}
