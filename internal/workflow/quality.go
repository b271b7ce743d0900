package workflow

import (
	"context"
	"time"

	"inkflow/internal/store"
)

// QualityOk passes the quality check and hands the file to collation.
func (e *Engine) QualityOk(ctx context.Context, fileID int64, actorID *int64) (*store.File, error) {
	var updated *store.File
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		file, err := loadActive(tx, fileID)
		if err != nil {
			return err
		}
		if file.Status != store.StatusInQuality {
			return invalidState(file, "quality ok")
		}

		from := file.CurrentDepartmentID
		if err := stopWork(tx, file.ID, actorID); err != nil {
			return err
		}

		file.PendingTakeover = true
		if err := moveTo(tx, file, store.StatusInKolaj); err != nil {
			return err
		}

		if err := tx.AppendAudit(store.AuditEntry{
			FileID:           file.ID,
			Action:           store.ActionQualityOK,
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
	e.logger.Info("quality passed", "file_id", fileID)
	return updated, nil
}

// QualityNok fails the quality check and returns the file to its designer.
// Both rework flags are set so the corrected file bypasses the approval round
// and the quality check on its way back to collation.
func (e *Engine) QualityNok(ctx context.Context, fileID int64, actorID *int64, note string) (*store.File, error) {
	if err := e.requireNote(note, "quality nok"); err != nil {
		return nil, err
	}

	var updated *store.File
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		file, err := loadActive(tx, fileID)
		if err != nil {
			return err
		}
		if file.Status != store.StatusInQuality {
			return invalidState(file, "quality nok")
		}

		from := file.CurrentDepartmentID
		if err := stopWork(tx, file.ID, actorID); err != nil {
			return err
		}

		file.SkipQualityOnOK = true
		file.QualityRejectReturn = true
		file.PendingTakeover = true
		if err := moveTo(tx, file, store.StatusRevisionRequired); err != nil {
			return err
		}

		if err := tx.AppendAudit(store.AuditEntry{
			FileID:           file.ID,
			Action:           store.ActionQualityNOK,
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
	e.logger.Info("quality rejected", "file_id", fileID)
	return updated, nil
}

// DirectToQuality skips the approval round for files that never required one
// and hands them straight to the quality department.
func (e *Engine) DirectToQuality(ctx context.Context, fileID, userID int64) (*store.File, error) {
	var updated *store.File
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		file, err := loadActive(tx, fileID)
		if err != nil {
			return err
		}
		if file.Status != store.StatusInRepro {
			return invalidState(file, "direct to quality")
		}
		if err := requireOwner(file, userID, "direct to quality"); err != nil {
			return err
		}
		if file.RequiresApproval {
			return invalidState(file, "direct to quality")
		}

		from := file.CurrentDepartmentID
		if err := stopWork(tx, file.ID, &userID); err != nil {
			return err
		}

		file.PendingTakeover = true
		if err := moveTo(tx, file, store.StatusInQuality); err != nil {
			return err
		}

		if err := tx.AppendAudit(store.AuditEntry{
			FileID:           file.ID,
			Action:           store.ActionDirectToQuality,
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
	e.logger.Info("file sent direct to quality", "file_id", fileID, "user_id", userID)
	return updated, nil
}

// SendToProduction closes the file. The terminal status has no location and
// permits no further transitions.
func (e *Engine) SendToProduction(ctx context.Context, fileID int64, actorID *int64) (*store.File, error) {
	var updated *store.File
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		file, err := loadActive(tx, fileID)
		if err != nil {
			return err
		}
		if file.Status != store.StatusInKolaj {
			return invalidState(file, "send to production")
		}

		from := file.CurrentDepartmentID
		if err := stopWork(tx, file.ID, actorID); err != nil {
			return err
		}

		now := time.Now().UTC()
		file.ClosedAt = &now
		file.PendingTakeover = false
		if err := moveTo(tx, file, store.StatusSentToProduction); err != nil {
			return err
		}

		if err := tx.AppendAudit(store.AuditEntry{
			FileID:           file.ID,
			Action:           store.ActionSendToProduction,
			ByUserID:         actorID,
			FromDepartmentID: from,
		}); err != nil {
			return err
		}
		updated = file
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("file sent to production", "file_id", fileID)
	return updated, nil
}
