package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"inkflow/internal/faults"
)

const timerColumns = "id, file_id, department_id, user_id, started_at, ended_at, duration_seconds"

// StartTimer opens a department timer for a file. At most one timer per file
// may be open; a second start is a conflict and callers must stop the open
// timer explicitly first.
func (s *Store) StartTimer(ctx context.Context, fileID, departmentID int64, userID *int64) (*Timer, error) {
	var timer *Timer
	err := s.WithTx(ctx, func(tx *Tx) error {
		var err error
		timer, err = tx.StartTimer(fileID, departmentID, userID)
		if err != nil {
			return err
		}
		return tx.AppendAudit(AuditEntry{
			FileID:         fileID,
			Action:         ActionTimerStart,
			ByUserID:       userID,
			ToDepartmentID: &departmentID,
		})
	})
	if err != nil {
		return nil, err
	}
	return timer, nil
}

// StopTimer closes the open timer for a file, computing its duration.
func (s *Store) StopTimer(ctx context.Context, fileID int64, stoppedBy *int64) (*Timer, error) {
	var timer *Timer
	err := s.WithTx(ctx, func(tx *Tx) error {
		var err error
		timer, err = tx.StopTimer(fileID)
		if err != nil {
			return err
		}
		return tx.AppendAudit(AuditEntry{
			FileID:           fileID,
			Action:           ActionTimerStop,
			ByUserID:         stoppedBy,
			FromDepartmentID: &timer.DepartmentID,
		})
	})
	if err != nil {
		return nil, err
	}
	return timer, nil
}

// ActiveTimer returns the open timer for a file, or nil when none is open.
func (s *Store) ActiveTimer(ctx context.Context, fileID int64) (*Timer, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+timerColumns+` FROM timers WHERE file_id = ? AND ended_at IS NULL`,
		fileID,
	)
	timer, err := scanTimer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active timer: %w", err)
	}
	return timer, nil
}

// TimersForFile returns every timer recorded for a file, oldest first.
func (s *Store) TimersForFile(ctx context.Context, fileID int64) ([]*Timer, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+timerColumns+` FROM timers WHERE file_id = ? ORDER BY id`,
		fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("timers for file: %w", err)
	}
	defer rows.Close()

	var timers []*Timer
	for rows.Next() {
		timer, err := scanTimer(rows)
		if err != nil {
			return nil, err
		}
		timers = append(timers, timer)
	}
	return timers, rows.Err()
}

// StartTimer opens a timer within the transaction.
func (t *Tx) StartTimer(fileID, departmentID int64, userID *int64) (*Timer, error) {
	open, err := t.openTimer(fileID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, faults.Wrap(faults.ErrConflict, "timer", "start", fmt.Sprintf("file %d already has an open timer", fileID), nil)
	}

	now := time.Now().UTC()
	res, err := t.tx.ExecContext(
		t.ctx,
		`INSERT INTO timers (file_id, department_id, user_id, started_at) VALUES (?, ?, ?, ?)`,
		fileID,
		departmentID,
		nullableInt(userID),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert timer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &Timer{ID: id, FileID: fileID, DepartmentID: departmentID, UserID: userID, StartedAt: now}, nil
}

// StopTimer closes the open timer for a file within the transaction.
func (t *Tx) StopTimer(fileID int64) (*Timer, error) {
	timer, err := t.StopTimerIfOpen(fileID)
	if err != nil {
		return nil, err
	}
	if timer == nil {
		return nil, faults.Wrap(faults.ErrNotFound, "timer", "stop", fmt.Sprintf("file %d has no active timer", fileID), nil)
	}
	return timer, nil
}

// StopTimerIfOpen closes the open timer when one exists and returns it, or
// nil when the file has no open timer.
func (t *Tx) StopTimerIfOpen(fileID int64) (*Timer, error) {
	timer, err := t.openTimer(fileID)
	if err != nil {
		return nil, err
	}
	if timer == nil {
		return nil, nil
	}

	now := time.Now().UTC()
	duration := int64(now.Sub(timer.StartedAt).Seconds())
	if duration < 0 {
		duration = 0
	}
	if _, err := t.tx.ExecContext(
		t.ctx,
		`UPDATE timers SET ended_at = ?, duration_seconds = ? WHERE id = ?`,
		now.Format(time.RFC3339Nano),
		duration,
		timer.ID,
	); err != nil {
		return nil, fmt.Errorf("close timer: %w", err)
	}
	timer.EndedAt = &now
	timer.DurationSeconds = &duration
	return timer, nil
}

func (t *Tx) openTimer(fileID int64) (*Timer, error) {
	row := t.tx.QueryRowContext(
		t.ctx,
		`SELECT `+timerColumns+` FROM timers WHERE file_id = ? AND ended_at IS NULL`,
		fileID,
	)
	timer, err := scanTimer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open timer: %w", err)
	}
	return timer, nil
}

func scanTimer(scanner interface{ Scan(dest ...any) error }) (*Timer, error) {
	var (
		id         int64
		fileID     int64
		deptID     int64
		userID     sql.NullInt64
		startedRaw string
		endedRaw   sql.NullString
		duration   sql.NullInt64
	)
	if err := scanner.Scan(&id, &fileID, &deptID, &userID, &startedRaw, &endedRaw, &duration); err != nil {
		return nil, err
	}

	timer := &Timer{
		ID:              id,
		FileID:          fileID,
		DepartmentID:    deptID,
		UserID:          intFromNull(userID),
		EndedAt:         timeFromNullString(endedRaw),
		DurationSeconds: intFromNull(duration),
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		timer.StartedAt = started
	}
	return timer, nil
}
