package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"inkflow/internal/faults"
)

const sessionColumns = "id, user_id, file_id, department_id, started_at, ended_at, duration_minutes"

// StartSession opens a work session for a user on a file. A user has at most
// one open session; any prior open session is closed first, so switching
// files is an ordinary operation rather than an error.
func (s *Store) StartSession(ctx context.Context, userID, fileID, departmentID int64) (*WorkSession, error) {
	var session *WorkSession
	err := s.WithTx(ctx, func(tx *Tx) error {
		var err error
		session, err = tx.StartSession(userID, fileID, departmentID)
		if err != nil {
			return err
		}
		return tx.AppendAudit(AuditEntry{
			FileID:         fileID,
			Action:         ActionSessionStart,
			ByUserID:       &userID,
			ToDepartmentID: &departmentID,
		})
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// StopSession closes the user's open work session.
func (s *Store) StopSession(ctx context.Context, userID int64) (*WorkSession, error) {
	var session *WorkSession
	err := s.WithTx(ctx, func(tx *Tx) error {
		var err error
		session, err = tx.StopSession(userID)
		if err != nil {
			return err
		}
		return tx.AppendAudit(AuditEntry{
			FileID:           session.FileID,
			Action:           ActionSessionStop,
			ByUserID:         &userID,
			FromDepartmentID: &session.DepartmentID,
		})
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// OpenSession returns the user's open work session, or nil when none exists.
func (s *Store) OpenSession(ctx context.Context, userID int64) (*WorkSession, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+sessionColumns+` FROM work_sessions WHERE user_id = ? AND ended_at IS NULL`,
		userID,
	)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	return session, nil
}

// SessionsForFile returns every work session recorded for a file, oldest first.
func (s *Store) SessionsForFile(ctx context.Context, fileID int64) ([]*WorkSession, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+sessionColumns+` FROM work_sessions WHERE file_id = ? ORDER BY id`,
		fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("sessions for file: %w", err)
	}
	defer rows.Close()

	var sessions []*WorkSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// StartSession opens a session within the transaction, closing any prior
// open session for the same user first.
func (t *Tx) StartSession(userID, fileID, departmentID int64) (*WorkSession, error) {
	if _, err := t.StopSessionIfOpen(userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := t.tx.ExecContext(
		t.ctx,
		`INSERT INTO work_sessions (user_id, file_id, department_id, started_at) VALUES (?, ?, ?, ?)`,
		userID,
		fileID,
		departmentID,
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &WorkSession{ID: id, UserID: userID, FileID: fileID, DepartmentID: departmentID, StartedAt: now}, nil
}

// StopSession closes the user's open session within the transaction.
func (t *Tx) StopSession(userID int64) (*WorkSession, error) {
	session, err := t.StopSessionIfOpen(userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, faults.Wrap(faults.ErrNotFound, "session", "stop", fmt.Sprintf("user %d has no open work session", userID), nil)
	}
	return session, nil
}

// StopSessionIfOpen closes the user's open session when one exists and
// returns it, or nil when the user has none.
func (t *Tx) StopSessionIfOpen(userID int64) (*WorkSession, error) {
	row := t.tx.QueryRowContext(
		t.ctx,
		`SELECT `+sessionColumns+` FROM work_sessions WHERE user_id = ? AND ended_at IS NULL`,
		userID,
	)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	now := time.Now().UTC()
	minutes := int64(now.Sub(session.StartedAt).Minutes())
	if minutes < 0 {
		minutes = 0
	}
	if _, err := t.tx.ExecContext(
		t.ctx,
		`UPDATE work_sessions SET ended_at = ?, duration_minutes = ? WHERE id = ?`,
		now.Format(time.RFC3339Nano),
		minutes,
		session.ID,
	); err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}
	session.EndedAt = &now
	session.DurationMinutes = &minutes
	return session, nil
}

func scanSession(scanner interface{ Scan(dest ...any) error }) (*WorkSession, error) {
	var (
		id         int64
		userID     int64
		fileID     int64
		deptID     int64
		startedRaw string
		endedRaw   sql.NullString
		minutes    sql.NullInt64
	)
	if err := scanner.Scan(&id, &userID, &fileID, &deptID, &startedRaw, &endedRaw, &minutes); err != nil {
		return nil, err
	}

	session := &WorkSession{
		ID:              id,
		UserID:          userID,
		FileID:          fileID,
		DepartmentID:    deptID,
		EndedAt:         timeFromNullString(endedRaw),
		DurationMinutes: intFromNull(minutes),
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		session.StartedAt = started
	}
	return session, nil
}
