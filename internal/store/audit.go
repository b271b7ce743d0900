package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const auditColumns = "id, file_id, action, by_user_id, from_department_id, to_department_id, payload_json, created_at"

// AppendAudit writes one audit entry inside the transaction. The entry's
// CreatedAt is assigned here; audit rows are never updated or deleted.
func (t *Tx) AppendAudit(entry AuditEntry) error {
	now := time.Now().UTC()
	_, err := t.tx.ExecContext(
		t.ctx,
		`INSERT INTO audit_log (file_id, action, by_user_id, from_department_id, to_department_id, payload_json, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.FileID,
		entry.Action,
		nullableInt(entry.ByUserID),
		nullableInt(entry.FromDepartmentID),
		nullableInt(entry.ToDepartmentID),
		nullableString(entry.Payload),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// AuditTrail returns the full transition history of a file, oldest first.
func (s *Store) AuditTrail(ctx context.Context, fileID int64) ([]*AuditEntry, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+auditColumns+` FROM audit_log WHERE file_id = ? ORDER BY id`,
		fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("audit trail: %w", err)
	}
	defer rows.Close()

	var entries []*AuditEntry
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanAuditEntry(scanner interface{ Scan(dest ...any) error }) (*AuditEntry, error) {
	var (
		id         int64
		fileID     int64
		actionStr  string
		byUser     sql.NullInt64
		fromDept   sql.NullInt64
		toDept     sql.NullInt64
		payload    sql.NullString
		createdRaw string
	)
	if err := scanner.Scan(&id, &fileID, &actionStr, &byUser, &fromDept, &toDept, &payload, &createdRaw); err != nil {
		return nil, err
	}

	entry := &AuditEntry{
		ID:               id,
		FileID:           fileID,
		Action:           Action(actionStr),
		ByUserID:         intFromNull(byUser),
		FromDepartmentID: intFromNull(fromDept),
		ToDepartmentID:   intFromNull(toDept),
		Payload:          payload.String,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		entry.CreatedAt = created
	}
	return entry, nil
}
