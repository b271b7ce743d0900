package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"inkflow/internal/faults"
)

const fileColumns = "id, uid, file_number, title, status, stage, current_department_id, assigned_designer_id, target_assignee_id, pending_takeover, requires_approval, skip_quality_on_ok, quality_reject_return, iteration_number, iteration_label, revision, created_at, updated_at, closed_at"

// NewFileParams describes a file to be created.
type NewFileParams struct {
	Title            string
	RequiresApproval bool
	TargetAssigneeID *int64
	NumberPrefix     string
	CreatedBy        *int64
}

// CreateFile inserts a new file awaiting assignment in pre-repro, assigns its
// sequential file number, and writes the creation audit entry.
func (s *Store) CreateFile(ctx context.Context, params NewFileParams) (*File, error) {
	var created *File
	err := s.WithTx(ctx, func(tx *Tx) error {
		dept, err := tx.DepartmentByCode(DeptPreRepro)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		timestamp := now.Format(time.RFC3339Nano)
		res, err := tx.tx.ExecContext(
			tx.ctx,
			`INSERT INTO files (
                uid, title, status, stage, current_department_id, target_assignee_id,
                pending_takeover, requires_approval, iteration_number, iteration_label,
                created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(),
			params.Title,
			StatusAwaitingAssignment,
			StagePreRepro,
			dept.ID,
			nullableInt(params.TargetAssigneeID),
			1,
			boolToInt(params.RequiresApproval),
			1,
			"v1",
			timestamp,
			timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert file: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		number := fmt.Sprintf("%s-%06d", params.NumberPrefix, id)
		if _, err := tx.tx.ExecContext(tx.ctx, `UPDATE files SET file_number = ? WHERE id = ?`, number, id); err != nil {
			return fmt.Errorf("set file number: %w", err)
		}

		if err := tx.AppendAudit(AuditEntry{
			FileID:         id,
			Action:         ActionFileCreated,
			ByUserID:       params.CreatedBy,
			ToDepartmentID: &dept.ID,
		}); err != nil {
			return err
		}

		created, err = tx.FileByID(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetFile fetches a file by identifier. Returns nil when no row matches.
func (s *Store) GetFile(ctx context.Context, id int64) (*File, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+fileColumns+` FROM files WHERE id = ?`, id)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return file, nil
}

// GetFileByNumber fetches a file by its human-readable number.
func (s *Store) GetFileByNumber(ctx context.Context, number string) (*File, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+fileColumns+` FROM files WHERE file_number = ?`, number)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file by number: %w", err)
	}
	return file, nil
}

// ListFiles returns files filtered by status set (or all files when no status
// is provided), ordered by creation time.
func (s *Store) ListFiles(ctx context.Context, statuses ...Status) ([]*File, error) {
	ctx = ensureContext(ctx)
	baseQuery := `SELECT ` + fileColumns + ` FROM files`
	orderClause := ` ORDER BY created_at, id`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	return collectFiles(rows)
}

// PendingTakeoverInDepartment returns files sitting in the named department
// waiting for an operator to start work.
func (s *Store) PendingTakeoverInDepartment(ctx context.Context, departmentCode string) ([]*File, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+prefixedFileColumns("f")+`
         FROM files f JOIN departments d ON d.id = f.current_department_id
         WHERE f.pending_takeover = 1 AND d.code = ?
         ORDER BY f.updated_at, f.id`,
		departmentCode,
	)
	if err != nil {
		return nil, fmt.Errorf("pending takeover files: %w", err)
	}
	defer rows.Close()

	return collectFiles(rows)
}

// UnclaimedPreRepro returns pre-repro files with no claimant, oldest first.
func (s *Store) UnclaimedPreRepro(ctx context.Context) ([]*File, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+fileColumns+` FROM files
         WHERE stage = ? AND assigned_designer_id IS NULL
         ORDER BY created_at, id`,
		StagePreRepro,
	)
	if err != nil {
		return nil, fmt.Errorf("unclaimed pre-repro files: %w", err)
	}
	defer rows.Close()

	return collectFiles(rows)
}

// FileByID fetches a file within the transaction. Returns nil when no row
// matches.
func (t *Tx) FileByID(id int64) (*File, error) {
	row := t.tx.QueryRowContext(t.ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, id)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return file, nil
}

// UpdateWorkflow persists the workflow fields of a file. The update is
// conditioned on the revision the caller loaded; losing the condition means a
// concurrent operation won, reported as a conflict.
func (t *Tx) UpdateWorkflow(file *File) error {
	if file == nil {
		return errors.New("file is nil")
	}
	file.UpdatedAt = time.Now().UTC()
	res, err := t.tx.ExecContext(
		t.ctx,
		`UPDATE files
         SET status = ?, stage = ?, current_department_id = ?, assigned_designer_id = ?,
             target_assignee_id = ?, pending_takeover = ?, skip_quality_on_ok = ?,
             quality_reject_return = ?, iteration_number = ?, iteration_label = ?,
             revision = revision + 1, updated_at = ?, closed_at = ?
         WHERE id = ? AND revision = ?`,
		file.Status,
		file.Stage,
		nullableInt(file.CurrentDepartmentID),
		nullableInt(file.AssignedDesignerID),
		nullableInt(file.TargetAssigneeID),
		boolToInt(file.PendingTakeover),
		boolToInt(file.SkipQualityOnOK),
		boolToInt(file.QualityRejectReturn),
		file.IterationNumber,
		file.IterationLabel,
		file.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(file.ClosedAt),
		file.ID,
		file.Revision,
	)
	if err != nil {
		return fmt.Errorf("update file: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return faults.Wrap(faults.ErrConflict, "store", "update file", "file was modified concurrently", nil)
	}
	file.Revision++
	return nil
}

// ClaimFile attempts the optimistic claim: the assignee is set only when it
// is still null. Reports whether this caller won.
func (t *Tx) ClaimFile(id, userID int64) (bool, error) {
	res, err := t.tx.ExecContext(
		t.ctx,
		`UPDATE files
         SET assigned_designer_id = ?, pending_takeover = 0, revision = revision + 1, updated_at = ?
         WHERE id = ? AND assigned_designer_id IS NULL`,
		userID,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("claim file: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func collectFiles(rows *sql.Rows) ([]*File, error) {
	var files []*File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

func prefixedFileColumns(alias string) string {
	out := ""
	for i, col := range splitColumns(fileColumns) {
		if i > 0 {
			out += ", "
		}
		out += alias + "." + col
	}
	return out
}

func splitColumns(columns string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(columns); i++ {
		if i == len(columns) || columns[i] == ',' {
			col := columns[start:i]
			for len(col) > 0 && col[0] == ' ' {
				col = col[1:]
			}
			if col != "" {
				out = append(out, col)
			}
			start = i + 1
		}
	}
	return out
}

func scanFile(scanner interface{ Scan(dest ...any) error }) (*File, error) {
	var (
		id              int64
		uid             string
		fileNumber      string
		title           string
		statusStr       string
		stageStr        string
		departmentID    sql.NullInt64
		assignee        sql.NullInt64
		targetAssignee  sql.NullInt64
		pendingTakeover sql.NullInt64
		requiresOK      sql.NullInt64
		skipQuality     sql.NullInt64
		qualityReturn   sql.NullInt64
		iterationNumber int
		iterationLabel  string
		revision        int64
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
		closedRaw       sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&uid,
		&fileNumber,
		&title,
		&statusStr,
		&stageStr,
		&departmentID,
		&assignee,
		&targetAssignee,
		&pendingTakeover,
		&requiresOK,
		&skipQuality,
		&qualityReturn,
		&iterationNumber,
		&iterationLabel,
		&revision,
		&createdRaw,
		&updatedRaw,
		&closedRaw,
	); err != nil {
		return nil, err
	}

	file := &File{
		ID:                  id,
		UID:                 uid,
		FileNumber:          fileNumber,
		Title:               title,
		Status:              Status(statusStr),
		Stage:               Stage(stageStr),
		CurrentDepartmentID: intFromNull(departmentID),
		AssignedDesignerID:  intFromNull(assignee),
		TargetAssigneeID:    intFromNull(targetAssignee),
		PendingTakeover:     pendingTakeover.Valid && pendingTakeover.Int64 != 0,
		RequiresApproval:    requiresOK.Valid && requiresOK.Int64 != 0,
		SkipQualityOnOK:     skipQuality.Valid && skipQuality.Int64 != 0,
		QualityRejectReturn: qualityReturn.Valid && qualityReturn.Int64 != 0,
		IterationNumber:     iterationNumber,
		IterationLabel:      iterationLabel,
		Revision:            revision,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		file.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		file.UpdatedAt = updated
	}
	file.ClosedAt = timeFromNullString(closedRaw)
	return file, nil
}
