package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inkflow/internal/faults"
)

// Departments returns the full department directory ordered by id.
func (s *Store) Departments(ctx context.Context) ([]*Department, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT id, code, name FROM departments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	var departments []*Department
	for rows.Next() {
		var dept Department
		if err := rows.Scan(&dept.ID, &dept.Code, &dept.Name); err != nil {
			return nil, err
		}
		departments = append(departments, &dept)
	}
	return departments, rows.Err()
}

// DepartmentByCode resolves a department by its code.
func (s *Store) DepartmentByCode(ctx context.Context, code string) (*Department, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT id, code, name FROM departments WHERE code = ?`, code)
	return scanDepartment(row, code)
}

// DepartmentByID resolves a department by its identifier.
func (s *Store) DepartmentByID(ctx context.Context, id int64) (*Department, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT id, code, name FROM departments WHERE id = ?`, id)
	var dept Department
	if err := row.Scan(&dept.ID, &dept.Code, &dept.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, faults.Wrap(faults.ErrNotFound, "store", "department", fmt.Sprintf("unknown department id %d", id), nil)
		}
		return nil, fmt.Errorf("get department: %w", err)
	}
	return &dept, nil
}

// DepartmentByCode resolves a department by its code within the transaction.
func (t *Tx) DepartmentByCode(code string) (*Department, error) {
	row := t.tx.QueryRowContext(t.ctx, `SELECT id, code, name FROM departments WHERE code = ?`, code)
	return scanDepartment(row, code)
}

func scanDepartment(row *sql.Row, code string) (*Department, error) {
	var dept Department
	if err := row.Scan(&dept.ID, &dept.Code, &dept.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, faults.Wrap(faults.ErrNotFound, "store", "department", fmt.Sprintf("unknown department %q", code), nil)
		}
		return nil, fmt.Errorf("get department: %w", err)
	}
	return &dept, nil
}
