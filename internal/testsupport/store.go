package testsupport

import (
	"context"
	"testing"

	"inkflow/internal/config"
	"inkflow/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewFile creates a file for tests using the provided store and config.
func NewFile(t testing.TB, st *store.Store, cfg *config.Config, title string, opts ...func(*store.NewFileParams)) *store.File {
	t.Helper()

	params := store.NewFileParams{
		Title:        title,
		NumberPrefix: cfg.Workflow.FileNumberPrefix,
	}
	for _, opt := range opts {
		opt(&params)
	}
	file, err := st.CreateFile(context.Background(), params)
	if err != nil {
		t.Fatalf("store.CreateFile: %v", err)
	}
	return file
}

// WithApproval marks the created file as requiring customer approval.
func WithApproval() func(*store.NewFileParams) {
	return func(p *store.NewFileParams) {
		p.RequiresApproval = true
	}
}

// WithTarget sets the destination designer chosen at creation.
func WithTarget(id int64) func(*store.NewFileParams) {
	return func(p *store.NewFileParams) {
		p.TargetAssigneeID = &id
	}
}

// MustDepartment resolves a department by code or fails the test.
func MustDepartment(t testing.TB, st *store.Store, code string) *store.Department {
	t.Helper()

	dept, err := st.DepartmentByCode(context.Background(), code)
	if err != nil {
		t.Fatalf("store.DepartmentByCode(%q): %v", code, err)
	}
	return dept
}
