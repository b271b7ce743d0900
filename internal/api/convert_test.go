package api

import (
	"testing"
	"time"

	"inkflow/internal/store"
)

func TestFileViewFrom(t *testing.T) {
	deptID := int64(2)
	designer := int64(10)
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	file := &store.File{
		ID:                  4,
		UID:                 "abc",
		FileNumber:          "INK-000004",
		Title:               "Carton",
		Status:              store.StatusInRepro,
		Stage:               store.StageRepro,
		CurrentDepartmentID: &deptID,
		AssignedDesignerID:  &designer,
		IterationLabel:      "v1",
		CreatedAt:           created,
		UpdatedAt:           created,
	}
	index := IndexDepartments([]*store.Department{
		{ID: deptID, Code: store.DeptRepro, Name: "Repro"},
	})

	view := FileViewFrom(file, index)
	if view.Status != "in_repro" || view.Stage != "repro" {
		t.Fatalf("unexpected status/stage: %s/%s", view.Status, view.Stage)
	}
	if view.Department != "Repro" || view.DepartmentCode != store.DeptRepro {
		t.Fatalf("unexpected department: %s/%s", view.Department, view.DepartmentCode)
	}
	if view.AssignedDesigner == nil || *view.AssignedDesigner != designer {
		t.Fatalf("unexpected assignee: %v", view.AssignedDesigner)
	}
	if view.CreatedAt != "2026-03-01T09:00:00Z" {
		t.Fatalf("unexpected createdAt: %s", view.CreatedAt)
	}
	if view.ClosedAt != "" {
		t.Fatalf("expected empty closedAt, got %s", view.ClosedAt)
	}
}

func TestTimerViewOmitsOpenEnd(t *testing.T) {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	timer := &store.Timer{ID: 1, FileID: 4, DepartmentID: 2, StartedAt: started}

	view := TimerViewFrom(timer)
	if view.EndedAt != "" || view.DurationSeconds != nil {
		t.Fatalf("expected open timer view, got %+v", view)
	}

	ended := started.Add(90 * time.Second)
	seconds := int64(90)
	timer.EndedAt = &ended
	timer.DurationSeconds = &seconds

	view = TimerViewFrom(timer)
	if view.EndedAt == "" || view.DurationSeconds == nil || *view.DurationSeconds != 90 {
		t.Fatalf("expected closed timer view, got %+v", view)
	}
}
