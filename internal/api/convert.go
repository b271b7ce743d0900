package api

import (
	"time"

	"inkflow/internal/store"
)

// DepartmentIndex resolves department ids for display. Build one from the
// department directory with IndexDepartments.
type DepartmentIndex map[int64]*store.Department

// IndexDepartments builds a DepartmentIndex from directory records.
func IndexDepartments(depts []*store.Department) DepartmentIndex {
	index := make(DepartmentIndex, len(depts))
	for _, dept := range depts {
		index[dept.ID] = dept
	}
	return index
}

// FileViewFrom converts a store file into its transport view, resolving the
// current department for display when an index is supplied.
func FileViewFrom(file *store.File, depts DepartmentIndex) FileView {
	view := FileView{
		ID:               file.ID,
		UID:              file.UID,
		FileNumber:       file.FileNumber,
		Title:            file.Title,
		Status:           string(file.Status),
		Stage:            string(file.Stage),
		AssignedDesigner: file.AssignedDesignerID,
		TargetAssignee:   file.TargetAssigneeID,
		PendingTakeover:  file.PendingTakeover,
		RequiresApproval: file.RequiresApproval,
		Iteration:        file.IterationLabel,
		CreatedAt:        formatTime(file.CreatedAt),
		UpdatedAt:        formatTime(file.UpdatedAt),
	}
	if file.ClosedAt != nil {
		view.ClosedAt = formatTime(*file.ClosedAt)
	}
	if file.CurrentDepartmentID != nil {
		if dept, ok := depts[*file.CurrentDepartmentID]; ok {
			view.Department = dept.Name
			view.DepartmentCode = dept.Code
		}
	}
	return view
}

// FileViewsFrom converts a slice of store files.
func FileViewsFrom(files []*store.File, depts DepartmentIndex) []FileView {
	views := make([]FileView, 0, len(files))
	for _, file := range files {
		views = append(views, FileViewFrom(file, depts))
	}
	return views
}

// TimerViewFrom converts a store timer.
func TimerViewFrom(timer *store.Timer) TimerView {
	view := TimerView{
		ID:              timer.ID,
		FileID:          timer.FileID,
		DepartmentID:    timer.DepartmentID,
		UserID:          timer.UserID,
		StartedAt:       formatTime(timer.StartedAt),
		DurationSeconds: timer.DurationSeconds,
	}
	if timer.EndedAt != nil {
		view.EndedAt = formatTime(*timer.EndedAt)
	}
	return view
}

// SessionViewFrom converts a store work session.
func SessionViewFrom(session *store.WorkSession) SessionView {
	view := SessionView{
		ID:              session.ID,
		UserID:          session.UserID,
		FileID:          session.FileID,
		DepartmentID:    session.DepartmentID,
		StartedAt:       formatTime(session.StartedAt),
		DurationMinutes: session.DurationMinutes,
	}
	if session.EndedAt != nil {
		view.EndedAt = formatTime(*session.EndedAt)
	}
	return view
}

// AuditViewsFrom converts a file's audit trail.
func AuditViewsFrom(entries []*store.AuditEntry) []AuditView {
	views := make([]AuditView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, AuditView{
			ID:             entry.ID,
			FileID:         entry.FileID,
			Action:         string(entry.Action),
			ByUserID:       entry.ByUserID,
			FromDepartment: entry.FromDepartmentID,
			ToDepartment:   entry.ToDepartmentID,
			Payload:        entry.Payload,
			Timestamp:      formatTime(entry.CreatedAt),
		})
	}
	return views
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
