// Package api defines the transport-friendly views of engine records shared
// by the HTTP layer and the CLI.
package api

// FileView describes a file in a transport-friendly format.
type FileView struct {
	ID               int64  `json:"id"`
	UID              string `json:"uid"`
	FileNumber       string `json:"fileNumber"`
	Title            string `json:"title"`
	Status           string `json:"status"`
	Stage            string `json:"stage"`
	Department       string `json:"department,omitempty"`
	DepartmentCode   string `json:"departmentCode,omitempty"`
	AssignedDesigner *int64 `json:"assignedDesignerId,omitempty"`
	TargetAssignee   *int64 `json:"targetAssigneeId,omitempty"`
	PendingTakeover  bool   `json:"pendingTakeover"`
	RequiresApproval bool   `json:"requiresApproval"`
	Iteration        string `json:"iteration"`
	CreatedAt        string `json:"createdAt,omitempty"`
	UpdatedAt        string `json:"updatedAt,omitempty"`
	ClosedAt         string `json:"closedAt,omitempty"`
}

// TimerView describes one interval of department occupancy.
type TimerView struct {
	ID              int64  `json:"id"`
	FileID          int64  `json:"fileId"`
	DepartmentID    int64  `json:"departmentId"`
	UserID          *int64 `json:"userId,omitempty"`
	StartedAt       string `json:"startedAt"`
	EndedAt         string `json:"endedAt,omitempty"`
	DurationSeconds *int64 `json:"durationSeconds,omitempty"`
}

// SessionView describes one interval of a user's attention on a file.
type SessionView struct {
	ID              int64  `json:"id"`
	UserID          int64  `json:"userId"`
	FileID          int64  `json:"fileId"`
	DepartmentID    int64  `json:"departmentId"`
	StartedAt       string `json:"startedAt"`
	EndedAt         string `json:"endedAt,omitempty"`
	DurationMinutes *int64 `json:"durationMinutes,omitempty"`
}

// AuditView describes one audit trail entry.
type AuditView struct {
	ID             int64  `json:"id"`
	FileID         int64  `json:"fileId"`
	Action         string `json:"action"`
	ByUserID       *int64 `json:"byUserId,omitempty"`
	FromDepartment *int64 `json:"fromDepartmentId,omitempty"`
	ToDepartment   *int64 `json:"toDepartmentId,omitempty"`
	Payload        string `json:"payload,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// FileListResponse wraps a collection of files for API responses.
type FileListResponse struct {
	Files []FileView `json:"files"`
}

// AuditTrailResponse wraps a file's audit trail.
type AuditTrailResponse struct {
	Entries []AuditView `json:"entries"`
}

// ErrorResponse carries a stable error code and a human-readable message.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
