package store

import (
	"strings"
	"time"
)

// Status represents the fine-grained workflow state of a file.
type Status string

const (
	StatusAwaitingAssignment Status = "awaiting_assignment"
	StatusAssigned           Status = "assigned"
	StatusInRepro            Status = "in_repro"
	StatusApprovalPrep       Status = "approval_prep"
	StatusCustomerApproval   Status = "customer_approval"
	StatusRevisionRequired   Status = "revision_required"
	StatusInQuality          Status = "in_quality"
	StatusInKolaj            Status = "in_kolaj"
	StatusSentToProduction   Status = "sent_to_production"
)

// Stage is the coarse phase of a file's life, coarser than Status.
type Stage string

const (
	StagePreRepro Stage = "pre_repro"
	StageRepro    Stage = "repro"
	StageDone     Stage = "done"
)

// Department codes seeded by the initial migration. DeptCustomer is the
// virtual department occupied while a file waits on customer approval; its
// timers carry no user.
const (
	DeptPreRepro   = "pre_repro"
	DeptRepro      = "repro"
	DeptQuality    = "quality"
	DeptCollation  = "collation"
	DeptProduction = "production"
	DeptCustomer   = "customer"
)

var allStatuses = []Status{
	StatusAwaitingAssignment,
	StatusAssigned,
	StatusInRepro,
	StatusApprovalPrep,
	StatusCustomerApproval,
	StatusRevisionRequired,
	StatusInQuality,
	StatusInKolaj,
	StatusSentToProduction,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// statusStages couples every status to its stage. Keeping the coupling in one
// table (instead of per call site) is what keeps status and stage mutually
// consistent.
var statusStages = map[Status]Stage{
	StatusAwaitingAssignment: StagePreRepro,
	StatusAssigned:           StageRepro,
	StatusInRepro:            StageRepro,
	StatusApprovalPrep:       StageRepro,
	StatusCustomerApproval:   StageRepro,
	StatusRevisionRequired:   StageRepro,
	StatusInQuality:          StageRepro,
	StatusInKolaj:            StageRepro,
	StatusSentToProduction:   StageDone,
}

// statusDepartments maps each non-terminal status to the department a file
// occupies while in it. The terminal status has no location.
var statusDepartments = map[Status]string{
	StatusAwaitingAssignment: DeptPreRepro,
	StatusAssigned:           DeptRepro,
	StatusInRepro:            DeptRepro,
	StatusApprovalPrep:       DeptPreRepro,
	StatusCustomerApproval:   DeptCustomer,
	StatusRevisionRequired:   DeptRepro,
	StatusInQuality:          DeptQuality,
	StatusInKolaj:            DeptCollation,
}

// arrivalStatuses maps a working department to the status a file assumes when
// an operator takes it over there.
var arrivalStatuses = map[string]Status{
	DeptRepro:     StatusInRepro,
	DeptQuality:   StatusInQuality,
	DeptCollation: StatusInKolaj,
}

// ownedStatuses are the statuses that require a named assignee.
var ownedStatuses = map[Status]struct{}{
	StatusAssigned:         {},
	StatusInRepro:          {},
	StatusRevisionRequired: {},
	StatusInQuality:        {},
	StatusInKolaj:          {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// StageFor returns the stage coupled to a status.
func StageFor(status Status) Stage {
	if stage, ok := statusStages[status]; ok {
		return stage
	}
	return StagePreRepro
}

// DepartmentCodeFor returns the department code a file occupies in the given
// status, or "" for the terminal status.
func DepartmentCodeFor(status Status) string {
	return statusDepartments[status]
}

// ArrivalStatusFor returns the status a file assumes when taken over in the
// department with the given code.
func ArrivalStatusFor(departmentCode string) (Status, bool) {
	status, ok := arrivalStatuses[departmentCode]
	return status, ok
}

// RequiresOwner reports whether the status requires a named assignee.
func RequiresOwner(status Status) bool {
	_, ok := ownedStatuses[status]
	return ok
}

// IsTerminal reports whether a status permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusSentToProduction
}

// Action identifies an audit log entry's originating operation.
type Action string

const (
	ActionFileCreated      Action = "file_created"
	ActionAssign           Action = "assign"
	ActionTakeover         Action = "takeover"
	ActionRequestApproval  Action = "request_approval"
	ActionSendToCustomer   Action = "send_to_customer"
	ActionCustomerOK       Action = "customer_ok"
	ActionCustomerNOK      Action = "customer_nok"
	ActionRestartMg        Action = "restart_mg"
	ActionQualityOK        Action = "quality_ok"
	ActionQualityNOK       Action = "quality_nok"
	ActionDirectToQuality  Action = "direct_to_quality"
	ActionSendToProduction Action = "send_to_production"
	ActionClaim            Action = "claim"
	ActionHandoff          Action = "handoff"
	ActionReturnToQueue    Action = "return_to_queue"
	ActionTimerStart       Action = "timer_start"
	ActionTimerStop        Action = "timer_stop"
	ActionSessionStart     Action = "session_start"
	ActionSessionStop      Action = "session_stop"
)

// File is the unit of work moving through the departments.
type File struct {
	ID                  int64
	UID                 string
	FileNumber          string
	Title               string
	Status              Status
	Stage               Stage
	CurrentDepartmentID *int64
	AssignedDesignerID  *int64
	TargetAssigneeID    *int64
	PendingTakeover     bool
	RequiresApproval    bool
	// SkipQualityOnOK routes the next customer approval straight to collation.
	SkipQualityOnOK bool
	// QualityRejectReturn routes the next approval request straight to
	// collation, bypassing the approval round entirely.
	QualityRejectReturn bool
	IterationNumber     int
	IterationLabel      string
	Revision            int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
	ClosedAt            *time.Time
}

// Department is a static directory entry.
type Department struct {
	ID   int64
	Code string
	Name string
}

// Timer is an open or closed interval of department occupancy on one file.
// UserID is nil for the virtual customer department.
type Timer struct {
	ID              int64
	FileID          int64
	DepartmentID    int64
	UserID          *int64
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationSeconds *int64
}

// WorkSession is an open or closed interval of one user's attention on one
// file, independent of department.
type WorkSession struct {
	ID              int64
	UserID          int64
	FileID          int64
	DepartmentID    int64
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationMinutes *int64
}

// AuditEntry is an immutable record of one state-changing operation.
type AuditEntry struct {
	ID               int64
	FileID           int64
	Action           Action
	ByUserID         *int64
	FromDepartmentID *int64
	ToDepartmentID   *int64
	Payload          string
	CreatedAt        time.Time
}
