// Package rbac decides whether a role may perform a workflow action on a
// file. CanPerform is a pure function: it reads a snapshot and answers, with
// no side effects and no storage access. Callers consult it before invoking
// the engine; the engine itself checks only structural preconditions.
package rbac

import "inkflow/internal/store"

// Role names an operator's position in the shop.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleDesigner  Role = "designer"
	RolePreRepro  Role = "prerepro"
	RoleQuality   Role = "quality"
	RoleCollation Role = "collation"
)

var knownRoles = map[Role]struct{}{
	RoleAdmin:     {},
	RoleManager:   {},
	RoleDesigner:  {},
	RolePreRepro:  {},
	RoleQuality:   {},
	RoleCollation: {},
}

// ParseRole converts a string into a known Role.
func ParseRole(value string) (Role, bool) {
	role := Role(value)
	_, ok := knownRoles[role]
	return role, ok
}

// FileSnapshot carries the slice of file state the policy needs. It is a
// plain value so the decision can be made without touching storage.
type FileSnapshot struct {
	Status                Status
	AssignedDesignerID    *int64
	CurrentDepartmentCode string
	PendingTakeover       bool
	RequiresApproval      bool
}

// Status aliases the store status so snapshot literals stay short.
type Status = store.Status

// rolesByAction maps each action to the roles allowed to trigger it. Admin is
// handled separately and may do everything.
var rolesByAction = map[store.Action]map[Role]struct{}{
	store.ActionAssign:           roles(RoleManager),
	store.ActionTakeover:         roles(RoleDesigner, RolePreRepro, RoleQuality, RoleCollation),
	store.ActionRequestApproval:  roles(RoleDesigner),
	store.ActionDirectToQuality:  roles(RoleDesigner),
	store.ActionSendToCustomer:   roles(RoleManager, RolePreRepro),
	store.ActionCustomerOK:       roles(RoleManager, RolePreRepro),
	store.ActionCustomerNOK:      roles(RoleManager, RolePreRepro),
	store.ActionRestartMg:        roles(RoleManager, RolePreRepro),
	store.ActionQualityOK:        roles(RoleQuality),
	store.ActionQualityNOK:       roles(RoleQuality),
	store.ActionSendToProduction: roles(RoleCollation, RoleManager),
	store.ActionClaim:            roles(RolePreRepro),
	store.ActionHandoff:          roles(RolePreRepro),
	store.ActionReturnToQueue:    roles(RolePreRepro),
	store.ActionTimerStart:       roles(RoleDesigner, RolePreRepro, RoleQuality, RoleCollation),
	store.ActionTimerStop:        roles(RoleDesigner, RolePreRepro, RoleQuality, RoleCollation),
	store.ActionSessionStart:     roles(RoleDesigner, RolePreRepro, RoleQuality, RoleCollation),
	store.ActionSessionStop:      roles(RoleDesigner, RolePreRepro, RoleQuality, RoleCollation),
}

// timerGated lists the actions that additionally require the caller to be
// clocked in on the file. Holding the right role is not enough; the operator
// must have an active timer running on this file.
var timerGated = map[store.Action]struct{}{
	store.ActionRequestApproval:  {},
	store.ActionDirectToQuality:  {},
	store.ActionQualityOK:        {},
	store.ActionQualityNOK:       {},
	store.ActionSendToProduction: {},
}

// departmentByAction pins department-bound actions to the department the file
// must currently occupy.
var departmentByAction = map[store.Action]string{
	store.ActionQualityOK:        store.DeptQuality,
	store.ActionQualityNOK:       store.DeptQuality,
	store.ActionSendToProduction: store.DeptCollation,
}

// CanPerform reports whether a role may trigger an action against the given
// file snapshot. hasActiveTimer tells whether the caller currently holds an
// open timer on this specific file.
func CanPerform(role Role, action store.Action, file FileSnapshot, hasActiveTimer bool) bool {
	if file.Status.IsTerminal() {
		return false
	}
	if role == RoleAdmin {
		return true
	}

	allowed, ok := rolesByAction[action]
	if !ok {
		return false
	}
	if _, ok := allowed[role]; !ok {
		return false
	}

	if _, gated := timerGated[action]; gated && !hasActiveTimer {
		return false
	}
	if dept, bound := departmentByAction[action]; bound && file.CurrentDepartmentCode != dept {
		return false
	}
	return true
}

func roles(list ...Role) map[Role]struct{} {
	set := make(map[Role]struct{}, len(list))
	for _, role := range list {
		set[role] = struct{}{}
	}
	return set
}
