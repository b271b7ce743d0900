package rbac_test

import (
	"testing"

	"inkflow/internal/rbac"
	"inkflow/internal/store"
)

func snapshot(status store.Status, dept string) rbac.FileSnapshot {
	return rbac.FileSnapshot{Status: status, CurrentDepartmentCode: dept}
}

func TestCanPerform(t *testing.T) {
	inRepro := snapshot(store.StatusInRepro, store.DeptRepro)
	inQuality := snapshot(store.StatusInQuality, store.DeptQuality)
	inKolaj := snapshot(store.StatusInKolaj, store.DeptCollation)
	awaiting := snapshot(store.StatusAwaitingAssignment, store.DeptPreRepro)
	closed := snapshot(store.StatusSentToProduction, "")

	cases := []struct {
		name   string
		role   rbac.Role
		action store.Action
		file   rbac.FileSnapshot
		timer  bool
		want   bool
	}{
		{"manager assigns", rbac.RoleManager, store.ActionAssign, awaiting, false, true},
		{"designer cannot assign", rbac.RoleDesigner, store.ActionAssign, awaiting, false, false},
		{"prerepro claims", rbac.RolePreRepro, store.ActionClaim, awaiting, false, true},
		{"quality cannot claim", rbac.RoleQuality, store.ActionClaim, awaiting, false, false},

		{"designer requests approval while clocked in", rbac.RoleDesigner, store.ActionRequestApproval, inRepro, true, true},
		{"designer requests approval without timer", rbac.RoleDesigner, store.ActionRequestApproval, inRepro, false, false},
		{"designer direct to quality without timer", rbac.RoleDesigner, store.ActionDirectToQuality, inRepro, false, false},

		{"quality passes with timer", rbac.RoleQuality, store.ActionQualityOK, inQuality, true, true},
		{"quality passes without timer", rbac.RoleQuality, store.ActionQualityOK, inQuality, false, false},
		{"quality rejects outside quality department", rbac.RoleQuality, store.ActionQualityNOK, inRepro, true, false},
		{"designer cannot pass quality", rbac.RoleDesigner, store.ActionQualityOK, inQuality, true, false},

		{"collation ships with timer", rbac.RoleCollation, store.ActionSendToProduction, inKolaj, true, true},
		{"collation ships without timer", rbac.RoleCollation, store.ActionSendToProduction, inKolaj, false, false},
		{"collation cannot ship from quality", rbac.RoleCollation, store.ActionSendToProduction, inQuality, true, false},

		{"admin does anything", rbac.RoleAdmin, store.ActionQualityNOK, inRepro, false, true},
		{"nobody touches a closed file", rbac.RoleAdmin, store.ActionTakeover, closed, true, false},
		{"unknown action denied", rbac.RoleManager, store.Action("bogus"), inRepro, true, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := rbac.CanPerform(tc.role, tc.action, tc.file, tc.timer)
			if got != tc.want {
				t.Fatalf("CanPerform(%s, %s) = %v, want %v", tc.role, tc.action, got, tc.want)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	if role, ok := rbac.ParseRole("quality"); !ok || role != rbac.RoleQuality {
		t.Fatalf("ParseRole(quality) = %v, %v", role, ok)
	}
	if _, ok := rbac.ParseRole("janitor"); ok {
		t.Fatal("expected unknown role rejected")
	}
}
