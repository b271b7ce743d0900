package store_test

import (
	"context"
	"strings"
	"testing"

	"inkflow/internal/store"
	"inkflow/internal/testsupport"
)

func TestOpenSeedsDepartments(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	departments, err := st.Departments(ctx)
	if err != nil {
		t.Fatalf("Departments: %v", err)
	}
	if len(departments) != 6 {
		t.Fatalf("expected 6 seeded departments, got %d", len(departments))
	}

	for _, code := range []string{
		store.DeptPreRepro, store.DeptRepro, store.DeptQuality,
		store.DeptCollation, store.DeptProduction, store.DeptCustomer,
	} {
		dept, err := st.DepartmentByCode(ctx, code)
		if err != nil {
			t.Fatalf("DepartmentByCode(%q): %v", code, err)
		}
		if dept.Name == "" {
			t.Fatalf("department %q has no name", code)
		}
	}
}

func TestCreateFileInitialState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	file := testsupport.NewFile(t, st, cfg, "Cereal Box 500g", testsupport.WithApproval())
	if file.ID == 0 {
		t.Fatal("expected file ID to be assigned")
	}
	if file.UID == "" {
		t.Fatal("expected opaque UID")
	}
	if !strings.HasPrefix(file.FileNumber, cfg.Workflow.FileNumberPrefix+"-") {
		t.Fatalf("unexpected file number %q", file.FileNumber)
	}
	if file.Status != store.StatusAwaitingAssignment {
		t.Fatalf("expected awaiting_assignment, got %s", file.Status)
	}
	if file.Stage != store.StagePreRepro {
		t.Fatalf("expected pre_repro stage, got %s", file.Stage)
	}
	if file.AssignedDesignerID != nil {
		t.Fatal("expected no assignee at creation")
	}
	if !file.PendingTakeover {
		t.Fatal("expected file to await pickup")
	}
	if !file.RequiresApproval {
		t.Fatal("expected requires_approval to persist")
	}
	if file.IterationNumber != 1 || file.IterationLabel != "v1" {
		t.Fatalf("unexpected iteration %d/%q", file.IterationNumber, file.IterationLabel)
	}

	trail, err := st.AuditTrail(context.Background(), file.ID)
	if err != nil {
		t.Fatalf("AuditTrail: %v", err)
	}
	if len(trail) != 1 || trail[0].Action != store.ActionFileCreated {
		t.Fatalf("expected one file_created entry, got %#v", trail)
	}
}

func TestFileNumbersAreSequential(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	a := testsupport.NewFile(t, st, cfg, "First")
	b := testsupport.NewFile(t, st, cfg, "Second")
	if a.FileNumber == b.FileNumber {
		t.Fatalf("expected distinct file numbers, both %q", a.FileNumber)
	}
	if b.ID != a.ID+1 {
		t.Fatalf("expected sequential ids, got %d then %d", a.ID, b.ID)
	}
}

func TestListFilesFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a := testsupport.NewFile(t, st, cfg, "A")
	b := testsupport.NewFile(t, st, cfg, "B")

	err := st.WithTx(ctx, func(tx *store.Tx) error {
		file, err := tx.FileByID(b.ID)
		if err != nil {
			return err
		}
		designer := int64(42)
		file.Status = store.StatusAssigned
		file.Stage = store.StageRepro
		file.AssignedDesignerID = &designer
		return tx.UpdateWorkflow(file)
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	all, err := st.ListFiles(ctx)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(all) != 2 || all[0].ID != a.ID || all[1].ID != b.ID {
		t.Fatalf("unexpected unfiltered listing: %#v", all)
	}

	assigned, err := st.ListFiles(ctx, store.StatusAssigned)
	if err != nil {
		t.Fatalf("ListFiles filtered: %v", err)
	}
	if len(assigned) != 1 || assigned[0].ID != b.ID {
		t.Fatalf("expected only file B assigned, got %#v", assigned)
	}
}

func TestUpdateWorkflowDetectsConcurrentModification(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	file := testsupport.NewFile(t, st, cfg, "Contested")

	stale, err := st.GetFile(ctx, file.ID)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}

	if err := st.WithTx(ctx, func(tx *store.Tx) error {
		f, err := tx.FileByID(file.ID)
		if err != nil {
			return err
		}
		f.PendingTakeover = false
		return tx.UpdateWorkflow(f)
	}); err != nil {
		t.Fatalf("first update: %v", err)
	}

	err = st.WithTx(ctx, func(tx *store.Tx) error {
		stale.PendingTakeover = true
		return tx.UpdateWorkflow(stale)
	})
	if err == nil {
		t.Fatal("expected stale update to fail")
	}
}

func TestUnclaimedPreRepro(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a := testsupport.NewFile(t, st, cfg, "Unclaimed")
	b := testsupport.NewFile(t, st, cfg, "Claimed")

	err := st.WithTx(ctx, func(tx *store.Tx) error {
		claimed, err := tx.ClaimFile(b.ID, 7)
		if err != nil {
			return err
		}
		if !claimed {
			t.Fatal("expected claim to succeed")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	queue, err := st.UnclaimedPreRepro(ctx)
	if err != nil {
		t.Fatalf("UnclaimedPreRepro: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != a.ID {
		t.Fatalf("expected only the unclaimed file, got %#v", queue)
	}
}

func TestPendingTakeoverInDepartment(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	file := testsupport.NewFile(t, st, cfg, "Waiting")
	repro := testsupport.MustDepartment(t, st, store.DeptRepro)

	err := st.WithTx(ctx, func(tx *store.Tx) error {
		f, err := tx.FileByID(file.ID)
		if err != nil {
			return err
		}
		designer := int64(3)
		f.Status = store.StatusAssigned
		f.Stage = store.StageRepro
		f.CurrentDepartmentID = &repro.ID
		f.AssignedDesignerID = &designer
		f.PendingTakeover = true
		return tx.UpdateWorkflow(f)
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	pending, err := st.PendingTakeoverInDepartment(ctx, store.DeptRepro)
	if err != nil {
		t.Fatalf("PendingTakeoverInDepartment: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != file.ID {
		t.Fatalf("expected the waiting file in repro, got %#v", pending)
	}

	elsewhere, err := st.PendingTakeoverInDepartment(ctx, store.DeptQuality)
	if err != nil {
		t.Fatalf("PendingTakeoverInDepartment quality: %v", err)
	}
	if len(elsewhere) != 0 {
		t.Fatalf("expected no pending files in quality, got %d", len(elsewhere))
	}
}

func TestStatusStageMapping(t *testing.T) {
	for _, status := range store.AllStatuses() {
		stage := store.StageFor(status)
		switch status {
		case store.StatusAwaitingAssignment:
			if stage != store.StagePreRepro {
				t.Fatalf("%s: expected pre_repro stage, got %s", status, stage)
			}
		case store.StatusSentToProduction:
			if stage != store.StageDone {
				t.Fatalf("%s: expected done stage, got %s", status, stage)
			}
		default:
			if stage != store.StageRepro {
				t.Fatalf("%s: expected repro stage, got %s", status, stage)
			}
		}
	}

	if dept := store.DepartmentCodeFor(store.StatusSentToProduction); dept != "" {
		t.Fatalf("terminal status should have no department, got %q", dept)
	}
	if status, ok := store.ArrivalStatusFor(store.DeptQuality); !ok || status != store.StatusInQuality {
		t.Fatalf("unexpected arrival status for quality: %s %v", status, ok)
	}
	if _, ok := store.ArrivalStatusFor(store.DeptCustomer); ok {
		t.Fatal("customer department should have no arrival status")
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := store.ParseStatus(" In_Repro "); !ok || status != store.StatusInRepro {
		t.Fatalf("ParseStatus normalization failed: %s %v", status, ok)
	}
	if _, ok := store.ParseStatus("bogus"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}
