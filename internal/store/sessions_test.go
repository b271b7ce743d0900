package store_test

import (
	"context"
	"errors"
	"testing"

	"inkflow/internal/faults"
	"inkflow/internal/store"
	"inkflow/internal/testsupport"
)

func TestSessionAutoCloseOnSwitch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	fileA := testsupport.NewFile(t, st, cfg, "File A")
	fileB := testsupport.NewFile(t, st, cfg, "File B")
	repro := testsupport.MustDepartment(t, st, store.DeptRepro)
	user := int64(11)

	first, err := st.StartSession(ctx, user, fileA.ID, repro.ID)
	if err != nil {
		t.Fatalf("StartSession A: %v", err)
	}

	second, err := st.StartSession(ctx, user, fileB.ID, repro.ID)
	if err != nil {
		t.Fatalf("StartSession B: %v", err)
	}
	if second.FileID != fileB.ID {
		t.Fatalf("expected open session on B, got file %d", second.FileID)
	}

	// The first session must now be closed; the user never holds two.
	sessions, err := st.SessionsForFile(ctx, fileA.ID)
	if err != nil {
		t.Fatalf("SessionsForFile: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != first.ID {
		t.Fatalf("unexpected sessions on A: %#v", sessions)
	}
	if sessions[0].EndedAt == nil || sessions[0].DurationMinutes == nil {
		t.Fatalf("expected session on A closed with duration, got %#v", sessions[0])
	}

	open, err := st.OpenSession(ctx, user)
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	if open == nil || open.ID != second.ID {
		t.Fatalf("expected session on B open, got %#v", open)
	}
}

func TestStopSessionWithoutOpen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	if _, err := st.StopSession(context.Background(), 77); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestOpenSessionPerUserScope(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	file := testsupport.NewFile(t, st, cfg, "Shared")
	repro := testsupport.MustDepartment(t, st, store.DeptRepro)

	if _, err := st.StartSession(ctx, 1, file.ID, repro.ID); err != nil {
		t.Fatalf("StartSession user 1: %v", err)
	}
	// A different user on the same file is unaffected by user 1's session.
	if _, err := st.StartSession(ctx, 2, file.ID, repro.ID); err != nil {
		t.Fatalf("StartSession user 2: %v", err)
	}

	for _, user := range []int64{1, 2} {
		open, err := st.OpenSession(ctx, user)
		if err != nil {
			t.Fatalf("OpenSession %d: %v", user, err)
		}
		if open == nil || open.FileID != file.ID {
			t.Fatalf("expected open session for user %d, got %#v", user, open)
		}
	}
}
