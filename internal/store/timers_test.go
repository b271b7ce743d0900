package store_test

import (
	"context"
	"errors"
	"testing"

	"inkflow/internal/faults"
	"inkflow/internal/store"
	"inkflow/internal/testsupport"
)

func TestTimerSingleActive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	file := testsupport.NewFile(t, st, cfg, "Timed")
	repro := testsupport.MustDepartment(t, st, store.DeptRepro)
	user := int64(5)

	timer, err := st.StartTimer(ctx, file.ID, repro.ID, &user)
	if err != nil {
		t.Fatalf("StartTimer: %v", err)
	}
	if timer.EndedAt != nil {
		t.Fatal("expected open timer")
	}

	if _, err := st.StartTimer(ctx, file.ID, repro.ID, &user); !errors.Is(err, faults.ErrConflict) {
		t.Fatalf("expected conflict on second start, got %v", err)
	}

	stopped, err := st.StopTimer(ctx, file.ID, &user)
	if err != nil {
		t.Fatalf("StopTimer: %v", err)
	}
	if stopped.EndedAt == nil || stopped.DurationSeconds == nil {
		t.Fatalf("expected closed timer with duration, got %#v", stopped)
	}
	want := int64(stopped.EndedAt.Sub(stopped.StartedAt).Seconds())
	if *stopped.DurationSeconds != want {
		t.Fatalf("expected duration %d, got %d", want, *stopped.DurationSeconds)
	}

	if _, err := st.StopTimer(ctx, file.ID, &user); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected not-found stopping idle file, got %v", err)
	}
}

func TestTimerNullUserForCustomerDepartment(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	file := testsupport.NewFile(t, st, cfg, "At Customer")
	customer := testsupport.MustDepartment(t, st, store.DeptCustomer)

	timer, err := st.StartTimer(ctx, file.ID, customer.ID, nil)
	if err != nil {
		t.Fatalf("StartTimer: %v", err)
	}
	if timer.UserID != nil {
		t.Fatalf("expected customer timer without user, got %v", *timer.UserID)
	}

	active, err := st.ActiveTimer(ctx, file.ID)
	if err != nil {
		t.Fatalf("ActiveTimer: %v", err)
	}
	if active == nil || active.ID != timer.ID || active.UserID != nil {
		t.Fatalf("unexpected active timer: %#v", active)
	}
}

func TestActiveTimerEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	file := testsupport.NewFile(t, st, cfg, "Idle")
	active, err := st.ActiveTimer(context.Background(), file.ID)
	if err != nil {
		t.Fatalf("ActiveTimer: %v", err)
	}
	if active != nil {
		t.Fatalf("expected no active timer, got %#v", active)
	}
}

func TestTimersForFileHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	file := testsupport.NewFile(t, st, cfg, "History")
	repro := testsupport.MustDepartment(t, st, store.DeptRepro)
	quality := testsupport.MustDepartment(t, st, store.DeptQuality)
	user := int64(5)

	if _, err := st.StartTimer(ctx, file.ID, repro.ID, &user); err != nil {
		t.Fatalf("StartTimer repro: %v", err)
	}
	if _, err := st.StopTimer(ctx, file.ID, &user); err != nil {
		t.Fatalf("StopTimer repro: %v", err)
	}
	if _, err := st.StartTimer(ctx, file.ID, quality.ID, &user); err != nil {
		t.Fatalf("StartTimer quality: %v", err)
	}

	timers, err := st.TimersForFile(ctx, file.ID)
	if err != nil {
		t.Fatalf("TimersForFile: %v", err)
	}
	if len(timers) != 2 {
		t.Fatalf("expected 2 timers, got %d", len(timers))
	}
	if timers[0].EndedAt == nil || timers[1].EndedAt != nil {
		t.Fatalf("expected closed then open timer, got %#v", timers)
	}
}
