package prerepro_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"inkflow/internal/faults"
	"inkflow/internal/prerepro"
	"inkflow/internal/store"
	"inkflow/internal/testsupport"
)

func TestClaimRace(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	queue := prerepro.NewQueue(st, cfg, nil)

	file := testsupport.NewFile(t, st, cfg, "Contested")
	users := []int64{101, 102}
	errs := make([]error, len(users))

	var wg sync.WaitGroup
	for i, user := range users {
		wg.Add(1)
		go func(i int, user int64) {
			defer wg.Done()
			_, errs[i] = queue.Claim(context.Background(), file.ID, user)
		}(i, user)
	}
	wg.Wait()

	var winner *int64
	losers := 0
	for i, err := range errs {
		switch {
		case err == nil:
			if winner != nil {
				t.Fatal("both claimants succeeded")
			}
			winner = &users[i]
		case errors.Is(err, faults.ErrAlreadyClaimed):
			losers++
		default:
			t.Fatalf("unexpected claim error: %v", err)
		}
	}
	if winner == nil || losers != 1 {
		t.Fatalf("expected one winner and one already-claimed loser, got winner=%v losers=%d", winner, losers)
	}

	final, err := st.GetFile(context.Background(), file.ID)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if final.AssignedDesignerID == nil || *final.AssignedDesignerID != *winner {
		t.Fatalf("expected assignee %d, got %v", *winner, final.AssignedDesignerID)
	}
}

func TestClaimNonIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	queue := prerepro.NewQueue(st, cfg, nil)

	ctx := context.Background()
	file := testsupport.NewFile(t, st, cfg, "Once Only")

	if _, err := queue.Claim(ctx, file.ID, 7); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	// The conditional update requires a null assignee, which is false after
	// the first success even for the same claimant.
	if _, err := queue.Claim(ctx, file.ID, 7); !errors.Is(err, faults.ErrAlreadyClaimed) {
		t.Fatalf("expected already-claimed on repeat, got %v", err)
	}
}

func TestClaimOpensTimer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	queue := prerepro.NewQueue(st, cfg, nil)

	ctx := context.Background()
	file := testsupport.NewFile(t, st, cfg, "Claimed Work")
	user := int64(7)

	claimed, err := queue.Claim(ctx, file.ID, user)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if claimed.PendingTakeover {
		t.Fatal("expected pending takeover cleared after claim")
	}

	timer, err := st.ActiveTimer(ctx, file.ID)
	if err != nil {
		t.Fatalf("ActiveTimer: %v", err)
	}
	if timer == nil || timer.UserID == nil || *timer.UserID != user {
		t.Fatalf("expected open timer for claimant, got %#v", timer)
	}
}

func TestCompleteRequiresClaim(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	queue := prerepro.NewQueue(st, cfg, nil)

	ctx := context.Background()
	file := testsupport.NewFile(t, st, cfg, "Unclaimed")

	if _, err := queue.Complete(ctx, file.ID, 7); !errors.Is(err, faults.ErrNotOwner) {
		t.Fatalf("expected not-owner for unclaimed file, got %v", err)
	}

	if _, err := queue.Claim(ctx, file.ID, 7); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if _, err := queue.Complete(ctx, file.ID, 8); !errors.Is(err, faults.ErrNotOwner) {
		t.Fatalf("expected not-owner for non-claimant, got %v", err)
	}
}

func TestHandoffDestination(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFallbackAssignee(500))
	st := testsupport.MustOpenStore(t, cfg)
	queue := prerepro.NewQueue(st, cfg, nil)
	ctx := context.Background()

	targeted := testsupport.NewFile(t, st, cfg, "Targeted", testsupport.WithTarget(42))
	if _, err := queue.Claim(ctx, targeted.ID, 7); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	handed, err := queue.Complete(ctx, targeted.ID, 7)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if handed.AssignedDesignerID == nil || *handed.AssignedDesignerID != 42 {
		t.Fatalf("expected target assignee 42, got %v", handed.AssignedDesignerID)
	}
	if handed.Stage != store.StageRepro || handed.Status != store.StatusAssigned || !handed.PendingTakeover {
		t.Fatalf("unexpected post-handoff state: %+v", handed)
	}

	untargeted := testsupport.NewFile(t, st, cfg, "Untargeted")
	if _, err := queue.Claim(ctx, untargeted.ID, 7); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	handed, err = queue.Complete(ctx, untargeted.ID, 7)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if handed.AssignedDesignerID == nil || *handed.AssignedDesignerID != 500 {
		t.Fatalf("expected fallback assignee 500, got %v", handed.AssignedDesignerID)
	}
}

func TestHandoffIsNotRepeatable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	queue := prerepro.NewQueue(st, cfg, nil)
	ctx := context.Background()

	file := testsupport.NewFile(t, st, cfg, "One Way", testsupport.WithTarget(7))
	if _, err := queue.Claim(ctx, file.ID, 7); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if _, err := queue.Complete(ctx, file.ID, 7); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	// The stage is no longer pre-repro, so a second handoff cannot apply.
	if _, err := queue.Complete(ctx, file.ID, 7); !errors.Is(err, faults.ErrInvalidState) {
		t.Fatalf("expected invalid-state on repeat handoff, got %v", err)
	}
}

func TestReturnToQueue(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	queue := prerepro.NewQueue(st, cfg, nil)
	ctx := context.Background()

	file := testsupport.NewFile(t, st, cfg, "Boomerang")

	if _, err := queue.ReturnToQueue(ctx, file.ID, 7); !errors.Is(err, faults.ErrNotOwner) {
		t.Fatalf("expected not-owner returning an unclaimed file, got %v", err)
	}

	if _, err := queue.Claim(ctx, file.ID, 7); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	returned, err := queue.ReturnToQueue(ctx, file.ID, 7)
	if err != nil {
		t.Fatalf("ReturnToQueue: %v", err)
	}
	if returned.AssignedDesignerID != nil {
		t.Fatalf("expected cleared assignee, got %v", *returned.AssignedDesignerID)
	}
	if returned.Stage != store.StagePreRepro {
		t.Fatalf("expected stage preserved, got %s", returned.Stage)
	}
	if !returned.PendingTakeover {
		t.Fatal("expected file claimable again")
	}

	timer, err := st.ActiveTimer(ctx, file.ID)
	if err != nil {
		t.Fatalf("ActiveTimer: %v", err)
	}
	if timer != nil {
		t.Fatalf("expected claimant's timer closed, got %#v", timer)
	}

	// Somebody else can now claim it.
	if _, err := queue.Claim(ctx, file.ID, 8); err != nil {
		t.Fatalf("re-claim after return: %v", err)
	}

	queued, err := st.UnclaimedPreRepro(ctx)
	if err != nil {
		t.Fatalf("UnclaimedPreRepro: %v", err)
	}
	if len(queued) != 0 {
		t.Fatalf("expected empty queue, got %d files", len(queued))
	}
}
