package optimistic_test

import (
	"context"
	"errors"
	"testing"

	"procdeck/internal/optimistic"
)

func TestRunKeepsStateOnSuccess(t *testing.T) {
	state := "before"
	err := optimistic.Run(context.Background(),
		func() { state = "after" },
		func() { state = "before" },
		func(context.Context) error { return nil },
	)
	if err != nil || state != "after" {
		t.Fatalf("state=%q err=%v", state, err)
	}
}

func TestRunRollsBackOnFailure(t *testing.T) {
	state := "before"
	boom := errors.New("boom")
	err := optimistic.Run(context.Background(),
		func() { state = "after" },
		func() { state = "before" },
		func(context.Context) error { return boom },
	)
	if !errors.Is(err, boom) {
		t.Fatalf("expected persist error, got %v", err)
	}
	if state != "before" {
		t.Fatalf("state=%q, want rollback", state)
	}
}
