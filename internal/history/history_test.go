package history_test

import (
	"context"
	"testing"
	"time"

	"procdeck/internal/domain"
	"procdeck/internal/history"
	"procdeck/internal/session"
)

func testWriter(t *testing.T) history.Writer {
	t.Helper()
	s, err := session.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	n := 0
	return history.Writer{DB: s.DB, Now: func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}}
}

func TestAppendAndTailNewestFirst(t *testing.T) {
	w := testWriter(t)
	ctx := context.Background()
	if err := w.Append(ctx, "kanban.move", domain.TypePMBOK, 1, "", history.Payload{"to": "todo"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Append(ctx, "itto.save", domain.TypeScrum, 5, "co", history.Payload{"category": "inputs"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries, err := w.Tail(ctx, 10, "")
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Action != "itto.save" || entries[1].Action != "kanban.move" {
		t.Fatalf("expected newest first: %+v", entries)
	}
	if entries[0].CountryCode != "co" || entries[0].ProcessType != domain.TypeScrum {
		t.Fatalf("entry fields wrong: %+v", entries[0])
	}
}

func TestTailFiltersByActionAndLimits(t *testing.T) {
	w := testWriter(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := w.Append(ctx, "kanban.move", domain.TypePMBOK, i, "", nil); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := w.Append(ctx, "sprint.advance", domain.TypeScrum, 0, "", nil); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries, err := w.Tail(ctx, 3, "kanban.move")
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Action != "kanban.move" {
			t.Fatalf("filter leaked: %+v", e)
		}
	}
	if entries[0].ProcessID != 4 {
		t.Fatalf("expected the latest move first: %+v", entries[0])
	}
}
