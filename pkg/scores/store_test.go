package scores

import (
	"context"
	"testing"

	"github.com/trytobebee/snake_io/pkg/game"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEmptySummary(t *testing.T) {
	s := openTestStore(t)

	sum, err := s.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.Games != 0 || sum.Best != 0 || sum.Average != 0 {
		t.Errorf("Expected empty summary, got %+v", sum)
	}
}

func TestRecordAndQuery(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	games := []struct {
		session string
		ev      game.GameOverEvent
	}{
		{"a", game.GameOverEvent{Score: 30, Length: 4, Ticks: 80, NewRecord: true}},
		{"b", game.GameOverEvent{Score: 50, Length: 6, Ticks: 120, NewRecord: true}},
		{"a", game.GameOverEvent{Score: 10, Length: 2, Ticks: 40}},
		{"a", game.GameOverEvent{Score: 50, Length: 6, Ticks: 200}},
	}
	for _, g := range games {
		if _, err := s.Record(ctx, g.session, g.ev); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	sum, err := s.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.Games != 4 || sum.Best != 50 || sum.Average != 35 {
		t.Errorf("Unexpected summary %+v", sum)
	}

	recent, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 || recent[0].Ticks != 200 || recent[1].Ticks != 40 {
		t.Errorf("Unexpected recent results %+v", recent)
	}

	top, err := s.Top(ctx, 3)
	if err != nil {
		t.Fatalf("Top failed: %v", err)
	}
	if len(top) != 3 || top[0].Session != "b" || top[1].Ticks != 200 || top[2].Score != 30 {
		t.Errorf("Unexpected top results %+v", top)
	}
	if !top[0].NewRecord || top[1].NewRecord {
		t.Errorf("NewRecord flags not kept: %+v", top)
	}

	mine, err := s.BySession(ctx, "a")
	if err != nil {
		t.Fatalf("BySession failed: %v", err)
	}
	if len(mine) != 3 || mine[0].Score != 30 {
		t.Errorf("Unexpected session results %+v", mine)
	}
	if mine[0].EndedAt.IsZero() {
		t.Error("EndedAt should be set")
	}
}

func TestStoresAreIndependent(t *testing.T) {
	ctx := context.Background()
	s1 := openTestStore(t)
	s2 := openTestStore(t)

	if _, err := s1.Record(ctx, "x", game.GameOverEvent{Score: 10}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	sum, err := s2.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.Games != 0 {
		t.Errorf("Second store should be empty, got %+v", sum)
	}
}
