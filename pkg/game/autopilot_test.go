package game

import (
	"math/rand"
	"testing"

	"github.com/trytobebee/snake_io/pkg/config"
)

func TestBestMoveTowardsApple(t *testing.T) {
	tests := []struct {
		name  string
		apple Point
		want  Direction
	}{
		{"ahead", Point{X: 15, Y: 10}, Right},
		{"above", Point{X: 10, Y: 4}, Up},
		{"below", Point{X: 10, Y: 16}, Down},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame()
			g.Apple = tt.apple
			if got := g.BestMove(); got != tt.want {
				t.Errorf("BestMove() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBestMoveAvoidsWallAndBody(t *testing.T) {
	g := newTestGame()
	g.Apple = Point{X: 0, Y: 0}
	g.Snake = []Point{{X: config.TileCount - 1, Y: 5}, {X: config.TileCount - 1, Y: 6}, {X: config.TileCount - 2, Y: 6}}
	g.Direction = Up
	g.PendingDirection = Up

	got := g.BestMove()
	next := g.Head().Add(got.Delta())
	if !g.isSafe(next) {
		t.Errorf("BestMove() = %v leads into %v which is not safe", got, next)
	}
	if got == Right {
		t.Error("BestMove() walked into the right wall")
	}
}

func TestBestMoveNeverReverses(t *testing.T) {
	for _, d := range Directions {
		g := newTestGame()
		g.Direction = d
		g.Apple = g.Head().Add(d.Opposite().Delta())
		if got := g.BestMove(); got == d.Opposite() {
			t.Errorf("BestMove() reversed from %v", d)
		}
	}
}

func TestAutoPlayEatsApple(t *testing.T) {
	g := NewGame(config.TileCount, config.TileCount, rand.New(rand.NewSource(7)))
	g.ToggleAutoPlay()

	for i := 0; i < 100 && g.Score == 0; i++ {
		g.Tick()
		if g.Status != Running {
			t.Fatalf("Autopilot crashed at tick %d on %v", i, g.CrashPoint)
		}
	}
	if g.Score == 0 {
		t.Error("Autopilot did not reach the first apple within 100 ticks")
	}
	t.Logf("First apple after %d ticks", g.Ticks)
}

func TestCountReachableSpace(t *testing.T) {
	g := newTestGame()
	g.Snake = []Point{{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 2}}

	// {0,0} is boxed in by the head and the body
	if got := g.countReachableSpace(Point{X: 0, Y: 0}); got != 1 {
		t.Errorf("Expected 1 reachable cell, got %d", got)
	}

	// Everything but three body cells and the boxed corner
	want := config.TileCount*config.TileCount - 4
	if got := g.countReachableSpace(Point{X: 10, Y: 10}); got != want {
		t.Errorf("Expected %d reachable cells, got %d", want, got)
	}
}

func BenchmarkBestMove(b *testing.B) {
	g := NewGame(config.TileCount, config.TileCount, rand.New(rand.NewSource(1)))
	for x := 10; x > 0; x-- {
		g.Snake = append(g.Snake, Point{X: x - 1, Y: 10})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.BestMove()
	}
}
