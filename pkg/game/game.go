package game

import (
	"math/rand"
	"time"

	"github.com/trytobebee/snake_io/pkg/config"
)

// RandomSource picks apple positions. *rand.Rand satisfies it.
type RandomSource interface {
	Intn(n int) int
}

// GameOverFunc receives the final result of a game
type GameOverFunc func(GameOverEvent)

// Game represents the main game state
type Game struct {
	Width  int
	Height int

	Snake            []Point   // head first, never empty
	Direction        Direction // committed direction, used by the last tick
	PendingDirection Direction // applied at the start of the next tick
	Apple            Point
	Score            int
	HighScore        int // survives Restart
	Status           Status
	AutoPlay         bool  // autopilot picks the pending direction each tick
	Ticks            int   // moves made in the current game
	CrashPoint       Point // head position at game over

	rng        RandomSource
	onGameOver []GameOverFunc
}

// NewGame creates a game on a width x height board. Sides smaller than
// config.MinTiles, which could not hold the starting snake, are raised to it.
// A nil rng is replaced by a time seeded one.
func NewGame(width, height int, rng RandomSource) *Game {
	width = max(width, config.MinTiles)
	height = max(height, config.MinTiles)
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	g := &Game{
		Width:  width,
		Height: height,
		rng:    rng,
	}
	g.reset()
	return g
}

// reset puts every per-game field back to its starting value
func (g *Game) reset() {
	g.Snake = []Point{{X: config.StartX, Y: config.StartY}}
	g.Direction = Right
	g.PendingDirection = Right
	g.Apple = Point{X: config.StartAppleX, Y: config.StartAppleY}
	g.Score = 0
	g.Ticks = 0
	g.CrashPoint = Point{}
	g.Status = Running
}

// OnGameOver registers fn to be called on every game over
func (g *Game) OnGameOver(fn GameOverFunc) {
	g.onGameOver = append(g.onGameOver, fn)
}

// SetDirection records the direction for the next tick. A request for the
// reverse of the committed direction is ignored and reports false.
func (g *Game) SetDirection(d Direction) bool {
	if !d.Valid() || d == g.Direction.Opposite() {
		return false
	}
	g.PendingDirection = d
	return true
}

// Tick advances the game by one move
func (g *Game) Tick() TickResult {
	if g.Status != Running {
		return TickResult{}
	}

	if g.AutoPlay {
		g.SetDirection(g.BestMove())
	}

	// The pending direction only becomes effective here, so two quick key
	// presses between ticks can never fold the head back onto the neck.
	g.Direction = g.PendingDirection
	g.Ticks++

	newHead := g.Snake[0].Add(g.Direction.Delta())
	g.Snake = append([]Point{newHead}, g.Snake...)

	res := TickResult{Moved: true}
	if newHead == g.Apple {
		g.Score += config.AppleScore
		g.Apple = g.randomCell()
		res.Ate = true
	}

	// Checked before the tail is dropped: the cell the tail leaves this tick
	// still counts as body.
	res.Collided = g.collides(newHead)

	if !res.Ate {
		g.Snake = g.Snake[:len(g.Snake)-1]
	}

	if res.Collided {
		g.gameOver(newHead)
	}
	return res
}

// collides checks head against the walls and every segment behind it
func (g *Game) collides(head Point) bool {
	if !g.InBounds(head) {
		return true
	}
	for _, s := range g.Snake[1:] {
		if s == head {
			return true
		}
	}
	return false
}

// InBounds reports whether p lies on the board
func (g *Game) InBounds(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.Width && p.Y < g.Height
}

// randomCell returns a uniformly random cell. It may land on the snake.
func (g *Game) randomCell() Point {
	return Point{X: g.rng.Intn(g.Width), Y: g.rng.Intn(g.Height)}
}

// gameOver ends the game and notifies listeners. HighScore only changes here.
func (g *Game) gameOver(crash Point) {
	g.Status = Over
	g.CrashPoint = crash

	newRecord := false
	if g.Score > g.HighScore {
		g.HighScore = g.Score
		newRecord = true
	}

	ev := GameOverEvent{
		Score:      g.Score,
		HighScore:  g.HighScore,
		NewRecord:  newRecord,
		Length:     len(g.Snake),
		Ticks:      g.Ticks,
		CrashPoint: crash,
	}
	for _, fn := range g.onGameOver {
		fn(ev)
	}
}

// Pause stops a running game
func (g *Game) Pause() {
	if g.Status == Running {
		g.Status = Paused
	}
}

// Resume continues a paused game
func (g *Game) Resume() {
	if g.Status == Paused {
		g.Status = Running
	}
}

// TogglePause toggles the pause state. It has no effect once the game is over.
func (g *Game) TogglePause() {
	switch g.Status {
	case Running:
		g.Pause()
	case Paused:
		g.Resume()
	}
}

// Restart finishes the current game, if it is still going, and starts a new
// one. HighScore and AutoPlay are kept.
func (g *Game) Restart() {
	if g.Status != Over {
		g.gameOver(g.Snake[0])
	}
	g.reset()
}

// ToggleAutoPlay toggles the autopilot
func (g *Game) ToggleAutoPlay() {
	g.AutoPlay = !g.AutoPlay
}

// Head returns the first segment of the snake
func (g *Game) Head() Point {
	return g.Snake[0]
}

// GetGameStateSnapshot returns a copy of the current game state. The snake
// slice is copied so the snapshot can leave the owning goroutine.
func (g *Game) GetGameStateSnapshot() GameState {
	snake := make([]Point, len(g.Snake))
	copy(snake, g.Snake)

	return GameState{
		Width:     g.Width,
		Height:    g.Height,
		Snake:     snake,
		Apple:     g.Apple,
		Direction: g.Direction,
		Score:     g.Score,
		HighScore: g.HighScore,
		Status:    g.Status,
		AutoPlay:  g.AutoPlay,
		Ticks:     g.Ticks,
	}
}
