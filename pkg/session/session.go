// Package session drives a game: it owns the ticker, feeds intents from
// input sources into the game and hands snapshots to a renderer.
package session

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/trytobebee/snake_io/pkg/config"
	"github.com/trytobebee/snake_io/pkg/game"
)

// ErrStopped is returned by Submit once the session loop has exited
var ErrStopped = errors.New("session stopped")

// Ticker delivers ticks until stopped. *time.Ticker is adapted by NewTicker.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a ticker firing every d
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTicker is the TickerFunc backed by time.Ticker
func NewTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Renderer draws a snapshot of the game
type Renderer interface {
	Render(s game.GameState)
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(s game.GameState)

func (f RendererFunc) Render(s game.GameState) { f(s) }

// Options tune a session. Zero values pick the defaults.
type Options struct {
	ID        string
	Interval  time.Duration // defaults to config.TickInterval
	NewTicker TickerFunc    // defaults to NewTicker
	Logger    *log.Logger   // defaults to a discarding logger
}

// Session owns a game and runs its loop on a single goroutine
type Session struct {
	id        string
	game      *game.Game
	renderer  Renderer
	interval  time.Duration
	newTicker TickerFunc
	logger    *log.Logger

	intents chan game.Intent
	done    chan struct{}
}

// New creates a session for g. The game must not be touched by anyone else
// once Run has been called.
func New(g *game.Game, r Renderer, opts Options) *Session {
	if opts.Interval <= 0 {
		opts.Interval = config.TickInterval
	}
	if opts.NewTicker == nil {
		opts.NewTicker = NewTicker
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}

	s := &Session{
		id:        opts.ID,
		game:      g,
		renderer:  r,
		interval:  opts.Interval,
		newTicker: opts.NewTicker,
		logger:    opts.Logger,
		intents:   make(chan game.Intent),
		done:      make(chan struct{}),
	}

	g.OnGameOver(func(ev game.GameOverEvent) {
		s.logger.Printf("game over: score=%d high=%d length=%d ticks=%d", ev.Score, ev.HighScore, ev.Length, ev.Ticks)
	})
	return s
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// OnGameOver registers fn on the underlying game. It runs on the session
// goroutine and must be registered before Run.
func (s *Session) OnGameOver(fn game.GameOverFunc) {
	s.game.OnGameOver(fn)
}

// Submit hands an intent to the session loop. It blocks until the loop takes
// it, ctx is done or the loop has exited.
func (s *Session) Submit(ctx context.Context, in game.Intent) error {
	select {
	case s.intents <- in:
		return nil
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives the game until ctx is cancelled. Ticks stop while the game is
// over and start again on restart.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)

	var ticker Ticker
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
		}
	}
	startTicker := func() {
		stopTicker()
		ticker = s.newTicker(s.interval)
	}
	defer stopTicker()

	if s.game.Status != game.Over {
		startTicker()
	}
	s.logger.Printf("started, tick every %v", s.interval)
	s.render()

	for {
		var tickC <-chan time.Time
		if ticker != nil {
			tickC = ticker.C()
		}

		select {
		case <-ctx.Done():
			s.logger.Println("stopped:", ctx.Err())
			return ctx.Err()

		case in := <-s.intents:
			changed := s.game.Apply(in)
			if in.Action == game.ActionRestart {
				startTicker()
			}
			if changed {
				s.render()
			}

		case <-tickC:
			res := s.game.Tick()
			if res.Collided {
				stopTicker()
				s.render()
				continue
			}
			if s.game.Status == game.Running {
				s.render()
			}
		}
	}
}

func (s *Session) render() {
	if s.renderer != nil {
		s.renderer.Render(s.game.GetGameStateSnapshot())
	}
}
