package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/trytobebee/snake_io/pkg/config"
	"github.com/trytobebee/snake_io/pkg/game"
	"github.com/trytobebee/snake_io/pkg/input"
	"github.com/trytobebee/snake_io/pkg/renderer"
	"github.com/trytobebee/snake_io/pkg/scores"
	"github.com/trytobebee/snake_io/pkg/session"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	settings := config.Default()
	if err := settings.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}
	settings.RegisterFlags(flag.CommandLine)
	flag.Parse()
	if err := settings.Validate(); err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("snake needs an interactive terminal")
	}
	// Every cell is two columns wide, plus the walls and the indent
	if cols, rows, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		if cols < (settings.Width+2)*2+2 || rows < settings.Height+10 {
			log.Printf("terminal is %dx%d, the board may not fit", cols, rows)
		}
	}

	seed := settings.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := scores.Open(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	// Initialize input handler
	inputHandler := input.NewKeyboardHandler()
	if err := inputHandler.Start(); err != nil {
		return fmt.Errorf("error opening keyboard: %w", err)
	}
	defer inputHandler.Stop()

	// Initialize renderer
	render := renderer.NewTerminalRenderer(settings.Width, settings.Height)
	render.HideCursor()
	defer render.ShowCursor()

	g := game.NewGame(settings.Width, settings.Height, rand.New(rand.NewSource(seed)))
	g.AutoPlay = settings.AutoPlay

	id := uuid.NewString()
	sess := session.New(g, render, session.Options{
		ID:       id,
		Interval: settings.TickInterval,
	})
	sess.OnGameOver(func(ev game.GameOverEvent) {
		if _, err := store.Record(ctx, id, ev); err != nil {
			log.Println("record result:", err)
		}
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return sess.Run(ctx)
	})

	// Keyboard pump: quit cancels everything, other keys become intents
	eg.Go(func() error {
		keys := inputHandler.GetInputChan()
		for {
			select {
			case <-ctx.Done():
				return nil
			case key, ok := <-keys:
				if !ok || input.IsQuit(key) {
					cancel()
					return nil
				}
				in, ok := input.ParseIntent(key)
				if !ok {
					continue
				}
				if err := sess.Submit(ctx, in); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
			}
		}
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	played, err := store.BySession(context.Background(), id)
	if err != nil {
		return err
	}
	best := 0
	for _, r := range played {
		best = max(best, r.Score)
	}
	fmt.Printf("\n  Thanks for playing! 👋  Games: %d  |  Best: %d\n", len(played), best)
	return nil
}
