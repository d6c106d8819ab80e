package config

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"time"
)

// Board geometry. The browser canvas is BoardPixels wide and every cell is
// GridSize pixels, which gives TileCount cells per axis.
const (
	GridSize    = 20
	BoardPixels = 400
	TileCount   = BoardPixels / GridSize
)

// Game rules
const (
	TickInterval = 100 * time.Millisecond
	AppleScore   = 10

	StartX      = 10
	StartY      = 10
	StartAppleX = 5
	StartAppleY = 5
)

// Board size limits accepted by Settings.Validate
const (
	MinTiles = StartX + 2
	MaxTiles = 200
)

// Characters for terminal rendering
const (
	CharEmpty = "  " // Two spaces to match emoji width
	CharWall  = "⬜"
	CharHead  = "🟢"
	CharBody  = "🟩"
	CharApple = "🍎"
	CharCrash = "💥"
)

var (
	ErrInvalidBoard = errors.New("invalid board size")
	ErrInvalidTick  = errors.New("invalid tick interval")
)

// Settings are the runtime knobs shared by the terminal and web frontends.
type Settings struct {
	Width        int           // board width in cells
	Height       int           // board height in cells
	TickInterval time.Duration // time between two snake moves
	Seed         int64         // apple RNG seed, 0 picks one from the clock
	AutoPlay     bool          // start with the autopilot steering
	Addr         string        // listen address for the web server
}

// Default returns the settings of the original 400x400 canvas.
func Default() Settings {
	return Settings{
		Width:        TileCount,
		Height:       TileCount,
		TickInterval: TickInterval,
		Addr:         ":8080",
	}
}

// Validate checks that the board can hold the starting snake and apple.
func (s Settings) Validate() error {
	if s.Width < MinTiles || s.Width > MaxTiles {
		return fmt.Errorf("%w: width %d not in [%d, %d]", ErrInvalidBoard, s.Width, MinTiles, MaxTiles)
	}
	if s.Height < MinTiles || s.Height > MaxTiles {
		return fmt.Errorf("%w: height %d not in [%d, %d]", ErrInvalidBoard, s.Height, MinTiles, MaxTiles)
	}
	if s.TickInterval <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTick, s.TickInterval)
	}
	return nil
}

// RegisterFlags binds the settings to command line flags on fs.
func (s *Settings) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&s.Width, "width", s.Width, "board width in cells")
	fs.IntVar(&s.Height, "height", s.Height, "board height in cells")
	fs.DurationVar(&s.TickInterval, "tick", s.TickInterval, "time between snake moves")
	fs.Int64Var(&s.Seed, "seed", s.Seed, "apple RNG seed (0 = time based)")
	fs.BoolVar(&s.AutoPlay, "auto", s.AutoPlay, "let the autopilot steer")
	fs.StringVar(&s.Addr, "addr", s.Addr, "web server listen address")
}

// ApplyEnv overrides settings from SNAKE_* environment variables. lookup is
// usually os.LookupEnv.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("SNAKE_WIDTH"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SNAKE_WIDTH: %w", err)
		}
		s.Width = n
	}
	if v, ok := lookup("SNAKE_HEIGHT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SNAKE_HEIGHT: %w", err)
		}
		s.Height = n
	}
	if v, ok := lookup("SNAKE_TICK"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SNAKE_TICK: %w", err)
		}
		s.TickInterval = d
	}
	if v, ok := lookup("SNAKE_SEED"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("SNAKE_SEED: %w", err)
		}
		s.Seed = n
	}
	if v, ok := lookup("SNAKE_ADDR"); ok {
		s.Addr = v
	}
	return nil
}
