package renderer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/trytobebee/snake_io/pkg/config"
	"github.com/trytobebee/snake_io/pkg/game"
)

// TerminalRenderer handles terminal-based rendering
type TerminalRenderer struct {
	out    io.Writer
	board  [][]int
	buffer strings.Builder
}

// Cell types for the board
const (
	cellEmpty = iota
	cellWall
	cellHead
	cellBody
	cellApple
	cellCrash
)

// NewTerminalRenderer creates a renderer for a width x height board that
// writes to stdout
func NewTerminalRenderer(width, height int) *TerminalRenderer {
	return NewTerminalRendererTo(os.Stdout, width, height)
}

// NewTerminalRendererTo creates a renderer writing to out
func NewTerminalRendererTo(out io.Writer, width, height int) *TerminalRenderer {
	// One extra cell on each side for the wall. Pre-allocate the board to
	// reduce GC pressure.
	board := make([][]int, height+2)
	for i := range board {
		board[i] = make([]int, width+2)
	}

	return &TerminalRenderer{
		out:   out,
		board: board,
	}
}

// clearScreen clears the terminal using ANSI escape codes
func (r *TerminalRenderer) clearScreen() {
	r.buffer.WriteString("\033[H\033[2J\033[3J")
}

// ShowCursor shows the cursor (call on exit)
func (r *TerminalRenderer) ShowCursor() {
	fmt.Fprint(r.out, "\033[?25h")
}

// HideCursor hides the cursor (call on start)
func (r *TerminalRenderer) HideCursor() {
	fmt.Fprint(r.out, "\033[?25l")
}

// Render renders the game state to the terminal
func (r *TerminalRenderer) Render(s game.GameState) {
	r.buffer.Reset()
	r.clearScreen()

	height := len(r.board)
	width := len(r.board[0])

	// Reset board and draw walls
	for y := range r.board {
		for x := range r.board[y] {
			if x == 0 || y == 0 || x == width-1 || y == height-1 {
				r.board[y][x] = cellWall
			} else {
				r.board[y][x] = cellEmpty
			}
		}
	}

	r.set(s.Apple, cellApple)

	// Body first so the head wins when they overlap at a crash
	for i := len(s.Snake) - 1; i >= 0; i-- {
		if i == 0 {
			r.set(s.Snake[i], cellHead)
		} else {
			r.set(s.Snake[i], cellBody)
		}
	}

	if s.GameOver() && len(s.Snake) > 0 {
		r.set(s.Snake[0], cellCrash)
	}

	r.buffer.WriteString("\n  🐍 SNAKE 🐍\n")

	autoStr := ""
	if s.AutoPlay {
		autoStr = "  |  🤖 AUTO"
	}
	r.buffer.WriteString(fmt.Sprintf("  Score: %d  |  High Score: %d  |  Length: %d%s\n\n",
		s.Score, s.HighScore, len(s.Snake), autoStr))

	for _, row := range r.board {
		r.buffer.WriteString("  ")
		for _, cell := range row {
			switch cell {
			case cellEmpty:
				r.buffer.WriteString(config.CharEmpty)
			case cellWall:
				r.buffer.WriteString(config.CharWall)
			case cellHead:
				r.buffer.WriteString(config.CharHead)
			case cellBody:
				r.buffer.WriteString(config.CharBody)
			case cellApple:
				r.buffer.WriteString(config.CharApple)
			case cellCrash:
				r.buffer.WriteString(config.CharCrash)
			}
		}
		r.buffer.WriteString("\n")
	}

	r.buffer.WriteString("\n  Use WASD or Arrow keys to move\n")
	r.buffer.WriteString("  P to pause, R to restart, O for autopilot, Q to quit\n")

	switch s.Status {
	case game.Paused:
		r.buffer.WriteString("\n  ⏸️  PAUSED - Press P to continue\n")
	case game.Over:
		r.buffer.WriteString(fmt.Sprintf("\n  💀 GAME OVER! Final Score: %d\n", s.Score))
		r.buffer.WriteString("  Press R to restart or Q to quit\n")
	}

	io.WriteString(r.out, r.buffer.String())
}

// set marks a board cell, shifted by the wall. Cells outside the walls are
// ignored; a crash into the wall lands on the wall itself.
func (r *TerminalRenderer) set(p game.Point, cell int) {
	x, y := p.X+1, p.Y+1
	if y < 0 || y >= len(r.board) || x < 0 || x >= len(r.board[y]) {
		return
	}
	r.board[y][x] = cell
}
