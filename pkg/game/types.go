package game

import "fmt"

// Point represents a coordinate on the game board, in cells
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p moved by d
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Direction is one of the four moves a snake can make
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists every direction in a stable order
var Directions = [...]Direction{Up, Down, Left, Right}

// Opposite returns the direct reverse of d
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

// Delta returns the one-cell offset for d. Y grows downwards.
func (d Direction) Delta() Point {
	switch d {
	case Up:
		return Point{X: 0, Y: -1}
	case Down:
		return Point{X: 0, Y: 1}
	case Left:
		return Point{X: -1, Y: 0}
	default:
		return Point{X: 1, Y: 0}
	}
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection converts "up", "down", "left" or "right" into a Direction
func ParseDirection(s string) (Direction, bool) {
	for _, d := range Directions {
		if d.String() == s {
			return d, true
		}
	}
	return 0, false
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	parsed, ok := ParseDirection(string(b))
	if !ok {
		return fmt.Errorf("unknown direction %q", b)
	}
	*d = parsed
	return nil
}

// Valid reports whether d is one of the four named directions
func (d Direction) Valid() bool {
	return d >= Up && d <= Right
}

// Status is the lifecycle state of a game
type Status int

const (
	Running Status = iota
	Paused
	Over
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Over:
		return "over"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "running":
		*s = Running
	case "paused":
		*s = Paused
	case "over":
		*s = Over
	default:
		return fmt.Errorf("unknown status %q", b)
	}
	return nil
}

// TickResult describes what a single Tick did
type TickResult struct {
	Moved    bool // false when the game was not running
	Ate      bool
	Collided bool
}

// GameOverEvent is emitted every time a game ends
type GameOverEvent struct {
	Score      int   `json:"score"`
	HighScore  int   `json:"highScore"`
	NewRecord  bool  `json:"newRecord"`
	Length     int   `json:"length"`
	Ticks      int   `json:"ticks"`
	CrashPoint Point `json:"crashPoint"`
}

// GameState is a snapshot of the current game for renderers and clients
type GameState struct {
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Snake     []Point   `json:"snake"`
	Apple     Point     `json:"apple"`
	Direction Direction `json:"direction"`
	Score     int       `json:"score"`
	HighScore int       `json:"highScore"`
	Status    Status    `json:"status"`
	AutoPlay  bool      `json:"autoPlay"`
	Ticks     int       `json:"ticks"`
}

// GameOver reports whether the snapshot was taken after a collision
func (s GameState) GameOver() bool {
	return s.Status == Over
}
