package game

// Action is the kind of player or operator request
type Action int

const (
	ActionTurn Action = iota + 1
	ActionPause
	ActionResume
	ActionTogglePause
	ActionRestart
	ActionAutoPlay
)

var actionNames = map[Action]string{
	ActionTurn:        "turn",
	ActionPause:       "pause",
	ActionResume:      "resume",
	ActionTogglePause: "toggle",
	ActionRestart:     "restart",
	ActionAutoPlay:    "auto",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// Intent is a single request delivered by an input source
type Intent struct {
	Action    Action
	Direction Direction // only for ActionTurn
}

// Turn builds a direction change intent
func Turn(d Direction) Intent {
	return Intent{Action: ActionTurn, Direction: d}
}

// ParseAction maps a client action string ("up", "pause", "restart", ...)
// to an Intent.
func ParseAction(action string) (Intent, bool) {
	if d, ok := ParseDirection(action); ok {
		return Turn(d), true
	}
	for a, name := range actionNames {
		if a != ActionTurn && name == action {
			return Intent{Action: a}, true
		}
	}
	return Intent{}, false
}

// Apply performs in on the game and reports whether anything visible
// changed. Direction changes only show up on the next tick and report false.
func (g *Game) Apply(in Intent) bool {
	switch in.Action {
	case ActionTurn:
		g.SetDirection(in.Direction)
		return false
	case ActionPause:
		before := g.Status
		g.Pause()
		return g.Status != before
	case ActionResume:
		before := g.Status
		g.Resume()
		return g.Status != before
	case ActionTogglePause:
		before := g.Status
		g.TogglePause()
		return g.Status != before
	case ActionRestart:
		g.Restart()
		return true
	case ActionAutoPlay:
		g.ToggleAutoPlay()
		return true
	}
	return false
}
