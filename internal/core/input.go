package core

// Action is a semantic viewer command, abstracted from physical key presses.
type Action int

const (
	ActionNone   Action = iota
	ActionPause         // Space - toggle pause
	ActionStep          // N - advance one step while paused
	ActionFaster        // + - raise the frame rate
	ActionSlower        // - - lower the frame rate
	ActionResume        // R - run more steps after the run finished
	ActionMode          // M - cycle render mode
	ActionLayer         // Tab - next grid layer
	ActionHelp          // ? - toggle help
	ActionBack          // Esc - back to the model menu
	ActionQuit          // Q, Ctrl+C - exit
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionPause:
		return "Pause"
	case ActionStep:
		return "Step"
	case ActionFaster:
		return "Faster"
	case ActionSlower:
		return "Slower"
	case ActionResume:
		return "Resume"
	case ActionMode:
		return "Mode"
	case ActionLayer:
		return "Layer"
	case ActionHelp:
		return "Help"
	case ActionBack:
		return "Back"
	case ActionQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}
