// Package agent provides the agent data model: actions, vitals,
// motivations, the drifting personality, and the action executor.
package agent

import (
	"fmt"

	"github.com/mkarlsen/driftmind/internal/world"
)

// Action is the closed set of things the agent can do in one cycle.
type Action uint8

const (
	ActionStudy Action = iota
	ActionRest
	ActionExplore
	ActionReflect
	ActionSocialize
	ActionObserve
	ActionExercise
	ActionCollect
	ActionEat
	ActionMoveNorth
	ActionMoveSouth
	ActionMoveWest
	ActionMoveEast
)

// NumActions is the total number of action kinds.
const NumActions = 13

var actionNames = [NumActions]string{
	"study", "rest", "explore", "reflect", "socialize", "observe",
	"exercise", "collect", "eat",
	"move_north", "move_south", "move_west", "move_east",
}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// ParseAction converts a stored action name back to its Action.
func ParseAction(s string) (Action, error) {
	for i, name := range actionNames {
		if name == s {
			return Action(i), nil
		}
	}
	return ActionRest, fmt.Errorf("unknown action %q", s)
}

// AllActions returns every action in enumeration order. The order is the
// tie-break order for greedy selection.
func AllActions() []Action {
	out := make([]Action, NumActions)
	for i := range out {
		out[i] = Action(i)
	}
	return out
}

// IsMove reports whether the action is directional movement.
func (a Action) IsMove() bool {
	return a >= ActionMoveNorth && a <= ActionMoveEast
}

// HighCost reports whether the action carries a significant energy cost.
func (a Action) HighCost() bool {
	return a == ActionExplore || a == ActionExercise || a.IsMove()
}

// MoveDirection returns the direction of a movement action.
func (a Action) MoveDirection() (world.Direction, bool) {
	switch a {
	case ActionMoveNorth:
		return world.North, true
	case ActionMoveSouth:
		return world.South, true
	case ActionMoveWest:
		return world.West, true
	case ActionMoveEast:
		return world.East, true
	default:
		return world.North, false
	}
}

// MoveAction returns the movement action for a direction.
func MoveAction(d world.Direction) Action {
	switch d {
	case world.North:
		return ActionMoveNorth
	case world.South:
		return ActionMoveSouth
	case world.West:
		return ActionMoveWest
	default:
		return ActionMoveEast
	}
}

// Effects holds the vital deltas an action produced.
type Effects struct {
	Energy    float64 `json:"energy,omitempty"`
	Happiness float64 `json:"happiness,omitempty"`
	Focus     float64 `json:"focus,omitempty"`
	Knowledge float64 `json:"knowledge,omitempty"`
}

// Result reports what happened when an action was executed.
type Result struct {
	Action  Action
	Success bool
	Effects Effects
	Message string

	// Category is set for study actions so the caller can track which
	// knowledge domains have been covered.
	Category string
}
