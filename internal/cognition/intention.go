package cognition

import (
	"fmt"

	"github.com/mkarlsen/driftmind/internal/agent"
)

// IntentionType classifies short-lived behavioral goals, distinct
// from the long-lived goals the goal manager tracks.
type IntentionType uint8

const (
	IntentExplore IntentionType = iota
	IntentGather
	IntentLearn
	IntentSocialize
	IntentRest
	IntentSurvive
	IntentMoveToSaferArea
	NumIntentionTypes
)

var intentionNames = [NumIntentionTypes]string{
	"explore", "gather", "learn", "socialize", "rest", "survive", "move_to_safer_area",
}

func (t IntentionType) String() string {
	if int(t) < len(intentionNames) {
		return intentionNames[t]
	}
	return "unknown"
}

// Intention is one entry on the engine's bounded stack.
type Intention struct {
	Type         IntentionType
	Strength     float64
	Reason       string
	CreatedCycle int
	Completed    bool
}

// RuleInput is the read-only view a rule evaluates against.
type RuleInput struct {
	Snap    agent.Snapshot
	Novelty float64
}

// Rule is one named predicate→proposal closure in the decision list.
// Order in the list is priority; the first rule that fires wins.
type Rule struct {
	Name string
	Eval func(in RuleInput) (Intention, bool)
}

const (
	stackCap              = 5
	stagnationNovelty     = 0.05
	stagnationCycles      = 4
	knowledgeSaturation   = 20.0
	learnDecayKnowledge   = 25.0
	learnDecayRate        = 0.15
	saferAreaDecayRate    = 0.10
	forcedExploreStrength = 1.5
)

// DefaultRules is the canonical priority-ordered decision list.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "knowledge_saturation",
			Eval: func(in RuleInput) (Intention, bool) {
				if in.Snap.Vitals.Knowledge <= knowledgeSaturation {
					return Intention{}, false
				}
				return Intention{Type: IntentExplore, Strength: 0.65, Reason: "Knowledge is saturated; the world calls"}, true
			},
		},
		{
			Name: "danger_terrain",
			Eval: func(in RuleInput) (Intention, bool) {
				if !in.Snap.Terrain.Dangerous() {
					return Intention{}, false
				}
				return Intention{Type: IntentMoveToSaferArea, Strength: 1.0, Reason: fmt.Sprintf("Standing on hazardous %s", in.Snap.Terrain)}, true
			},
		},
		{
			Name: "low_energy",
			Eval: func(in RuleInput) (Intention, bool) {
				if in.Snap.Vitals.Energy >= 30 {
					return Intention{}, false
				}
				return Intention{Type: IntentRest, Strength: 1.0, Reason: "Energy reserves are running low"}, true
			},
		},
		{
			Name: "low_knowledge",
			Eval: func(in RuleInput) (Intention, bool) {
				if in.Snap.Vitals.Knowledge >= 6 {
					return Intention{}, false
				}
				return Intention{Type: IntentLearn, Strength: 0.85, Reason: "Everything here is still unknown"}, true
			},
		},
		{
			Name: "low_novelty",
			Eval: func(in RuleInput) (Intention, bool) {
				if in.Novelty >= 0.08 {
					return Intention{}, false
				}
				return Intention{Type: IntentExplore, Strength: 0.7, Reason: "These tiles have grown too familiar"}, true
			},
		},
		{
			Name: "high_learning_drive",
			Eval: func(in RuleInput) (Intention, bool) {
				if in.Snap.Motivations.Get(agent.Learning) <= 0.55 {
					return Intention{}, false
				}
				return Intention{Type: IntentLearn, Strength: 0.6, Reason: "A strong urge to study"}, true
			},
		},
		{
			Name: "high_exploration_drive",
			Eval: func(in RuleInput) (Intention, bool) {
				if in.Snap.Motivations.Get(agent.Exploration) <= 0.45 {
					return Intention{}, false
				}
				return Intention{Type: IntentExplore, Strength: 0.6, Reason: "A strong urge to wander"}, true
			},
		},
	}
}

// IntentionEngine maintains a bounded stack of intentions driven by
// an ordered rule list.
type IntentionEngine struct {
	rules      []Rule
	stack      []Intention
	stagnation int
}

// NewIntentionEngine builds an engine over the given decision list
// (DefaultRules when nil).
func NewIntentionEngine(rules []Rule) *IntentionEngine {
	if rules == nil {
		rules = DefaultRules()
	}
	return &IntentionEngine{rules: rules}
}

// Evaluate purges completed intentions, runs the decision list, and
// returns the current top-of-stack intention (nil when idle).
func (e *IntentionEngine) Evaluate(in RuleInput) *Intention {
	e.purge()

	fired := false
	for _, r := range e.rules {
		intent, ok := r.Eval(in)
		if !ok {
			continue
		}
		intent.CreatedCycle = in.Snap.Cycle
		// LEARN never enters the stack past the saturation point.
		if intent.Type == IntentLearn && in.Snap.Vitals.Knowledge > knowledgeSaturation {
			continue
		}
		e.push(intent)
		fired = true
		break
	}

	if !fired {
		if in.Novelty < stagnationNovelty {
			e.stagnation++
			if e.stagnation > stagnationCycles {
				e.push(Intention{
					Type:         IntentExplore,
					Strength:     forcedExploreStrength,
					Reason:       "Stagnation detected; forcing a change of scenery",
					CreatedCycle: in.Snap.Cycle,
				})
				e.stagnation = 0
			}
		} else {
			e.stagnation = 0
		}
	}

	if len(e.stack) == 0 {
		return nil
	}
	return &e.stack[len(e.stack)-1]
}

// push deduplicates by type: an existing intention of the same type
// keeps its place but takes the stronger strength and fresher reason.
func (e *IntentionEngine) push(intent Intention) {
	for i := range e.stack {
		if e.stack[i].Type == intent.Type {
			if intent.Strength > e.stack[i].Strength {
				e.stack[i].Strength = intent.Strength
			}
			e.stack[i].Reason = intent.Reason
			return
		}
	}
	if len(e.stack) >= stackCap {
		e.dropOldest()
	}
	e.stack = append(e.stack, intent)
}

// dropOldest evicts the bottom of the stack. Capacity works like a
// ring buffer: when full, the intention held longest gives way to the
// incoming one regardless of strength.
func (e *IntentionEngine) dropOldest() {
	e.stack = append(e.stack[:0], e.stack[1:]...)
}

func (e *IntentionEngine) purge() {
	kept := e.stack[:0]
	for _, it := range e.stack {
		if !it.Completed {
			kept = append(kept, it)
		}
	}
	e.stack = kept
}

// Depth is the current stack size.
func (e *IntentionEngine) Depth() int { return len(e.stack) }

// Stack returns a copy of the live stack, bottom first.
func (e *IntentionEngine) Stack() []Intention {
	out := make([]Intention, len(e.stack))
	copy(out, e.stack)
	return out
}

// SuggestionKind tells the loop how to act on an intention.
type SuggestionKind uint8

const (
	SuggestNone SuggestionKind = iota
	SuggestAction
	SuggestRouteUnexplored
	SuggestRouteSafety
)

// Suggestion is the engine's mapped output for the arbitration loop.
type Suggestion struct {
	Kind   SuggestionKind
	Action agent.Action
}

// intentionActions is the closed intention→action mapping, verified
// complete at startup.
var intentionActions = map[IntentionType]Suggestion{
	IntentExplore:         {Kind: SuggestRouteUnexplored, Action: agent.ActionExplore},
	IntentGather:          {Kind: SuggestAction, Action: agent.ActionCollect},
	IntentLearn:           {Kind: SuggestAction, Action: agent.ActionStudy},
	IntentSocialize:       {Kind: SuggestAction, Action: agent.ActionSocialize},
	IntentRest:            {Kind: SuggestAction, Action: agent.ActionRest},
	IntentSurvive:         {Kind: SuggestAction, Action: agent.ActionRest},
	IntentMoveToSaferArea: {Kind: SuggestRouteSafety, Action: agent.ActionRest},
}

func init() {
	for t := IntentionType(0); t < NumIntentionTypes; t++ {
		if _, ok := intentionActions[t]; !ok {
			panic(fmt.Sprintf("intention type %s has no action mapping", t))
		}
	}
}

// SuggestAction maps the intention to a concrete suggestion and
// applies type-specific decay. A decayed or satisfied intention is
// marked completed and yields no suggestion.
func (e *IntentionEngine) SuggestAction(intent *Intention, in RuleInput) Suggestion {
	if intent == nil || intent.Completed {
		return Suggestion{Kind: SuggestNone}
	}

	switch intent.Type {
	case IntentLearn:
		if in.Snap.Vitals.Knowledge > learnDecayKnowledge {
			intent.Strength -= learnDecayRate
			if intent.Strength <= 0 {
				intent.Completed = true
				return Suggestion{Kind: SuggestNone}
			}
		}
	case IntentMoveToSaferArea:
		if !in.Snap.Terrain.Dangerous() {
			intent.Completed = true
			return Suggestion{Kind: SuggestNone}
		}
		intent.Strength -= saferAreaDecayRate
		if intent.Strength <= 0 {
			intent.Completed = true
			return Suggestion{Kind: SuggestNone}
		}
	}

	return intentionActions[intent.Type]
}
