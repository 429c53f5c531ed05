package cognition

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/driftmind/internal/agent"
	"github.com/mkarlsen/driftmind/internal/world"
)

func ruleInput(energy, knowledge, novelty float64) RuleInput {
	snap := agent.Snapshot{Vitals: agent.NewVitals(), Terrain: world.TerrainPlains}
	snap.Vitals.Energy = energy
	snap.Vitals.Knowledge = knowledge
	return RuleInput{Snap: snap, Novelty: novelty}
}

func TestLowEnergyRuleFires(t *testing.T) {
	e := NewIntentionEngine(nil)
	intent := e.Evaluate(ruleInput(20, 10, 0.5))

	require.NotNil(t, intent)
	assert.Equal(t, IntentRest, intent.Type)
	assert.Equal(t, 1.0, intent.Strength)
}

func TestKnowledgeSaturationSuppressesLearn(t *testing.T) {
	e := NewIntentionEngine(nil)

	in := ruleInput(80, 25, 0.5)
	in.Snap.Motivations[agent.Learning] = 0.9

	for i := 0; i < 10; i++ {
		intent := e.Evaluate(in)
		require.NotNil(t, intent)
		assert.NotEqual(t, IntentLearn, intent.Type)
	}
	for _, it := range e.Stack() {
		assert.NotEqual(t, IntentLearn, it.Type)
	}
}

func TestDangerTerrainRule(t *testing.T) {
	e := NewIntentionEngine(nil)
	in := ruleInput(80, 10, 0.5)
	in.Snap.Terrain = world.TerrainMountains

	intent := e.Evaluate(in)
	require.NotNil(t, intent)
	assert.Equal(t, IntentMoveToSaferArea, intent.Type)
}

func TestDedupByTypeKeepsMaxStrength(t *testing.T) {
	e := NewIntentionEngine(nil)

	weak := ruleInput(80, 10, 0.02) // low novelty → EXPLORE 0.7
	strong := ruleInput(80, 25, 0.5) // saturation → EXPLORE 0.65

	first := e.Evaluate(weak)
	require.NotNil(t, first)
	require.Equal(t, IntentExplore, first.Type)
	assert.Equal(t, 0.7, first.Strength)

	second := e.Evaluate(strong)
	require.NotNil(t, second)
	assert.Equal(t, 1, e.Depth())
	// Strength is monotone non-decreasing under dedup.
	assert.Equal(t, 0.7, e.Stack()[0].Strength)
}

func TestStackNeverExceedsCapacity(t *testing.T) {
	cycle := 0
	rules := []Rule{{
		Name: "rotating",
		Eval: func(in RuleInput) (Intention, bool) {
			ty := IntentionType(cycle % int(NumIntentionTypes))
			return Intention{Type: ty, Strength: 0.1 * float64(cycle+1), Reason: fmt.Sprintf("round %d", cycle)}, true
		},
	}}
	e := NewIntentionEngine(rules)

	for cycle = 0; cycle < 20; cycle++ {
		e.Evaluate(ruleInput(80, 10, 0.5))
		assert.LessOrEqual(t, e.Depth(), 5)
	}
}

func TestFullStackEvictsOldest(t *testing.T) {
	e := NewIntentionEngine(nil)

	// Oldest entry is the strongest; capacity still evicts it first.
	for i := 0; i < stackCap; i++ {
		e.push(Intention{Type: IntentionType(i), Strength: 1.0 - 0.1*float64(i)})
	}
	require.Equal(t, stackCap, e.Depth())

	e.push(Intention{Type: IntentSurvive, Strength: 0.05})

	stack := e.Stack()
	require.Len(t, stack, stackCap)
	assert.Equal(t, IntentGather, stack[0].Type)
	assert.Equal(t, IntentSurvive, stack[stackCap-1].Type)
	for _, it := range stack {
		assert.NotEqual(t, IntentExplore, it.Type)
	}
}

func TestNoCompletedIntentionSurvivesEvaluate(t *testing.T) {
	e := NewIntentionEngine(nil)
	in := ruleInput(80, 10, 0.5)
	in.Snap.Terrain = world.TerrainRuins

	intent := e.Evaluate(in)
	require.NotNil(t, intent)

	// Back on safe ground the intention auto-completes.
	safe := ruleInput(80, 10, 0.5)
	sug := e.SuggestAction(intent, safe)
	assert.Equal(t, SuggestNone, sug.Kind)
	assert.True(t, intent.Completed)

	e.Evaluate(ruleInput(80, 10, 0.5))
	for _, it := range e.Stack() {
		assert.False(t, it.Completed)
	}
}

func TestStagnationForcesExplore(t *testing.T) {
	e := NewIntentionEngine([]Rule{})

	var intent *Intention
	for i := 0; i < 5; i++ {
		intent = e.Evaluate(ruleInput(80, 10, 0.03))
	}
	require.NotNil(t, intent)
	assert.Equal(t, IntentExplore, intent.Type)
	assert.Equal(t, forcedExploreStrength, intent.Strength)
}

func TestStagnationCounterResetsOnNovelty(t *testing.T) {
	e := NewIntentionEngine([]Rule{})

	for i := 0; i < 4; i++ {
		e.Evaluate(ruleInput(80, 10, 0.03))
	}
	e.Evaluate(ruleInput(80, 10, 0.5)) // fresh ground resets the counter
	intent := e.Evaluate(ruleInput(80, 10, 0.03))
	assert.Nil(t, intent)
}

func TestLearnIntentionDecaysPastSaturation(t *testing.T) {
	e := NewIntentionEngine(nil)
	intent := &Intention{Type: IntentLearn, Strength: 0.3}

	in := ruleInput(80, 30, 0.5)
	sug := e.SuggestAction(intent, in)
	assert.Equal(t, SuggestAction, sug.Kind)
	assert.Equal(t, agent.ActionStudy, sug.Action)
	assert.InDelta(t, 0.15, intent.Strength, 1e-9)

	sug = e.SuggestAction(intent, in)
	assert.Equal(t, SuggestNone, sug.Kind)
	assert.True(t, intent.Completed)
}

func TestIntentionActionMappingComplete(t *testing.T) {
	for ty := IntentionType(0); ty < NumIntentionTypes; ty++ {
		sug, ok := intentionActions[ty]
		require.True(t, ok, "missing mapping for %s", ty)
		assert.NotEqual(t, SuggestNone, sug.Kind)
	}
}
