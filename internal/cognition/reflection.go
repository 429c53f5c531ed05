package cognition

import (
	"github.com/mkarlsen/driftmind/internal/agent"
	"github.com/mkarlsen/driftmind/internal/goals"
	"github.com/mkarlsen/driftmind/internal/learning"
)

// Reflection is the outcome of one introspection pass: a narrative
// for the log, the reward trend it was based on, and any personality
// mutations it triggered.
type Reflection struct {
	Cycle     int
	Narrative string
	Trend     agent.RewardTrend
	Mutations map[string]string
	Archetype string
}

const (
	reflectionTrendWindow = 20
	traitDecayRate        = 0.005
)

// Reflect runs a full introspection pass: it reads the reward trend
// and goal record, mutates the personality accordingly, applies a
// gentle decay toward neutral, and renders the self-narrative.
func Reflect(cycle int, model *SelfModel, store *learning.ValueStore, p *agent.Personality, goalStats goals.Stats, dominant agent.Motivation) Reflection {
	trend := store.Trend(reflectionTrendWindow)

	mutations := p.MutateFromReflection(trend, goalStats.Failed, goalStats.Completed, dominant)
	p.DecayTowardNeutral(traitDecayRate)
	p.RecordSnapshot(cycle)

	return Reflection{
		Cycle:     cycle,
		Narrative: model.Narrative(p.Traits),
		Trend:     trend,
		Mutations: mutations,
		Archetype: p.Archetype(),
	}
}
