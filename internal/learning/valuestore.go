package learning

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/mkarlsen/driftmind/internal/agent"
)

// Context is a discretized fingerprint of agent and world state. Many
// world states collapse onto the same context; that is deliberate
// generalization, not information loss.
type Context string

// ContextFor derives the fingerprint from a cycle snapshot. It is a
// pure function: equal snapshots produce equal contexts.
func ContextFor(snap agent.Snapshot) Context {
	energy := "high"
	switch {
	case snap.Vitals.Energy < 20:
		energy = "critical"
	case snap.Vitals.Energy < 40:
		energy = "low"
	case snap.Vitals.Energy < 70:
		energy = "medium"
	}

	focus := "high"
	if snap.Vitals.Focus < 40 {
		focus = "low"
	}

	resources := "no_resources"
	if snap.ResourcesHere > 0 || snap.NearbyResources > 0 {
		resources = "resources_nearby"
	}

	hazard := "safe"
	switch {
	case snap.HazardLevel > 2:
		hazard = "dangerous"
	case snap.HazardLevel > 0:
		hazard = "risky"
	}

	return Context(fmt.Sprintf("%s_%s_%s_%s_%s", energy, focus, snap.Terrain, resources, hazard))
}

const (
	defaultAlpha   = 0.1
	defaultEpsilon = 0.15
	defaultGamma   = 0.9

	rewardClamp     = 10.0
	rewardBufferCap = 200
)

// QValue is one learned table entry in exportable form.
type QValue struct {
	Context Context `json:"context"`
	Action  string  `json:"action"`
	Value   float64 `json:"value"`
}

// Stats summarizes accumulated experience.
type Stats struct {
	ContextsKnown int
	TotalUpdates  int
	AverageReward float64
}

// ValueStore is the reinforcement-learning table. All operations are
// total functions: unseen context/action pairs score 0.0.
type ValueStore struct {
	alpha   float64
	epsilon float64
	gamma   float64

	table   map[Context]map[agent.Action]float64
	rewards []float64
	updates int
	rng     *rand.Rand
}

// NewValueStore builds an empty table with default hyperparameters.
func NewValueStore(rng *rand.Rand) *ValueStore {
	return &ValueStore{
		alpha:   defaultAlpha,
		epsilon: defaultEpsilon,
		gamma:   defaultGamma,
		table:   make(map[Context]map[agent.Action]float64),
		rng:     rng,
	}
}

// Score returns the stored value for the pair, or 0.0 if unseen.
func (v *ValueStore) Score(ctx Context, a agent.Action) float64 {
	return v.table[ctx][a]
}

// Update applies a bounded temporal-difference step toward the clamped
// reward.
func (v *ValueStore) Update(ctx Context, a agent.Action, reward float64) {
	r := clampReward(reward)
	row := v.table[ctx]
	if row == nil {
		row = make(map[agent.Action]float64)
		v.table[ctx] = row
	}
	row[a] += v.alpha * (r - row[a])
	v.updates++
}

// Choose picks an action ε-greedily. With probability ε it returns a
// uniformly random candidate; otherwise the candidate maximizing
// score+bias, ties broken by position in the candidates slice. bias
// may be nil.
func (v *ValueStore) Choose(ctx Context, candidates []agent.Action, bias func(agent.Action) float64) agent.Action {
	if len(candidates) == 0 {
		return agent.ActionRest
	}
	if v.rng.Float64() < v.epsilon {
		return candidates[v.rng.Intn(len(candidates))]
	}

	best := candidates[0]
	bestScore := v.scored(ctx, best, bias)
	for _, a := range candidates[1:] {
		if s := v.scored(ctx, a, bias); s > bestScore {
			best, bestScore = a, s
		}
	}
	return best
}

func (v *ValueStore) scored(ctx Context, a agent.Action, bias func(agent.Action) float64) float64 {
	s := v.Score(ctx, a)
	if bias != nil {
		s += bias(a)
	}
	return s
}

// Reward computes the extrinsic reward for an executed action: a
// weighted sum of vital deltas plus spatial and goal bonuses, with
// penalties for ending the cycle exhausted and a small bonus for
// keeping the vitals balanced.
func (v *ValueStore) Reward(eff agent.Effects, post agent.Vitals, spatialBonus, goalBonus float64) float64 {
	r := eff.Knowledge*0.5 + eff.Happiness*0.3 + eff.Energy*0.2 + eff.Focus*0.15
	r += spatialBonus + goalBonus

	switch {
	case post.Energy < 15:
		r -= 10
	case post.Energy < 30:
		r -= 2
	}
	if post.Energy > 40 && post.Happiness > 40 && post.Focus > 40 {
		r += 2
	}
	return r
}

// Record appends a reward observation to the bounded history.
func (v *ValueStore) Record(reward float64) {
	v.rewards = append(v.rewards, reward)
	if len(v.rewards) > rewardBufferCap {
		v.rewards = v.rewards[len(v.rewards)-rewardBufferCap:]
	}
}

// Trend compares the two halves of the trailing window of recorded
// rewards. A margin of 1.0 reward units separates stable from
// improving or declining.
func (v *ValueStore) Trend(window int) agent.RewardTrend {
	if window > len(v.rewards) {
		window = len(v.rewards)
	}
	if window < 4 {
		return agent.TrendStable
	}
	recent := v.rewards[len(v.rewards)-window:]
	half := len(recent) / 2
	older := mean(recent[:half])
	newer := mean(recent[half:])
	switch {
	case newer-older > 1.0:
		return agent.TrendImproving
	case older-newer > 1.0:
		return agent.TrendDeclining
	default:
		return agent.TrendStable
	}
}

// AverageReward is the mean over the trailing window (0 when empty).
func (v *ValueStore) AverageReward(window int) float64 {
	if window > len(v.rewards) {
		window = len(v.rewards)
	}
	if window == 0 {
		return 0
	}
	return mean(v.rewards[len(v.rewards)-window:])
}

// Stats summarizes the table for status output.
func (v *ValueStore) Stats() Stats {
	return Stats{
		ContextsKnown: len(v.table),
		TotalUpdates:  v.updates,
		AverageReward: mean(v.rewards),
	}
}

// Hyperparameter accessors. The setters clamp to sane learning ranges
// so adaptive tuning cannot destabilize the table.

func (v *ValueStore) Alpha() float64   { return v.alpha }
func (v *ValueStore) Epsilon() float64 { return v.epsilon }
func (v *ValueStore) Gamma() float64   { return v.gamma }

func (v *ValueStore) SetAlpha(a float64)   { v.alpha = clampRange(a, 0.05, 0.3) }
func (v *ValueStore) SetEpsilon(e float64) { v.epsilon = clampRange(e, 0.05, 0.3) }
func (v *ValueStore) SetGamma(g float64)   { v.gamma = clampRange(g, 0.8, 0.99) }

// Export flattens the table into a deterministic ordering for
// persistence.
func (v *ValueStore) Export() []QValue {
	out := make([]QValue, 0, len(v.table))
	for ctx, row := range v.table {
		for a, val := range row {
			out = append(out, QValue{Context: ctx, Action: a.String(), Value: val})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Context != out[j].Context {
			return out[i].Context < out[j].Context
		}
		return out[i].Action < out[j].Action
	})
	return out
}

// Restore replaces the table with previously exported entries.
// Entries naming unknown actions are skipped.
func (v *ValueStore) Restore(values []QValue) {
	v.table = make(map[Context]map[agent.Action]float64, len(values))
	for _, q := range values {
		a, err := agent.ParseAction(q.Action)
		if err != nil {
			continue
		}
		row := v.table[q.Context]
		if row == nil {
			row = make(map[agent.Action]float64)
			v.table[q.Context] = row
		}
		row[a] = q.Value
	}
}

func clampReward(r float64) float64 { return clampRange(r, -rewardClamp, rewardClamp) }

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
