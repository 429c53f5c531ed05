package cognition

import (
	"github.com/mkarlsen/driftmind/internal/agent"
	"github.com/mkarlsen/driftmind/internal/learning"
)

const metaLearnerInterval = 10

// MetaLearner nudges the value store's hyperparameters from observed
// learning signals: a declining reward trend or a repetition loop
// widens exploration, while sustained stability narrows it and lets
// the table settle. The store's setters bound every adjustment.
type MetaLearner struct {
	store        *learning.ValueStore
	lastCycle    int
	stableStreak int
}

func NewMetaLearner(store *learning.ValueStore) *MetaLearner {
	return &MetaLearner{store: store}
}

// Adapt runs at most once per interval and reports whether anything
// changed.
func (ml *MetaLearner) Adapt(cycle int, model *SelfModel) bool {
	if cycle-ml.lastCycle < metaLearnerInterval {
		return false
	}
	ml.lastCycle = cycle

	trend := ml.store.Trend(reflectionTrendWindow)
	eps := ml.store.Epsilon()
	alpha := ml.store.Alpha()
	gamma := ml.store.Gamma()

	switch trend {
	case agent.TrendDeclining:
		eps += 0.02
		alpha += 0.02
		ml.stableStreak = 0
	case agent.TrendImproving:
		eps -= 0.01
		ml.stableStreak = 0
	default:
		ml.stableStreak++
		if ml.stableStreak >= 3 {
			alpha -= 0.01
		}
	}

	if model.RepetitionIndex() > 0.5 {
		eps += 0.03
	}
	if model.AverageNovelty(10) < 0.1 {
		eps += 0.02
	}

	// A fatigued agent plans shorter horizons.
	if model.FatigueScore() > 0.6 {
		gamma -= 0.01
	} else if gamma < 0.9 {
		gamma += 0.005
	}

	before := [3]float64{ml.store.Epsilon(), ml.store.Alpha(), ml.store.Gamma()}
	ml.store.SetEpsilon(eps)
	ml.store.SetAlpha(alpha)
	ml.store.SetGamma(gamma)
	// Compare after the setters: they clamp, and a nudge the clamp
	// undoes is not a change.
	return [3]float64{ml.store.Epsilon(), ml.store.Alpha(), ml.store.Gamma()} != before
}
