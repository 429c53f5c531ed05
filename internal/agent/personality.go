package agent

// Traits are the five drifting personality scalars, each in [0,1] with
// 0.5 as the neutral starting point.
type Traits struct {
	Optimism       float64 `json:"optimism"`
	Discipline     float64 `json:"discipline"`
	CuriosityBias  float64 `json:"curiosity_bias"`
	RiskTolerance  float64 `json:"risk_tolerance"`
	SocialAffinity float64 `json:"social_affinity"`
}

// NeutralTraits returns the starting personality.
func NeutralTraits() Traits {
	return Traits{
		Optimism:       0.5,
		Discipline:     0.5,
		CuriosityBias:  0.5,
		RiskTolerance:  0.5,
		SocialAffinity: 0.5,
	}
}

// TraitSnapshot records the traits at a given cycle for history tracking.
type TraitSnapshot struct {
	Cycle int `json:"cycle"`
	Traits
}

// RewardTrend summarizes whether recent rewards are moving.
type RewardTrend uint8

const (
	TrendStable RewardTrend = iota
	TrendImproving
	TrendDeclining
)

func (t RewardTrend) String() string {
	switch t {
	case TrendImproving:
		return "improving"
	case TrendDeclining:
		return "declining"
	default:
		return "stable"
	}
}

// Personality evolves through reflection: traits mutate from reward
// trends, goal outcomes, and the dominant drive, and slowly decay back
// toward neutral during long idle stretches.
type Personality struct {
	Traits

	History             []TraitSnapshot `json:"trait_history"`
	LastUpdateCycle     int             `json:"last_update_cycle"`
	CyclesSinceActivity int             `json:"cycles_since_activity"`
}

// NewPersonality returns a neutral personality with empty history.
func NewPersonality() *Personality {
	return &Personality{Traits: NeutralTraits()}
}

const traitHistoryLimit = 50

// Archetype names the personality by its dominant traits.
func (p *Personality) Archetype() string {
	switch {
	case p.CuriosityBias > 0.65 && p.RiskTolerance > 0.6:
		return "Bold Explorer"
	case p.Discipline > 0.65 && p.Optimism > 0.6:
		return "Focused Scholar"
	case p.SocialAffinity > 0.65:
		return "Social Butterfly"
	case p.RiskTolerance < 0.4 && p.Discipline > 0.6:
		return "Cautious Planner"
	case p.Optimism > 0.65:
		return "Cheerful Wanderer"
	case p.CuriosityBias > 0.6:
		return "Curious Seeker"
	}
	if p.Optimism > 0.6 || p.Discipline > 0.6 || p.RiskTolerance > 0.6 {
		return "Evolving Individual"
	}
	return "Balanced Neutral"
}

// MutateFromReflection adjusts traits from reflective insights and
// returns a description of each change for the audit log.
func (p *Personality) MutateFromReflection(trend RewardTrend, failures, successes int, dominant Motivation) map[string]string {
	mutations := make(map[string]string)

	switch trend {
	case TrendImproving:
		p.Optimism = clamp(p.Optimism+0.01, 0, 1)
		p.Discipline = clamp(p.Discipline+0.01, 0, 1)
		mutations["optimism"] = "+0.01"
		mutations["discipline"] = "+0.01"
	case TrendDeclining:
		p.CuriosityBias = clamp(p.CuriosityBias+0.02, 0, 1)
		p.Discipline = clamp(p.Discipline-0.01, 0, 1)
		p.Optimism = clamp(p.Optimism-0.01, 0, 1)
		mutations["curiosity_bias"] = "+0.02"
		mutations["discipline"] = "-0.01"
		mutations["optimism"] = "-0.01"
	}

	total := failures + successes
	if total > 5 {
		failureRate := float64(failures) / float64(total)
		if failureRate > 0.5 {
			p.RiskTolerance = clamp(p.RiskTolerance+0.02, 0, 1)
			p.Discipline = clamp(p.Discipline-0.01, 0, 1)
			mutations["risk_tolerance"] = "+0.02 (adapting to failures)"
		} else if failureRate < 0.2 {
			p.Discipline = clamp(p.Discipline+0.01, 0, 1)
			p.Optimism = clamp(p.Optimism+0.01, 0, 1)
			mutations["discipline"] = "+0.01 (reinforcing success)"
		}
	}

	switch dominant {
	case Exploration:
		p.CuriosityBias = clamp(p.CuriosityBias+0.01, 0, 1)
		mutations["curiosity_bias"] = "+0.01 (exploration drive)"
	case Learning:
		p.Discipline = clamp(p.Discipline+0.01, 0, 1)
		mutations["discipline"] = "+0.01 (learning focus)"
	case Social:
		p.SocialAffinity = clamp(p.SocialAffinity+0.01, 0, 1)
		mutations["social_affinity"] = "+0.01 (social engagement)"
	case Survival:
		p.RiskTolerance = clamp(p.RiskTolerance-0.01, 0, 1)
		mutations["risk_tolerance"] = "-0.01 (survival caution)"
	}

	return mutations
}

// DecayTowardNeutral drifts every trait back toward 0.5.
func (p *Personality) DecayTowardNeutral(rate float64) {
	p.Optimism += (0.5 - p.Optimism) * rate
	p.Discipline += (0.5 - p.Discipline) * rate
	p.CuriosityBias += (0.5 - p.CuriosityBias) * rate
	p.RiskTolerance += (0.5 - p.RiskTolerance) * rate
	p.SocialAffinity += (0.5 - p.SocialAffinity) * rate
}

// RecordSnapshot appends the current traits to the bounded history.
func (p *Personality) RecordSnapshot(cycle int) {
	p.History = append(p.History, TraitSnapshot{Cycle: cycle, Traits: p.Traits})
	if len(p.History) > traitHistoryLimit {
		p.History = p.History[len(p.History)-traitHistoryLimit:]
	}
	p.LastUpdateCycle = cycle
}

// OptimismRecovery adjusts a happiness recovery amount by outlook.
func (p *Personality) OptimismRecovery(base float64) float64 {
	return base + (p.Optimism-0.5)*5
}
