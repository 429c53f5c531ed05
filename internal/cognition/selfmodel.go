package cognition

import (
	"fmt"
	"strings"

	"github.com/mkarlsen/driftmind/internal/agent"
	"github.com/mkarlsen/driftmind/internal/world"
)

// PatternType classifies the cause→effect regularities the self-model
// mines from its history.
type PatternType uint8

const (
	PatternEnergyLearning PatternType = iota
	PatternTerrainPreference
	PatternTerrainAvoidance
	PatternPersonalityBehavior
	PatternMotivationTrend
	PatternFatigueAccumulation
	PatternEnergyDepletion
	PatternEmotionRecovery
	PatternRepetitionLoop
	NumPatternTypes
)

var patternNames = [NumPatternTypes]string{
	"energy_learning",
	"terrain_preference",
	"terrain_avoidance",
	"personality_behavior",
	"motivation_trend",
	"fatigue_accumulation",
	"energy_depletion",
	"emotion_recovery",
	"repetition_loop",
}

func (p PatternType) String() string {
	if int(p) < len(patternNames) {
		return patternNames[p]
	}
	return "unknown"
}

// ParsePatternType converts a stored pattern name back to its type.
func ParsePatternType(s string) (PatternType, error) {
	for i, name := range patternNames {
		if name == s {
			return PatternType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pattern type %q", s)
}

// Pattern is an observed behavioral regularity. All fields are
// comparable; two patterns are duplicates when every field matches.
type Pattern struct {
	Type        PatternType `json:"type"`
	Description string      `json:"description"`
	Condition   string      `json:"condition"`
	Action      string      `json:"action,omitempty"`
	Outcome     string      `json:"outcome,omitempty"`
}

// StateSnap is one cycle's trace entry in the self-model history.
type StateSnap struct {
	Cycle     int               `json:"cycle"`
	Energy    float64           `json:"energy"`
	Happiness float64           `json:"happiness"`
	Focus     float64           `json:"focus"`
	Knowledge float64           `json:"knowledge"`
	Terrain   world.TerrainType `json:"terrain"`
	Action    agent.Action      `json:"action"`
	Reward    float64           `json:"reward"`
	Dominant  agent.Motivation  `json:"dominant"`
}

type detector struct {
	name string
	eval func(m *SelfModel, traits agent.Traits) (Pattern, bool)
}

const (
	historyLimit        = 50
	noveltyHistoryLimit = 50
	recentActionLimit   = 10
	analyzeMinHistory   = 10

	terrainMargin        = 1.0
	terrainMinSamples    = 5
	energyLearningMargin = 1.5
	fatigueWindow        = 10
	fatigueThreshold     = 7
	depletionDrop        = 15.0
	recoveryJump         = 10.0

	defaultPatternPersistLimit = 20
)

// SelfModel accumulates per-cycle snapshots and mines them for
// recurring patterns. Detectors are independent: one returning
// nothing never prevents the others from running.
type SelfModel struct {
	history        []StateSnap
	patterns       []Pattern
	visits         map[world.Coord]int
	noveltyHistory []float64
	recentActions  []agent.Action

	repetitionIndex float64
	fatigueScore    float64
	envSensitivity  float64

	detectors           []detector
	patternPersistLimit int
}

// NewSelfModel builds an empty model with the default detector set.
func NewSelfModel() *SelfModel {
	m := &SelfModel{
		visits:              make(map[world.Coord]int),
		envSensitivity:      0.5,
		patternPersistLimit: defaultPatternPersistLimit,
	}
	m.detectors = []detector{
		{"terrain_affinity", (*SelfModel).detectTerrainAffinity},
		{"energy_learning", (*SelfModel).detectEnergyLearning},
		{"personality_behavior", (*SelfModel).detectPersonalityBehavior},
		{"motivation_trend", (*SelfModel).detectMotivationTrend},
		{"fatigue_accumulation", (*SelfModel).detectFatigue},
		{"energy_shift", (*SelfModel).detectEnergyShift},
		{"repetition_loop", (*SelfModel).detectRepetition},
	}
	return m
}

// Record appends a snapshot and updates the repetition tracker.
func (m *SelfModel) Record(snap StateSnap) {
	m.history = append(m.history, snap)
	if len(m.history) > historyLimit {
		m.history = m.history[len(m.history)-historyLimit:]
	}

	m.recentActions = append(m.recentActions, snap.Action)
	if len(m.recentActions) > recentActionLimit {
		m.recentActions = m.recentActions[len(m.recentActions)-recentActionLimit:]
	}
	if m.lastActionsIdentical(4) {
		m.repetitionIndex = clamp01(m.repetitionIndex + 0.1)
	} else {
		m.repetitionIndex = clamp01(m.repetitionIndex - 0.05)
	}
}

// Visit counts a tile visit and pushes its novelty (1/visits) onto
// the bounded novelty history.
func (m *SelfModel) Visit(c world.Coord) float64 {
	m.visits[c]++
	novelty := 1.0 / float64(m.visits[c])
	m.noveltyHistory = append(m.noveltyHistory, novelty)
	if len(m.noveltyHistory) > noveltyHistoryLimit {
		m.noveltyHistory = m.noveltyHistory[len(m.noveltyHistory)-noveltyHistoryLimit:]
	}
	return novelty
}

// Novelty is the most recent tile novelty (1.0 before any visit).
func (m *SelfModel) Novelty() float64 {
	if len(m.noveltyHistory) == 0 {
		return 1.0
	}
	return m.noveltyHistory[len(m.noveltyHistory)-1]
}

// AverageNovelty averages the trailing window of novelty samples.
func (m *SelfModel) AverageNovelty(window int) float64 {
	if window > len(m.noveltyHistory) {
		window = len(m.noveltyHistory)
	}
	if window == 0 {
		return 1.0
	}
	return meanOf(m.noveltyHistory[len(m.noveltyHistory)-window:])
}

func (m *SelfModel) RepetitionIndex() float64 { return m.repetitionIndex }
func (m *SelfModel) FatigueScore() float64    { return m.fatigueScore }
func (m *SelfModel) EnvSensitivity() float64  { return m.envSensitivity }

// Patterns returns a copy of every live pattern.
func (m *SelfModel) Patterns() []Pattern {
	out := make([]Pattern, len(m.patterns))
	copy(out, m.patterns)
	return out
}

// RecentPatterns returns up to the last n detected patterns.
func (m *SelfModel) RecentPatterns(n int) []Pattern {
	if n > len(m.patterns) {
		n = len(m.patterns)
	}
	out := make([]Pattern, n)
	copy(out, m.patterns[len(m.patterns)-n:])
	return out
}

// HasRecentPattern reports whether any of the last window patterns has
// one of the given types.
func (m *SelfModel) HasRecentPattern(window int, types ...PatternType) bool {
	for _, p := range m.RecentPatterns(window) {
		for _, t := range types {
			if p.Type == t {
				return true
			}
		}
	}
	return false
}

// Analyze runs every detector over the trailing history and appends
// any new patterns. It is a no-op until 10 snapshots exist.
func (m *SelfModel) Analyze(traits agent.Traits) []Pattern {
	if len(m.history) < analyzeMinHistory {
		return nil
	}

	var added []Pattern
	for _, d := range m.detectors {
		p, ok := d.eval(m, traits)
		if !ok || m.known(p) {
			continue
		}
		m.patterns = append(m.patterns, p)
		added = append(added, p)

		switch p.Type {
		case PatternFatigueAccumulation, PatternEnergyDepletion:
			m.fatigueScore = clamp01(m.fatigueScore + 0.1)
		case PatternTerrainPreference, PatternTerrainAvoidance:
			m.envSensitivity = clamp01(m.envSensitivity + 0.05)
		}
	}
	return added
}

func (m *SelfModel) known(p Pattern) bool {
	for _, have := range m.patterns {
		if have == p {
			return true
		}
	}
	return false
}

// detectTerrainAffinity compares each terrain's average reward against
// the global average; a gap over the margin in either direction emits
// a preference or avoidance pattern for the widest offender.
func (m *SelfModel) detectTerrainAffinity(traits agent.Traits) (Pattern, bool) {
	rewards := make(map[world.TerrainType][]float64)
	var all []float64
	for _, s := range m.history {
		rewards[s.Terrain] = append(rewards[s.Terrain], s.Reward)
		all = append(all, s.Reward)
	}
	if len(all) == 0 {
		return Pattern{}, false
	}
	global := meanOf(all)

	var (
		best    Pattern
		bestGap float64
	)
	for t := world.TerrainType(0); t < world.NumTerrains; t++ {
		samples := rewards[t]
		if len(samples) < terrainMinSamples {
			continue
		}
		gap := meanOf(samples) - global
		switch {
		case gap > terrainMargin && gap > bestGap:
			bestGap = gap
			best = Pattern{
				Type:        PatternTerrainPreference,
				Description: fmt.Sprintf("thrives in %s terrain", t),
				Condition:   "terrain=" + t.String(),
				Outcome:     "above-average rewards",
			}
		case -gap > terrainMargin && -gap > bestGap:
			bestGap = -gap
			best = Pattern{
				Type:        PatternTerrainAvoidance,
				Description: fmt.Sprintf("struggles in %s terrain", t),
				Condition:   "terrain=" + t.String(),
				Outcome:     "below-average rewards",
			}
		}
	}
	return best, bestGap > 0
}

// detectEnergyLearning compares study rewards gathered at high versus
// low energy.
func (m *SelfModel) detectEnergyLearning(traits agent.Traits) (Pattern, bool) {
	var high, low []float64
	for _, s := range m.history {
		if s.Action != agent.ActionStudy {
			continue
		}
		if s.Energy >= 50 {
			high = append(high, s.Reward)
		} else {
			low = append(low, s.Reward)
		}
	}
	if len(high) < 3 || len(low) < 3 {
		return Pattern{}, false
	}
	if meanOf(high)-meanOf(low) <= energyLearningMargin {
		return Pattern{}, false
	}
	return Pattern{
		Type:        PatternEnergyLearning,
		Description: "learns markedly better when energized",
		Condition:   "energy>=50",
		Action:      agent.ActionStudy.String(),
		Outcome:     "higher study rewards",
	}, true
}

// detectPersonalityBehavior checks whether discipline and observed
// study rate agree.
func (m *SelfModel) detectPersonalityBehavior(traits agent.Traits) (Pattern, bool) {
	window := m.tail(15)
	if len(window) < 15 {
		return Pattern{}, false
	}
	studies := 0
	for _, s := range window {
		if s.Action == agent.ActionStudy {
			studies++
		}
	}
	rate := float64(studies) / float64(len(window))

	switch {
	case traits.Discipline > 0.6 && rate > traits.Discipline-0.2:
		return Pattern{
			Type:        PatternPersonalityBehavior,
			Description: "discipline shows as steady study habits",
			Condition:   "discipline>0.6",
			Action:      agent.ActionStudy.String(),
		}, true
	case traits.Discipline < 0.4 && rate < traits.Discipline+0.2 && rate < 0.2:
		return Pattern{
			Type:        PatternPersonalityBehavior,
			Description: "low discipline shows as scattered attention",
			Condition:   "discipline<0.4",
		}, true
	}
	return Pattern{}, false
}

// detectMotivationTrend fires when one motivation dominated most of
// the last ten cycles.
func (m *SelfModel) detectMotivationTrend(traits agent.Traits) (Pattern, bool) {
	window := m.tail(10)
	if len(window) < 10 {
		return Pattern{}, false
	}
	counts := make(map[agent.Motivation]int)
	for _, s := range window {
		counts[s.Dominant]++
	}
	for mot, n := range counts {
		if n >= 7 {
			return Pattern{
				Type:        PatternMotivationTrend,
				Description: fmt.Sprintf("persistently driven by %s", mot),
				Condition:   "dominant=" + mot.String(),
			}, true
		}
	}
	return Pattern{}, false
}

// detectFatigue fires on sustained low energy.
func (m *SelfModel) detectFatigue(traits agent.Traits) (Pattern, bool) {
	window := m.tail(fatigueWindow)
	if len(window) < fatigueWindow {
		return Pattern{}, false
	}
	lowCycles := 0
	for _, s := range window {
		if s.Energy < 40 {
			lowCycles++
		}
	}
	if lowCycles < fatigueThreshold {
		return Pattern{}, false
	}
	return Pattern{
		Type:        PatternFatigueAccumulation,
		Description: "energy stays depleted across many cycles",
		Condition:   "energy<40 sustained",
		Outcome:     "chronic fatigue",
	}, true
}

// detectEnergyShift fires on a steep drop across the last ten cycles,
// or on repeated sharp recoveries from a depleted state.
func (m *SelfModel) detectEnergyShift(traits agent.Traits) (Pattern, bool) {
	window := m.tail(10)
	if len(window) < 10 {
		return Pattern{}, false
	}

	half := len(window) / 2
	var early, late []float64
	for i, s := range window {
		if i < half {
			early = append(early, s.Energy)
		} else {
			late = append(late, s.Energy)
		}
	}
	if meanOf(early)-meanOf(late) > depletionDrop {
		return Pattern{
			Type:        PatternEnergyDepletion,
			Description: "energy is draining rapidly",
			Condition:   "recent sharp decline",
			Outcome:     "approaching exhaustion",
		}, true
	}

	recoveries := 0
	for i := 1; i < len(window); i++ {
		if window[i-1].Happiness < 40 && window[i].Happiness-window[i-1].Happiness > recoveryJump {
			recoveries++
		}
	}
	if recoveries >= 2 {
		return Pattern{
			Type:        PatternEmotionRecovery,
			Description: "bounces back quickly from low spirits",
			Condition:   "happiness<40 then rebound",
			Outcome:     "emotional resilience",
		}, true
	}
	return Pattern{}, false
}

// detectRepetition fires once the repetition index crosses 0.4.
func (m *SelfModel) detectRepetition(traits agent.Traits) (Pattern, bool) {
	if m.repetitionIndex <= 0.4 || len(m.recentActions) == 0 {
		return Pattern{}, false
	}
	last := m.recentActions[len(m.recentActions)-1]
	return Pattern{
		Type:        PatternRepetitionLoop,
		Description: fmt.Sprintf("stuck repeating %s", last),
		Condition:   "repetition_index>0.4",
		Action:      last.String(),
	}, true
}

// PatternAlignmentBonus is a small intrinsic reward for acting in
// accordance with previously observed positive patterns.
func (m *SelfModel) PatternAlignmentBonus(a agent.Action, terrain world.TerrainType, energy float64) float64 {
	bonus := 0.0
	for _, p := range m.patterns {
		switch p.Type {
		case PatternTerrainPreference:
			if p.Condition == "terrain="+terrain.String() {
				bonus += 0.5
			}
		case PatternEnergyLearning:
			if a == agent.ActionStudy && energy >= 50 {
				bonus += 0.5
			}
		case PatternEmotionRecovery:
			if a == agent.ActionReflect {
				bonus += 0.3
			}
		}
	}
	if bonus > 1.0 {
		bonus = 1.0
	}
	return bonus
}

// AvoidsTerrain reports whether an avoidance pattern has been mined
// for the given terrain.
func (m *SelfModel) AvoidsTerrain(terrain world.TerrainType) bool {
	for _, p := range m.patterns {
		if p.Type == PatternTerrainAvoidance && p.Condition == "terrain="+terrain.String() {
			return true
		}
	}
	return false
}

// Narrative renders up to five clauses describing the strongest
// currently observable signals. Presentational only.
func (m *SelfModel) Narrative(traits agent.Traits) string {
	var clauses []string

	if a, ok := m.habitualAction(); ok {
		clauses = append(clauses, fmt.Sprintf("I find myself drawn to %s", a))
	}
	if len(m.history) >= analyzeMinHistory {
		var energies []float64
		for _, s := range m.history {
			energies = append(energies, s.Energy)
		}
		if meanOf(energies) < 40 {
			clauses = append(clauses, "I have been running on fumes lately")
		}
	}
	clauses = append(clauses, "my "+dominantTrait(traits)+" shapes how I see this world")
	if t, ok := m.preferredTerrain(); ok {
		clauses = append(clauses, fmt.Sprintf("the %s feels like home", t))
	}
	if len(m.patterns) > 0 {
		clauses = append(clauses, "I recently noticed a "+m.patterns[len(m.patterns)-1].Type.String()+" in myself")
	}

	if len(clauses) > 5 {
		clauses = clauses[:5]
	}
	return strings.Join(clauses, "; ")
}

func (m *SelfModel) habitualAction() (agent.Action, bool) {
	if len(m.history) < analyzeMinHistory {
		return 0, false
	}
	counts := make(map[agent.Action]int)
	for _, s := range m.history {
		counts[s.Action]++
	}
	for _, a := range agent.AllActions() {
		if float64(counts[a]) > 0.4*float64(len(m.history)) {
			return a, true
		}
	}
	return 0, false
}

func (m *SelfModel) preferredTerrain() (world.TerrainType, bool) {
	rewards := make(map[world.TerrainType][]float64)
	var all []float64
	for _, s := range m.history {
		rewards[s.Terrain] = append(rewards[s.Terrain], s.Reward)
		all = append(all, s.Reward)
	}
	if len(all) == 0 {
		return 0, false
	}
	global := meanOf(all)
	for t := world.TerrainType(0); t < world.NumTerrains; t++ {
		if len(rewards[t]) >= terrainMinSamples && meanOf(rewards[t])-global > terrainMargin {
			return t, true
		}
	}
	return 0, false
}

func dominantTrait(t agent.Traits) string {
	name, val := "optimism", t.Optimism
	if t.Discipline > val {
		name, val = "discipline", t.Discipline
	}
	if t.CuriosityBias > val {
		name, val = "curiosity", t.CuriosityBias
	}
	if t.RiskTolerance > val {
		name, val = "boldness", t.RiskTolerance
	}
	if t.SocialAffinity > val {
		name = "warmth"
	}
	return name
}

func (m *SelfModel) lastActionsIdentical(n int) bool {
	if len(m.recentActions) < n {
		return false
	}
	tail := m.recentActions[len(m.recentActions)-n:]
	for _, a := range tail[1:] {
		if a != tail[0] {
			return false
		}
	}
	return true
}

func (m *SelfModel) tail(n int) []StateSnap {
	if n > len(m.history) {
		n = len(m.history)
	}
	return m.history[len(m.history)-n:]
}

// VisitCount is a persisted per-tile visit counter.
type VisitCount struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Count int `json:"count"`
}

// SelfModelExport is the persisted slice of the model. Live pattern
// lists are unbounded; only the trailing patternPersistLimit entries
// survive a save, a deliberate retention policy.
type SelfModelExport struct {
	History         []StateSnap  `json:"history"`
	Patterns        []Pattern    `json:"patterns"`
	Visits          []VisitCount `json:"visits"`
	NoveltyHistory  []float64    `json:"novelty_history"`
	RepetitionIndex float64      `json:"repetition_index"`
	FatigueScore    float64      `json:"fatigue_score"`
	EnvSensitivity  float64      `json:"env_sensitivity"`
}

// Export captures the model state for persistence.
func (m *SelfModel) Export() SelfModelExport {
	visits := make([]VisitCount, 0, len(m.visits))
	for c, n := range m.visits {
		visits = append(visits, VisitCount{X: c.X, Y: c.Y, Count: n})
	}
	return SelfModelExport{
		History:         append([]StateSnap(nil), m.history...),
		Patterns:        m.RecentPatterns(m.patternPersistLimit),
		Visits:          visits,
		NoveltyHistory:  append([]float64(nil), m.noveltyHistory...),
		RepetitionIndex: m.repetitionIndex,
		FatigueScore:    m.fatigueScore,
		EnvSensitivity:  m.envSensitivity,
	}
}

// Restore rebuilds the model from a prior export.
func (m *SelfModel) Restore(exp SelfModelExport) {
	m.history = append([]StateSnap(nil), exp.History...)
	m.patterns = append([]Pattern(nil), exp.Patterns...)
	m.visits = make(map[world.Coord]int, len(exp.Visits))
	for _, v := range exp.Visits {
		m.visits[world.Coord{X: v.X, Y: v.Y}] = v.Count
	}
	m.noveltyHistory = append([]float64(nil), exp.NoveltyHistory...)
	m.repetitionIndex = clamp01(exp.RepetitionIndex)
	m.fatigueScore = clamp01(exp.FatigueScore)
	m.envSensitivity = clamp01(exp.EnvSensitivity)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
