package goals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/driftmind/internal/agent"
	"github.com/mkarlsen/driftmind/internal/world"
)

func baseSnapshot() agent.Snapshot {
	snap := agent.Snapshot{
		Vitals:          agent.NewVitals(),
		CellsDiscovered: 3,
		TotalCells:      25,
	}
	snap.Vitals.Happiness = 70
	return snap
}

func TestShouldCreateRespectsInterval(t *testing.T) {
	m := NewManager()
	assert.False(t, m.ShouldCreate(4))
	assert.True(t, m.ShouldCreate(8))

	snap := baseSnapshot()
	snap.Motivations[agent.Exploration] = 0.6
	m.Create(snap, 8)

	assert.False(t, m.ShouldCreate(12))
	assert.True(t, m.ShouldCreate(16))
}

func TestCreatePrioritizesCandidates(t *testing.T) {
	m := NewManager()
	snap := baseSnapshot()
	snap.Motivations[agent.Exploration] = 0.6 // explore, priority 0.6
	snap.Motivations[agent.Curiosity] = 0.4   // relics, priority 0.7
	snap.Vitals.Energy = 25                   // energy, priority 0.9
	snap.Vitals.Happiness = 50                // happiness, priority 0.5

	created := m.Create(snap, 8)
	require.Len(t, created, 3)

	assert.Equal(t, TypeEnergy, created[0].Type)
	assert.Equal(t, TypeCollect, created[1].Type)
	assert.Equal(t, TypeExplore, created[2].Type)
	for _, g := range created {
		assert.NotEmpty(t, g.ID)
		assert.Equal(t, StatusActive, g.Status)
	}

	// All slots taken; the happiness goal missed the cut.
	assert.Equal(t, 3, m.Stats().Active)
}

func TestProgressDeltaVsAbsolute(t *testing.T) {
	m := NewManager()
	snap := baseSnapshot()
	snap.Motivations[agent.Exploration] = 0.6
	snap.Vitals.Energy = 60

	created := m.Create(snap, 8)
	require.Len(t, created, 2)
	explore, energy := created[0], created[1]
	require.Equal(t, TypeExplore, explore.Type)
	require.Equal(t, TypeEnergy, energy.Type)

	later := snap
	later.CellsDiscovered = 6
	later.Vitals.Energy = 75
	m.UpdateProgress(later)

	assert.Equal(t, 3.0, explore.Progress) // delta from baseline of 3
	assert.Equal(t, 75.0, energy.Progress) // absolute level
}

func TestEvaluateCompletesAndRewards(t *testing.T) {
	m := NewManager()
	snap := baseSnapshot()
	snap.Vitals.Energy = 60
	created := m.Create(snap, 8)
	require.Len(t, created, 1)
	g := created[0]
	require.Equal(t, TypeEnergy, g.Type)
	require.Equal(t, 0.6, g.Priority)

	snap.Vitals.Energy = 85
	m.UpdateProgress(snap)
	completed, failed, bonus := m.Evaluate(10)

	require.Len(t, completed, 1)
	assert.Empty(t, failed)
	assert.Equal(t, StatusCompleted, completed[0].Status)
	// 5 · priority · (1 - 2/50)
	assert.InDelta(t, 5*0.6*0.96, bonus, 1e-9)
	assert.Equal(t, 0, m.Stats().Active)
	assert.Equal(t, 1, m.Stats().Completed)
}

func TestEvaluateBonusFloor(t *testing.T) {
	m := NewManager()
	snap := baseSnapshot()
	snap.Vitals.Energy = 60
	created := m.Create(snap, 0)
	require.Len(t, created, 1)

	snap.Vitals.Energy = 85
	m.UpdateProgress(snap)
	_, _, bonus := m.Evaluate(25) // slow completion hits the 0.5 floor

	assert.InDelta(t, 5*0.6*0.5, bonus, 1e-9)
}

func TestEvaluateFailsOnTimeout(t *testing.T) {
	m := NewManager()
	snap := baseSnapshot()
	snap.Motivations[agent.Exploration] = 0.6

	created := m.Create(snap, 8)
	require.Len(t, created, 1)

	completed, failed, bonus := m.Evaluate(34)
	assert.Empty(t, completed)
	require.Len(t, failed, 1)
	assert.Equal(t, StatusFailed, failed[0].Status)
	assert.Zero(t, bonus)
	assert.Equal(t, 1, m.Stats().Failed)
}

func TestActiveGoalIsHighestPriority(t *testing.T) {
	m := NewManager()
	snap := baseSnapshot()
	snap.Motivations[agent.Exploration] = 0.6
	snap.Motivations[agent.Curiosity] = 0.4
	m.Create(snap, 8)

	g := m.ActiveGoal()
	require.NotNil(t, g)
	assert.Equal(t, 0.7, g.Priority)
	assert.Equal(t, world.ResourceRelic, g.TargetResource)
}

func TestNoDuplicateGoalKinds(t *testing.T) {
	m := NewManager()
	snap := baseSnapshot()
	snap.Motivations[agent.Exploration] = 0.6

	first := m.Create(snap, 8)
	require.Len(t, first, 1)
	second := m.Create(snap, 16)
	assert.Empty(t, second)
}

func TestHistoryBounds(t *testing.T) {
	m := NewManager()
	snap := baseSnapshot()
	snap.Vitals.Energy = 60

	for cycle := 0; cycle < 30*8; cycle += 8 {
		if m.ShouldCreate(cycle) {
			m.Create(snap, cycle)
		}
		done := snap
		done.Vitals.Energy = 90
		m.UpdateProgress(done)
		m.Evaluate(cycle + 1)
	}

	assert.LessOrEqual(t, m.Stats().Completed, 20)
}

func TestExportRestoreRoundTrip(t *testing.T) {
	m := NewManager()
	snap := baseSnapshot()
	snap.Motivations[agent.Exploration] = 0.6
	snap.Vitals.Energy = 60
	m.Create(snap, 8)

	exp := m.Export()
	require.Len(t, exp.Active, 2)

	fresh := NewManager()
	fresh.Restore(exp)

	assert.Equal(t, m.Stats(), fresh.Stats())
	assert.False(t, fresh.ShouldCreate(12))
	require.NotNil(t, fresh.ActiveGoal())
	assert.Equal(t, m.ActiveGoal().ID, fresh.ActiveGoal().ID)
}
