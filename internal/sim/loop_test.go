package sim

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/driftmind/internal/agent"
	"github.com/mkarlsen/driftmind/internal/cognition"
	"github.com/mkarlsen/driftmind/internal/config"
	"github.com/mkarlsen/driftmind/internal/persistence"
	"github.com/mkarlsen/driftmind/internal/world"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Cycles = 30
	return cfg
}

func TestLoopRunsCycles(t *testing.T) {
	l := New(testConfig(), testLogger(), nil)

	for i := 0; i < 30; i++ {
		report := l.RunCycle()
		require.Equal(t, i+1, report.Cycle)

		v := l.state.Vitals
		assert.GreaterOrEqual(t, v.Energy, 0.0)
		assert.LessOrEqual(t, v.Energy, 100.0)
		assert.GreaterOrEqual(t, v.Happiness, 0.0)
		assert.LessOrEqual(t, v.Happiness, 100.0)
		assert.GreaterOrEqual(t, v.Focus, 0.0)
		assert.LessOrEqual(t, v.Focus, 100.0)
	}

	assert.GreaterOrEqual(t, l.state.CellsDiscovered, 1)
	assert.LessOrEqual(t, l.state.CellsDiscovered, l.env.Grid.CellCount())
}

func TestLoopDeterministicUnderFixedSeed(t *testing.T) {
	a := New(testConfig(), testLogger(), nil)
	b := New(testConfig(), testLogger(), nil)

	for i := 0; i < 20; i++ {
		ra := a.RunCycle()
		rb := b.RunCycle()
		assert.Equal(t, ra.Action, rb.Action, "cycle %d", i+1)
		assert.InDelta(t, ra.Reward, rb.Reward, 1e-9, "cycle %d", i+1)
	}
}

func TestRunHonorsContextCancel(t *testing.T) {
	l := New(testConfig(), testLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunCompletesBudget(t *testing.T) {
	cfg := testConfig()
	cfg.Cycles = 15
	l := New(cfg, testLogger(), nil)

	require.NoError(t, l.Run(context.Background()))
	assert.LessOrEqual(t, l.cycle, 15)
}

func TestMemorySurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.db")
	cfg := testConfig()
	cfg.Cycles = 12

	db, err := persistence.Open(path)
	require.NoError(t, err)

	first := New(cfg, testLogger(), db)
	require.NoError(t, first.Run(context.Background()))
	firstCycle := first.cycle
	firstKnowledge := first.state.Vitals.Knowledge
	require.NoError(t, db.Close())

	db2, err := persistence.Open(path)
	require.NoError(t, err)
	defer db2.Close()

	second := New(cfg, testLogger(), db2)
	assert.Equal(t, firstCycle, second.cycle)
	assert.Equal(t, firstKnowledge, second.state.Vitals.Knowledge)
	assert.Equal(t, first.state.Position, second.state.Position)
	assert.Equal(t, first.state.CellsDiscovered, second.state.CellsDiscovered)
}

func TestIntrinsicRewardPenalizesRepetition(t *testing.T) {
	l := New(testConfig(), testLogger(), nil)
	snap := agent.Snapshot{Vitals: agent.NewVitals(), Terrain: world.TerrainPlains}

	base := l.intrinsicReward(agent.ActionRest, snap, 0)

	l.model.Restore(cognition.SelfModelExport{RepetitionIndex: 1.0})
	repeated := l.intrinsicReward(agent.ActionRest, snap, 0)

	assert.Less(t, repeated, base)
	assert.InDelta(t, base-0.7, repeated, 1e-9)
}

func TestIntrinsicRewardPenalizesAvoidedTerrain(t *testing.T) {
	l := New(testConfig(), testLogger(), nil)
	snap := agent.Snapshot{Vitals: agent.NewVitals(), Terrain: world.TerrainMountains}

	base := l.intrinsicReward(agent.ActionRest, snap, 0)

	l.model.Restore(cognition.SelfModelExport{Patterns: []cognition.Pattern{{
		Type:      cognition.PatternTerrainAvoidance,
		Condition: "terrain=mountains",
	}}})

	assert.InDelta(t, base-0.3, l.intrinsicReward(agent.ActionRest, snap, 0), 1e-9)
}

func TestCycleLogsWorldEvents(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	l := New(testConfig(), log, nil)

	for i := 0; i < 100; i++ {
		l.RunCycle()
	}

	assert.Contains(t, buf.String(), "world event")
}

func TestRenderMapShowsAgent(t *testing.T) {
	l := New(testConfig(), testLogger(), nil)

	m := l.RenderMap()
	assert.Contains(t, m, "@")
	assert.Contains(t, m, "?")

	lines := 1
	for _, r := range m {
		if r == '\n' {
			lines++
		}
	}
	assert.Equal(t, l.env.Grid.Height, lines)
}
