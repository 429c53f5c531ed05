package sim

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/mkarlsen/driftmind/internal/world"
)

var terrainGlyphs = [world.NumTerrains]byte{
	world.TerrainForest:    'f',
	world.TerrainRuins:     'r',
	world.TerrainPlains:    '.',
	world.TerrainMountains: '^',
	world.TerrainRiver:     '~',
}

// RenderMap draws the discovered world as ASCII, '@' marking the
// agent and '?' the unknown.
func (l *Loop) RenderMap() string {
	var b strings.Builder
	for y := 0; y < l.env.Grid.Height; y++ {
		for x := 0; x < l.env.Grid.Width; x++ {
			switch {
			case l.state.Position.X == x && l.state.Position.Y == y:
				b.WriteByte('@')
			case !l.env.Grid.Cell(x, y).Discovered:
				b.WriteByte('?')
			default:
				b.WriteByte(terrainGlyphs[l.env.Grid.Cell(x, y).Terrain])
			}
		}
		if y < l.env.Grid.Height-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (l *Loop) logStatus() {
	stats := l.values.Stats()
	goalStats := l.goalMgr.Stats()

	l.log.Info("status",
		"cycle", humanize.Ordinal(l.cycle),
		"weather", l.env.Weather,
		"time", l.env.Time,
		"energy", fmt.Sprintf("%.0f", l.state.Vitals.Energy),
		"happiness", fmt.Sprintf("%.0f", l.state.Vitals.Happiness),
		"knowledge", fmt.Sprintf("%.0f", l.state.Vitals.Knowledge),
		"explored", fmt.Sprintf("%d/%d", l.state.CellsDiscovered, l.env.Grid.CellCount()),
		"contexts_learned", stats.ContextsKnown,
		"avg_reward", fmt.Sprintf("%.2f", stats.AverageReward),
		"goals_active", goalStats.Active,
		"archetype", l.personality.Archetype(),
	)
	l.log.Info("map\n" + l.RenderMap())
}

func (l *Loop) logFinalSummary() {
	stats := l.values.Stats()
	goalStats := l.goalMgr.Stats()

	topics := 0
	for _, n := range l.learnedTopics {
		topics += n
	}

	l.log.Info("journey complete",
		"cycles", humanize.Comma(int64(l.cycle)),
		"table_updates", humanize.Comma(int64(stats.TotalUpdates)),
		"contexts_learned", stats.ContextsKnown,
		"patterns_found", len(l.model.Patterns()),
		"goals_completed", goalStats.Completed,
		"goals_failed", goalStats.Failed,
		"study_sessions", topics,
		"cells_discovered", l.state.CellsDiscovered,
		"final_knowledge", fmt.Sprintf("%.0f", l.state.Vitals.Knowledge),
		"archetype", l.personality.Archetype(),
		"self_narrative", l.model.Narrative(l.personality.Traits),
	)
}
