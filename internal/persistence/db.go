// Package persistence provides SQLite-based storage for everything
// the agent learns: the value table, mined patterns, goals,
// personality, and the discovered world. Saves are whole-table
// replaces; a failed load means "no prior state", never a fatal error.
package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mkarlsen/driftmind/internal/agent"
	"github.com/mkarlsen/driftmind/internal/cognition"
	"github.com/mkarlsen/driftmind/internal/goals"
	"github.com/mkarlsen/driftmind/internal/learning"
	"github.com/mkarlsen/driftmind/internal/world"
)

// DB wraps a SQLite connection for agent memory persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS qvalues (
		context TEXT NOT NULL,
		action TEXT NOT NULL,
		value REAL NOT NULL,
		PRIMARY KEY (context, action)
	);

	CREATE TABLE IF NOT EXISTS patterns (
		position INTEGER PRIMARY KEY,
		type TEXT NOT NULL,
		description TEXT NOT NULL,
		condition TEXT NOT NULL,
		action TEXT,
		outcome TEXT
	);

	CREATE TABLE IF NOT EXISTS self_model (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		history_json TEXT NOT NULL,
		visits_json TEXT NOT NULL,
		novelty_json TEXT NOT NULL,
		repetition_index REAL NOT NULL,
		fatigue_score REAL NOT NULL,
		env_sensitivity REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS goals (
		id TEXT PRIMARY KEY,
		bucket TEXT NOT NULL,
		description TEXT NOT NULL,
		type INTEGER NOT NULL,
		target REAL NOT NULL,
		progress REAL NOT NULL,
		priority REAL NOT NULL,
		status INTEGER NOT NULL,
		created_cycle INTEGER NOT NULL,
		closed_cycle INTEGER NOT NULL,
		routing INTEGER NOT NULL,
		target_resource INTEGER NOT NULL,
		safe_only INTEGER NOT NULL,
		baseline_cells INTEGER NOT NULL,
		baseline_collected INTEGER NOT NULL,
		baseline_knowledge REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS personality (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		optimism REAL NOT NULL,
		discipline REAL NOT NULL,
		curiosity_bias REAL NOT NULL,
		risk_tolerance REAL NOT NULL,
		social_affinity REAL NOT NULL,
		last_update_cycle INTEGER NOT NULL,
		history_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cells (
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		terrain TEXT NOT NULL,
		resources_json TEXT NOT NULL,
		discovered INTEGER NOT NULL,
		visit_count INTEGER NOT NULL,
		PRIMARY KEY (x, y)
	);

	CREATE TABLE IF NOT EXISTS agent_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		pos_x INTEGER NOT NULL,
		pos_y INTEGER NOT NULL,
		energy REAL NOT NULL,
		happiness REAL NOT NULL,
		focus REAL NOT NULL,
		knowledge REAL NOT NULL,
		social_need REAL NOT NULL,
		inventory_json TEXT NOT NULL,
		cells_discovered INTEGER NOT NULL,
		last_rest INTEGER NOT NULL,
		last_study INTEGER NOT NULL,
		last_reflection INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sim_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_goals_bucket ON goals(bucket);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveValues writes the learned value table (full replace).
func (db *DB) SaveValues(values []learning.QValue) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM qvalues"); err != nil {
		return err
	}

	stmt, err := tx.Preparex("INSERT INTO qvalues (context, action, value) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, q := range values {
		if _, err := stmt.Exec(string(q.Context), q.Action, q.Value); err != nil {
			return fmt.Errorf("insert qvalue %s/%s: %w", q.Context, q.Action, err)
		}
	}
	return tx.Commit()
}

// LoadValues reads the full value table.
func (db *DB) LoadValues() ([]learning.QValue, error) {
	rows, err := db.conn.Queryx("SELECT context, action, value FROM qvalues")
	if err != nil {
		return nil, fmt.Errorf("load qvalues: %w", err)
	}
	defer rows.Close()

	var out []learning.QValue
	for rows.Next() {
		var (
			ctx, action string
			value       float64
		)
		if err := rows.Scan(&ctx, &action, &value); err != nil {
			return nil, fmt.Errorf("scan qvalue: %w", err)
		}
		out = append(out, learning.QValue{Context: learning.Context(ctx), Action: action, Value: value})
	}
	return out, rows.Err()
}

// SaveSelfModel writes the self-model export, patterns in their own
// table and the rest as JSON blobs (full replace).
func (db *DB) SaveSelfModel(exp cognition.SelfModelExport) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM patterns"); err != nil {
		return err
	}
	for i, p := range exp.Patterns {
		_, err := tx.Exec(
			"INSERT INTO patterns (position, type, description, condition, action, outcome) VALUES (?, ?, ?, ?, ?, ?)",
			i, p.Type.String(), p.Description, p.Condition, p.Action, p.Outcome,
		)
		if err != nil {
			return fmt.Errorf("insert pattern %d: %w", i, err)
		}
	}

	historyJSON, _ := json.Marshal(exp.History)
	visitsJSON, _ := json.Marshal(exp.Visits)
	noveltyJSON, _ := json.Marshal(exp.NoveltyHistory)

	_, err = tx.Exec(`INSERT OR REPLACE INTO self_model
		(id, history_json, visits_json, novelty_json, repetition_index, fatigue_score, env_sensitivity)
		VALUES (1, ?, ?, ?, ?, ?, ?)`,
		string(historyJSON), string(visitsJSON), string(noveltyJSON),
		exp.RepetitionIndex, exp.FatigueScore, exp.EnvSensitivity,
	)
	if err != nil {
		return fmt.Errorf("insert self_model: %w", err)
	}
	return tx.Commit()
}

// LoadSelfModel reads the self-model export back.
func (db *DB) LoadSelfModel() (cognition.SelfModelExport, error) {
	var exp cognition.SelfModelExport

	var (
		historyJSON, visitsJSON, noveltyJSON string
	)
	err := db.conn.QueryRowx(`SELECT history_json, visits_json, novelty_json,
		repetition_index, fatigue_score, env_sensitivity FROM self_model WHERE id = 1`).
		Scan(&historyJSON, &visitsJSON, &noveltyJSON, &exp.RepetitionIndex, &exp.FatigueScore, &exp.EnvSensitivity)
	if err != nil {
		return exp, fmt.Errorf("load self_model: %w", err)
	}
	if err := json.Unmarshal([]byte(historyJSON), &exp.History); err != nil {
		return exp, fmt.Errorf("decode self_model history: %w", err)
	}
	if err := json.Unmarshal([]byte(visitsJSON), &exp.Visits); err != nil {
		return exp, fmt.Errorf("decode self_model visits: %w", err)
	}
	if err := json.Unmarshal([]byte(noveltyJSON), &exp.NoveltyHistory); err != nil {
		return exp, fmt.Errorf("decode self_model novelty: %w", err)
	}

	rows, err := db.conn.Queryx("SELECT type, description, condition, action, outcome FROM patterns ORDER BY position")
	if err != nil {
		return exp, fmt.Errorf("load patterns: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p Pattern
		if err := rows.Scan(&p.Type, &p.Description, &p.Condition, &p.Action, &p.Outcome); err != nil {
			return exp, fmt.Errorf("scan pattern: %w", err)
		}
		ty, err := cognition.ParsePatternType(p.Type)
		if err != nil {
			continue
		}
		exp.Patterns = append(exp.Patterns, cognition.Pattern{
			Type: ty, Description: p.Description, Condition: p.Condition,
			Action: p.Action, Outcome: p.Outcome,
		})
	}
	return exp, rows.Err()
}

// Pattern is the row form of a mined pattern.
type Pattern struct {
	Type        string `db:"type"`
	Description string `db:"description"`
	Condition   string `db:"condition"`
	Action      string `db:"action"`
	Outcome     string `db:"outcome"`
}

// SaveGoals writes all goal lists (full replace).
func (db *DB) SaveGoals(exp goals.Export) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM goals"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO goals
		(id, bucket, description, type, target, progress, priority, status,
		 created_cycle, closed_cycle, routing, target_resource, safe_only,
		 baseline_cells, baseline_collected, baseline_knowledge)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	insert := func(bucket string, list []goals.Goal) error {
		for _, g := range list {
			safeOnly := 0
			if g.SafeOnly {
				safeOnly = 1
			}
			_, err := stmt.Exec(
				g.ID, bucket, g.Description, g.Type, g.Target, g.Progress,
				g.Priority, g.Status, g.CreatedCycle, g.ClosedCycle,
				g.Routing, g.TargetResource, safeOnly,
				g.BaselineCells, g.BaselineCollected, g.BaselineKnowledge,
			)
			if err != nil {
				return fmt.Errorf("insert goal %s: %w", g.ID, err)
			}
		}
		return nil
	}

	if err := insert("active", exp.Active); err != nil {
		return err
	}
	if err := insert("completed", exp.Completed); err != nil {
		return err
	}
	if err := insert("failed", exp.Failed); err != nil {
		return err
	}
	if err := db.saveMetaTx(tx, "goals_last_creation", fmt.Sprintf("%d", exp.LastCreation)); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadGoals reads the goal lists back.
func (db *DB) LoadGoals() (goals.Export, error) {
	var exp goals.Export

	rows, err := db.conn.Queryx(`SELECT id, bucket, description, type, target, progress,
		priority, status, created_cycle, closed_cycle, routing, target_resource,
		safe_only, baseline_cells, baseline_collected, baseline_knowledge FROM goals`)
	if err != nil {
		return exp, fmt.Errorf("load goals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			g        goals.Goal
			bucket   string
			safeOnly int
		)
		if err := rows.Scan(&g.ID, &bucket, &g.Description, &g.Type, &g.Target,
			&g.Progress, &g.Priority, &g.Status, &g.CreatedCycle, &g.ClosedCycle,
			&g.Routing, &g.TargetResource, &safeOnly,
			&g.BaselineCells, &g.BaselineCollected, &g.BaselineKnowledge); err != nil {
			return exp, fmt.Errorf("scan goal: %w", err)
		}
		g.SafeOnly = safeOnly != 0
		switch bucket {
		case "active":
			exp.Active = append(exp.Active, g)
		case "completed":
			exp.Completed = append(exp.Completed, g)
		case "failed":
			exp.Failed = append(exp.Failed, g)
		}
	}
	if err := rows.Err(); err != nil {
		return exp, err
	}

	if v, err := db.GetMeta("goals_last_creation"); err == nil {
		fmt.Sscanf(v, "%d", &exp.LastCreation)
	}
	return exp, nil
}

// SavePersonality writes the trait set and its drift history.
func (db *DB) SavePersonality(p *agent.Personality) error {
	historyJSON, _ := json.Marshal(p.History)
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO personality
		(id, optimism, discipline, curiosity_bias, risk_tolerance, social_affinity,
		 last_update_cycle, history_json)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)`,
		p.Traits.Optimism, p.Traits.Discipline, p.Traits.CuriosityBias,
		p.Traits.RiskTolerance, p.Traits.SocialAffinity,
		p.LastUpdateCycle, string(historyJSON),
	)
	if err != nil {
		return fmt.Errorf("save personality: %w", err)
	}
	return nil
}

// LoadPersonality reads the trait set back.
func (db *DB) LoadPersonality() (*agent.Personality, error) {
	p := agent.NewPersonality()
	var historyJSON string
	err := db.conn.QueryRowx(`SELECT optimism, discipline, curiosity_bias,
		risk_tolerance, social_affinity, last_update_cycle, history_json
		FROM personality WHERE id = 1`).
		Scan(&p.Traits.Optimism, &p.Traits.Discipline, &p.Traits.CuriosityBias,
			&p.Traits.RiskTolerance, &p.Traits.SocialAffinity,
			&p.LastUpdateCycle, &historyJSON)
	if err != nil {
		return nil, fmt.Errorf("load personality: %w", err)
	}
	if err := json.Unmarshal([]byte(historyJSON), &p.History); err != nil {
		return nil, fmt.Errorf("decode personality history: %w", err)
	}
	return p, nil
}

// SaveCells writes the full grid (full replace).
func (db *DB) SaveCells(cells []world.Cell) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM cells"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO cells
		(x, y, terrain, resources_json, discovered, visit_count)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range cells {
		resourcesJSON, _ := json.Marshal(c.Resources)
		discovered := 0
		if c.Discovered {
			discovered = 1
		}
		if _, err := stmt.Exec(c.X, c.Y, c.Terrain.String(), string(resourcesJSON), discovered, c.VisitCount); err != nil {
			return fmt.Errorf("insert cell (%d,%d): %w", c.X, c.Y, err)
		}
	}
	return tx.Commit()
}

// LoadCells reads the grid cells back.
func (db *DB) LoadCells() ([]world.Cell, error) {
	rows, err := db.conn.Queryx("SELECT x, y, terrain, resources_json, discovered, visit_count FROM cells")
	if err != nil {
		return nil, fmt.Errorf("load cells: %w", err)
	}
	defer rows.Close()

	var out []world.Cell
	for rows.Next() {
		var (
			c             world.Cell
			terrain       string
			resourcesJSON string
			discovered    int
		)
		if err := rows.Scan(&c.X, &c.Y, &terrain, &resourcesJSON, &discovered, &c.VisitCount); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}
		t, err := world.ParseTerrain(terrain)
		if err != nil {
			return nil, fmt.Errorf("cell (%d,%d): %w", c.X, c.Y, err)
		}
		c.Terrain = t
		c.Discovered = discovered != 0
		if err := json.Unmarshal([]byte(resourcesJSON), &c.Resources); err != nil {
			return nil, fmt.Errorf("decode cell resources: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveAgentState writes the agent's vitals and position.
func (db *DB) SaveAgentState(st *agent.State) error {
	inventoryJSON, _ := json.Marshal(st.Inventory)
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO agent_state
		(id, pos_x, pos_y, energy, happiness, focus, knowledge, social_need,
		 inventory_json, cells_discovered, last_rest, last_study, last_reflection)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.Position.X, st.Position.Y,
		st.Vitals.Energy, st.Vitals.Happiness, st.Vitals.Focus,
		st.Vitals.Knowledge, st.Vitals.SocialNeed,
		string(inventoryJSON), st.CellsDiscovered,
		st.LastRest, st.LastStudy, st.LastReflection,
	)
	if err != nil {
		return fmt.Errorf("save agent state: %w", err)
	}
	return nil
}

// LoadAgentState reads the agent's vitals and position back.
func (db *DB) LoadAgentState() (*agent.State, error) {
	st := agent.NewState()
	var inventoryJSON string
	err := db.conn.QueryRowx(`SELECT pos_x, pos_y, energy, happiness, focus,
		knowledge, social_need, inventory_json, cells_discovered,
		last_rest, last_study, last_reflection FROM agent_state WHERE id = 1`).
		Scan(&st.Position.X, &st.Position.Y,
			&st.Vitals.Energy, &st.Vitals.Happiness, &st.Vitals.Focus,
			&st.Vitals.Knowledge, &st.Vitals.SocialNeed,
			&inventoryJSON, &st.CellsDiscovered,
			&st.LastRest, &st.LastStudy, &st.LastReflection)
	if err != nil {
		return nil, fmt.Errorf("load agent state: %w", err)
	}
	if err := json.Unmarshal([]byte(inventoryJSON), &st.Inventory); err != nil {
		return nil, fmt.Errorf("decode inventory: %w", err)
	}
	return st, nil
}

// SaveMeta stores a key-value pair in simulation metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO sim_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

func (db *DB) saveMetaTx(tx *sqlx.Tx, key, value string) error {
	_, err := tx.Exec(
		"INSERT OR REPLACE INTO sim_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM sim_meta WHERE key = ?", key)
	return value, err
}
