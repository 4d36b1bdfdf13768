// Package planstore keeps generated plans and planning outcomes in SQLite so
// that plans can be listed, inspected and tracked across runs.
package planstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/adebold/warehouse-network-sub010/internal/planner"
)

// ErrNotFound is returned when a plan id has no stored record.
var ErrNotFound = errors.New("plan not found")

// Store manages plan records in SQLite.
type Store struct {
	DBPath string
	db     *sql.DB
}

// Record is the summary row kept for each stored plan.
type Record struct {
	ID                string
	GoalID            string
	Status            planner.PlanStatus
	EstimatedCost     float64
	EstimatedDuration time.Duration
	ActionCount       int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Outcome is one recorded planning call.
type Outcome struct {
	ID            int64
	PlanID        string
	GoalID        string
	Success       bool
	Partial       bool
	Message       string
	ExploredNodes int
	PlanningTime  time.Duration
	CreatedAt     time.Time
}

// Open opens or creates the plan database.
func Open(path string) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve plan db path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure plan db dir: %w", err)
	}

	db, err := sql.Open("sqlite", absPath)
	if err != nil {
		return nil, fmt.Errorf("open plan db: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{DBPath: absPath, db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) ensureSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS plans (
	id TEXT PRIMARY KEY,
	goal_id TEXT NOT NULL,
	status TEXT NOT NULL,
	estimated_cost REAL NOT NULL,
	estimated_duration_ms INTEGER NOT NULL,
	action_count INTEGER NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	plan_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_plans_created ON plans(created_at);

CREATE TABLE IF NOT EXISTS planning_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	plan_id TEXT,
	goal_id TEXT NOT NULL,
	success INTEGER NOT NULL,
	partial INTEGER NOT NULL,
	message TEXT,
	explored_nodes INTEGER NOT NULL,
	planning_time_ms INTEGER NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_goal ON planning_results(goal_id, created_at);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create plan schema: %w", err)
	}
	return nil
}

// SavePlan inserts the plan or replaces a stored plan with the same id.
func (s *Store) SavePlan(plan planner.Plan) error {
	if plan.ID == "" {
		return fmt.Errorf("plan id is required")
	}
	planJSON, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	createdAt := plan.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	status := plan.Status
	if status == "" {
		status = planner.StatusPending
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO plans (id, goal_id, status, estimated_cost, estimated_duration_ms,
		                              action_count, created_at, updated_at, plan_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, plan.ID, plan.Goal.ID, string(status), plan.EstimatedCost, plan.EstimatedDuration.Milliseconds(),
		len(plan.Actions), formatTime(createdAt), formatTime(time.Now()), string(planJSON))
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

// RecordResult stores the outcome of a planning call, and the plan itself
// when one was produced. It returns the outcome's row id.
func (s *Store) RecordResult(goalID string, res planner.Result) (int64, error) {
	planID := sql.NullString{}
	if res.Plan != nil {
		if err := s.SavePlan(*res.Plan); err != nil {
			return 0, err
		}
		planID = sql.NullString{String: res.Plan.ID, Valid: true}
	}

	out, err := s.db.Exec(`
		INSERT INTO planning_results (plan_id, goal_id, success, partial, message,
		                              explored_nodes, planning_time_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, planID, goalID, boolInt(res.Success), boolInt(res.Partial), res.Message,
		res.ExploredNodes, res.PlanningTime.Milliseconds(), formatTime(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("insert planning result: %w", err)
	}
	id, err := out.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("planning result id: %w", err)
	}
	return id, nil
}

// GetPlan returns the stored plan with its current status.
func (s *Store) GetPlan(id string) (planner.Plan, error) {
	var planJSON, status string
	err := s.db.QueryRow("SELECT plan_json, status FROM plans WHERE id = ?", id).Scan(&planJSON, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return planner.Plan{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return planner.Plan{}, fmt.Errorf("get plan: %w", err)
	}

	var plan planner.Plan
	if err := json.Unmarshal([]byte(planJSON), &plan); err != nil {
		return planner.Plan{}, fmt.Errorf("decode plan %s: %w", id, err)
	}
	plan.Status = planner.PlanStatus(status)
	return plan, nil
}

// ListPlans returns up to limit plan records, newest first. A limit of zero
// or less returns every record.
func (s *Store) ListPlans(limit int) ([]Record, error) {
	query := `
		SELECT id, goal_id, status, estimated_cost, estimated_duration_ms,
		       action_count, created_at, updated_at
		FROM plans
		ORDER BY created_at DESC, id ASC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var status, createdAt, updatedAt string
		var durationMS int64
		if err := rows.Scan(&rec.ID, &rec.GoalID, &status, &rec.EstimatedCost, &durationMS,
			&rec.ActionCount, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		rec.Status = planner.PlanStatus(status)
		rec.EstimatedDuration = time.Duration(durationMS) * time.Millisecond
		rec.CreatedAt = parseTime(createdAt)
		rec.UpdatedAt = parseTime(updatedAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return records, nil
}

// Outcomes returns the recorded planning calls for a goal, newest first.
func (s *Store) Outcomes(goalID string, limit int) ([]Outcome, error) {
	query := `
		SELECT id, plan_id, goal_id, success, partial, message, explored_nodes,
		       planning_time_ms, created_at
		FROM planning_results
		WHERE goal_id = ?
		ORDER BY id DESC`
	args := []any{goalID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query planning results: %w", err)
	}
	defer rows.Close()

	var outcomes []Outcome
	for rows.Next() {
		var out Outcome
		var planID, message sql.NullString
		var success, partial int
		var planningMS int64
		var createdAt string
		if err := rows.Scan(&out.ID, &planID, &out.GoalID, &success, &partial, &message,
			&out.ExploredNodes, &planningMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scan planning result: %w", err)
		}
		out.PlanID = planID.String
		out.Message = message.String
		out.Success = success != 0
		out.Partial = partial != 0
		out.PlanningTime = time.Duration(planningMS) * time.Millisecond
		out.CreatedAt = parseTime(createdAt)
		outcomes = append(outcomes, out)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate planning results: %w", err)
	}
	return outcomes, nil
}

// UpdateStatus changes the status of a stored plan, keeping plan_json in step.
func (s *Store) UpdateStatus(id string, status planner.PlanStatus) error {
	if !status.Valid() {
		return fmt.Errorf("unknown plan status %q", status)
	}
	plan, err := s.GetPlan(id)
	if err != nil {
		return err
	}
	plan.Status = status
	planJSON, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE plans
		SET status = ?,
		    updated_at = ?,
		    plan_json = ?
		WHERE id = ?
	`, string(status), formatTime(time.Now()), string(planJSON), id)
	if err != nil {
		return fmt.Errorf("update plan status: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, raw)
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
