package integration_test

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/adebold/warehouse-network-sub010/integration/harness"
)

func loadAuditTypes(t *testing.T, dbPath string) map[string]int {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open audit db: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	rows, err := db.Query("SELECT type, COUNT(*) FROM events GROUP BY type")
	if err != nil {
		t.Fatalf("query audit events: %v", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	types := make(map[string]int)
	for rows.Next() {
		var eventType string
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			t.Fatalf("scan audit event: %v", err)
		}
		types[eventType] = count
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterate audit events: %v", err)
	}
	return types
}

func requireAuditEvents(t *testing.T, workspaceRoot string, want ...string) {
	t.Helper()
	dbPath := filepath.Join(workspaceRoot, "audit", "audit.sqlite")
	types := loadAuditTypes(t, dbPath)
	for _, eventType := range want {
		if types[eventType] == 0 {
			t.Fatalf("missing audit event %s in %s (have %v)", eventType, dbPath, types)
		}
	}
}

// initWorkspace runs goap init into a fresh directory and returns its root.
func initWorkspace(t *testing.T, binPath string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "workspace")
	harness.MustRun(t, binPath, t.TempDir(), "init", "--workspace", root)
	return root
}

// writtenPlan extracts the plan path printed by plan generate.
func writtenPlan(t *testing.T, stdout string) string {
	t.Helper()
	for _, line := range strings.Split(stdout, "\n") {
		if path, ok := strings.CutPrefix(line, "Wrote plan: "); ok {
			return strings.TrimSpace(path)
		}
	}
	t.Fatalf("no plan path in output:\n%s", stdout)
	return ""
}
