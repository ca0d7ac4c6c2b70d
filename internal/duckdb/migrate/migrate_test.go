package migrate

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	_ "github.com/duckdb/duckdb-go/v2"
)

const latestVersion = 2

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunAppliesAllMigrations(t *testing.T) {
	db := openTestDB(t)
	r := NewRunner(db)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, table := range []string{"matches", "matches_by_minute", "schema_migrations"} {
		var name string
		err := db.QueryRow("SELECT table_name FROM information_schema.tables WHERE table_name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	r := NewRunner(db)
	ctx := context.Background()

	if err := r.Run(ctx); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := r.Run(ctx); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	cur, pending, err := r.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if cur != latestVersion || pending != 0 {
		t.Errorf("expected version=%d pending=0, got version=%d pending=%d", latestVersion, cur, pending)
	}
}

func TestStatusBeforeRun(t *testing.T) {
	db := openTestDB(t)
	r := NewRunner(db)

	cur, pending, err := r.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if cur != 0 || pending != latestVersion {
		t.Errorf("before run: expected version=0 pending=%d, got version=%d pending=%d", latestVersion, cur, pending)
	}
}

func TestRunAppliesInVersionOrder(t *testing.T) {
	db := openTestDB(t)
	files := fstest.MapFS{
		"010_rename.sql": {Data: []byte("ALTER TABLE t RENAME COLUMN a TO b")},
		"002_create.sql": {Data: []byte("CREATE TABLE t (a INTEGER)")},
		"README.md":      {Data: []byte("not a migration")},
	}
	r := newRunnerFS(db, files)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	cur, pending, err := r.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if cur != 10 || pending != 0 {
		t.Fatalf("version=%d pending=%d, want 10 and 0", cur, pending)
	}
	if _, err := db.Exec("INSERT INTO t (b) VALUES (1)"); err != nil {
		t.Fatalf("renamed column missing: %v", err)
	}
}

func TestRunRejectsBadFiles(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"duplicate version": {
			"001_a.sql": {Data: []byte("SELECT 1")},
			"1_b.sql":   {Data: []byte("SELECT 1")},
		},
		"non-numeric version": {
			"abc_a.sql": {Data: []byte("SELECT 1")},
		},
		"zero version": {
			"000_a.sql": {Data: []byte("SELECT 1")},
		},
	}
	for name, files := range cases {
		t.Run(name, func(t *testing.T) {
			if err := newRunnerFS(openTestDB(t), files).Run(context.Background()); err == nil {
				t.Fatal("Run succeeded, want error")
			}
		})
	}
}

func TestRunFailedMigrationIsNotRecorded(t *testing.T) {
	db := openTestDB(t)
	files := fstest.MapFS{
		"001_ok.sql":  {Data: []byte("CREATE TABLE ok (a INTEGER)")},
		"002_bad.sql": {Data: []byte("CREATE TABLE")},
	}
	r := newRunnerFS(db, files)
	if err := r.Run(context.Background()); err == nil {
		t.Fatal("Run succeeded, want error from 002_bad.sql")
	}
	cur, pending, err := r.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if cur != 1 || pending != 1 {
		t.Fatalf("version=%d pending=%d, want 1 and 1", cur, pending)
	}
}
