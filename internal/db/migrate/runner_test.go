package migrate

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/db"
)

func TestRunRejectsEmptyDSN(t *testing.T) {
	err := Run("", "up")
	if err == nil {
		t.Fatal("Run accepted an empty DSN")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("error = %q, want mention of DATABASE_URL", err)
	}
}

func TestRunRejectsUnknownDirection(t *testing.T) {
	for _, direction := range []string{"", "sideways", "UP", "Down"} {
		if err := Run("postgres://localhost/test", direction); err == nil {
			t.Errorf("Run accepted direction %q", direction)
		}
	}
}

// Every up migration must have a matching down migration.
func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(db.MigrationFS, "migrations/*.up.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(ups) == 0 {
		t.Fatal("no embedded up migrations found")
	}
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		if _, err := fs.Stat(db.MigrationFS, down); err != nil {
			t.Errorf("missing down migration for %s", up)
		}
	}
}
