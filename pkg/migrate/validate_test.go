package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"go.uber.org/multierr"
)

func TestValidateDirRejectsBadFiles(t *testing.T) {
	cases := map[string]string{
		"bad name":                      "-- +goose Up\n-- +goose Down\n",
		"20250101000000_x.sql":          "SELECT 1;",
		"20250101000001_unbalanced.sql": "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			file := name
			if !strings.HasSuffix(file, ".sql") {
				file = "20250101000002_Bad-Name.sql"
			}
			if err := os.WriteFile(filepath.Join(dir, file), []byte(body), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if err := ValidateDir(dir); err == nil {
				t.Fatalf("expected validation error for %s", file)
			}
		})
	}
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Reminder Index!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(path, "_add_reminder_index.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
	if _, err := CreateSQLMigration(dir, "   "); err == nil {
		t.Fatal("expected error for blank name")
	}
}

func TestCreateSQLMigrationRejectsDuplicateVersion(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	path, err := createSQLMigration(dir, "seed_services", now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if filepath.Base(path) != "20250601090000_seed_services.sql" {
		t.Fatalf("unexpected filename %s", filepath.Base(path))
	}
	if _, err := createSQLMigration(dir, "seed_services", now); err == nil {
		t.Fatal("expected duplicate migration to fail")
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	source := fstest.MapFS{
		"20250101000000_ok.sql":         {Data: []byte("-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n")},
		"20250101000001_reversed.sql":   {Data: []byte("-- +goose Down\nSELECT 1;\n-- +goose Up\nSELECT 1;\n")},
		"20250101000000_duplicate.sql":  {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"20250101000002_nested.sql":     {Data: []byte("-- +goose Up\n-- +goose StatementBegin\n-- +goose StatementBegin\n-- +goose StatementEnd\n-- +goose Down\n")},
		"20250101000003_straddling.sql": {Data: []byte("-- +goose Up\n-- +goose StatementBegin\n-- +goose Down\n-- +goose StatementEnd\n")},
		"README.md":                     {Data: []byte("not a migration")},
	}

	err := Validate(source)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	problems := multierr.Errors(err)
	if len(problems) != 4 {
		t.Fatalf("expected 4 problems, got %d: %v", len(problems), err)
	}
	for _, want := range []string{"already used", "must come before", "inside an open block", "Down section starts"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected a problem mentioning %q in %v", want, err)
		}
	}
}

func TestCreateSQLMigrationRejectsOlderVersion(t *testing.T) {
	dir := t.TempDir()
	if _, err := createSQLMigration(dir, "later", time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := createSQLMigration(dir, "earlier", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)); err == nil {
		t.Fatal("expected out-of-order migration to be rejected")
	}
}

func TestDirRejectsMissingPath(t *testing.T) {
	if _, err := Dir(""); err == nil {
		t.Fatal("expected empty dir error")
	}
	if _, err := Dir(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected missing dir error")
	}
}

func TestNewMigratorRequiresDependencies(t *testing.T) {
	if _, err := NewMigrator(nil, Embedded(), nil); err == nil {
		t.Fatal("expected missing db error")
	}
}
