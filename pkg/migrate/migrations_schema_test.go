package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apexev/apexev-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one %s migration, found %d", suffix, len(matches))
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks ...string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestAppointmentsMigrationCarriesReminderMarker(t *testing.T) {
	content := readMigration(t, "create_services_and_appointments")
	assertContains(t, content,
		"CREATE TYPE appointment_status AS ENUM",
		"'confirmed'",
		"CREATE TABLE IF NOT EXISTS appointments",
		"reminder_sent_at timestamptz",
		"WHERE status = 'confirmed' AND reminder_sent_at IS NULL",
	)
}

func TestNotificationsMigrationIndexesUnread(t *testing.T) {
	content := readMigration(t, "create_notifications_table")
	assertContains(t, content,
		"CREATE TABLE IF NOT EXISTS notifications",
		"is_read boolean NOT NULL DEFAULT false",
		"ON notifications (user_id, created_at DESC, id DESC)",
		"WHERE is_read = false",
	)
}

func TestChecklistMigrationOrdersBySteps(t *testing.T) {
	content := readMigration(t, "create_checklist_tables")
	assertContains(t, content,
		"CREATE TABLE IF NOT EXISTS checklist_templates",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_checklist_templates_service",
		"CREATE TABLE IF NOT EXISTS checklist_template_items",
		"CREATE TABLE IF NOT EXISTS service_checklist_items",
		"ON service_checklist_items (service_id, step_order, id)",
	)
}

func TestNotificationTemplatesMigrationSeedsReminderKey(t *testing.T) {
	content := readMigration(t, "create_notification_templates")
	assertContains(t, content,
		"CREATE TABLE IF NOT EXISTS notification_templates",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_notification_templates_key",
		"'APPOINTMENT_REMINDER'",
		"ON CONFLICT (template_key) DO NOTHING",
	)
}

func TestRescheduleMigrationClearsReminderMarker(t *testing.T) {
	content := readMigration(t, "reset_reminder_on_reschedule")
	assertContains(t, content,
		"NEW.appointment_time IS DISTINCT FROM OLD.appointment_time",
		"NEW.reminder_sent_at := NULL",
		"BEFORE UPDATE OF appointment_time ON appointments",
		"DROP TRIGGER IF EXISTS appointments_reset_reminder ON appointments",
	)
}

func TestMigrationDirectoryIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
	if err := migrate.ValidateEmbedded(); err != nil {
		t.Fatalf("validate embedded migrations: %v", err)
	}
}

func TestEmbeddedMigrationsMatchDisk(t *testing.T) {
	embedded, err := fs.Glob(migrate.Embedded(), "*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob disk: %v", err)
	}
	if len(embedded) == 0 || len(embedded) != len(onDisk) {
		t.Fatalf("embedded=%d disk=%d migrations", len(embedded), len(onDisk))
	}
}
