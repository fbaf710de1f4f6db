// Package dbtest opens throwaway sqlite databases carrying the application schema.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// sqlite mirror of pkg/migrate/migrations without postgres-only types.
var schema = []string{
	`CREATE TABLE users (
		id text PRIMARY KEY,
		full_name text NOT NULL,
		email text NOT NULL UNIQUE,
		phone text,
		role text NOT NULL,
		is_active boolean NOT NULL DEFAULT 1,
		created_at datetime
	)`,
	`CREATE TABLE vehicles (
		id text PRIMARY KEY,
		customer_id text NOT NULL REFERENCES users(id),
		license_plate text NOT NULL UNIQUE,
		vin_number text,
		brand text NOT NULL,
		model text NOT NULL,
		year_manufactured integer
	)`,
	`CREATE TABLE maintenance_services (
		id text PRIMARY KEY,
		name text NOT NULL,
		description text,
		is_active boolean NOT NULL DEFAULT 1,
		created_at datetime
	)`,
	`CREATE TABLE appointments (
		id text PRIMARY KEY,
		customer_id text NOT NULL REFERENCES users(id),
		vehicle_id text NOT NULL REFERENCES vehicles(id),
		service_advisor_id text,
		appointment_time datetime NOT NULL,
		status text NOT NULL,
		requested_service text,
		notes text,
		reminder_sent_at datetime,
		created_at datetime
	)`,
	`CREATE TABLE notifications (
		id text PRIMARY KEY,
		user_id text NOT NULL REFERENCES users(id),
		message text NOT NULL,
		is_read boolean NOT NULL DEFAULT 0,
		read_at datetime,
		related_order_id text,
		created_at datetime
	)`,
	`CREATE TABLE notification_templates (
		id text PRIMARY KEY,
		template_key text NOT NULL UNIQUE,
		subject text NOT NULL,
		body text NOT NULL,
		created_at datetime
	)`,
	`CREATE TRIGGER appointments_reset_reminder
		AFTER UPDATE OF appointment_time ON appointments
		FOR EACH ROW WHEN NEW.appointment_time IS NOT OLD.appointment_time
		BEGIN
			UPDATE appointments SET reminder_sent_at = NULL WHERE id = NEW.id;
		END`,
	`CREATE TABLE checklist_templates (
		id text PRIMARY KEY,
		name text NOT NULL,
		description text,
		service_id text UNIQUE REFERENCES maintenance_services(id),
		created_at datetime
	)`,
	`CREATE TABLE checklist_template_items (
		id text PRIMARY KEY,
		template_id text NOT NULL REFERENCES checklist_templates(id) ON DELETE CASCADE,
		position integer NOT NULL,
		name text NOT NULL,
		description text
	)`,
	`CREATE TABLE service_checklist_items (
		id text PRIMARY KEY,
		service_id text NOT NULL REFERENCES maintenance_services(id),
		item_name text NOT NULL,
		item_name_en text,
		item_description text,
		item_description_en text,
		step_order integer NOT NULL,
		category text,
		estimated_minutes integer,
		is_required boolean NOT NULL DEFAULT 1,
		is_active boolean NOT NULL DEFAULT 1,
		created_at datetime,
		updated_at datetime
	)`,
}

// Open returns an isolated in-memory database with every application table created.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("failed to apply sqlite schema: %v", err)
		}
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	// one connection keeps the memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}
