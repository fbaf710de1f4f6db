package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/apexev/apexev-backend/pkg/config"
	"github.com/apexev/apexev-backend/pkg/db"
	"github.com/apexev/apexev-backend/pkg/logger"
	"github.com/apexev/apexev-backend/pkg/migrate"
)

type migrateFlags struct {
	cmd      string
	dir      string
	name     string
	version  string
	embedded bool
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	var f migrateFlags
	flag.StringVar(&f.cmd, "cmd", "up", "migration command: up|down|redo|status|version|create|validate")
	flag.StringVar(&f.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&f.name, "name", "", "migration name (for create)")
	flag.StringVar(&f.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.BoolVar(&f.embedded, "embedded", false, "use the migrations compiled into the binary instead of -dir")
	flag.Parse()

	// create and validate only touch the filesystem
	switch f.cmd {
	case "create":
		if f.name == "" {
			exitf("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(f.dir, f.name)
		if err != nil {
			exitf("failed to create migration: %v", err)
		}
		fmt.Println("created migration:", path)
		return
	case "validate":
		validate := func() error { return migrate.ValidateDir(f.dir) }
		if f.embedded {
			validate = migrate.ValidateEmbedded
		}
		if err := validate(); err != nil {
			exitf("migration validation failed: %v", err)
		}
		fmt.Println("migration validation passed")
		return
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Fields:      map[string]any{"env": cfg.App.Env},
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"cmd":      f.cmd,
		"dir":      f.dir,
		"embedded": f.embedded,
	})

	if cfg.DB.IsSQLite() {
		exitf("goose migrations target postgres; %s=%s is not supported", config.EnvDBDriver, cfg.DB.Driver)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.SQL()
	requireResource(ctx, logg, "sql database", err)

	source := migrate.Embedded()
	if !f.embedded {
		source, err = migrate.Dir(f.dir)
		requireResource(ctx, logg, "migrations dir", err)
	}
	migrator, err := migrate.NewMigrator(sqlDB, source, logg)
	requireResource(ctx, logg, "migrator", err)

	logg.Info(ctx, "migrate ready")
	if err := execute(ctx, migrator, f); err != nil {
		logg.Error(ctx, "migration failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migration finished")
}

func execute(ctx context.Context, migrator *migrate.Migrator, f migrateFlags) error {
	switch f.cmd {
	case "up", "down", "redo", "status":
		return migrator.Apply(ctx, f.cmd)
	case "version":
		if f.version == "" {
			return fmt.Errorf("missing -version for version command")
		}
		return migrator.MigrateTo(ctx, f.version)
	default:
		return fmt.Errorf("unknown -cmd value %q", f.cmd)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
