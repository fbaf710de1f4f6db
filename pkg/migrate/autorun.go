package migrate

import (
	"context"
	"fmt"

	"github.com/apexev/apexev-backend/pkg/config"
	"github.com/apexev/apexev-backend/pkg/db"
	"github.com/apexev/apexev-backend/pkg/logger"
)

// MaybeRunDev applies the bundled migrations in dev when APEXEV_AUTO_MIGRATE
// is set. SQLite stores are skipped since the schema is postgres-only.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	switch {
	case !cfg.App.IsDev(), !cfg.FeatureFlags.AutoMigrate:
		return nil
	case cfg.DB.IsSQLite():
		logg.Warn(ctx, "auto-migrate skipped for sqlite store")
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	migrator, err := NewMigrator(sqlDB, Embedded(), logg)
	if err != nil {
		return err
	}

	ctx = logg.WithField(ctx, "source", "embedded")
	logg.Info(ctx, "auto-migrating schema")
	return migrator.Apply(ctx, "up")
}
