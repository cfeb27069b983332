package database

import (
	"context"
	"fmt"
	"log/slog"

	"linkboard/internal/config"
	"linkboard/internal/middleware"

	"gorm.io/gorm"
)

// DB_SCHEMA_MODE values.
const (
	SchemaModeSQL    = "sql"    // embedded migrations only
	SchemaModeAuto   = "auto"   // GORM AutoMigrate only; refused in production
	SchemaModeHybrid = "hybrid" // migrations, then AutoMigrate outside production
)

// SchemaPlan is what ApplySchema will do for a configuration.
type SchemaPlan struct {
	Mode        string
	Migrations  bool
	AutoMigrate bool
}

// PlanSchema resolves DB_SCHEMA_MODE against the environment. An empty mode means hybrid.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	plan := SchemaPlan{Mode: cfg.DBSchemaMode}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}

	switch plan.Mode {
	case SchemaModeSQL:
		plan.Migrations = true
	case SchemaModeAuto:
		if cfg.IsProduction() {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q; use sql or hybrid", cfg.Env)
		}
		plan.AutoMigrate = true
	case SchemaModeHybrid:
		plan.Migrations = true
		plan.AutoMigrate = !cfg.IsProduction()
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.Mode)
	}
	return plan, nil
}

// AutoMigrate creates or updates the users, posts and upvotes tables from the models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the database schema up to date according to DB_SCHEMA_MODE.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}

	if plan.Migrations {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if plan.AutoMigrate {
		middleware.Logger.Info("Running GORM AutoMigrate", slog.String("mode", plan.Mode), slog.String("env", cfg.Env))
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}
