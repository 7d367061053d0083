package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"showcase/internal/config"
	"showcase/internal/middleware"

	"gorm.io/gorm"
)

// DB_SCHEMA_MODE values.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan is what ApplySchema will run for a configuration.
//
//	sql     migrations only
//	auto    AutoMigrate only; prod-like envs need DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE
//	hybrid  migrations, plus AutoMigrate outside prod-like envs
type SchemaPlan struct {
	Mode        string
	SQL         bool
	AutoMigrate bool
	Destructive bool
}

var prodLikeEnvs = []string{"production", "prod", "staging", "stage"}

// PlanSchema resolves cfg's schema mode into a plan.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	plan := SchemaPlan{Mode: strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}
	prodLike := slices.Contains(prodLikeEnvs, strings.ToLower(strings.TrimSpace(cfg.Env)))

	switch plan.Mode {
	case SchemaModeSQL:
		plan.SQL = true
	case SchemaModeHybrid:
		plan.SQL, plan.AutoMigrate = true, !prodLike
	case SchemaModeAuto:
		if prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return SchemaPlan{}, fmt.Errorf("DB_SCHEMA_MODE=auto in %q requires DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.AutoMigrate = true
		plan.Destructive = cfg.DBAutoMigrateAllowDestructive
	default:
		return SchemaPlan{}, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.Mode)
	}
	return plan, nil
}

// AutoMigrate syncs every persistent model. Tests use it on SQLite.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}

	if plan.SQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if !plan.AutoMigrate {
		return nil
	}

	log := middleware.Logger.With(slog.String("mode", plan.Mode), slog.String("env", cfg.Env))
	if plan.Destructive {
		log.Warn("automigrate running with DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true")
	}
	log.Info("running automigrate", slog.Int("models", len(PersistentModels())))
	if err := AutoMigrate(db.WithContext(ctx)); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// SchemaStatus is a SchemaPlan plus the migration ledger state.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
}

func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{
		Mode:               plan.Mode,
		Environment:        cfg.Env,
		WillRunSQL:         plan.SQL,
		WillRunAutoMigrate: plan.AutoMigrate,
	}
	if !plan.SQL {
		return status, nil
	}

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied
	for _, m := range migrations {
		if !slices.Contains(applied, m.Version) {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}
	return status, nil
}
