// Command migrate applies, inspects and rolls back schema migrations.
//
//	migrate up           apply pending SQL migrations
//	migrate auto         run GORM AutoMigrate for every model
//	migrate status       print schema mode and pending migrations
//	migrate down [N]     roll back version N, or the latest one
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"showcase/internal/config"
	"showcase/internal/database"

	"gorm.io/gorm"
)

type command func(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string) error

var commands = map[string]command{
	"up":     migrateUp,
	"auto":   migrateAuto,
	"status": migrateStatus,
	"down":   migrateDown,
}

var errUsage = errors.New("usage: migrate <up|auto|status|down> [version]")

func main() {
	flag.Parse()
	if err := run(context.Background(), flag.Args()); err != nil {
		log.Print(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[strings.ToLower(strings.TrimSpace(args[0]))]
	if !ok {
		return errUsage
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	return cmd(ctx, db, cfg, args[1:])
}

func migrateUp(ctx context.Context, db *gorm.DB, _ *config.Config, _ []string) error {
	if err := database.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("apply sql migrations: %w", err)
	}
	log.Println("sql migrations applied")
	return nil
}

func migrateAuto(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	cfg.DBSchemaMode = database.SchemaModeAuto
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	log.Printf("automigrated %d models", len(database.PersistentModels()))
	return nil
}

func migrateStatus(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	st, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return fmt.Errorf("schema status: %w", err)
	}
	fmt.Printf("mode:     %s (%s)\n", st.Mode, st.Environment)
	fmt.Printf("plan:     sql=%t automigrate=%t\n", st.WillRunSQL, st.WillRunAutoMigrate)
	fmt.Printf("applied:  %d\n", len(st.AppliedVersions))
	fmt.Printf("pending:  %d\n", len(st.PendingMigrations))
	for _, m := range st.PendingMigrations {
		fmt.Printf("  %06d_%s\n", m.Version, m.Name)
	}
	return nil
}

func migrateDown(ctx context.Context, db *gorm.DB, _ *config.Config, args []string) error {
	if len(args) == 0 {
		version, err := database.RollbackLatest(ctx, db)
		if err != nil {
			return fmt.Errorf("roll back latest: %w", err)
		}
		log.Printf("rolled back %06d", version)
		return nil
	}
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", args[0], err)
	}
	if err := database.RollbackMigration(ctx, db, version); err != nil {
		return fmt.Errorf("roll back %06d: %w", version, err)
	}
	log.Printf("rolled back %06d", version)
	return nil
}
