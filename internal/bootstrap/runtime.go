// Package bootstrap wires the process-level runtime shared by the binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"showcase/internal/cache"
	"showcase/internal/config"
	"showcase/internal/database"
	"showcase/internal/middleware"
	"showcase/internal/models"
	"showcase/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const rootUserID = 1

// InitRuntime opens the database, connects Redis and applies the
// development root account. The Redis client is nil when Redis is
// unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	rdb := cache.Connect(ctx, cfg.RedisURL)
	if err := EnsureDevRootAdmin(ctx, cfg, db); err != nil {
		return nil, nil, fmt.Errorf("development root admin: %w", err)
	}
	return db, rdb, nil
}

type rootAccount struct {
	name     string
	phone    string
	password string
	force    bool
}

// devRoot reads the DEV_ROOT_* settings. ok is false unless the process
// runs in development with DEV_BOOTSTRAP_ROOT set.
func devRoot(cfg *config.Config) (acct rootAccount, ok bool, err error) {
	if cfg == nil || !cfg.DevBootstrapRoot || !strings.EqualFold(cfg.Env, "development") {
		return rootAccount{}, false, nil
	}
	acct = rootAccount{
		name:     strings.TrimSpace(cfg.DevRootName),
		phone:    validation.NormalizePhone(cfg.DevRootPhone),
		password: cfg.DevRootPassword,
		force:    cfg.DevRootForceCredentials,
	}
	if acct.name == "" {
		acct.name = "root"
	}
	if err := validation.ValidatePhone(acct.phone); err != nil {
		return rootAccount{}, false, fmt.Errorf("DEV_ROOT_PHONE: %w", err)
	}
	if acct.password == "" {
		return rootAccount{}, false, errors.New("DEV_ROOT_PASSWORD is required with DEV_BOOTSTRAP_ROOT")
	}
	return acct, true, nil
}

// EnsureDevRootAdmin makes user 1 an admin, creating it when missing.
// An existing user keeps its credentials unless DEV_ROOT_FORCE_CREDENTIALS
// is set. Outside development this does nothing.
func EnsureDevRootAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if db == nil {
		return nil
	}
	acct, ok, err := devRoot(cfg)
	if err != nil || !ok {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(acct.password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var root models.User
		switch err := tx.First(&root, rootUserID).Error; {
		case errors.Is(err, gorm.ErrRecordNotFound):
			root = models.User{
				ID:          rootUserID,
				Name:        acct.name,
				Phone:       acct.phone,
				CountryCode: "+1",
				Password:    string(hashed),
				IsAdmin:     true,
			}
			if err := tx.Create(&root).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			updates := map[string]any{"is_admin": true}
			if acct.force {
				updates["name"] = acct.name
				updates["phone"] = acct.phone
				updates["password"] = string(hashed)
			}
			if err := tx.Model(&models.User{}).Where("id = ?", rootUserID).Updates(updates).Error; err != nil {
				return err
			}
		}
		return resyncUserSequence(tx)
	})
	if err != nil {
		return err
	}

	middleware.Logger.Info("development root admin ready",
		slog.Int("user_id", rootUserID),
		slog.String("phone", acct.phone),
		slog.Bool("credentials_forced", acct.force),
	)
	return nil
}

// resyncUserSequence moves the Postgres users id sequence past rows
// inserted with explicit IDs.
func resyncUserSequence(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	err := tx.Exec(`SELECT setval(pg_get_serial_sequence('users', 'id'),
		GREATEST((SELECT COALESCE(MAX(id), 1) FROM users), 1), true)`).Error
	if err != nil {
		return fmt.Errorf("resync users sequence: %w", err)
	}
	return nil
}
