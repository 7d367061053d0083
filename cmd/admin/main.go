// Package main provides admin management utilities for Showcase.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"showcase/internal/config"
	"showcase/internal/database"
	"showcase/internal/models"
	"showcase/internal/repository"
	"showcase/internal/service"

	"gorm.io/gorm"
)

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <user_id>     - Promote user to admin")
	fmt.Println("  go run ./cmd/admin demote <user_id>      - Demote user from admin")
	fmt.Println("  go run ./cmd/admin list-admins           - List all admins")
	fmt.Println("  go run ./cmd/admin repair-counters       - Recompute like and comment counters")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	users := service.NewUserService(repository.NewUserRepository(db), nil)

	switch command := os.Args[1]; command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin %s <user_id>\n", command)
			os.Exit(1)
		}
		id, err := strconv.ParseUint(os.Args[2], 10, 32)
		if err != nil || id == 0 {
			log.Fatalf("Invalid user ID %q", os.Args[2])
		}
		err = setAdmin(ctx, users, uint(id), command == "promote")
		if err != nil {
			log.Fatal(err)
		}

	case "list-admins":
		if err := listAdmins(ctx, users); err != nil {
			log.Fatal(err)
		}

	case "repair-counters":
		if err := repairCounters(ctx, db); err != nil {
			log.Fatal(err)
		}

	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func setAdmin(ctx context.Context, users *service.UserService, userID uint, admin bool) error {
	user, err := users.SetAdmin(ctx, userID, admin)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return fmt.Errorf("user with ID %d not found", userID)
		}
		return fmt.Errorf("failed to update admin role: %w", err)
	}
	verb := "demoted"
	if admin {
		verb = "promoted"
	}
	fmt.Printf("Successfully %s %s (ID: %d)\n", verb, user.Name, user.ID)
	return nil
}

func listAdmins(ctx context.Context, users *service.UserService) error {
	admins, err := users.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch admins: %w", err)
	}
	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return nil
	}

	fmt.Println("Current Admins:")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Name: %s | Phone: %s\n", admin.ID, admin.Name, admin.Phone)
	}
	return nil
}

// repairCounters recomputes every denormalized counter from its ledger.
func repairCounters(ctx context.Context, db *gorm.DB) error {
	ledger := repository.NewEngagementRepository(db)
	for _, kind := range repository.LedgerKinds {
		if !kind.HasCounter() {
			continue
		}
		drifted, err := ledger.RepairCounters(ctx, kind)
		if err != nil {
			return fmt.Errorf("repair %s: %w", kind, err)
		}
		fmt.Printf("%s: %d rows corrected\n", kind, drifted)
	}

	drifted, err := repository.NewCommentRepository(db).RepairCommentCounts(ctx)
	if err != nil {
		return fmt.Errorf("repair comments_count: %w", err)
	}
	fmt.Printf("comments_count: %d rows corrected\n", drifted)
	return nil
}
