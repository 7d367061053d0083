// Command seed fills a development database with demo data.
package main

import (
	"context"
	"flag"
	"log"

	"showcase/internal/config"
	"showcase/internal/database"
	"showcase/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	postsPerUser := flag.Int("posts", 4, "Posts per user")
	listingsPerUser := flag.Int("listings", 2, "Listings per user")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	preset := flag.String("preset", "", "Seed a named preset (small, demo, large)")
	dryRun := flag.Bool("dry-run", false, "Build rows without writing them")
	fast := flag.Bool("fast", false, "Hash passwords at minimum bcrypt cost")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible content")
	flag.Parse()

	opts := seed.Options{
		Users:           *numUsers,
		PostsPerUser:    *postsPerUser,
		ListingsPerUser: *listingsPerUser,
		LikesPerPost:    5,
		SavesPerUser:    3,
		CommentsPerPost: 3,
		ReviewsPerUser:  2,
		SkipBcrypt:      *fast,
		DryRun:          *dryRun,
		Seed:            *randSeed,
	}
	if *preset != "" {
		var err error
		if opts, err = seed.ApplyPreset(*preset, opts); err != nil {
			log.Fatal(err)
		}
		log.Printf("Applying preset: %s (ignoring size flags)", *preset)
	}
	log.Printf("Target: %d users, %d posts/user, %d listings/user, clean=%v dry-run=%v",
		opts.Users, opts.PostsPerUser, opts.ListingsPerUser, *shouldClean, opts.DryRun)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s, err := seed.NewSeeder(db, opts)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	sum, err := s.Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d users, %d posts, %d listings, %d likes, %d comments, %d reviews",
		sum.Users, sum.Posts, sum.Listings, sum.Likes, sum.Comments, sum.Reviews)
}
