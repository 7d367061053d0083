package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"showcase/internal/database"
	"showcase/internal/middleware"
	"showcase/internal/models"
	"showcase/internal/repository"
	"showcase/internal/service"

	"gorm.io/gorm"
)

// Options controls how much data a Seeder creates.
type Options struct {
	Users           int
	PostsPerUser    int
	ListingsPerUser int
	LikesPerPost    int
	SavesPerUser    int
	CommentsPerPost int
	ReviewsPerUser  int

	// SkipBcrypt hashes the shared password at minimum cost.
	SkipBcrypt bool
	// DryRun builds rows without writing them.
	DryRun bool
	// MaxDays spreads created_at over the last MaxDays days.
	MaxDays   int
	BatchSize int
	// Seed makes generated content reproducible when non-zero.
	Seed int64
}

// Presets are named seeding sizes.
var Presets = map[string]Options{
	"small": {Users: 10, PostsPerUser: 2, ListingsPerUser: 1, LikesPerPost: 3, SavesPerUser: 2, CommentsPerPost: 2, ReviewsPerUser: 1},
	"demo":  {Users: 50, PostsPerUser: 4, ListingsPerUser: 2, LikesPerPost: 8, SavesPerUser: 5, CommentsPerPost: 3, ReviewsPerUser: 3},
	"large": {Users: 500, PostsPerUser: 6, ListingsPerUser: 3, LikesPerPost: 25, SavesPerUser: 10, CommentsPerPost: 5, ReviewsPerUser: 5, SkipBcrypt: true},
}

// ApplyPreset returns the named preset with the run flags of base kept.
func ApplyPreset(name string, base Options) (Options, error) {
	p, ok := Presets[name]
	if !ok {
		return base, fmt.Errorf("unknown preset %q", name)
	}
	p.DryRun = base.DryRun
	p.Seed = base.Seed
	p.MaxDays = base.MaxDays
	p.BatchSize = base.BatchSize
	p.SkipBcrypt = p.SkipBcrypt || base.SkipBcrypt
	return p, nil
}

type statusShare struct {
	status string
	share  float64
}

var (
	postStatusShares = []statusShare{
		{models.StatusActive, 0.8},
		{models.StatusPending, 0.15},
		{models.StatusRejected, 0.05},
	}
	listingStatusShares = []statusShare{
		{models.StatusActive, 0.6},
		{models.StatusPending, 0.2},
		{models.StatusSold, 0.1},
		{models.StatusArchived, 0.1},
	}
)

// splitStatuses allocates n rows across shares. Rounding leftovers go to
// the first status.
func splitStatuses(n int, shares []statusShare) map[string]int {
	out := make(map[string]int, len(shares))
	assigned := 0
	for _, s := range shares {
		c := int(math.Floor(s.share*float64(n) + 1e-9))
		out[s.status] = c
		assigned += c
	}
	if len(shares) > 0 {
		out[shares[0].status] += n - assigned
	}
	return out
}

// expandStatuses lists one status per row in share order.
func expandStatuses(n int, shares []statusShare) []string {
	counts := splitStatuses(n, shares)
	out := make([]string, 0, n)
	for _, s := range shares {
		for i := 0; i < counts[s.status]; i++ {
			out = append(out, s.status)
		}
	}
	return out
}

// Summary counts what a run created.
type Summary struct {
	Users      int `json:"users"`
	Portfolios int `json:"portfolios"`
	Posts      int `json:"posts"`
	Listings   int `json:"listings"`
	Likes      int `json:"likes"`
	Saves      int `json:"saves"`
	Comments   int `json:"comments"`
	Reviews    int `json:"reviews"`
}

// Seeder fills a database with a connected demo community. Likes, saves,
// comments and reviews go through the repositories and services the API
// uses so counters and rating aggregates stay consistent.
type Seeder struct {
	db       *gorm.DB
	opts     Options
	factory  *Factory
	ledger   repository.EngagementRepository
	comments repository.CommentRepository
	reviews  *service.ReviewService
}

// NewSeeder creates a Seeder.
func NewSeeder(db *gorm.DB, opts Options) (*Seeder, error) {
	factory, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	users := repository.NewUserRepository(db)
	return &Seeder{
		db:       db,
		opts:     opts,
		factory:  factory,
		ledger:   repository.NewEngagementRepository(db),
		comments: repository.NewCommentRepository(db),
		reviews: service.NewReviewService(
			repository.NewReviewRepository(db), users, repository.NewPortfolioRepository(db), nil,
		),
	}, nil
}

// Run seeds users with portfolios, their posts and listings, then the
// interactions between them.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{}
	log := middleware.Logger

	users, err := s.factory.CreateUsers(ctx, s.opts.Users)
	if err != nil {
		return sum, err
	}
	sum.Users = len(users)

	portfolios, err := s.factory.CreatePortfolios(ctx, users)
	if err != nil {
		return sum, err
	}
	sum.Portfolios = len(portfolios)
	log.Info("seeded users", slog.Int("users", sum.Users))

	postStatuses := expandStatuses(len(portfolios)*s.opts.PostsPerUser, postStatusShares)
	posts := make([]*models.Post, 0, len(postStatuses))
	for i, status := range postStatuses {
		posts = append(posts, s.factory.BuildPost(portfolios[i%len(portfolios)], status))
	}
	if err := s.factory.CreatePosts(ctx, posts); err != nil {
		return sum, fmt.Errorf("create posts: %w", err)
	}
	sum.Posts = len(posts)

	listingStatuses := expandStatuses(len(portfolios)*s.opts.ListingsPerUser, listingStatusShares)
	listings := make([]*models.Listing, 0, len(listingStatuses))
	for i, status := range listingStatuses {
		listings = append(listings, s.factory.BuildListing(portfolios[i%len(portfolios)], status))
	}
	if err := s.factory.CreateListings(ctx, listings); err != nil {
		return sum, fmt.Errorf("create listings: %w", err)
	}
	sum.Listings = len(listings)
	log.Info("seeded content", slog.Int("posts", sum.Posts), slog.Int("listings", sum.Listings))

	if err := s.seedInteractions(ctx, users, posts, sum); err != nil {
		return sum, err
	}
	if err := s.seedReviews(ctx, users, sum); err != nil {
		return sum, err
	}

	log.Info("seed complete",
		slog.Int("likes", sum.Likes),
		slog.Int("saves", sum.Saves),
		slog.Int("comments", sum.Comments),
		slog.Int("reviews", sum.Reviews),
		slog.Bool("dry_run", s.opts.DryRun),
	)
	return sum, nil
}

func (s *Seeder) seedInteractions(ctx context.Context, users []*models.User, posts []*models.Post, sum *Summary) error {
	userIndex := make(map[uint]int, len(users))
	for i, u := range users {
		userIndex[u.ID] = i
	}

	for _, post := range posts {
		if post.Status != models.StatusActive {
			continue
		}
		author := userIndex[post.UserID]

		for _, idx := range s.factory.Pick(len(users), s.opts.LikesPerPost, author) {
			if !s.opts.DryRun {
				if _, err := s.ledger.Toggle(ctx, repository.KindPostLike, post.ID, users[idx].ID); err != nil {
					return fmt.Errorf("like post %d: %w", post.ID, err)
				}
			}
			sum.Likes++
		}

		var parent *uint
		for i, idx := range s.factory.Pick(len(users), s.opts.CommentsPerPost, -1) {
			c := &models.Comment{PostID: post.ID, UserID: users[idx].ID, Text: s.factory.CommentText()}
			// Every other comment replies to the first one.
			if i > 0 && i%2 == 0 {
				c.ParentID = parent
			}
			if !s.opts.DryRun {
				if err := s.comments.Create(ctx, c); err != nil {
					return fmt.Errorf("comment on post %d: %w", post.ID, err)
				}
			}
			if i == 0 {
				id := c.ID
				parent = &id
			}
			sum.Comments++
		}
	}

	active := make([]*models.Post, 0, len(posts))
	for _, p := range posts {
		if p.Status == models.StatusActive {
			active = append(active, p)
		}
	}
	for _, u := range users {
		for _, idx := range s.factory.Pick(len(active), s.opts.SavesPerUser, -1) {
			if !s.opts.DryRun {
				if _, err := s.ledger.Toggle(ctx, repository.KindSavedPost, active[idx].ID, u.ID); err != nil {
					return fmt.Errorf("save post %d: %w", active[idx].ID, err)
				}
			}
			sum.Saves++
		}
	}
	return nil
}

func (s *Seeder) seedReviews(ctx context.Context, users []*models.User, sum *Summary) error {
	for i, reviewer := range users {
		for _, idx := range s.factory.Pick(len(users), s.opts.ReviewsPerUser, i) {
			if !s.opts.DryRun {
				_, err := s.reviews.CreateReview(ctx, service.CreateReviewInput{
					ReviewerID:     reviewer.ID,
					ReviewedUserID: users[idx].ID,
					Relation:       s.factory.Relation(),
					Rating:         s.factory.Rating(),
					ReferToOthers:  true,
					Questions:      s.factory.ReviewAnswers(),
				})
				if err != nil {
					return fmt.Errorf("review user %d: %w", users[idx].ID, err)
				}
			}
			sum.Reviews++
		}
	}
	return nil
}

// ClearAll deletes every row of every persistent table, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	if s.opts.DryRun {
		middleware.Logger.Info("[dry-run] skipping ClearAll")
		return nil
	}

	tables := database.PersistentModels()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := len(tables) - 1; i >= 0; i-- {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(tables[i]).Error; err != nil {
				return fmt.Errorf("clear %T: %w", tables[i], err)
			}
		}
		return nil
	})
}
