// Package seed creates demo data for development databases. It is not used
// by the server.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"showcase/internal/middleware"
	"showcase/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "Password1!"

var (
	backgroundStyles = []string{"sunset", "ocean", "forest", "slate", "sand", "aurora"}
	conditions       = []string{"New", "Like new", "Good", "Fair"}
	reviewQuestions  = []string{
		"Was the work delivered on time?",
		"How was the communication?",
		"Would you hire them again?",
	}
)

// Factory builds domain rows with gofakeit and persists them. In DryRun
// mode nothing is written and rows get synthetic IDs.
type Factory struct {
	db   *gorm.DB
	opts Options
	fake *gofakeit.Faker

	password string
	phoneSeq int
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a Factory bound to db. The password hash is computed
// once and shared by every user it creates.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	cost := bcrypt.DefaultCost
	if opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	return &Factory{
		db:       db,
		opts:     opts,
		fake:     gofakeit.New(seed),
		password: string(hashed),
		nextID:   1000,
	}, nil
}

func (f *Factory) createdAt() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	minutesBack := f.fake.Number(0, maxDays*24*60)
	return time.Now().Add(-time.Duration(minutesBack) * time.Minute)
}

func (f *Factory) imageURL(w, h int) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/%d/%d.jpg", f.fake.UUID(), w, h)
}

func (f *Factory) words(n int) models.StringList {
	out := make(models.StringList, 0, n)
	seen := map[string]bool{}
	for len(out) < n {
		w := f.fake.Hobby()
		if seen[w] {
			w = f.fake.Noun()
		}
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// assignIDs gives every row a synthetic ID in DryRun mode.
func (f *Factory) assignIDs(label string, n int, set func(i int, id uint)) {
	for i := 0; i < n; i++ {
		f.nextID++
		set(i, f.nextID)
	}
	middleware.Logger.Info("[dry-run] rows built", slog.String("kind", label), slog.Int("count", n))
}

func (f *Factory) batchSize() int {
	if f.opts.BatchSize > 0 {
		return f.opts.BatchSize
	}
	return 200
}

// BuildUser returns an unsaved user with a unique phone number.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	f.phoneSeq++
	user := &models.User{
		Name:        f.fake.Name(),
		Phone:       fmt.Sprintf("777%07d", f.phoneSeq),
		Email:       f.fake.Email(),
		CountryCode: "+1",
		Password:    f.password,
		CreatedAt:   f.createdAt(),
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUsers builds and persists n users.
func (f *Factory) CreateUsers(ctx context.Context, n int) ([]*models.User, error) {
	users := make([]*models.User, n)
	for i := range users {
		users[i] = f.BuildUser()
	}
	if f.opts.DryRun {
		f.assignIDs("users", n, func(i int, id uint) { users[i].ID = id })
		return users, nil
	}
	if err := f.db.WithContext(ctx).CreateInBatches(users, f.batchSize()).Error; err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}
	return users, nil
}

// BuildPortfolio returns an unsaved portfolio for user.
func (f *Factory) BuildPortfolio(user *models.User) *models.Portfolio {
	return &models.Portfolio{
		UserID:          user.ID,
		Name:            user.Name,
		ProfilePhoto:    fmt.Sprintf("https://i.pravatar.cc/300.jpg?u=%d", user.ID),
		Location:        f.fake.City(),
		Profession:      f.fake.JobTitle(),
		Bio:             f.fake.Paragraph(1, 3, 12, " "),
		Contact:         user.Email,
		BackgroundStyle: f.fake.RandomString(backgroundStyles),
		Skills:          f.words(f.fake.Number(2, 5)),
		Services:        f.words(f.fake.Number(1, 3)),
		Gallery:         models.StringList{f.imageURL(800, 600), f.imageURL(800, 600)},
		Links:           models.StringMap{"website": f.fake.URL()},
		CreatedAt:       user.CreatedAt,
	}
}

// CreatePortfolios persists one portfolio per user, in user order.
func (f *Factory) CreatePortfolios(ctx context.Context, users []*models.User) ([]*models.Portfolio, error) {
	portfolios := make([]*models.Portfolio, len(users))
	for i, u := range users {
		portfolios[i] = f.BuildPortfolio(u)
	}
	if f.opts.DryRun {
		f.assignIDs("portfolios", len(portfolios), func(i int, id uint) { portfolios[i].ID = id })
		return portfolios, nil
	}
	if err := f.db.WithContext(ctx).CreateInBatches(portfolios, f.batchSize()).Error; err != nil {
		return nil, fmt.Errorf("create portfolios: %w", err)
	}
	return portfolios, nil
}

// BuildPost returns an unsaved post carrying the author's portfolio snapshot.
func (f *Factory) BuildPost(p *models.Portfolio, status string) *models.Post {
	post := &models.Post{
		UserID:          p.UserID,
		Description:     f.fake.Paragraph(1, 2, 14, " "),
		Images:          models.StringList{f.imageURL(800, 800)},
		Tags:            models.StringList{p.Profession},
		UserImage:       p.ProfilePhoto,
		UserProfession:  p.Profession,
		UserName:        p.Name,
		BackgroundStyle: p.BackgroundStyle,
		Status:          status,
		CreatedAt:       f.createdAt(),
	}
	if len(p.Skills) > 0 {
		post.Tags = append(post.Tags, p.Skills[0])
	}
	if status == models.StatusRejected {
		post.RejectionReason = "Off-topic content"
	}
	return post
}

// CreatePosts persists posts in batches.
func (f *Factory) CreatePosts(ctx context.Context, posts []*models.Post) error {
	if f.opts.DryRun {
		f.assignIDs("posts", len(posts), func(i int, id uint) { posts[i].ID = id })
		return nil
	}
	if len(posts) == 0 {
		return nil
	}
	return f.db.WithContext(ctx).CreateInBatches(posts, f.batchSize()).Error
}

// BuildListing returns an unsaved listing carrying the owner's snapshot.
func (f *Factory) BuildListing(p *models.Portfolio, status string) *models.Listing {
	listing := &models.Listing{
		UserID:         p.UserID,
		Title:          f.fake.Adjective() + " " + f.fake.Noun(),
		Category:       f.fake.RandomString(models.ListingCategories),
		ListingType:    models.ListingTypeSell,
		Description:    f.fake.Paragraph(1, 2, 10, " "),
		Address:        f.fake.Street() + ", " + p.Location,
		ContactInfo:    p.Contact,
		Condition:      f.fake.RandomString(conditions),
		Images:         models.StringList{f.imageURL(640, 480)},
		UserImage:      p.ProfilePhoto,
		UserProfession: p.Profession,
		UserName:       p.Name,
		Status:         status,
		CreatedAt:      f.createdAt(),
	}
	if f.fake.Number(1, 4) == 1 {
		listing.ListingType = models.ListingTypeFree
		listing.Price = models.PriceFree
	} else {
		listing.Price = fmt.Sprintf("%.2f", f.fake.Price(5, 900))
	}
	return listing
}

// CreateListings persists listings in batches.
func (f *Factory) CreateListings(ctx context.Context, listings []*models.Listing) error {
	if f.opts.DryRun {
		f.assignIDs("listings", len(listings), func(i int, id uint) { listings[i].ID = id })
		return nil
	}
	if len(listings) == 0 {
		return nil
	}
	return f.db.WithContext(ctx).CreateInBatches(listings, f.batchSize()).Error
}

// CommentText returns a short comment body.
func (f *Factory) CommentText() string {
	return f.fake.Sentence(f.fake.Number(4, 14))
}

// ReviewAnswers returns answers to the standard review questions.
func (f *Factory) ReviewAnswers() []models.ReviewAnswer {
	answers := make([]models.ReviewAnswer, len(reviewQuestions))
	for i, q := range reviewQuestions {
		answers[i] = models.ReviewAnswer{Question: q, Answer: f.fake.Sentence(6)}
	}
	return answers
}

// Rating returns a rating skewed towards the top of the scale.
func (f *Factory) Rating() int {
	if f.fake.Number(1, 10) <= 7 {
		return f.fake.Number(4, 5)
	}
	return f.fake.Number(1, 3)
}

// Relation picks a review relation.
func (f *Factory) Relation() string {
	return f.fake.RandomString([]string{models.RelationWorkedWith, models.RelationWorkDoneFor})
}

// Pick returns up to n distinct indexes in [0, size), skipping exclude.
func (f *Factory) Pick(size, n, exclude int) []int {
	if size == 0 || n <= 0 {
		return nil
	}
	start := f.fake.Number(0, size-1)
	out := make([]int, 0, n)
	for i := 0; i < size && len(out) < n; i++ {
		idx := (start + i) % size
		if idx == exclude {
			continue
		}
		out = append(out, idx)
	}
	return out
}
