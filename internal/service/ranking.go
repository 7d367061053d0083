package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"showcase/internal/featureflags"
	"showcase/internal/models"
	"showcase/internal/observability"
	"showcase/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// Ranking modes.
const (
	ModeLatest      = "latest"
	ModeRecommended = "recommended"
)

// FeedSource is one rankable collection with its base filter already bound.
type FeedSource[T any] interface {
	Name() string
	Count(ctx context.Context) (int64, error)
	Latest(ctx context.Context, offset, limit int) ([]T, error)
	All(ctx context.Context) ([]T, error)
	Score(item T, pref Affinity) int
	CreatedAt(item T) time.Time
}

// Affinity is a user's cleaned preference tags.
type Affinity struct {
	Tags      []string
	Locations []string
}

func affinityOf(p *models.Preference) Affinity {
	return Affinity{Tags: p.Tags(), Locations: models.CleanTags(p.Locations)}
}

// matchCount counts item tags equal, ignoring case, to any preference tag.
func matchCount(itemTags, prefTags []string) int {
	n := 0
	for _, it := range itemTags {
		it = strings.TrimSpace(it)
		for _, pt := range prefTags {
			if strings.EqualFold(it, pt) {
				n++
				break
			}
		}
	}
	return n
}

// Ranker orders feeds by a user's preference.
type Ranker struct {
	prefs repository.PreferenceRepository
	flags *featureflags.Manager
}

// NewRanker builds a ranker. flags may be nil, in which case the
// recommended_feed flag keeps its default.
func NewRanker(prefs repository.PreferenceRepository, flags *featureflags.Manager) *Ranker {
	return &Ranker{prefs: prefs, flags: flags}
}

// mode picks the ranking mode for userID and returns the affinity to score
// with in recommended mode.
func (r *Ranker) mode(ctx context.Context, userID uint) (string, Affinity, error) {
	if userID == 0 || r == nil || r.prefs == nil {
		return ModeLatest, Affinity{}, nil
	}
	if !r.flags.Enabled(featureflags.RecommendedFeed, userID) {
		return ModeLatest, Affinity{}, nil
	}
	pref, err := r.prefs.GetOrCreate(ctx, userID)
	if err != nil {
		return "", Affinity{}, err
	}
	aff := affinityOf(pref)
	if pref.FeedType != models.FeedTypeRecommended || len(aff.Tags) == 0 {
		return ModeLatest, Affinity{}, nil
	}
	return ModeRecommended, aff, nil
}

// RankFeed returns one page of src. Total always counts the base filter, so
// both modes report the same total_pages.
func RankFeed[T any](ctx context.Context, r *Ranker, src FeedSource[T], req models.PageRequest, userID uint) (*models.Page[T], error) {
	req, offset, limit := pageOf(req)

	mode, aff, err := r.mode(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer observability.TrackRanking(src.Name(), mode)()

	total, err := src.Count(ctx)
	if err != nil {
		return nil, err
	}

	if mode == ModeLatest {
		items, err := src.Latest(ctx, offset, limit)
		if err != nil {
			return nil, err
		}
		return models.NewPage(items, total, req.Page, limit), nil
	}

	ctx, span := observability.Start(ctx, "ranking.recommended",
		attribute.String("source", src.Name()),
		attribute.Int("affinity_tags", len(aff.Tags)),
	)
	defer span.End()

	all, err := src.All(ctx)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	span.AddAttributes(attribute.Int("candidates", len(all)))
	type scored struct {
		item  T
		score int
		at    time.Time
	}
	ranked := make([]scored, len(all))
	for i, it := range all {
		ranked[i] = scored{item: it, score: src.Score(it, aff), at: src.CreatedAt(it)}
	}
	slices.SortStableFunc(ranked, func(a, b scored) int {
		if a.score != b.score {
			return b.score - a.score
		}
		return b.at.Compare(a.at)
	})

	items := []T{}
	if offset >= 0 && offset < len(ranked) {
		for _, r := range ranked[offset:min(offset+limit, len(ranked))] {
			items = append(items, r.item)
		}
	}
	return models.NewPage(items, total, req.Page, limit), nil
}

type postSource struct {
	repo   repository.PostRepository
	filter repository.PostFilter
	bonus  int
}

func (s postSource) Name() string { return "posts" }

func (s postSource) Count(ctx context.Context) (int64, error) { return s.repo.Count(ctx, s.filter) }

func (s postSource) Latest(ctx context.Context, offset, limit int) ([]*models.Post, error) {
	return s.repo.ListLatest(ctx, s.filter, offset, limit)
}

func (s postSource) All(ctx context.Context) ([]*models.Post, error) {
	return s.repo.ListAll(ctx, s.filter)
}

func (s postSource) CreatedAt(p *models.Post) time.Time { return p.CreatedAt }

// Score adds the location bonus when any preferred location appears inside
// any post tag.
func (s postSource) Score(p *models.Post, aff Affinity) int {
	score := matchCount(p.Tags, aff.Tags)
	for _, loc := range aff.Locations {
		loc = strings.ToLower(loc)
		if slices.ContainsFunc(p.Tags, func(tag string) bool {
			return strings.Contains(strings.ToLower(tag), loc)
		}) {
			return score + s.bonus
		}
	}
	return score
}

type portfolioSource struct {
	repo   repository.PortfolioRepository
	filter repository.PortfolioFilter
	bonus  int
}

func (s portfolioSource) Name() string { return "portfolios" }

func (s portfolioSource) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx, s.filter)
}

func (s portfolioSource) Latest(ctx context.Context, offset, limit int) ([]*models.Portfolio, error) {
	return s.repo.ListLatest(ctx, s.filter, offset, limit)
}

func (s portfolioSource) All(ctx context.Context) ([]*models.Portfolio, error) {
	return s.repo.ListAll(ctx, s.filter)
}

func (s portfolioSource) CreatedAt(p *models.Portfolio) time.Time { return p.CreatedAt }

// Score adds the location bonus when the portfolio location equals any
// preference tag.
func (s portfolioSource) Score(p *models.Portfolio, aff Affinity) int {
	score := matchCount(p.Skills, aff.Tags)
	loc := strings.TrimSpace(p.Location)
	if loc != "" && slices.ContainsFunc(aff.Tags, func(t string) bool { return strings.EqualFold(t, loc) }) {
		score += s.bonus
	}
	return score
}
