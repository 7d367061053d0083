package service

import (
	"context"
	"strings"
	"time"

	"showcase/internal/blobstore"
	"showcase/internal/cache"
	"showcase/internal/models"
	"showcase/internal/repository"
	"showcase/internal/validation"
)

type PortfolioService struct {
	portfolios repository.PortfolioRepository
	ledger     repository.EngagementRepository
	ranker     *Ranker
	propagator *SnapshotPropagator
	blobs      blobstore.Store
	blobTTL    time.Duration
	bonus      int
}

type CreatePortfolioInput struct {
	UserID          uint              `json:"-"`
	Name            string            `json:"name" validate:"required,max=100"`
	ProfilePhoto    string            `json:"profile_photo" validate:"omitempty,image_url"`
	Location        string            `json:"location" validate:"required,max=100"`
	Profession      string            `json:"profession" validate:"required,max=100"`
	Bio             string            `json:"bio" validate:"max=1000"`
	Contact         string            `json:"contact" validate:"max=200"`
	BackgroundStyle string            `json:"background_style" validate:"max=100"`
	Skills          []string          `json:"skills" validate:"max=50"`
	Services        []string          `json:"services" validate:"max=50"`
	Gallery         []string          `json:"gallery" validate:"max=30,dive,image_url"`
	Links           map[string]string `json:"links" validate:"max=20,dive,url"`
}

// UpdatePortfolioInput is validated as a whole before anything is written.
// Nil fields are left unchanged.
type UpdatePortfolioInput struct {
	Name            *string            `json:"name" validate:"omitempty,min=1,max=100"`
	ProfilePhoto    *string            `json:"profile_photo" validate:"omitempty,image_url"`
	Location        *string            `json:"location" validate:"omitempty,min=1,max=100"`
	Profession      *string            `json:"profession" validate:"omitempty,min=1,max=100"`
	Bio             *string            `json:"bio" validate:"omitempty,max=1000"`
	Contact         *string            `json:"contact" validate:"omitempty,max=200"`
	BackgroundStyle *string            `json:"background_style" validate:"omitempty,max=100"`
	Skills          *[]string          `json:"skills" validate:"omitempty,max=50"`
	Services        *[]string          `json:"services" validate:"omitempty,max=50"`
	Gallery         *[]string          `json:"gallery" validate:"omitempty,max=30,dive,image_url"`
	Links           *map[string]string `json:"links" validate:"omitempty,max=20,dive,url"`
}

// SearchPortfoliosInput filters portfolio search. Skill matching is fuzzy.
type SearchPortfoliosInput struct {
	Skill      string
	Location   string
	Profession string
	Page       models.PageRequest
}

func NewPortfolioService(
	portfolios repository.PortfolioRepository,
	ledger repository.EngagementRepository,
	ranker *Ranker,
	propagator *SnapshotPropagator,
	blobs blobstore.Store,
	blobTimeout time.Duration,
	locationBonus int,
) *PortfolioService {
	return &PortfolioService{
		portfolios: portfolios,
		ledger:     ledger,
		ranker:     ranker,
		propagator: propagator,
		blobs:      blobs,
		blobTTL:    blobTimeout,
		bonus:      locationBonus,
	}
}

func (s *PortfolioService) CreatePortfolio(ctx context.Context, in CreatePortfolioInput) (*models.Portfolio, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	links := models.StringMap{}
	for k, v := range in.Links {
		links[k] = v
	}
	p := &models.Portfolio{
		UserID:          in.UserID,
		Name:            strings.TrimSpace(in.Name),
		ProfilePhoto:    strings.TrimSpace(in.ProfilePhoto),
		Location:        strings.TrimSpace(in.Location),
		Profession:      strings.TrimSpace(in.Profession),
		Bio:             in.Bio,
		Contact:         in.Contact,
		BackgroundStyle: in.BackgroundStyle,
		Skills:          models.CleanTags(in.Skills),
		Services:        models.CleanTags(in.Services),
		Gallery:         models.CleanTags(in.Gallery),
		Links:           links,
	}
	if err := s.portfolios.Create(ctx, p); err != nil {
		return nil, err
	}

	// Posts written before the portfolio existed carry an empty snapshot.
	s.propagator.Propagate(ctx, p.UserID, ProfileChanges{
		FieldProfilePhoto:    p.ProfilePhoto,
		FieldProfession:      p.Profession,
		FieldBackgroundStyle: p.BackgroundStyle,
	})
	return p, nil
}

func (s *PortfolioService) GetMyPortfolio(ctx context.Context, userID uint) (*models.Portfolio, error) {
	return s.portfolios.GetByUserID(ctx, userID)
}

func (s *PortfolioService) GetPortfolio(ctx context.Context, id, viewerID uint) (*models.Portfolio, error) {
	p, err := s.portfolios.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return p, s.annotate(ctx, []*models.Portfolio{p}, viewerID)
}

// UpdatePortfolio applies the allow-listed fields and refreshes every
// snapshot of the changed profile fields.
func (s *PortfolioService) UpdatePortfolio(ctx context.Context, userID uint, in UpdatePortfolioInput) (*models.Portfolio, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	for field, v := range map[string]*string{"name": in.Name, "location": in.Location, "profession": in.Profession} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return nil, models.NewValidationError(field + " is required")
		}
	}
	current, err := s.portfolios.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	changes := ProfileChanges{}
	setString := func(col string, v *string, snapshot bool) {
		if v == nil {
			return
		}
		val := strings.TrimSpace(*v)
		updates[col] = val
		if snapshot {
			changes[col] = val
		}
	}
	setString("name", in.Name, false)
	setString(FieldProfilePhoto, in.ProfilePhoto, true)
	setString("location", in.Location, false)
	setString(FieldProfession, in.Profession, true)
	setString("bio", in.Bio, false)
	setString("contact", in.Contact, false)
	setString(FieldBackgroundStyle, in.BackgroundStyle, true)
	if in.Skills != nil {
		updates["skills"] = models.StringList(models.CleanTags(*in.Skills))
	}
	if in.Services != nil {
		updates["services"] = models.StringList(models.CleanTags(*in.Services))
	}
	if in.Gallery != nil {
		updates["gallery"] = models.StringList(models.CleanTags(*in.Gallery))
	}
	if in.Links != nil {
		updates["links"] = models.StringMap(*in.Links)
	}

	if err := s.portfolios.Update(ctx, current.ID, updates); err != nil {
		return nil, err
	}
	s.propagator.Propagate(ctx, userID, changes)

	// Images no longer referenced by the portfolio are destroyed best-effort.
	if in.Gallery != nil || in.ProfilePhoto != nil {
		next := *current
		if in.Gallery != nil {
			next.Gallery = updates["gallery"].(models.StringList)
		}
		if in.ProfilePhoto != nil {
			next.ProfilePhoto = updates[FieldProfilePhoto].(string)
		}
		if next.ProfilePhoto != current.ProfilePhoto {
			// Rating stats carry the profile photo.
			cache.InvalidateRating(ctx, userID)
		}
		blobstore.DestroyURLs(ctx, s.blobs, removedURLs(current.ImageURLs(), next.ImageURLs()), s.blobTTL)
	}

	return s.portfolios.GetByID(ctx, current.ID)
}

// SearchPortfolios ranks portfolios matching the filter for viewerID.
func (s *PortfolioService) SearchPortfolios(ctx context.Context, in SearchPortfoliosInput, viewerID uint) (*models.Page[*models.Portfolio], error) {
	return s.rank(ctx, repository.PortfolioFilter{
		Skill:      in.Skill,
		Location:   in.Location,
		Profession: in.Profession,
	}, in.Page, viewerID)
}

// Suggestions ranks every portfolio except the viewer's own.
func (s *PortfolioService) Suggestions(ctx context.Context, viewerID uint, req models.PageRequest) (*models.Page[*models.Portfolio], error) {
	return s.rank(ctx, repository.PortfolioFilter{ExcludeUserID: viewerID}, req, viewerID)
}

func (s *PortfolioService) rank(ctx context.Context, f repository.PortfolioFilter, req models.PageRequest, viewerID uint) (*models.Page[*models.Portfolio], error) {
	src := portfolioSource{repo: s.portfolios, filter: f, bonus: s.bonus}
	page, err := RankFeed[*models.Portfolio](ctx, s.ranker, src, req, viewerID)
	if err != nil {
		return nil, err
	}
	return page, s.annotate(ctx, page.Items, viewerID)
}

func (s *PortfolioService) annotate(ctx context.Context, items []*models.Portfolio, viewerID uint) error {
	if viewerID == 0 || len(items) == 0 {
		return nil
	}
	ids := make([]uint, len(items))
	for i, p := range items {
		ids[i] = p.ID
	}
	saved, err := s.ledger.ActiveParentIDs(ctx, repository.KindSavedPortfolio, viewerID, ids)
	if err != nil {
		return err
	}
	for _, p := range items {
		p.Saved = saved[p.ID]
	}
	return nil
}

func (s *PortfolioService) ToggleSave(ctx context.Context, userID, portfolioID uint) (bool, error) {
	if _, err := s.portfolios.GetByID(ctx, portfolioID); err != nil {
		return false, err
	}
	res, err := s.ledger.Toggle(ctx, repository.KindSavedPortfolio, portfolioID, userID)
	if err != nil {
		return false, err
	}
	return res.Active, nil
}

func (s *PortfolioService) SavedPortfolios(ctx context.Context, userID uint, req models.PageRequest) (*models.Page[*models.Portfolio], error) {
	req, offset, limit := pageOf(req)
	ids, total, err := s.ledger.ParentIDsByUser(ctx, repository.KindSavedPortfolio, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	found, err := s.portfolios.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	items := orderByIDs(ids, found, func(p *models.Portfolio) uint { return p.ID })
	for _, p := range items {
		p.Saved = true
	}
	return models.NewPage(items, total, req.Page, limit), nil
}
