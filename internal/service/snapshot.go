package service

import (
	"context"
	"log/slog"

	"showcase/internal/cache"
	"showcase/internal/featureflags"
	"showcase/internal/middleware"
	"showcase/internal/models"
	"showcase/internal/observability"
	"showcase/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// Profile fields that other records snapshot.
const (
	FieldProfilePhoto    = "profile_photo"
	FieldProfession      = "profession"
	FieldBackgroundStyle = "background_style"
)

// ProfileChanges holds the profile fields present in one update, keyed by
// portfolio column.
type ProfileChanges map[string]any

// SnapshotTarget describes one kind of record carrying a copy of profile
// fields. Fields maps a profile column to the target column.
type SnapshotTarget struct {
	Kind        string
	Model       any
	OwnerColumn string
	Fields      map[string]string
	// Enabled gates the target per owner; nil means always on.
	Enabled func(ctx context.Context, ownerID uint) bool
}

// SnapshotPropagator copies changed profile fields into every record that
// snapshots them.
type SnapshotPropagator struct {
	repo    repository.SnapshotRepository
	targets []SnapshotTarget
}

// NewSnapshotPropagator registers the post target, plus listings when the
// listing_snapshots flag is on for the owner.
func NewSnapshotPropagator(repo repository.SnapshotRepository, flags *featureflags.Manager) *SnapshotPropagator {
	p := &SnapshotPropagator{repo: repo}
	p.Register(SnapshotTarget{
		Kind:        "post",
		Model:       &models.Post{},
		OwnerColumn: "user_id",
		Fields: map[string]string{
			FieldProfilePhoto:    "user_image",
			FieldProfession:      "user_profession",
			FieldBackgroundStyle: "background_style",
		},
	})
	p.Register(SnapshotTarget{
		Kind:        "listing",
		Model:       &models.Listing{},
		OwnerColumn: "user_id",
		Fields: map[string]string{
			FieldProfilePhoto: "user_image",
			FieldProfession:   "user_profession",
		},
		Enabled: func(_ context.Context, ownerID uint) bool {
			return flags.Enabled(featureflags.ListingSnapshots, ownerID)
		},
	})
	return p
}

// Register adds a target.
func (p *SnapshotPropagator) Register(t SnapshotTarget) {
	p.targets = append(p.targets, t)
}

// Propagate applies changed to every registered target owned by userID.
// Failures are logged and counted, never returned: the profile update that
// triggered propagation has already succeeded.
func (p *SnapshotPropagator) Propagate(ctx context.Context, userID uint, changed ProfileChanges) {
	if p == nil || len(changed) == 0 {
		return
	}

	ctx, span := observability.Start(ctx, "snapshot.propagate", attribute.Int64("user_id", int64(userID)))
	defer span.End()

	touched := false
	for _, t := range p.targets {
		updates := t.updatesFor(changed)
		if len(updates) == 0 {
			continue
		}
		if t.Enabled != nil && !t.Enabled(ctx, userID) {
			continue
		}

		n, err := p.repo.Apply(ctx, t.Model, t.OwnerColumn, userID, updates)
		if err != nil {
			span.SetError(err)
			observability.SnapshotPropagations.WithLabelValues(t.Kind, "error").Inc()
			middleware.Logger.ErrorContext(ctx, "snapshot propagation failed",
				slog.String("target", t.Kind),
				slog.Uint64("user_id", uint64(userID)),
				slog.String("error", err.Error()),
			)
			continue
		}
		observability.SnapshotPropagations.WithLabelValues(t.Kind, "ok").Inc()
		if n > 0 {
			touched = true
		}
	}

	if touched {
		cache.InvalidateFeeds(ctx)
	}
}

func (t SnapshotTarget) updatesFor(changed ProfileChanges) map[string]any {
	var updates map[string]any
	for src, dst := range t.Fields {
		v, ok := changed[src]
		if !ok {
			continue
		}
		if updates == nil {
			updates = make(map[string]any, len(t.Fields))
		}
		updates[dst] = v
	}
	return updates
}
