package repository

import (
	"context"
	"slices"
	"strings"

	"showcase/internal/observability"

	"gorm.io/gorm"
)

// SnapshotRepository applies denormalized profile snapshots to the rows a
// user owns.
type SnapshotRepository interface {
	// Apply runs one bulk UPDATE of updates on every row of model whose
	// ownerColumn equals ownerID and returns the number of rows changed.
	// Rows already holding every value are skipped, so a re-apply reports 0.
	Apply(ctx context.Context, model any, ownerColumn string, ownerID uint, updates map[string]any) (int64, error)
}

type snapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) Apply(ctx context.Context, model any, ownerColumn string, ownerID uint, updates map[string]any) (int64, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	stmt := &gorm.Statement{DB: r.db}
	if err := stmt.Parse(model); err != nil {
		return 0, err
	}
	defer observability.TrackQuery("snapshot_update", stmt.Table)()

	cols := make([]string, 0, len(updates))
	for col := range updates {
		cols = append(cols, col)
	}
	slices.Sort(cols)
	distinct := " IS NOT ?"
	if r.db.Dialector.Name() == "postgres" {
		distinct = " IS DISTINCT FROM ?"
	}
	conds := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		conds[i] = col + distinct
		args[i] = updates[col]
	}

	res := r.db.WithContext(ctx).Model(model).
		Where(ownerColumn+" = ?", ownerID).
		Where("("+strings.Join(conds, " OR ")+")", args...).
		UpdateColumns(updates)
	return res.RowsAffected, res.Error
}
