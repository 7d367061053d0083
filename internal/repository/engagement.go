package repository

import (
	"context"
	"fmt"

	"showcase/internal/models"
	"showcase/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerKind names one engagement join table.
type LedgerKind string

const (
	KindPostLike       LedgerKind = "post_like"
	KindCommentLike    LedgerKind = "comment_like"
	KindSavedPost      LedgerKind = "saved_post"
	KindSavedPortfolio LedgerKind = "saved_portfolio"
)

// LedgerKinds lists every kind in a stable order.
var LedgerKinds = []LedgerKind{KindPostLike, KindCommentLike, KindSavedPost, KindSavedPortfolio}

type ledgerSpec struct {
	table        string
	parentColumn string
	// counterTable/counterColumn are empty for kinds without a counter.
	counterTable  string
	counterColumn string
	newRow        func(parentID, userID uint) any
}

var ledgerSpecs = map[LedgerKind]ledgerSpec{
	KindPostLike: {
		table: "likes", parentColumn: "post_id",
		counterTable: "posts", counterColumn: "likes_count",
		newRow: func(p, u uint) any { return &models.Like{PostID: p, UserID: u} },
	},
	KindCommentLike: {
		table: "comment_likes", parentColumn: "comment_id",
		counterTable: "comments", counterColumn: "likes_count",
		newRow: func(p, u uint) any { return &models.CommentLike{CommentID: p, UserID: u} },
	},
	KindSavedPost: {
		table: "saved_posts", parentColumn: "post_id",
		newRow: func(p, u uint) any { return &models.SavedPost{PostID: p, UserID: u} },
	},
	KindSavedPortfolio: {
		table: "saved_portfolios", parentColumn: "portfolio_id",
		newRow: func(p, u uint) any { return &models.SavedPortfolio{PortfolioID: p, UserID: u} },
	},
}

func specFor(kind LedgerKind) (ledgerSpec, error) {
	spec, ok := ledgerSpecs[kind]
	if !ok {
		return ledgerSpec{}, fmt.Errorf("unknown ledger kind %q", kind)
	}
	return spec, nil
}

// HasCounter reports whether kind maintains a denormalized counter.
func (k LedgerKind) HasCounter() bool {
	return ledgerSpecs[k].counterColumn != ""
}

// ToggleResult is the outcome of one toggle.
type ToggleResult struct {
	Active bool `json:"active"`
	// Raced is set when the insert lost to a concurrent toggle. The row is
	// active but this call did not change the counter.
	Raced bool `json:"-"`
}

// EngagementRepository is the engagement ledger.
type EngagementRepository interface {
	Toggle(ctx context.Context, kind LedgerKind, parentID, userID uint) (ToggleResult, error)
	ActiveParentIDs(ctx context.Context, kind LedgerKind, userID uint, parentIDs []uint) (map[uint]bool, error)
	ParentIDsByUser(ctx context.Context, kind LedgerKind, userID uint, offset, limit int) ([]uint, int64, error)
	Likers(ctx context.Context, postID uint, offset, limit int) ([]models.Liker, int64, error)
	DeleteForParents(ctx context.Context, kind LedgerKind, parentIDs []uint) error
	// RemoveUser deletes every ledger row of userID, decrementing the
	// counters of the parents it touched.
	RemoveUser(ctx context.Context, userID uint) error
	// RepairCounters recomputes kind's counter from the ledger and returns
	// the number of parent rows that had drifted.
	RepairCounters(ctx context.Context, kind LedgerKind) (int64, error)
}

type engagementRepository struct {
	db *gorm.DB
}

// NewEngagementRepository creates the engagement ledger.
func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

func (r *engagementRepository) adjustCounter(ctx context.Context, spec ledgerSpec, parentID uint, delta int) error {
	if spec.counterColumn == "" || delta == 0 {
		return nil
	}
	col := spec.counterColumn
	var expr clause.Expr
	if delta > 0 {
		expr = gorm.Expr(col+" + ?", delta)
	} else {
		n := -delta
		expr = gorm.Expr("CASE WHEN "+col+" > ? THEN "+col+" - ? ELSE 0 END", n, n)
	}
	return r.db.WithContext(ctx).Table(spec.counterTable).
		Where("id = ?", parentID).
		UpdateColumn(col, expr).Error
}

// Toggle removes the row if present, otherwise inserts it. The unique
// (parent, user) index arbitrates concurrent toggles.
func (r *engagementRepository) Toggle(ctx context.Context, kind LedgerKind, parentID, userID uint) (ToggleResult, error) {
	spec, err := specFor(kind)
	if err != nil {
		return ToggleResult{}, err
	}

	del := r.db.WithContext(ctx).
		Where(spec.parentColumn+" = ? AND user_id = ?", parentID, userID).
		Delete(spec.newRow(0, 0))
	if del.Error != nil {
		return ToggleResult{}, del.Error
	}
	if del.RowsAffected > 0 {
		if err := r.adjustCounter(ctx, spec, parentID, -1); err != nil {
			return ToggleResult{}, err
		}
		observability.LedgerToggles.WithLabelValues(string(kind), "inactive").Inc()
		return ToggleResult{Active: false}, nil
	}

	ins := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(spec.newRow(parentID, userID))
	if ins.Error != nil {
		return ToggleResult{}, ins.Error
	}
	if ins.RowsAffected == 0 {
		observability.LedgerToggles.WithLabelValues(string(kind), "raced").Inc()
		return ToggleResult{Active: true, Raced: true}, nil
	}
	if err := r.adjustCounter(ctx, spec, parentID, 1); err != nil {
		return ToggleResult{}, err
	}
	observability.LedgerToggles.WithLabelValues(string(kind), "active").Inc()
	return ToggleResult{Active: true}, nil
}

func (r *engagementRepository) ActiveParentIDs(ctx context.Context, kind LedgerKind, userID uint, parentIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(parentIDs))
	if userID == 0 || len(parentIDs) == 0 {
		return out, nil
	}
	spec, err := specFor(kind)
	if err != nil {
		return nil, err
	}
	var ids []uint
	if err := readDB(r.db).WithContext(ctx).Model(spec.newRow(0, 0)).
		Where("user_id = ? AND "+spec.parentColumn+" IN ?", userID, parentIDs).
		Pluck(spec.parentColumn, &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *engagementRepository) ParentIDsByUser(ctx context.Context, kind LedgerKind, userID uint, offset, limit int) ([]uint, int64, error) {
	spec, err := specFor(kind)
	if err != nil {
		return nil, 0, err
	}
	offset, limit = clampPage(offset, limit)
	q := readDB(r.db).WithContext(ctx).Model(spec.newRow(0, 0)).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var ids []uint
	err = readDB(r.db).WithContext(ctx).Model(spec.newRow(0, 0)).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Pluck(spec.parentColumn, &ids).Error
	return ids, total, err
}

func (r *engagementRepository) Likers(ctx context.Context, postID uint, offset, limit int) ([]models.Liker, int64, error) {
	offset, limit = clampPage(offset, limit)
	var total int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Like{}).
		Where("post_id = ?", postID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	likers := []models.Liker{}
	err := readDB(r.db).WithContext(ctx).Table("likes").
		Select("likes.user_id AS user_id, COALESCE(users.name, '') AS user_name, "+
			"COALESCE(portfolios.profile_photo, '') AS profile_photo, likes.created_at AS liked_at").
		Joins("LEFT JOIN users ON users.id = likes.user_id").
		Joins("LEFT JOIN portfolios ON portfolios.user_id = likes.user_id").
		Where("likes.post_id = ?", postID).
		Order("likes.created_at DESC, likes.id DESC").
		Offset(offset).
		Limit(limit).
		Scan(&likers).Error
	return likers, total, err
}

func (r *engagementRepository) DeleteForParents(ctx context.Context, kind LedgerKind, parentIDs []uint) error {
	if len(parentIDs) == 0 {
		return nil
	}
	spec, err := specFor(kind)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where(spec.parentColumn+" IN ?", parentIDs).
		Delete(spec.newRow(0, 0)).Error
}

func (r *engagementRepository) RemoveUser(ctx context.Context, userID uint) error {
	for _, kind := range LedgerKinds {
		spec := ledgerSpecs[kind]
		var parents []uint
		if err := r.db.WithContext(ctx).Model(spec.newRow(0, 0)).
			Where("user_id = ?", userID).
			Pluck(spec.parentColumn, &parents).Error; err != nil {
			return err
		}
		if len(parents) == 0 {
			continue
		}
		if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(spec.newRow(0, 0)).Error; err != nil {
			return err
		}
		for _, parentID := range parents {
			if err := r.adjustCounter(ctx, spec, parentID, -1); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *engagementRepository) RepairCounters(ctx context.Context, kind LedgerKind) (int64, error) {
	spec, err := specFor(kind)
	if err != nil {
		return 0, err
	}
	if spec.counterColumn == "" {
		return 0, nil
	}
	defer observability.TrackQuery("repair_counter", spec.counterTable)()
	drifted, err := repairCount(ctx, r.db, spec.counterTable, spec.counterColumn, spec.table, spec.parentColumn)
	if err != nil {
		return 0, err
	}
	observability.CounterRepairs.WithLabelValues(string(kind)).Add(float64(drifted))
	return drifted, nil
}

// repairCount sets parent.counter to the number of child rows pointing at
// it, touching only rows where the two disagree.
func repairCount(ctx context.Context, db *gorm.DB, parentTable, counter, childTable, childColumn string) (int64, error) {
	sub := fmt.Sprintf("(SELECT COUNT(*) FROM %s WHERE %s.%s = %s.id)", childTable, childTable, childColumn, parentTable)
	sql := fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s <> %s", parentTable, counter, sub, counter, sub)
	res := db.WithContext(ctx).Exec(sql)
	return res.RowsAffected, res.Error
}
