// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"showcase/internal/database"
	"showcase/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB opens a private in-memory SQLite database with every persistent
// model migrated. The pool is pinned to one connection so the memory
// database lives as long as the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=0", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// Fixtures creates rows with sensible defaults.
type Fixtures struct {
	t  testing.TB
	db *gorm.DB
	// clock hands out strictly increasing creation times so ordering
	// by created_at is deterministic.
	clock time.Time
}

// NewFixtures binds fixture helpers to db.
func NewFixtures(t testing.TB, db *gorm.DB) *Fixtures {
	return &Fixtures{t: t, db: db, clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *Fixtures) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

// User creates a user with a unique phone.
func (f *Fixtures) User(name string) *models.User {
	f.t.Helper()
	u := &models.User{
		Name:      name,
		Phone:     fmt.Sprintf("555%07d", dbSeq.Add(1)),
		Password:  "x",
		CreatedAt: f.tick(),
	}
	require.NoError(f.t, f.db.Create(u).Error)
	return u
}

// Portfolio creates a portfolio for userID. mutate may adjust fields before insert.
func (f *Fixtures) Portfolio(userID uint, mutate func(p *models.Portfolio)) *models.Portfolio {
	f.t.Helper()
	p := &models.Portfolio{
		UserID:     userID,
		Name:       fmt.Sprintf("portfolio-%d", userID),
		Location:   "Austin",
		Profession: "Designer",
		Skills:     models.StringList{},
		Services:   models.StringList{},
		Gallery:    models.StringList{},
		Links:      models.StringMap{},
		CreatedAt:  f.tick(),
	}
	if mutate != nil {
		mutate(p)
	}
	require.NoError(f.t, f.db.Create(p).Error)
	return p
}

// Post creates an Active post for userID.
func (f *Fixtures) Post(userID uint, mutate func(p *models.Post)) *models.Post {
	f.t.Helper()
	p := &models.Post{
		UserID:      userID,
		Description: "post",
		Images:      models.StringList{},
		Tags:        models.StringList{},
		Status:      models.StatusActive,
		CreatedAt:   f.tick(),
	}
	if mutate != nil {
		mutate(p)
	}
	require.NoError(f.t, f.db.Create(p).Error)
	return p
}

// Listing creates an Active listing for userID.
func (f *Fixtures) Listing(userID uint, mutate func(l *models.Listing)) *models.Listing {
	f.t.Helper()
	l := &models.Listing{
		UserID:      userID,
		Title:       "Desk",
		Category:    "Furniture",
		ListingType: models.ListingTypeSell,
		Price:       "20",
		Images:      models.StringList{},
		Status:      models.StatusActive,
		CreatedAt:   f.tick(),
	}
	if mutate != nil {
		mutate(l)
	}
	require.NoError(f.t, f.db.Create(l).Error)
	return l
}

// Comment creates a comment on postID, optionally under parentID, and bumps
// the post's comments_count the way the service does.
func (f *Fixtures) Comment(postID, userID uint, parentID *uint) *models.Comment {
	f.t.Helper()
	c := &models.Comment{
		PostID:    postID,
		UserID:    userID,
		ParentID:  parentID,
		Text:      "comment",
		CreatedAt: f.tick(),
	}
	require.NoError(f.t, f.db.Create(c).Error)
	require.NoError(f.t, f.db.Model(&models.Post{}).Where("id = ?", postID).
		UpdateColumn("comments_count", gorm.Expr("comments_count + ?", 1)).Error)
	return c
}

// Reload re-reads dest by primary key.
func (f *Fixtures) Reload(dest any, id uint) {
	f.t.Helper()
	require.NoError(f.t, f.db.First(dest, id).Error)
}
