package database

import "showcase/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.Portfolio{},
		&models.Post{},
		&models.Listing{},
		&models.Preference{},
		&models.Like{},
		&models.CommentLike{},
		&models.SavedPost{},
		&models.SavedPortfolio{},
		&models.Comment{},
		&models.Review{},
	}
}
