// Package repository implements the data access layer for the application.
package repository

import (
	"context"

	"showcase/internal/database"
	"showcase/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	NamesByIDs(ctx context.Context, ids []uint) (map[uint]string, error)
	SetAdmin(ctx context.Context, id uint, admin bool) error
	ListAdmins(ctx context.Context) ([]models.User, error)
	UpdateCredentials(ctx context.Context, id uint, name, passwordHash string) error
	// CompareAndSetRating writes the aggregate only if total_reviews still
	// equals expectedTotal. It reports whether the row was updated.
	CompareAndSetRating(ctx context.Context, id uint, average float64, total, expectedTotal int) (bool, error)
	Delete(ctx context.Context, id uint) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if database.IsDuplicateKey(err) {
		return models.NewConflictError("Phone number already registered")
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error; err != nil {
		return nil, notFound(err, "User", phone)
	}
	return &user, nil
}

func (r *userRepository) NamesByIDs(ctx context.Context, ids []uint) (map[uint]string, error) {
	out := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		ID   uint
		Name string
	}
	if err := readDB(r.db).WithContext(ctx).Model(&models.User{}).
		Select("id, name").
		Where("id IN ?", ids).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.Name
	}
	return out, nil
}

func (r *userRepository) SetAdmin(ctx context.Context, id uint, admin bool) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_admin", admin)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

func (r *userRepository) ListAdmins(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Where("is_admin = ?", true).Order("id ASC").Find(&users).Error
	return users, err
}

func (r *userRepository) UpdateCredentials(ctx context.Context, id uint, name, passwordHash string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]any{"name": name, "password": passwordHash}).Error
}

func (r *userRepository) CompareAndSetRating(ctx context.Context, id uint, average float64, total, expectedTotal int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND total_reviews = ?", id, expectedTotal).
		Updates(map[string]any{"average_rating": average, "total_reviews": total})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.User{}, id).Error
}
