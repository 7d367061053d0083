package repository

import (
	"context"
	"regexp"
	"testing"

	"showcase/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name          string
		userID        uint
		mockBehavior  func()
		expectedName  string
		expectedError string
	}{
		{
			name:   "Success",
			userID: 1,
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "name", "phone"}).AddRow(1, "Ada", "5551234567")
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(1, 1).
					WillReturnRows(rows)
			},
			expectedName: "Ada",
		},
		{
			name:   "Not Found",
			userID: 2,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(2, 1).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			expectedError: models.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetByID(ctx, tt.userID)
			if tt.expectedError != "" {
				assert.True(t, models.IsCode(err, tt.expectedError))
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedName, user.Name)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_DuplicatePhone(t *testing.T) {
	db, fx := setupDB(t)
	repo := NewUserRepository(db)

	existing := fx.User("first")
	err := repo.Create(context.Background(), &models.User{Name: "second", Phone: existing.Phone, Password: "x"})
	assert.True(t, models.IsCode(err, models.CodeConflict))
}

func TestUserRepository_CompareAndSetRating(t *testing.T) {
	db, fx := setupDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := fx.User("u")
	ok, err := repo.CompareAndSetRating(ctx, u.ID, 4, 1, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	// Stale expectation loses.
	ok, err = repo.CompareAndSetRating(ctx, u.ID, 5, 1, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.AverageRating)
	assert.Equal(t, 1, got.TotalReviews)
}

func TestUserRepository_AdminsAndNames(t *testing.T) {
	db, fx := setupDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	a := fx.User("alice")
	b := fx.User("bob")
	require.NoError(t, repo.SetAdmin(ctx, b.ID, true))
	assert.True(t, models.IsCode(repo.SetAdmin(ctx, 999, true), models.CodeNotFound))

	admins, err := repo.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, b.ID, admins[0].ID)

	names, err := repo.NamesByIDs(ctx, []uint{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uint]string{a.ID: "alice", b.ID: "bob"}, names)
}
