package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"showcase/internal/repository"
	"showcase/internal/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupMockDB creates a GORM *gorm.DB backed by sqlmock for unit tests.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func mockServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	gormDB, mock := setupMockDB(t)
	s := &Server{
		db:          gormDB,
		userService: service.NewUserService(repository.NewUserRepository(gormDB), nil),
	}
	return s, mock
}

const selectUser = `SELECT * FROM "users" WHERE "users"."id" = $1`

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param    string
		expected string
	}{
		{"id", "ID"},
		{"userId", "user ID"},
		{"commentId", "comment ID"},
		{"savedPortfolioId", "saved portfolio ID"},
		{"something", "something"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.expected, humanizeParam(tt.param))
		})
	}
}

func pageApp(maxLimit int) *fiber.App {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		p := parsePage(c, maxLimit)
		return c.JSON(fiber.Map{"page": p.Page, "limit": p.Limit})
	})
	return app
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		name          string
		query         string
		page, limit   float64
		maxLimitParam int
	}{
		{"defaults", "", 1, defaultPageLimit, 50},
		{"custom", "?page=3&limit=20", 3, 20, 50},
		{"capped", "?limit=500", 1, 50, 50},
		{"invalid values", "?page=-2&limit=0", 1, defaultPageLimit, 50},
		{"non-numeric", "?page=abc&limit=xyz", 1, defaultPageLimit, 50},
		{"zero cap uses global max", "?limit=1000", 1, maxPaginationLimit, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil)
			resp, err := pageApp(tt.maxLimitParam).Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			var body map[string]float64
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.page, body["page"])
			assert.Equal(t, tt.limit, body["limit"])
		})
	}
}

func TestParseID_ValidID(t *testing.T) {
	app := fiber.New()
	s := &Server{}
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	req := httptest.NewRequest(http.MethodGet, "/items/42", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]float64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(42), body["id"])
}

func TestParseID_Rejects(t *testing.T) {
	tests := []struct {
		param       string
		value       string
		expectedMsg string
	}{
		{"id", "abc", "Invalid ID"},
		{"id", "0", "Invalid ID"},
		{"id", "-4", "Invalid ID"},
		{"userId", "abc", "Invalid user ID"},
		{"commentId", "x1", "Invalid comment ID"},
	}
	for _, tt := range tests {
		t.Run(tt.param+"="+tt.value, func(t *testing.T) {
			app := fiber.New()
			s := &Server{}
			app.Get("/items/:"+tt.param, func(c *fiber.Ctx) error {
				_, _ = s.parseID(c, tt.param)
				return nil
			})

			req := httptest.NewRequest(http.MethodGet, "/items/"+tt.value, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.expectedMsg, body["error"])
		})
	}
}

func adminApp(s *Server, userID uint) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != 0 {
			c.Locals("userID", userID)
		}
		return c.Next()
	})
	app.Get("/admin", s.AdminRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	return app
}

func TestAdminRequired_AllowsAdmin(t *testing.T) {
	s, mock := mockServer(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectUser)).
		WithArgs(uint(1), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "is_admin"}).AddRow(1, "root", true))

	resp, err := adminApp(s, 1).Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRequired_RejectsNonAdmin(t *testing.T) {
	s, mock := mockServer(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectUser)).
		WithArgs(uint(2), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "is_admin"}).AddRow(2, "ann", false))

	resp, err := adminApp(s, 2).Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Admin access required", body["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRequired_UnknownUserIsForbidden(t *testing.T) {
	s, mock := mockServer(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectUser)).
		WithArgs(uint(999), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_admin"}))

	resp, err := adminApp(s, 999).Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRequired_NoUser(t *testing.T) {
	s, mock := mockServer(t)

	resp, err := adminApp(s, 0).Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}
