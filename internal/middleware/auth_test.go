package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func signClaims(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func TestRequireAuth(t *testing.T) {
	auth := NewAuthenticator(testSecret, nil)
	app := fiber.New()
	app.Get("/test", auth.RequireAuth(), func(c *fiber.Ctx) error {
		id, _ := UserID(c)
		return c.SendString(strconv.FormatUint(uint64(id), 10))
	})

	valid, err := auth.IssueToken(123)
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Happy Path", "Bearer " + valid, http.StatusOK},
		{"Missing Header", "", http.StatusUnauthorized},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"Expired Token", "Bearer " + signClaims(t, jwt.MapClaims{
			"sub": "123", "iss": TokenIssuer, "aud": TokenAudience,
			"exp": time.Now().Add(-time.Hour).Unix(),
		}), http.StatusUnauthorized},
		{"Wrong Issuer", "Bearer " + signClaims(t, jwt.MapClaims{
			"sub": "123", "iss": "someone-else", "aud": TokenAudience,
			"exp": time.Now().Add(time.Hour).Unix(),
		}), http.StatusUnauthorized},
		{"Non Numeric Subject", "Bearer " + signClaims(t, jwt.MapClaims{
			"sub": "abc", "iss": TokenIssuer, "aud": TokenAudience,
			"exp": time.Now().Add(time.Hour).Unix(),
		}), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	auth := NewAuthenticator(testSecret, nil)
	app := fiber.New()
	app.Get("/test", auth.OptionalAuth(), func(c *fiber.Ctx) error {
		id, ok := UserID(c)
		if !ok {
			return c.SendString("anonymous")
		}
		return c.SendString(strconv.FormatUint(uint64(id), 10))
	})

	token, err := auth.IssueToken(7)
	require.NoError(t, err)

	cases := map[string]string{
		"":                "anonymous",
		"Bearer garbage":  "anonymous",
		"Bearer " + token: "7",
		"Token " + token:  "anonymous",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		buf := make([]byte, 32)
		n, _ := resp.Body.Read(buf)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, want, string(buf[:n]))
	}
}

func TestRequireAuth_RevokedToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	auth := NewAuthenticator(testSecret, rdb)

	token, err := auth.IssueToken(9)
	require.NoError(t, err)
	_, jti, err := auth.ParseToken(token)
	require.NoError(t, err)
	require.NoError(t, mr.Set("blacklist:"+jti, "1"))

	app := fiber.New()
	app.Get("/test", auth.RequireAuth(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
