package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"showcase/internal/config"
	"showcase/internal/models"
	"showcase/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	s   *Server
	app *fiber.App
	db  *gorm.DB
	fx  *testutil.Fixtures
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := &config.Config{
		JWTSecret:            "handler-test-secret-0123456789abcdef",
		Env:                  "test",
		SearchMaxLimit:       50,
		ImageMaxUploadSizeMB: 1,
	}
	s, err := NewServerWithDeps(cfg, db, nil, WithBlobStore(testutil.NewBlobStore()))
	require.NoError(t, err)
	return &testEnv{s: s, app: s.App(), db: db, fx: testutil.NewFixtures(t, db)}
}

func (e *testEnv) token(t *testing.T, userID uint) string {
	t.Helper()
	tok, err := e.s.auth.IssueToken(userID)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthEndpoints(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "degraded", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "unavailable", checks["redis"])
}

func TestRegisterLoginAndMe(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Dana",
		"phone":    "(555) 123-4567",
		"password": "Sup3r!secret",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	reg := decode[map[string]any](t, resp)
	assert.NotEmpty(t, reg["token"])

	resp = e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Dana again",
		"phone":    "5551234567",
		"password": "Sup3r!secret",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"phone":    "5551234567",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"phone":    "5551234567",
		"password": "Sup3r!secret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decode[map[string]any](t, resp)
	token, _ := login["token"].(string)
	require.NotEmpty(t, token)

	resp = e.do(t, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[map[string]any](t, resp)
	assert.Equal(t, "Dana", me["name"])
	assert.NotContains(t, me, "password")
}

func TestRegister_ValidationErrors(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Weak",
		"phone":    "5550001111",
		"password": "weak",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	raw, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = raw.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newTestEnv(t)

	for _, path := range []string{"/api/users/me", "/api/posts/me", "/api/preferences"} {
		resp := e.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	resp := e.do(t, http.MethodGet, "/api/users/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFeed_AnonymousSeesActivePosts(t *testing.T) {
	e := newTestEnv(t)
	u := e.fx.User("author")
	e.fx.Post(u.ID, nil)
	e.fx.Post(u.ID, nil)
	e.fx.Post(u.ID, func(p *models.Post) { p.Status = models.StatusPending })

	resp := e.do(t, http.MethodGet, "/api/posts/feed?limit=10", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[models.Page[models.Post]](t, resp)
	assert.EqualValues(t, 2, page.Total)
	assert.Len(t, page.Items, 2)
}

func TestToggleLikePost(t *testing.T) {
	e := newTestEnv(t)
	author := e.fx.User("author")
	fan := e.fx.User("fan")
	post := e.fx.Post(author.ID, nil)
	token := e.token(t, fan.ID)
	path := fmt.Sprintf("/api/posts/%d/like", post.ID)

	resp := e.do(t, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decode[map[string]any](t, resp)
	assert.Equal(t, true, state["liked"])
	assert.EqualValues(t, 1, state["likes_count"])

	resp = e.do(t, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state = decode[map[string]any](t, resp)
	assert.Equal(t, false, state["liked"])
	assert.EqualValues(t, 0, state["likes_count"])

	resp = e.do(t, http.MethodPost, "/api/posts/99999/like", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreatePost_UsesPortfolioSnapshot(t *testing.T) {
	e := newTestEnv(t)
	u := e.fx.User("Ivy")
	e.fx.Portfolio(u.ID, func(p *models.Portfolio) { p.Profession = "Carpenter" })
	token := e.token(t, u.ID)

	resp := e.do(t, http.MethodPost, "/api/posts", token, map[string]any{
		"description": "New bench",
		"tags":        []string{"wood"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	post := decode[models.Post](t, resp)
	assert.Equal(t, "Ivy", post.UserName)
	assert.Equal(t, "Carpenter", post.UserProfession)
	assert.Equal(t, models.StatusActive, post.Status)
}

func TestAdminRoutes(t *testing.T) {
	e := newTestEnv(t)
	plain := e.fx.User("plain")
	admin := e.fx.User("admin")
	require.NoError(t, e.db.Model(admin).Update("is_admin", true).Error)

	resp := e.do(t, http.MethodGet, "/api/admin/posts/pending", e.token(t, plain.ID), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	pending := e.fx.Post(plain.ID, func(p *models.Post) { p.Status = models.StatusPending })
	adminToken := e.token(t, admin.ID)

	resp = e.do(t, http.MethodGet, "/api/admin/posts/pending", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[models.Page[models.Post]](t, resp)
	require.Len(t, page.Items, 1)
	assert.Equal(t, pending.ID, page.Items[0].ID)

	resp = e.do(t, http.MethodPut, fmt.Sprintf("/api/admin/posts/%d/status", pending.ID), adminToken,
		map[string]string{"status": models.StatusActive})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stored models.Post
	e.fx.Reload(&stored, pending.ID)
	assert.Equal(t, models.StatusActive, stored.Status)
}

func multipartRequest(t *testing.T, field string, files map[string][]byte, token string, path string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUploadSingle(t *testing.T) {
	e := newTestEnv(t)
	u := e.fx.User("uploader")
	token := e.token(t, u.ID)

	req := multipartRequest(t, "image", map[string][]byte{"photo.png": []byte("png-bytes")}, token, "/api/upload/single")
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	obj := decode[map[string]any](t, resp)
	assert.True(t, strings.HasPrefix(obj["url"].(string), testutil.BlobBaseURL))

	req = multipartRequest(t, "image", map[string][]byte{"notes.txt": []byte("text")}, token, "/api/upload/single")
	resp, err = e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadMultiple(t *testing.T) {
	e := newTestEnv(t)
	u := e.fx.User("uploader")
	token := e.token(t, u.ID)

	req := multipartRequest(t, "images", map[string][]byte{
		"a.jpg": []byte("a"),
		"b.png": []byte("b"),
	}, token, "/api/upload/multiple")
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string][]map[string]any](t, resp)
	assert.Len(t, body["items"], 2)
}
