package account

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"terravest-backend/internal/middleware"
	"terravest-backend/internal/models"
)

func setupAccountHandlers(t *testing.T) (*Handlers, *redis.Client, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.UserPreferences{}))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})

	h := &Handlers{
		Service: &Service{DB: db},
		Rdb:     rdb,
		Config:  middleware.SessionConfig{},
	}
	return h, rdb, db
}

func doPost(t *testing.T, app *fiber.App, path string, body interface{}) map[string]interface{} {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	if out == nil {
		out = map[string]interface{}{}
	}
	out["_status"] = resp.StatusCode
	out["_cookies"] = resp.Header.Values("Set-Cookie")
	return out
}

func TestSignupHandler(t *testing.T) {
	h, _, _ := setupAccountHandlers(t)
	app := fiber.New()
	app.Post("/api/account/signup", h.Signup)

	out := doPost(t, app, "/api/account/signup", validSignup())
	assert.Equal(t, fiber.StatusCreated, out["_status"])
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "Account successfully created! Redirecting...", out["message"])

	// Duplicate email surfaces as a field error.
	out = doPost(t, app, "/api/account/signup", validSignup())
	assert.Equal(t, fiber.StatusBadRequest, out["_status"])
	errObj, _ := out["error"].(map[string]interface{})
	require.NotNil(t, errObj)
	details, _ := errObj["details"].(map[string]interface{})
	assert.Equal(t, "Email is already registered.", details["email"])
}

func TestLoginHandler_Success(t *testing.T) {
	h, rdb, _ := setupAccountHandlers(t)
	app := fiber.New()
	app.Post("/api/account/signup", h.Signup)
	app.Post("/api/account/login", h.Login)

	out := doPost(t, app, "/api/account/signup", validSignup())
	require.Equal(t, fiber.StatusCreated, out["_status"])

	out = doPost(t, app, "/api/account/login", map[string]string{
		"email":    "ada@example.com",
		"password": "Secret1!",
	})
	assert.Equal(t, fiber.StatusOK, out["_status"])
	assert.Equal(t, "Login successful! Redirecting...", out["message"])

	data, _ := out["data"].(map[string]interface{})
	require.NotNil(t, data)
	user, _ := data["user"].(map[string]interface{})
	require.NotNil(t, user)
	assert.Equal(t, "ada@example.com", user["email"])

	cookies, _ := out["_cookies"].([]string)
	require.NotEmpty(t, cookies)
	assert.Contains(t, cookies[0], "terravest.sid=")

	keys, err := rdb.Keys(context.Background(), "user_sessions:*").Result()
	require.NoError(t, err)
	assert.NotEmpty(t, keys, "login must register the session for the user")
}

func TestLoginHandler_WrongPassword(t *testing.T) {
	h, _, _ := setupAccountHandlers(t)
	app := fiber.New()
	app.Post("/api/account/signup", h.Signup)
	app.Post("/api/account/login", h.Login)

	out := doPost(t, app, "/api/account/signup", validSignup())
	require.Equal(t, fiber.StatusCreated, out["_status"])

	out = doPost(t, app, "/api/account/login", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong",
	})
	assert.Equal(t, fiber.StatusUnauthorized, out["_status"])
}

func TestLoginHandler_MissingCredentials(t *testing.T) {
	h, _, _ := setupAccountHandlers(t)
	app := fiber.New()
	app.Post("/api/account/login", h.Login)

	out := doPost(t, app, "/api/account/login", map[string]string{"email": "ada@example.com"})
	assert.Equal(t, fiber.StatusBadRequest, out["_status"])
}

func TestCheckUserHandler(t *testing.T) {
	h, _, _ := setupAccountHandlers(t)
	app := fiber.New()
	app.Post("/api/account/signup", h.Signup)
	app.Post("/api/account/check-user", h.CheckUser)

	out := doPost(t, app, "/api/account/signup", validSignup())
	require.Equal(t, fiber.StatusCreated, out["_status"])

	out = doPost(t, app, "/api/account/check-user", map[string]string{"email": "ada@example.com"})
	assert.Equal(t, fiber.StatusOK, out["_status"])
	data, _ := out["data"].(map[string]interface{})
	assert.Equal(t, true, data["exists"])

	out = doPost(t, app, "/api/account/check-user", map[string]string{"email": "nobody@example.com"})
	data, _ = out["data"].(map[string]interface{})
	assert.Equal(t, false, data["exists"])
}

func TestAppDataHandler(t *testing.T) {
	h, _, _ := setupAccountHandlers(t)
	app := fiber.New()
	app.Get("/api/app-data", func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"email": "ada@example.com"})
		return h.AppData(c)
	})

	req := httptest.NewRequest("GET", "/api/app-data", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, true, out["isLoggedIn"])
}

func TestLogoutHandler_ClearsSession(t *testing.T) {
	h, rdb, _ := setupAccountHandlers(t)
	app := fiber.New()
	app.Post("/api/account/logout", func(c *fiber.Ctx) error {
		c.Locals("session_id", "sess-1")
		c.Locals("user", map[string]interface{}{"user_id": "user-1"})
		return h.Logout(c)
	})

	ctx := context.Background()
	require.NoError(t, rdb.Set(ctx, middleware.SessionRedisPrefix+"sess-1", "{}", 0).Err())
	require.NoError(t, rdb.SAdd(ctx, userSessionsPrefix+"user-1", "sess-1").Err())

	out := doPost(t, app, "/api/account/logout", nil)
	assert.Equal(t, fiber.StatusOK, out["_status"])

	exists, err := rdb.Exists(ctx, middleware.SessionRedisPrefix+"sess-1").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)

	members, err := rdb.SMembers(ctx, userSessionsPrefix+"user-1").Result()
	require.NoError(t, err)
	assert.Empty(t, members)
}
