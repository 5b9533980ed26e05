package middleware

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSession(t *testing.T) (fiber.Handler, *redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	handler, rdb, err := Session(SessionConfig{RedisURL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return handler, rdb, mr
}

func TestSession_LoadsUserFromRedis(t *testing.T) {
	handler, rdb, _ := setupSession(t)

	data, _ := json.Marshal(map[string]interface{}{
		"user": map[string]interface{}{"user_id": "u-1", "email": "ada@example.com"},
	})
	require.NoError(t, rdb.Set(context.Background(), SessionRedisPrefix+"sess-1", data, 0).Err())

	app := fiber.New()
	app.Use(handler)
	app.Get("/whoami", func(c *fiber.Ctx) error {
		user, _ := GetUser(c).(map[string]interface{})
		if user == nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.JSON(user)
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Cookie", SessionCookieName+"=s:sess-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSession_NoCookieYieldsNilUser(t *testing.T) {
	handler, _, _ := setupSession(t)

	app := fiber.New()
	app.Use(handler)
	app.Get("/whoami", func(c *fiber.Ctx) error {
		if GetUser(c) == nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSession_SignedCookieFormat(t *testing.T) {
	handler, rdb, _ := setupSession(t)

	data, _ := json.Marshal(map[string]interface{}{
		"user": map[string]interface{}{"user_id": "u-2"},
	})
	require.NoError(t, rdb.Set(context.Background(), SessionRedisPrefix+"sess-2", data, 0).Err())

	app := fiber.New()
	app.Use(handler)
	app.Get("/whoami", func(c *fiber.Ctx) error {
		if GetUser(c) == nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.SendStatus(fiber.StatusOK)
	})

	// "s:id.signature" cookies resolve to the id before the dot.
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Cookie", SessionCookieName+"=s:sess-2.abc123sig")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSession_PersistsUpdatedData(t *testing.T) {
	handler, rdb, _ := setupSession(t)

	app := fiber.New()
	app.Use(handler)
	app.Post("/login", func(c *fiber.Ctx) error {
		sessionID := RegenerateSessionID(c)
		SetSessionUser(c, SessionUser{UserID: "u-3", Email: "ada@example.com"})
		return c.JSON(fiber.Map{"session_id": sessionID})
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	keys, err := rdb.Keys(context.Background(), SessionRedisPrefix+"*").Result()
	require.NoError(t, err)
	require.Len(t, keys, 1)

	raw, err := rdb.Get(context.Background(), keys[0]).Bytes()
	require.NoError(t, err)
	var stored map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &stored))
	user, _ := stored["user"].(map[string]interface{})
	require.NotNil(t, user)
	assert.Equal(t, "u-3", user["user_id"])
}

func TestRequireAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/open", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/guarded", RequireAuth(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/guarded-with-user", func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"user_id": "u-1"})
		return c.Next()
	}, RequireAuth(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest("GET", "/guarded", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/guarded-with-user", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGetUserID(t *testing.T) {
	app := fiber.New()
	app.Get("/id", func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"user_id": "550e8400-e29b-41d4-a716-446655440000"})
		id := GetUserID(c)
		return c.SendString(id.String())
	})
	app.Get("/bad", func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"user_id": "not-a-uuid"})
		id := GetUserID(c)
		return c.SendString(id.String())
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/id", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/bad", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
