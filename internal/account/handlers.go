package account

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"terravest-backend/internal/middleware"
	"terravest-backend/internal/pkg/response"
)

const userSessionsPrefix = "user_sessions:"

// Handlers bundles account endpoints.
type Handlers struct {
	Service *Service
	Rdb     *redis.Client
	Config  middleware.SessionConfig
}

// Signup POST /api/account/signup
func (h *Handlers) Signup(c *fiber.Ctx) error {
	var in SignupInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid JSON", fiber.StatusBadRequest, nil)
	}

	user, fieldErrs, err := h.Service.Signup(c.Context(), in)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	if len(fieldErrs) > 0 {
		return response.Error(c, "Validation failed", fiber.StatusBadRequest, fieldErrs)
	}

	log.Info().Str("user_id", user.UserID.String()).Msg("account created")
	return response.SuccessCreated(c, "Account successfully created! Redirecting...", fiber.Map{
		"user_id": user.UserID.String(),
		"email":   user.Email,
	}, nil)
}

// LoginRequest body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login POST /api/account/login: authenticate, create session, set cookie.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Email and password are required", fiber.StatusBadRequest, nil)
	}
	if req.Email == "" || req.Password == "" {
		return response.Error(c, "Email and password are required", fiber.StatusBadRequest, nil)
	}

	user, err := h.Service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		switch err {
		case ErrEmailPasswordRequired:
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case ErrInvalidCredentials:
			return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
		default:
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}

	// Regenerate session ID (new session for this login)
	sessionID := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, middleware.SessionUser{
		UserID:               user.UserID.String(),
		FirstName:            user.FirstName,
		LastName:             user.LastName,
		Email:                user.Email,
		PreferencesCompleted: user.PreferencesCompleted,
	})

	if h.Rdb != nil {
		if err := h.Rdb.SAdd(context.Background(), userSessionsPrefix+user.UserID.String(), sessionID).Err(); err != nil {
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sessionID
	c.Cookie(&cookie)

	return response.Success(c, "Login successful! Redirecting...", fiber.Map{
		"user": fiber.Map{
			"user_id":               user.UserID.String(),
			"first_name":            user.FirstName,
			"last_name":             user.LastName,
			"email":                 user.Email,
			"preferences_completed": user.PreferencesCompleted,
		},
	}, nil)
}

// CheckUserRequest body.
type CheckUserRequest struct {
	Email string `json:"email"`
}

// CheckUser POST /api/account/check-user: email existence probe.
func (h *Handlers) CheckUser(c *fiber.Ctx) error {
	var req CheckUserRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return response.Error(c, "Email is required", fiber.StatusBadRequest, nil)
	}
	exists, err := h.Service.UserExists(c.Context(), req.Email)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "User existence checked", fiber.Map{"exists": exists}, nil)
}

// Logout POST /api/account/logout: remove session from Redis, clear cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	sessionUser := middleware.GetUser(c)

	ctx := context.Background()
	if h.Rdb != nil {
		if m, ok := sessionUser.(map[string]interface{}); ok && sessionID != "" {
			if userID, _ := m["user_id"].(string); userID != "" {
				_ = h.Rdb.SRem(ctx, userSessionsPrefix+userID, sessionID).Err()
			}
		}
		if sessionID != "" {
			_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
		}
	}

	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logged out successfully", nil, nil)
}

// AppData GET /api/app-data: session probe for the frontend store.
func (h *Handlers) AppData(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	return c.JSON(fiber.Map{
		"isLoggedIn": user != nil,
		"user":       user,
	})
}

// GetPreferences GET /api/account/preferences
func (h *Handlers) GetPreferences(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	prefs, err := h.Service.GetPreferences(c.Context(), userID)
	if err != nil {
		if err == ErrPreferencesNotFound {
			return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
		}
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Preferences fetched successfully", prefs, nil)
}

// SavePreferences POST /api/account/preferences
func (h *Handlers) SavePreferences(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in PreferencesInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid JSON", fiber.StatusBadRequest, nil)
	}
	prefs, err := h.Service.SavePreferences(c.Context(), userID, in)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Preferences saved successfully", prefs, nil)
}

// UpdateSettings POST /api/account/update-settings
func (h *Handlers) UpdateSettings(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in SettingsInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid JSON", fiber.StatusBadRequest, nil)
	}
	user, err := h.Service.UpdateSettings(c.Context(), userID, in)
	if err != nil {
		switch err {
		case ErrUserNotFound:
			return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
		case ErrInvalidCredentials:
			return response.Error(c, "Current password is incorrect", fiber.StatusBadRequest, nil)
		default:
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}
	return response.Success(c, "Settings updated successfully", fiber.Map{
		"user_id":    user.UserID.String(),
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"country":    user.Country,
		"email":      user.Email,
	}, nil)
}
