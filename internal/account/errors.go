package account

import "errors"

var (
	ErrEmailPasswordRequired = errors.New("Email and password are required")
	ErrInvalidCredentials    = errors.New("Invalid email or password")
	ErrEmailTaken            = errors.New("Email is already registered")
	ErrUserNotFound          = errors.New("User not found")
	ErrPreferencesNotFound   = errors.New("Preferences not found")
	ErrNotAuthenticated      = errors.New("Not authenticated")
)
