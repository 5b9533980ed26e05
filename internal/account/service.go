package account

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"terravest-backend/internal/models"
)

// Service encapsulates account operations.
type Service struct {
	DB *gorm.DB
}

// SignupInput is the signup request body. DateOfBirth is "2006-01-02".
type SignupInput struct {
	FirstName       string `json:"first_name"`
	MiddleName      string `json:"middle_name"`
	LastName        string `json:"last_name"`
	Country         string `json:"country"`
	DateOfBirth     string `json:"date_of_birth"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Signup validates input and creates the user with a bcrypt password hash.
// Returns field errors (non-nil, non-empty) when validation fails.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*models.User, map[string]string, error) {
	fieldErrs, err := ValidateSignup(s.DB.WithContext(ctx), in)
	if err != nil {
		return nil, nil, err
	}
	if len(fieldErrs) > 0 {
		return nil, fieldErrs, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}
	dob, err := time.Parse("2006-01-02", in.DateOfBirth)
	if err != nil {
		return nil, nil, err
	}

	u := models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Country:      in.Country,
		DateOfBirth:  dob,
		Email:        in.Email,
		PasswordHash: string(hash),
	}
	if in.MiddleName != "" {
		u.MiddleName = &in.MiddleName
	}
	if err := s.DB.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, nil, err
	}
	return &u, nil, nil
}

// Login finds the user by email and verifies the password.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, ErrEmailPasswordRequired
	}
	var u models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

// UserExists reports whether an account exists for the email.
func (s *Service) UserExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// PreferencesInput mirrors the questionnaire body sent by the frontend
// (camelCase keys, list answers as string arrays).
type PreferencesInput struct {
	RiskLevel           string   `json:"riskLevel"`
	InvestmentStrategy  string   `json:"investmentStrategy"`
	ESGFactors          []string `json:"esgFactors"`
	IndustryPreferences []string `json:"industryPreferences"`
	Exclusions          []string `json:"exclusions"`
	SentimentAnalysis   string   `json:"sentimentAnalysis"`
	TransparencyLevel   string   `json:"transparencyLevel"`
}

// GetPreferences returns the user's saved preferences.
func (s *Service) GetPreferences(ctx context.Context, userID uuid.UUID) (*models.UserPreferences, error) {
	var p models.UserPreferences
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPreferencesNotFound
		}
		return nil, err
	}
	return &p, nil
}

// SavePreferences upserts the user's preferences and marks the account's
// questionnaire as completed.
func (s *Service) SavePreferences(ctx context.Context, userID uuid.UUID, in PreferencesInput) (*models.UserPreferences, error) {
	factors, _ := json.Marshal(orEmpty(in.ESGFactors))
	industries, _ := json.Marshal(orEmpty(in.IndustryPreferences))
	exclusions, _ := json.Marshal(orEmpty(in.Exclusions))

	var p models.UserPreferences
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}
	p.UserID = userID
	p.RiskLevel = in.RiskLevel
	p.InvestmentStrategy = in.InvestmentStrategy
	p.ESGFactors = datatypes.JSON(factors)
	p.IndustryPreferences = datatypes.JSON(industries)
	p.Exclusions = datatypes.JSON(exclusions)
	p.SentimentAnalysis = in.SentimentAnalysis
	p.TransparencyLevel = in.TransparencyLevel

	if err == gorm.ErrRecordNotFound {
		if err := s.DB.WithContext(ctx).Create(&p).Error; err != nil {
			return nil, err
		}
	} else {
		if err := s.DB.WithContext(ctx).Save(&p).Error; err != nil {
			return nil, err
		}
	}

	if err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("preferences_completed", true).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// SettingsInput is the update-settings request body. Password change is
// optional and requires the current password.
type SettingsInput struct {
	FirstName       string `json:"first_name"`
	MiddleName      string `json:"middle_name"`
	LastName        string `json:"last_name"`
	Country         string `json:"country"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UpdateSettings applies profile changes and, when requested, rotates the
// password after verifying the current one.
func (s *Service) UpdateSettings(ctx context.Context, userID uuid.UUID, in SettingsInput) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if in.FirstName != "" {
		u.FirstName = in.FirstName
	}
	if in.MiddleName != "" {
		u.MiddleName = &in.MiddleName
	}
	if in.LastName != "" {
		u.LastName = in.LastName
	}
	if in.Country != "" {
		u.Country = in.Country
	}
	if in.NewPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.CurrentPassword)); err != nil {
			return nil, ErrInvalidCredentials
		}
		if !validPassword(in.NewPassword) {
			return nil, ErrInvalidCredentials
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = string(hash)
	}

	if err := s.DB.WithContext(ctx).Save(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
