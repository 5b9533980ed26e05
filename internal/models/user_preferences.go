package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserPreferences stores a user's investment questionnaire, one row per user.
// The list-valued answers are JSON columns.
type UserPreferences struct {
	PreferenceID        uuid.UUID      `gorm:"column:preference_id;type:uuid;primaryKey" json:"-"`
	UserID              uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex" json:"-"`
	RiskLevel           string         `gorm:"column:risk_level;not null" json:"risk_level"`
	InvestmentStrategy  string         `gorm:"column:investment_strategy;not null" json:"investment_strategy"`
	ESGFactors          datatypes.JSON `gorm:"column:esg_factors" json:"esg_factors"`
	IndustryPreferences datatypes.JSON `gorm:"column:industry_preferences" json:"industry_preferences"`
	Exclusions          datatypes.JSON `gorm:"column:exclusions" json:"exclusions"`
	SentimentAnalysis   string         `gorm:"column:sentiment_analysis;not null" json:"sentiment_analysis"`
	TransparencyLevel   string         `gorm:"column:transparency_level;not null" json:"transparency_level"`
}

func (UserPreferences) TableName() string {
	return "UserPreferences"
}

func (p *UserPreferences) BeforeCreate(tx *gorm.DB) error {
	if p.PreferenceID == uuid.Nil {
		p.PreferenceID = uuid.New()
	}
	return nil
}
