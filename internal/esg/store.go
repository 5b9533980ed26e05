package esg

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"terravest-backend/internal/models"
)

// Score field names as they appear in the imported dataset.
const (
	FieldESGScore         = "ESGScore"
	FieldEnvironmentScore = "EnvironmentPillarScore"
	FieldSocialScore      = "SocialPillarScore"
	FieldGovernanceScore  = "GovernancePillarScore"
)

// ScoreFields are the four headline fields aggregated by the dashboard.
var ScoreFields = []string{
	FieldESGScore,
	FieldEnvironmentScore,
	FieldSocialScore,
	FieldGovernanceScore,
}

var ErrCompanyNotFound = errors.New("Company not found")

// Store reads the bulk-imported ESG dataset. Read-only from the serving path.
type Store struct {
	DB *gorm.DB
}

// FindCompanyByTicker returns the company for an exact ticker match.
func (s *Store) FindCompanyByTicker(ctx context.Context, ticker string) (*models.ESGCompany, error) {
	var company models.ESGCompany
	if err := s.DB.WithContext(ctx).Where("ticker = ?", ticker).First(&company).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}
	return &company, nil
}

// ListMetrics returns all metric rows for a company, every year and field.
func (s *Store) ListMetrics(ctx context.Context, companyID uint) ([]models.ESGMetric, error) {
	var metrics []models.ESGMetric
	if err := s.DB.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("year ASC").
		Find(&metrics).Error; err != nil {
		return nil, err
	}
	return metrics, nil
}

// LatestYear returns the max fiscal year among metric rows, 0 when empty.
func LatestYear(metrics []models.ESGMetric) int {
	latest := 0
	for _, m := range metrics {
		if m.Year > latest {
			latest = m.Year
		}
	}
	return latest
}

// ScoreFor returns the normalized score for a field in a given year and
// whether it was present. Absent metrics read as 0 with ok=false, so
// callers can keep the zero-default output while still distinguishing
// "no data" from a genuine zero.
func ScoreFor(metrics []models.ESGMetric, field string, year int) (float64, bool) {
	for _, m := range metrics {
		if m.Year == year && m.FieldName == field {
			return m.ValueScore, true
		}
	}
	return 0, false
}

// PeerCompanies returns other companies sharing the SIC code, for the peer
// comparison endpoint.
func (s *Store) PeerCompanies(ctx context.Context, sicCode string, excludeID uint, limit int) ([]models.ESGCompany, error) {
	var peers []models.ESGCompany
	if err := s.DB.WithContext(ctx).
		Where("siccode = ? AND id <> ?", sicCode, excludeID).
		Limit(limit).
		Find(&peers).Error; err != nil {
		return nil, err
	}
	return peers, nil
}
