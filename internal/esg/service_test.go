package esg

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"terravest-backend/internal/models"
)

func setupESGTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ESGCompany{}, &models.ESGMetric{}))
	return &Service{Store: &Store{DB: db}}, db
}

func seedCompany(t *testing.T, db *gorm.DB, ticker, sic string, orgPermID int64) models.ESGCompany {
	c := models.ESGCompany{OrgPermID: orgPermID, Ticker: ticker, Name: ticker + " Inc", SICCode: sic}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func seedMetric(t *testing.T, db *gorm.DB, companyID uint, year, fieldID int, field string, score float64) {
	require.NoError(t, db.Create(&models.ESGMetric{
		CompanyID:  companyID,
		Year:       year,
		FieldID:    fieldID,
		Pillar:     field,
		FieldName:  field,
		ValueScore: score,
	}).Error)
}

func TestCompanyScoresByTicker(t *testing.T) {
	svc, db := setupESGTest(t)
	c := seedCompany(t, db, "AAPL", "3571", 1)
	seedMetric(t, db, c.ID, 2022, 1, FieldESGScore, 0.60)
	seedMetric(t, db, c.ID, 2023, 1, FieldESGScore, 0.72)
	seedMetric(t, db, c.ID, 2023, 2, FieldEnvironmentScore, 0.80)
	seedMetric(t, db, c.ID, 2023, 3, FieldSocialScore, 0.655)

	scores, err := svc.CompanyScoresByTicker(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, 2023, scores.LatestYear)
	assert.Equal(t, 72, scores.Overall)
	assert.Equal(t, 80, scores.Environmental)
	assert.Equal(t, 66, scores.Social, "0.655 rounds half away from zero")
	assert.Equal(t, 0, scores.Governance, "missing pillar stays zero")
	assert.Len(t, scores.History[2023], 3)
	assert.Len(t, scores.History[2022], 1)
}

func TestCompanyScoresByTicker_NotFound(t *testing.T) {
	svc, _ := setupESGTest(t)
	_, err := svc.CompanyScoresByTicker(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrCompanyNotFound)
}

func TestPeerScoresBySymbol(t *testing.T) {
	svc, db := setupESGTest(t)
	subject := seedCompany(t, db, "AAPL", "3571", 1)
	seedMetric(t, db, subject.ID, 2023, 1, FieldESGScore, 0.70)

	peer := seedCompany(t, db, "DELL", "3571", 2)
	seedMetric(t, db, peer.ID, 2023, 1, FieldESGScore, 0.55)

	// Different SIC code, must not appear.
	other := seedCompany(t, db, "XOM", "2911", 3)
	seedMetric(t, db, other.ID, 2023, 1, FieldESGScore, 0.30)

	peers, err := svc.PeerScoresBySymbol(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, peers, 1)
	assert.Equal(t, "DELL", peers[0].Ticker)
	assert.Equal(t, 55, peers[0].Overall)
}

func TestPeerScoresBySymbol_ExcludesSelf(t *testing.T) {
	svc, db := setupESGTest(t)
	subject := seedCompany(t, db, "AAPL", "3571", 1)
	seedMetric(t, db, subject.ID, 2023, 1, FieldESGScore, 0.70)

	peers, err := svc.PeerScoresBySymbol(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Empty(t, peers)
}

func TestScoresForTickers(t *testing.T) {
	svc, db := setupESGTest(t)
	apple := seedCompany(t, db, "AAPL", "3571", 1)
	seedMetric(t, db, apple.ID, 2023, 1, FieldESGScore, 0.72)
	seedMetric(t, db, apple.ID, 2023, 2, FieldEnvironmentScore, 0.80)
	exxon := seedCompany(t, db, "XOM", "2911", 2)
	seedMetric(t, db, exxon.ID, 2023, 1, FieldESGScore, 0.30)

	// NODATA has no coverage and is skipped, not an error.
	scores, err := svc.ScoresForTickers(context.Background(), []string{"AAPL", "NODATA", "XOM"})
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "AAPL", scores[0].Ticker)
	assert.Equal(t, 72, scores[0].Overall)
	assert.Equal(t, 80, scores[0].Environmental)
	assert.Equal(t, "XOM", scores[1].Ticker)
	assert.Equal(t, 30, scores[1].Overall)
}

func TestScoresForTickers_Empty(t *testing.T) {
	svc, _ := setupESGTest(t)
	scores, err := svc.ScoresForTickers(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestLatestYear(t *testing.T) {
	metrics := []models.ESGMetric{{Year: 2021}, {Year: 2023}, {Year: 2022}}
	assert.Equal(t, 2023, LatestYear(metrics))
	assert.Equal(t, 0, LatestYear(nil))
}

func TestScoreFor(t *testing.T) {
	metrics := []models.ESGMetric{
		{Year: 2023, FieldName: FieldESGScore, ValueScore: 0.72},
		{Year: 2022, FieldName: FieldESGScore, ValueScore: 0.60},
	}
	score, ok := ScoreFor(metrics, FieldESGScore, 2023)
	assert.True(t, ok)
	assert.Equal(t, 0.72, score)

	_, ok = ScoreFor(metrics, FieldEnvironmentScore, 2023)
	assert.False(t, ok)
}

func TestDisplayScore(t *testing.T) {
	assert.Equal(t, 76, DisplayScore(0.755))
	assert.Equal(t, 80, DisplayScore(0.80))
	assert.Equal(t, 0, DisplayScore(0))
	assert.Equal(t, 100, DisplayScore(1))
}
