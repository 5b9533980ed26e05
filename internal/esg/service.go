package esg

import (
	"context"
	"math"

	"terravest-backend/internal/models"
)

// Service exposes per-company ESG views over the Store.
type Service struct {
	Store *Store
}

// CompanyScores is the per-company detail returned by the ESG data endpoint:
// latest-year headline scores plus the full metric history grouped by year.
type CompanyScores struct {
	Company       *models.ESGCompany         `json:"company"`
	LatestYear    int                        `json:"latest_year"`
	Overall       int                        `json:"overall_esg_score"`
	Environmental int                        `json:"environmental_score"`
	Social        int                        `json:"social_score"`
	Governance    int                        `json:"governance_score"`
	History       map[int][]models.ESGMetric `json:"history"`
}

// CompanyScoresByTicker assembles the latest headline scores and history for
// a ticker. Stored scores are normalized 0..1; displayed scores are ×100
// rounded half away from zero.
func (s *Service) CompanyScoresByTicker(ctx context.Context, ticker string) (*CompanyScores, error) {
	company, err := s.Store.FindCompanyByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}
	metrics, err := s.Store.ListMetrics(ctx, company.ID)
	if err != nil {
		return nil, err
	}

	latest := LatestYear(metrics)
	history := make(map[int][]models.ESGMetric)
	for _, m := range metrics {
		history[m.Year] = append(history[m.Year], m)
	}

	out := &CompanyScores{
		Company:    company,
		LatestYear: latest,
		History:    history,
	}
	if score, ok := ScoreFor(metrics, FieldESGScore, latest); ok {
		out.Overall = DisplayScore(score)
	}
	if score, ok := ScoreFor(metrics, FieldEnvironmentScore, latest); ok {
		out.Environmental = DisplayScore(score)
	}
	if score, ok := ScoreFor(metrics, FieldSocialScore, latest); ok {
		out.Social = DisplayScore(score)
	}
	if score, ok := ScoreFor(metrics, FieldGovernanceScore, latest); ok {
		out.Governance = DisplayScore(score)
	}
	return out, nil
}

// ScoreSummary is one company's latest headline scores, the projection
// shared by the peer comparison and portfolio ESG endpoints.
type ScoreSummary struct {
	Ticker        string `json:"ticker"`
	Name          string `json:"name"`
	Overall       int    `json:"overall_esg_score"`
	Environmental int    `json:"environmental_score"`
	Social        int    `json:"social_score"`
	Governance    int    `json:"governance_score"`
}

const peerLimit = 10

// PeerScoresBySymbol returns latest scores for companies sharing the
// symbol's SIC code.
func (s *Service) PeerScoresBySymbol(ctx context.Context, symbol string) ([]ScoreSummary, error) {
	company, err := s.Store.FindCompanyByTicker(ctx, symbol)
	if err != nil {
		return nil, err
	}
	peers, err := s.Store.PeerCompanies(ctx, company.SICCode, company.ID, peerLimit)
	if err != nil {
		return nil, err
	}

	out := make([]ScoreSummary, 0, len(peers))
	for _, peer := range peers {
		summary, err := s.summarize(ctx, &peer)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, nil
}

// ScoresForTickers returns latest scores for each ticker with coverage in
// the dataset. Unmatched tickers are skipped, not errors; a portfolio is
// allowed to hold unrated symbols.
func (s *Service) ScoresForTickers(ctx context.Context, tickers []string) ([]ScoreSummary, error) {
	out := make([]ScoreSummary, 0, len(tickers))
	for _, ticker := range tickers {
		company, err := s.Store.FindCompanyByTicker(ctx, ticker)
		if err != nil {
			if err == ErrCompanyNotFound {
				continue
			}
			return nil, err
		}
		summary, err := s.summarize(ctx, company)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *Service) summarize(ctx context.Context, company *models.ESGCompany) (ScoreSummary, error) {
	metrics, err := s.Store.ListMetrics(ctx, company.ID)
	if err != nil {
		return ScoreSummary{}, err
	}
	latest := LatestYear(metrics)
	summary := ScoreSummary{Ticker: company.Ticker, Name: company.Name}
	if score, ok := ScoreFor(metrics, FieldESGScore, latest); ok {
		summary.Overall = DisplayScore(score)
	}
	if score, ok := ScoreFor(metrics, FieldEnvironmentScore, latest); ok {
		summary.Environmental = DisplayScore(score)
	}
	if score, ok := ScoreFor(metrics, FieldSocialScore, latest); ok {
		summary.Social = DisplayScore(score)
	}
	if score, ok := ScoreFor(metrics, FieldGovernanceScore, latest); ok {
		summary.Governance = DisplayScore(score)
	}
	return summary, nil
}

// DisplayScore converts a normalized 0..1 score to the 0-100 display scale,
// rounding half away from zero (0.755 -> 76).
func DisplayScore(normalized float64) int {
	return int(math.Round(normalized * 100))
}
