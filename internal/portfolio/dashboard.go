package portfolio

import (
	"context"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"terravest-backend/internal/esg"
)

// TrendPoint is one year of a weighted score series.
type TrendPoint struct {
	Year  int     `json:"year"`
	Score float64 `json:"score"`
}

// ESGBreakdown holds the three pillar scores on the 0-100 display scale.
type ESGBreakdown struct {
	Environmental int `json:"environmental"`
	Social        int `json:"social"`
	Governance    int `json:"governance"`
}

// TopHolding is the pass-through holding projection. No ranking is applied;
// order is whatever the store returned.
type TopHolding struct {
	CompanyName    string          `json:"company_name"`
	Symbol         string          `json:"symbol"`
	Shares         decimal.Decimal `json:"shares"`
	AmountInvested decimal.Decimal `json:"amount_invested"`
}

// Diagnostics counts the lookups that degraded during one computation.
// Failures never abort the dashboard; these make them observable.
type Diagnostics struct {
	ExcludedHoldings int `json:"excluded_holdings"`
	MissingCompanies int `json:"missing_companies"`
	FailedESGLookups int `json:"failed_esg_lookups"`
}

// DashboardResult is the per-request aggregate snapshot.
type DashboardResult struct {
	PortfolioValue             decimal.Decimal         `json:"portfolio_value"`
	OverallESGScore            *int                    `json:"overall_esg_score"`
	PortfolioPerformanceChange decimal.Decimal         `json:"portfolio_performance_change"`
	ESGBreakdown               ESGBreakdown            `json:"esg_breakdown"`
	ESGTrends                  map[string][]TrendPoint `json:"esg_trends"`
	TopHoldings                []TopHolding            `json:"top_holdings"`
	Diagnostics                Diagnostics             `json:"-"`
}

// ComputeDashboard produces one consistent snapshot of portfolio value,
// value-weighted ESG composition, and historical trend for a user.
//
// Per-holding data gaps degrade locally: a failed price lookup excludes
// that holding from value and weights, an unmatched ticker contributes
// nothing to the ESG aggregate but still counts toward value, and an
// absent metric reads as zero. Nothing here aborts the computation except
// a missing user or a holdings query failure.
func (s *Service) ComputeDashboard(ctx context.Context, userID uuid.UUID) (*DashboardResult, error) {
	if userID == uuid.Nil {
		return nil, ErrUserRequired
	}
	stocks, err := s.listStocks(ctx, userID)
	if err != nil {
		return nil, err
	}

	quotes := s.resolvePrices(ctx, stocks)

	result := &DashboardResult{
		ESGTrends:   make(map[string][]TrendPoint, len(esg.ScoreFields)),
		TopHoldings: make([]TopHolding, 0, len(stocks)),
	}

	// Portfolio value over resolved holdings; invested over all holdings.
	total := decimal.Zero
	invested := decimal.Zero
	values := make([]decimal.Decimal, len(stocks))
	for i, st := range stocks {
		if st.AmountInvested != nil {
			invested = invested.Add(*st.AmountInvested)
		}
		if quotes[i].err != nil {
			result.Diagnostics.ExcludedHoldings++
			continue
		}
		values[i] = quotes[i].price.Mul(st.Shares)
		total = total.Add(values[i])
	}
	result.PortfolioValue = total

	// Weighted ESG aggregation and trend accumulation. Weights use the
	// current value share; historical years reuse today's weight, so
	// trends show the trajectory of today's allocation, not the
	// allocation held back then. Known simplification, kept on purpose.
	totalF := total.InexactFloat64()
	weighted := make(map[string]float64, len(esg.ScoreFields))
	trendSums := make(map[string]map[int]float64, len(esg.ScoreFields))
	for _, field := range esg.ScoreFields {
		trendSums[field] = make(map[int]float64)
	}

	for i, st := range stocks {
		if quotes[i].err != nil {
			continue
		}
		weight := 0.0
		if totalF > 0 {
			weight = values[i].InexactFloat64() / totalF
		}

		company, err := s.ESG.FindCompanyByTicker(ctx, st.Symbol)
		if err != nil {
			if err == esg.ErrCompanyNotFound {
				result.Diagnostics.MissingCompanies++
				log.Info().Str("symbol", st.Symbol).Msg("no ESG company for ticker, zero ESG contribution")
			} else {
				result.Diagnostics.FailedESGLookups++
				log.Warn().Err(err).Str("symbol", st.Symbol).Msg("company lookup failed, zero ESG contribution")
			}
			continue
		}
		metrics, err := s.ESG.ListMetrics(ctx, company.ID)
		if err != nil {
			result.Diagnostics.FailedESGLookups++
			log.Warn().Err(err).Str("symbol", st.Symbol).Msg("metric lookup failed, zero ESG contribution")
			continue
		}

		latest := esg.LatestYear(metrics)
		for _, field := range esg.ScoreFields {
			// Absent metric reads as zero; availability is tracked by
			// ScoreFor for callers that need to tell the cases apart.
			score, _ := esg.ScoreFor(metrics, field, latest)
			weighted[field] += weight * score * 100

			for _, m := range metrics {
				if m.FieldName == field {
					trendSums[field][m.Year] += weight * m.ValueScore * 100
				}
			}
		}
	}

	// Zero total value means weights are undefined, so the aggregate
	// score is reported as null rather than zero.
	if total.IsPositive() {
		overall := roundScore(weighted[esg.FieldESGScore])
		result.OverallESGScore = &overall
	}
	result.ESGBreakdown = ESGBreakdown{
		Environmental: roundScore(weighted[esg.FieldEnvironmentScore]),
		Social:        roundScore(weighted[esg.FieldSocialScore]),
		Governance:    roundScore(weighted[esg.FieldGovernanceScore]),
	}

	// Trend series, ascending by year. The unique (company, year, field)
	// key upstream guarantees no duplicate years per field here.
	for field, byYear := range trendSums {
		years := make([]int, 0, len(byYear))
		for year := range byYear {
			years = append(years, year)
		}
		sort.Ints(years)
		points := make([]TrendPoint, 0, len(years))
		for _, year := range years {
			points = append(points, TrendPoint{Year: year, Score: byYear[year]})
		}
		result.ESGTrends[field] = points
	}

	// Performance vs cost basis, over all holdings regardless of price
	// resolution. Zero invested reads as zero change.
	if invested.IsPositive() {
		result.PortfolioPerformanceChange = total.Sub(invested).
			Div(invested).
			Mul(decimal.NewFromInt(100))
	} else {
		result.PortfolioPerformanceChange = decimal.Zero
	}

	for _, st := range stocks {
		result.TopHoldings = append(result.TopHoldings, TopHolding{
			CompanyName:    st.CompanyName,
			Symbol:         st.Symbol,
			Shares:         st.Shares,
			AmountInvested: derefOrZero(st.AmountInvested),
		})
	}

	if result.Diagnostics.ExcludedHoldings > 0 || result.Diagnostics.MissingCompanies > 0 || result.Diagnostics.FailedESGLookups > 0 {
		log.Info().
			Str("user_id", userID.String()).
			Int("excluded_holdings", result.Diagnostics.ExcludedHoldings).
			Int("missing_companies", result.Diagnostics.MissingCompanies).
			Int("failed_esg_lookups", result.Diagnostics.FailedESGLookups).
			Msg("dashboard computed with degraded lookups")
	}
	return result, nil
}

// roundScore rounds a 0-100 scale score half away from zero (75.5 -> 76).
func roundScore(score float64) int {
	return int(math.Round(score))
}
