package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// NewsClient fetches ESG-related headlines from the news API.
type NewsClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewNewsClient(baseURL, apiKey string, timeout time.Duration) *NewsClient {
	return &NewsClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Article is one headline projection returned to the frontend.
type Article struct {
	Title       string `json:"title"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
	Description string `json:"description"`
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Description string `json:"description"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// FetchESGNews queries the news API for ESG/sustainable-investing coverage.
// An empty query falls back to a general ESG search.
func (c *NewsClient) FetchESGNews(ctx context.Context, query string) ([]Article, error) {
	if query == "" {
		query = "ESG sustainable investing"
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("sortBy", "publishedAt")
	q.Set("language", "en")
	q.Set("apiKey", c.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v2/everything?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news api status %d", resp.StatusCode)
	}

	var out newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	articles := make([]Article, 0, len(out.Articles))
	for _, a := range out.Articles {
		articles = append(articles, Article{
			Title:       a.Title,
			Source:      a.Source.Name,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			Description: a.Description,
		})
	}
	return articles, nil
}
