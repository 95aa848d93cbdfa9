package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
)

// HTTPSource pulls raw records from the inbox-scanning collaborator.
type HTTPSource struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPSource(baseURL, token string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

type recordsResponse struct {
	Records []candidate.RawRecord `json:"records"`
}

// Fetch returns records observed after since. A zero since asks for everything.
func (s *HTTPSource) Fetch(ctx context.Context, ownerID string, since time.Time) ([]candidate.RawRecord, error) {
	u := fmt.Sprintf("%s/inbox/%s/records", s.baseURL, url.PathEscape(ownerID))
	if !since.IsZero() {
		u += "?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d for owner %s", resp.StatusCode, ownerID)
	}

	var body recordsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}

	return body.Records, nil
}
