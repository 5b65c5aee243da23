package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"comps-scraper/models"
)

// RestWriter stores comps through a Supabase PostgREST endpoint using the
// service-role key.
type RestWriter struct {
	baseURL string
	key     string
	table   string
	client  *http.Client
}

// NewRestWriter creates a RestWriter for {baseURL}/rest/v1/{table}.
func NewRestWriter(baseURL, serviceKey, table string, timeout time.Duration) *RestWriter {
	return &RestWriter{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     serviceKey,
		table:   table,
		client:  &http.Client{Timeout: timeout},
	}
}

func (rw *RestWriter) endpoint() string {
	return rw.baseURL + "/rest/v1/" + url.PathEscape(rw.table)
}

// Insert posts one listing and sets its ID from the returned row.
func (rw *RestWriter) Insert(ctx context.Context, l *models.Listing) error {
	row := *l
	row.ID = 0
	if row.ImageURLs == nil {
		row.ImageURLs = []string{}
	}

	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("rest: encode listing: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rw.endpoint(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("rest: create request: %w", err)
	}
	rw.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	var created []struct {
		ID int64 `json:"id"`
	}
	if err := rw.do(req, &created); err != nil {
		return fmt.Errorf("rest: insert: %w", err)
	}
	if len(created) > 0 {
		l.ID = created[0].ID
	}
	return nil
}

// FetchByMarketplace returns up to limit comps for m, newest first.
func (rw *RestWriter) FetchByMarketplace(ctx context.Context, m models.Marketplace, limit int) ([]*models.Listing, error) {
	q := url.Values{}
	q.Set("source_marketplace", "eq."+string(m))
	q.Set("order", "id.desc")
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rw.endpoint()+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("rest: create request: %w", err)
	}
	rw.authorize(req)

	var listings []*models.Listing
	if err := rw.do(req, &listings); err != nil {
		return nil, fmt.Errorf("rest: fetch: %w", err)
	}
	return listings, nil
}

func (rw *RestWriter) Close() error {
	rw.client.CloseIdleConnections()
	return nil
}

func (rw *RestWriter) authorize(req *http.Request) {
	req.Header.Set("apikey", rw.key)
	req.Header.Set("Authorization", "Bearer "+rw.key)
	req.Header.Set("Accept", "application/json")
}

func (rw *RestWriter) do(req *http.Request, out any) error {
	resp, err := rw.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("received status code %d - %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}
