package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"comps-scraper/models"
)

// fakePostgREST keeps rows in memory and answers the subset of PostgREST the
// writer uses.
type fakePostgREST struct {
	t      *testing.T
	mu     sync.Mutex
	nextID int64
	rows   []models.Listing
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/rest/v1/clothing_comps" {
		http.NotFound(w, r)
		return
	}
	if r.Header.Get("apikey") != "service-key" || r.Header.Get("Authorization") != "Bearer service-key" {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid API key"}`))
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPost:
		if got := r.Header.Get("Prefer"); got != "return=representation" {
			f.t.Errorf("Prefer header = %q; want return=representation", got)
		}
		var l models.Listing
		if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if l.ID != 0 {
			f.t.Errorf("insert body carried id %d", l.ID)
		}
		f.nextID++
		l.ID = f.nextID
		f.rows = append(f.rows, l)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode([]models.Listing{l})
	case http.MethodGet:
		q := r.URL.Query()
		want := strings.TrimPrefix(q.Get("source_marketplace"), "eq.")
		limit, _ := strconv.Atoi(q.Get("limit"))
		out := []models.Listing{}
		for _, l := range f.rows {
			if string(l.Marketplace) == want {
				out = append(out, l)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		json.NewEncoder(w).Encode(out)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestRestWriterRoundTrip(t *testing.T) {
	srv := httptest.NewServer(&fakePostgREST{t: t})
	defer srv.Close()

	rw := NewRestWriter(srv.URL+"/", "service-key", "clothing_comps", 5*time.Second)
	defer rw.Close()
	ctx := context.Background()

	listings := []*models.Listing{
		{
			Marketplace: models.Ebay, ListingID: "2345", URL: "https://www.ebay.com/itm/2345",
			Title: "Nike Tech Fleece Hoodie L", Price: 65, ShippingCost: 8.5,
			AIFeatures: models.Features{"category": "hoodie"}, SimilarityScore: models.Float64(0.95),
			ScrapedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{Marketplace: models.Poshmark, URL: "https://poshmark.com/listing/abc", Title: "Nike Hoodie", Price: 42, ShippingCost: 7.97},
		{Marketplace: models.Ebay, URL: "https://www.ebay.com/itm/9999", Title: "Nike Club Hoodie", Price: 48},
	}
	for _, l := range listings {
		if err := rw.Insert(ctx, l); err != nil {
			t.Fatalf("Insert(%q): %v", l.Title, err)
		}
	}
	if listings[2].ID != 3 {
		t.Errorf("third insert ID = %d; want 3", listings[2].ID)
	}

	got, err := rw.FetchByMarketplace(ctx, models.Ebay, 10)
	if err != nil {
		t.Fatalf("FetchByMarketplace: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("FetchByMarketplace(ebay) returned %d rows; want 2", len(got))
	}
	if got[0].Title != "Nike Club Hoodie" {
		t.Errorf("newest ebay row = %q; want %q", got[0].Title, "Nike Club Hoodie")
	}

	first := got[1]
	if first.Title != listings[0].Title || first.Price != 65 || first.Marketplace != models.Ebay {
		t.Errorf("round trip = {%q %v %q}; want {%q 65 ebay}", first.Title, first.Price, first.Marketplace, listings[0].Title)
	}
	if first.Score() != 0.95 || first.AIFeatures.String("category") != "hoodie" {
		t.Errorf("round trip lost enrichment: score %v, features %v", first.Score(), first.AIFeatures)
	}
	if first.ImageURLs == nil {
		t.Error("image_urls should be sent as an empty list, not null")
	}

	limited, err := rw.FetchByMarketplace(ctx, models.Ebay, 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("FetchByMarketplace limit 1 = %d rows, err %v", len(limited), err)
	}
}

func TestRestWriterErrorStatus(t *testing.T) {
	srv := httptest.NewServer(&fakePostgREST{t: t})
	defer srv.Close()

	rw := NewRestWriter(srv.URL, "wrong-key", "clothing_comps", 5*time.Second)
	err := rw.Insert(context.Background(), &models.Listing{Marketplace: models.Mercari, URL: "u", Title: "t"})
	if err == nil {
		t.Fatal("expected an error for a rejected key")
	}
	if !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "Invalid API key") {
		t.Errorf("error %q should carry the status and body", err)
	}
}
