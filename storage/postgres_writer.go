package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"comps-scraper/models"
)

// PostgresWriter persists comps to a PostgreSQL table.
type PostgresWriter struct {
	db    *sql.DB
	table string
}

// NewPostgresWriter opens a connection to PostgreSQL and pings it once.
func NewPostgresWriter(ctx context.Context, dsn, table string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &PostgresWriter{db: db, table: pq.QuoteIdentifier(table)}, nil
}

// EnsureSchema creates the comps table and its indexes if they are absent.
func (pw *PostgresWriter) EnsureSchema(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id                 BIGSERIAL PRIMARY KEY,
			source_marketplace TEXT          NOT NULL,
			listing_id         TEXT,
			url                TEXT          NOT NULL,
			title              TEXT          NOT NULL,
			brand              TEXT,
			size               TEXT,
			category           TEXT,
			condition          TEXT,
			description        TEXT,
			price              NUMERIC(10,2) NOT NULL,
			original_price     NUMERIC(10,2),
			shipping_cost      NUMERIC(10,2) NOT NULL DEFAULT 0,
			image_urls         TEXT[]        NOT NULL DEFAULT '{}',
			sold_date          TEXT,
			ai_features        JSONB,
			similarity_score   DOUBLE PRECISION,
			search_query       TEXT,
			scraped_at         TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_comps_marketplace ON %[1]s(source_marketplace);
		CREATE INDEX IF NOT EXISTS idx_comps_scraped_at  ON %[1]s(scraped_at);
	`, pw.table))
	if err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

// Insert writes one listing and sets its ID from the database.
func (pw *PostgresWriter) Insert(ctx context.Context, l *models.Listing) error {
	features, err := featuresJSON(l.AIFeatures)
	if err != nil {
		return fmt.Errorf("postgres: encode ai_features: %w", err)
	}
	images := l.ImageURLs
	if images == nil {
		images = []string{}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			source_marketplace, listing_id, url, title, brand, size, category, condition,
			description, price, original_price, shipping_cost, image_urls, sold_date,
			ai_features, similarity_score, search_query, scraped_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING id
	`, pw.table)

	err = pw.db.QueryRowContext(ctx, query,
		string(l.Marketplace), nullString(l.ListingID), l.URL, l.Title,
		nullString(l.Brand), nullString(l.Size), nullString(l.Category), nullString(l.Condition),
		nullString(l.Description), l.Price, l.OriginalPrice, l.ShippingCost, pq.Array(images),
		l.SoldDate, features, l.SimilarityScore, nullString(l.SearchQuery), l.ScrapedAt,
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("postgres: insert: %w", err)
	}
	return nil
}

// FetchByMarketplace returns up to limit comps for m, newest first.
func (pw *PostgresWriter) FetchByMarketplace(ctx context.Context, m models.Marketplace, limit int) ([]*models.Listing, error) {
	rows, err := pw.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, source_marketplace, listing_id, url, title, brand, size, category, condition,
		       description, price, original_price, shipping_cost, image_urls, sold_date,
		       ai_features, similarity_score, search_query, scraped_at
		FROM %s
		WHERE source_marketplace = $1
		ORDER BY id DESC
		LIMIT $2
	`, pw.table), string(m), limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		var (
			l                                       models.Listing
			marketplace                             string
			listingID, brand, size, category        sql.NullString
			condition, description, soldDate, query sql.NullString
			originalPrice, score                    sql.NullFloat64
			features                                []byte
		)
		if err := rows.Scan(
			&l.ID, &marketplace, &listingID, &l.URL, &l.Title, &brand, &size, &category, &condition,
			&description, &l.Price, &originalPrice, &l.ShippingCost, pq.Array(&l.ImageURLs), &soldDate,
			&features, &score, &query, &l.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}

		l.Marketplace = models.Marketplace(marketplace)
		l.ListingID = listingID.String
		l.Brand = brand.String
		l.Size = size.String
		l.Category = category.String
		l.Condition = condition.String
		l.Description = description.String
		l.SearchQuery = query.String
		if originalPrice.Valid {
			l.OriginalPrice = models.Float64(originalPrice.Float64)
		}
		if score.Valid {
			l.SimilarityScore = models.Float64(score.Float64)
		}
		if soldDate.Valid {
			l.SoldDate = models.String(soldDate.String)
		}
		if len(features) > 0 {
			if err := json.Unmarshal(features, &l.AIFeatures); err != nil {
				return nil, fmt.Errorf("postgres: decode ai_features: %w", err)
			}
		}
		listings = append(listings, &l)
	}
	return listings, rows.Err()
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

func featuresJSON(f models.Features) (any, error) {
	if f == nil {
		return nil, nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
