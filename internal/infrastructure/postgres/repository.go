// Package postgres stores the listing catalog in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/comparaprecios/backend/internal/domain"
)

const (
	listingsTable = "listings"
	// batchSize bounds the rows of a single multi-row INSERT
	batchSize = 500
)

var listingColumns = []string{"id", "name", "supermarket", "price", "updated_at"}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS listings (
	seq         BIGSERIAL,
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	supermarket TEXT NOT NULL,
	price       DOUBLE PRECISION NOT NULL CHECK (price >= 0),
	updated_at  TIMESTAMPTZ,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS listings_seq_idx ON listings (seq);
`

// Repository implements domain.ListingRepository on a *sql.DB
type Repository struct {
	db *sql.DB
	sb squirrel.StatementBuilderType
}

// NewRepository wraps an open database handle
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Open connects to dsn using lib/pq and verifies the connection
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the listings table when missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// List returns every listing in insertion order
func (r *Repository) List(ctx context.Context) ([]domain.Listing, error) {
	query, args, err := r.sb.Select(listingColumns...).
		From(listingsTable).
		OrderBy("seq").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	listings := make([]domain.Listing, 0)
	for rows.Next() {
		var (
			l         domain.Listing
			updatedAt sql.NullTime
		)
		if err := rows.Scan(&l.ID, &l.Name, &l.Supermarket, &l.Price, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		if updatedAt.Valid {
			l.UpdatedAt = updatedAt.Time.UTC()
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return listings, nil
}

// Add inserts one listing, assigning an ID when it has none
func (r *Repository) Add(ctx context.Context, listing domain.Listing) (domain.Listing, error) {
	if listing.ID == "" {
		listing.ID = uuid.NewString()
	}

	query, args, err := r.sb.Insert(listingsTable).
		Columns(listingColumns...).
		Values(listingValues(listing)...).
		ToSql()
	if err != nil {
		return domain.Listing{}, fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return domain.Listing{}, fmt.Errorf("insert listing: %w", err)
	}
	return listing, nil
}

// AddBatch inserts listings in one transaction, preserving their order
func (r *Repository) AddBatch(ctx context.Context, listings []domain.Listing) (int, error) {
	if len(listings) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for start := 0; start < len(listings); start += batchSize {
		end := min(start+batchSize, len(listings))

		insert := r.sb.Insert(listingsTable).Columns(listingColumns...)
		for _, l := range listings[start:end] {
			if l.ID == "" {
				l.ID = uuid.NewString()
			}
			insert = insert.Values(listingValues(l)...)
		}

		query, args, err := insert.ToSql()
		if err != nil {
			return 0, fmt.Errorf("build batch insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("insert batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(listings), nil
}

// Delete removes a listing by ID
func (r *Repository) Delete(ctx context.Context, id string) error {
	query, args, err := r.sb.Delete(listingsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if affected == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func listingValues(l domain.Listing) []interface{} {
	var updatedAt interface{}
	if !l.UpdatedAt.IsZero() {
		updatedAt = l.UpdatedAt
	}
	return []interface{}{l.ID, l.Name, l.Supermarket, l.Price, updatedAt}
}
