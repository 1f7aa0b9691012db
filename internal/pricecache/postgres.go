package pricecache

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps entries in the price_cache table
// ⭐ SSOT: 가격 캐시 테이블은 여기서만 접근
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a postgres-backed store
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Name returns the backend name
func (s *PostgresStore) Name() string { return "postgres" }

// EnsureSchema creates the price_cache table if missing
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS price_cache (
			fingerprint TEXT PRIMARY KEY,
			payload     BYTEA NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	_, err := s.pool.Exec(ctx, query)
	return err
}

// Load reads the entry for fingerprint
func (s *PostgresStore) Load(ctx context.Context, fingerprint string) ([]byte, error) {
	query := `
		SELECT payload
		FROM price_cache
		WHERE fingerprint = $1
	`

	var payload []byte
	err := s.pool.QueryRow(ctx, query, fingerprint).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Save upserts the entry for fingerprint (마지막 기록이 이김)
func (s *PostgresStore) Save(ctx context.Context, fingerprint string, data []byte) error {
	query := `
		INSERT INTO price_cache (fingerprint, payload, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (fingerprint) DO UPDATE SET
			payload = EXCLUDED.payload,
			created_at = EXCLUDED.created_at
	`

	_, err := s.pool.Exec(ctx, query, fingerprint, data)
	return err
}

// List returns stored entries sorted by fingerprint
func (s *PostgresStore) List(ctx context.Context) ([]Entry, error) {
	query := `
		SELECT fingerprint, octet_length(payload), created_at
		FROM price_cache
		ORDER BY fingerprint ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var size int32
		if err := rows.Scan(&e.Fingerprint, &size, &e.StoredAt); err != nil {
			return nil, err
		}
		e.Size = int64(size)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear removes every entry
func (s *PostgresStore) Clear(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM price_cache`)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
