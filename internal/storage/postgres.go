package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hohotang/shortlink-service/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// uniqueViolation is the SQLSTATE PostgreSQL reports for a unique index conflict
const uniqueViolation = pq.ErrorCode("23505")

const mappingColumns = `id, short_key, original_url, created_at, updated_at, expires_at, hits`

// PostgresOption tunes the connection pool of a PostgresStorage
type PostgresOption func(*sqlx.DB)

// WithMaxOpenConns limits the number of open connections
func WithMaxOpenConns(n int) PostgresOption {
	return func(db *sqlx.DB) {
		db.SetMaxOpenConns(n)
	}
}

// WithMaxIdleConns limits the number of idle connections
func WithMaxIdleConns(n int) PostgresOption {
	return func(db *sqlx.DB) {
		db.SetMaxIdleConns(n)
	}
}

// WithConnMaxLifetime recycles connections older than d
func WithConnMaxLifetime(d time.Duration) PostgresOption {
	return func(db *sqlx.DB) {
		db.SetConnMaxLifetime(d)
	}
}

// PostgresStorage implements RecordStore with PostgreSQL
type PostgresStorage struct {
	db *sqlx.DB
}

// NewPostgresStorage connects to PostgreSQL and verifies the connection
func NewPostgresStorage(ctx context.Context, dsn string, opts ...PostgresOption) (*PostgresStorage, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	for _, opt := range opts {
		opt(db)
	}

	return NewPostgresStorageWithDB(db), nil
}

// NewPostgresStorageWithDB wraps an already opened database
func NewPostgresStorageWithDB(db *sqlx.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

// FindByShortKey implements RecordStore.FindByShortKey
func (s *PostgresStorage) FindByShortKey(ctx context.Context, shortKey string) (*models.Mapping, error) {
	var m models.Mapping
	err := s.db.GetContext(ctx, &m,
		`SELECT `+mappingColumns+` FROM url_mappings WHERE short_key = $1`, shortKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query mapping by short key: %w", err)
	}

	return &m, nil
}

// FindByOriginalURL implements RecordStore.FindByOriginalURL
func (s *PostgresStorage) FindByOriginalURL(ctx context.Context, originalURL string) (*models.Mapping, error) {
	var m models.Mapping
	err := s.db.GetContext(ctx, &m,
		`SELECT `+mappingColumns+` FROM url_mappings WHERE original_url = $1 ORDER BY id LIMIT 1`, originalURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query for existing URL: %w", err)
	}

	return &m, nil
}

// ExistsByShortKey implements RecordStore.ExistsByShortKey
func (s *PostgresStorage) ExistsByShortKey(ctx context.Context, shortKey string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM url_mappings WHERE short_key = $1)`, shortKey)
	if err != nil {
		return false, fmt.Errorf("failed to check short key: %w", err)
	}

	return exists, nil
}

// Insert implements RecordStore.Insert
func (s *PostgresStorage) Insert(ctx context.Context, m *models.Mapping) (*models.Mapping, error) {
	created := m.Clone()
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO url_mappings (short_key, original_url, created_at, updated_at, expires_at, hits)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		m.ShortKey, m.OriginalURL, m.CreatedAt, m.UpdatedAt, m.ExpiresAt, m.Hits,
	).Scan(&created.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrShortKeyExists
		}
		return nil, fmt.Errorf("failed to insert mapping: %w", err)
	}

	return created, nil
}

// Update implements RecordStore.Update
func (s *PostgresStorage) Update(ctx context.Context, m *models.Mapping) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE url_mappings SET hits = GREATEST(hits, $1), updated_at = $2 WHERE id = $3`,
		m.Hits, m.UpdatedAt, m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update mapping: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get number of affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete implements RecordStore.Delete
func (s *PostgresStorage) Delete(ctx context.Context, m *models.Mapping) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM url_mappings WHERE id = $1`, m.ID)
	if err != nil {
		return false, fmt.Errorf("failed to delete mapping: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get number of affected rows: %w", err)
	}

	return affected > 0, nil
}

// FindExpired implements RecordStore.FindExpired
func (s *PostgresStorage) FindExpired(ctx context.Context, now time.Time, limit int) ([]*models.Mapping, error) {
	if limit < 1 {
		return nil, nil
	}

	var mappings []*models.Mapping
	err := s.db.SelectContext(ctx, &mappings,
		`SELECT `+mappingColumns+` FROM url_mappings
		WHERE expires_at IS NOT NULL AND expires_at <= $1
		ORDER BY id LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired mappings: %w", err)
	}

	return mappings, nil
}

// Ping implements RecordStore.Ping
func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
