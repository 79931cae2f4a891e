package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPoolStorage talks to Postgres through a pgx pool. The schema is
// owned by the goose migrations.
type PostgresPoolStorage struct {
	pool *pgxpool.Pool
}

func OpenPostgresPool(ctx context.Context, dsn string) (*PostgresPoolStorage, error) {
	if dsn == "" {
		dsn = "postgres://localhost:5432/golddigest?sslmode=disable"
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &PostgresPoolStorage{pool: pool}, nil
}

func (s *PostgresPoolStorage) ListSubscribers(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT email FROM subscribers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		out = append(out, email)
	}
	return out, rows.Err()
}

func (s *PostgresPoolStorage) AddSubscriber(ctx context.Context, email string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO subscribers (email, created_at) VALUES ($1, NOW()) ON CONFLICT (email) DO NOTHING`,
		email)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresPoolStorage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresPoolStorage) Close() error {
	s.pool.Close()
	return nil
}
