package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fileuploader-backend/internal/domain"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

// PostgresStore implements Store using a PostgreSQL database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database using the provided connection string.
func NewPostgresStore(ctx context.Context, conn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(conn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStore) ExistsByName(ctx context.Context, name, extension string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM file_assets WHERE name=$1 AND extension=$2)
	`, name, extension).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) Insert(ctx context.Context, asset *domain.Asset) (int64, error) {
	query := `
		INSERT INTO file_assets (name, extension, location, size, upload_date, status)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`
	var id int64
	err := s.pool.QueryRow(ctx, query,
		asset.Name, asset.Extension, asset.Location, asset.Size,
		asset.UploadDate, string(asset.Status),
	).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return 0, ErrDuplicateName
	}
	if err != nil {
		return 0, err
	}
	asset.ID = id
	return id, nil
}

func (s *PostgresStore) FindByName(ctx context.Context, name, extension string) (*domain.Asset, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, extension, location, size, upload_date, status
		FROM file_assets
		WHERE name=$1 AND extension=$2
	`, name, extension)
	var a domain.Asset
	var status string
	err := row.Scan(&a.ID, &a.Name, &a.Extension, &a.Location, &a.Size, &a.UploadDate, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Status = domain.AssetStatus(status)
	return &a, nil
}

func (s *PostgresStore) UpdateStatusAndSize(ctx context.Context, id int64, status domain.AssetStatus, size int64) error {
	res, err := s.pool.Exec(ctx, `
		UPDATE file_assets SET status=$2, size=$3 WHERE id=$1
	`, id, string(status), size)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrAssetNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM file_assets WHERE id=$1`, id)
	return err
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status domain.AssetStatus) ([]domain.Asset, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, extension, location, size, upload_date, status
		FROM file_assets
		WHERE status=$1
		ORDER BY upload_date ASC, id ASC
	`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		var a domain.Asset
		var st string
		if err := rows.Scan(&a.ID, &a.Name, &a.Extension, &a.Location, &a.Size, &a.UploadDate, &st); err != nil {
			return nil, err
		}
		a.Status = domain.AssetStatus(st)
		assets = append(assets, a)
	}
	return assets, rows.Err()
}
