package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/crate-scout/vinyl-cli/internal/db"
	"github.com/crate-scout/vinyl-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_scan":           `INSERT INTO scans (id, extraction, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
	"update_scan_match":     `UPDATE scans SET match = $1, status = $2, updated_at = $3 WHERE id = $4`,
	"update_scan_appraisal": `UPDATE scans SET market = $1, valuation = $2, status = $3, updated_at = $4 WHERE id = $5`,
	"get_scan":              `SELECT id, extraction, match, market, valuation, status, created_at, updated_at FROM scans WHERE id = $1`,
	"insert_correction":     `INSERT INTO corrections (id, scan_id, barcode, catno, release, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"get_cached_market":     `SELECT record FROM market_cache WHERE release_id = $1 AND expires_at > now() ORDER BY fetched_at DESC LIMIT 1`,
	"set_cached_market":     `INSERT INTO market_cache (id, release_id, record, fetched_at, expires_at) VALUES ($1, $2, $3, $4, $5)`,
	"delete_expired_market": `DELETE FROM market_cache WHERE expires_at <= now()`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS scans (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	extraction JSONB NOT NULL,
	match      JSONB,
	market     JSONB,
	valuation  JSONB,
	status     TEXT NOT NULL DEFAULT 'scanned',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS corrections (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	scan_id    TEXT,
	barcode    TEXT,
	catno      TEXT,
	release    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS market_cache (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	release_id BIGINT NOT NULL,
	record     JSONB NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scans_status ON scans(status);
CREATE INDEX IF NOT EXISTS idx_corrections_barcode ON corrections(barcode);
CREATE INDEX IF NOT EXISTS idx_corrections_catno ON corrections(catno);
CREATE INDEX IF NOT EXISTS idx_market_cache_release_id ON market_cache(release_id);
CREATE INDEX IF NOT EXISTS idx_market_cache_expires_at ON market_cache(expires_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateScan(ctx context.Context, extraction model.OcrExtraction) (*model.Scan, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	extractionJSON, err := json.Marshal(extraction)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal extraction")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO scans (id, extraction, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, extractionJSON, string(model.ScanStatusScanned), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert scan")
	}

	return &model.Scan{
		ID:         id,
		Extraction: extraction,
		Status:     model.ScanStatusScanned,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s *PostgresStore) UpdateScanMatch(ctx context.Context, scanID string, match *model.ScoredMatch) error {
	status := model.ScanStatusUnmatched
	var matchJSON []byte
	if match != nil {
		status = model.ScanStatusIdentified
		b, err := json.Marshal(match)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal match")
		}
		matchJSON = b
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE scans SET match = $1, status = $2, updated_at = $3 WHERE id = $4`,
		matchJSON, string(status), time.Now().UTC(), scanID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update scan match %s", scanID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("scan not found: %s", scanID)
	}
	return nil
}

func (s *PostgresStore) UpdateScanAppraisal(ctx context.Context, scanID string, market *model.UnifiedMarketRecord, valuation *model.Valuation) error {
	var marketJSON, valuationJSON []byte
	var err error
	if market != nil {
		if marketJSON, err = json.Marshal(market); err != nil {
			return eris.Wrap(err, "postgres: marshal market")
		}
	}
	if valuation != nil {
		if valuationJSON, err = json.Marshal(valuation); err != nil {
			return eris.Wrap(err, "postgres: marshal valuation")
		}
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE scans SET market = $1, valuation = $2, status = $3, updated_at = $4 WHERE id = $5`,
		marketJSON, valuationJSON, string(model.ScanStatusAppraised), time.Now().UTC(), scanID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update scan appraisal %s", scanID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("scan not found: %s", scanID)
	}
	return nil
}

func (s *PostgresStore) GetScan(ctx context.Context, scanID string) (*model.Scan, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, extraction, match, market, valuation, status, created_at, updated_at FROM scans WHERE id = $1`,
		scanID,
	)
	return scanScanPg(row)
}

func (s *PostgresStore) ListScans(ctx context.Context, filter ScanFilter) ([]model.Scan, error) {
	query := `SELECT id, extraction, match, market, valuation, status, created_at, updated_at FROM scans WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $1`
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scans")
	}
	defer rows.Close()

	var scans []model.Scan
	for rows.Next() {
		sc, err := scanScanPg(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, *sc)
	}
	return scans, eris.Wrap(rows.Err(), "postgres: list scans iterate")
}

func (s *PostgresStore) SaveCorrection(ctx context.Context, correction model.Correction) (*model.Correction, error) {
	correction.ID = uuid.New().String()
	correction.CreatedAt = time.Now().UTC()

	releaseJSON, err := json.Marshal(correction.Release)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal correction release")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO corrections (id, scan_id, barcode, catno, release, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		correction.ID, correction.ScanID, correction.Barcode, correction.CatalogueNumber,
		releaseJSON, correction.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert correction")
	}
	return &correction, nil
}

func (s *PostgresStore) FindCorrection(ctx context.Context, barcode, catalogueNumber string) (*model.Correction, error) {
	if barcode == "" && catalogueNumber == "" {
		return nil, nil
	}

	query := `SELECT id, scan_id, barcode, catno, release, created_at FROM corrections WHERE `
	var args []any
	switch {
	case barcode != "" && catalogueNumber != "":
		query += `(barcode = $1 OR catno = $2)`
		args = append(args, barcode, catalogueNumber)
	case barcode != "":
		query += `barcode = $1`
		args = append(args, barcode)
	default:
		query += `catno = $1`
		args = append(args, catalogueNumber)
	}
	query += ` ORDER BY created_at DESC LIMIT 1`

	row := s.pool.QueryRow(ctx, query, args...)

	var c model.Correction
	var scanID, bc, catno *string
	var releaseJSON []byte
	err := row.Scan(&c.ID, &scanID, &bc, &catno, &releaseJSON, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find correction")
	}
	if scanID != nil {
		c.ScanID = *scanID
	}
	if bc != nil {
		c.Barcode = *bc
	}
	if catno != nil {
		c.CatalogueNumber = *catno
	}
	if err := json.Unmarshal(releaseJSON, &c.Release); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal correction release")
	}
	return &c, nil
}

func (s *PostgresStore) GetCachedMarket(ctx context.Context, releaseID int64) (*model.UnifiedMarketRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT record FROM market_cache WHERE release_id = $1 AND expires_at > now() ORDER BY fetched_at DESC LIMIT 1`,
		releaseID,
	)

	var recordJSON []byte
	err := row.Scan(&recordJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get cached market")
	}

	var record model.UnifiedMarketRecord
	if err := json.Unmarshal(recordJSON, &record); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal cached market")
	}
	return &record, nil
}

func (s *PostgresStore) SetCachedMarket(ctx context.Context, releaseID int64, record model.UnifiedMarketRecord, ttl time.Duration) error {
	id := uuid.New().String()
	now := time.Now().UTC()

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal market record")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO market_cache (id, release_id, record, fetched_at, expires_at) VALUES ($1, $2, $3, $4, $5)`,
		id, releaseID, recordJSON, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set cached market")
}

func (s *PostgresStore) DeleteExpiredMarket(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM market_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired market cache")
	}
	return int(tag.RowsAffected()), nil
}

func scanScanPg(row pgx.Row) (*model.Scan, error) {
	var sc model.Scan
	var extractionJSON []byte
	var matchJSON, marketJSON, valuationJSON []byte

	err := row.Scan(&sc.ID, &extractionJSON, &matchJSON, &marketJSON, &valuationJSON, &sc.Status, &sc.CreatedAt, &sc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.New("scan not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan row")
	}

	if err := json.Unmarshal(extractionJSON, &sc.Extraction); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal extraction")
	}
	if len(matchJSON) > 0 {
		sc.Match = &model.ScoredMatch{}
		if err := json.Unmarshal(matchJSON, sc.Match); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal match")
		}
	}
	if len(marketJSON) > 0 {
		sc.Market = &model.UnifiedMarketRecord{}
		if err := json.Unmarshal(marketJSON, sc.Market); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal market")
		}
	}
	if len(valuationJSON) > 0 {
		sc.Valuation = &model.Valuation{}
		if err := json.Unmarshal(valuationJSON, sc.Valuation); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal valuation")
		}
	}
	return &sc, nil
}

