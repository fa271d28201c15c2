package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/crate-scout/vinyl-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS scans (
	id         TEXT PRIMARY KEY,
	extraction TEXT NOT NULL,
	match      TEXT,
	market     TEXT,
	valuation  TEXT,
	status     TEXT NOT NULL DEFAULT 'scanned',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS corrections (
	id         TEXT PRIMARY KEY,
	scan_id    TEXT,
	barcode    TEXT,
	catno      TEXT,
	release    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS market_cache (
	id         TEXT PRIMARY KEY,
	release_id INTEGER NOT NULL,
	record     TEXT NOT NULL,
	fetched_at DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scans_status ON scans(status);
CREATE INDEX IF NOT EXISTS idx_corrections_barcode ON corrections(barcode);
CREATE INDEX IF NOT EXISTS idx_corrections_catno ON corrections(catno);
CREATE INDEX IF NOT EXISTS idx_market_cache_release_id ON market_cache(release_id);
CREATE INDEX IF NOT EXISTS idx_market_cache_expires_at ON market_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateScan(ctx context.Context, extraction model.OcrExtraction) (*model.Scan, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	extractionJSON, err := json.Marshal(extraction)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal extraction")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scans (id, extraction, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(extractionJSON), string(model.ScanStatusScanned), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert scan")
	}

	return &model.Scan{
		ID:         id,
		Extraction: extraction,
		Status:     model.ScanStatusScanned,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s *SQLiteStore) UpdateScanMatch(ctx context.Context, scanID string, match *model.ScoredMatch) error {
	status := model.ScanStatusUnmatched
	var matchJSON any
	if match != nil {
		status = model.ScanStatusIdentified
		b, err := json.Marshal(match)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal match")
		}
		matchJSON = string(b)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE scans SET match = ?, status = ?, updated_at = ? WHERE id = ?`,
		matchJSON, string(status), time.Now().UTC(), scanID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update scan match %s", scanID)
	}
	return checkRowsAffected(res, "scan", scanID)
}

func (s *SQLiteStore) UpdateScanAppraisal(ctx context.Context, scanID string, market *model.UnifiedMarketRecord, valuation *model.Valuation) error {
	marketJSON, err := marshalNullable(market)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal market")
	}
	valuationJSON, err := marshalNullable(valuation)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal valuation")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE scans SET market = ?, valuation = ?, status = ?, updated_at = ? WHERE id = ?`,
		marketJSON, valuationJSON, string(model.ScanStatusAppraised), time.Now().UTC(), scanID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update scan appraisal %s", scanID)
	}
	return checkRowsAffected(res, "scan", scanID)
}

func (s *SQLiteStore) GetScan(ctx context.Context, scanID string) (*model.Scan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, extraction, match, market, valuation, status, created_at, updated_at FROM scans WHERE id = ?`,
		scanID,
	)
	return scanScan(row)
}

func (s *SQLiteStore) ListScans(ctx context.Context, filter ScanFilter) ([]model.Scan, error) {
	query := `SELECT id, extraction, match, market, valuation, status, created_at, updated_at FROM scans WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scans")
	}
	defer rows.Close()

	var scans []model.Scan
	for rows.Next() {
		sc, err := scanScan(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, *sc)
	}
	return scans, eris.Wrap(rows.Err(), "sqlite: list scans iterate")
}

func (s *SQLiteStore) SaveCorrection(ctx context.Context, correction model.Correction) (*model.Correction, error) {
	correction.ID = uuid.New().String()
	correction.CreatedAt = time.Now().UTC()

	releaseJSON, err := json.Marshal(correction.Release)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal correction release")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO corrections (id, scan_id, barcode, catno, release, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		correction.ID, correction.ScanID, correction.Barcode, correction.CatalogueNumber,
		string(releaseJSON), correction.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert correction")
	}
	return &correction, nil
}

func (s *SQLiteStore) FindCorrection(ctx context.Context, barcode, catalogueNumber string) (*model.Correction, error) {
	if barcode == "" && catalogueNumber == "" {
		return nil, nil
	}

	query := `SELECT id, scan_id, barcode, catno, release, created_at FROM corrections WHERE `
	var args []any
	switch {
	case barcode != "" && catalogueNumber != "":
		query += `(barcode = ? OR catno = ?)`
		args = append(args, barcode, catalogueNumber)
	case barcode != "":
		query += `barcode = ?`
		args = append(args, barcode)
	default:
		query += `catno = ?`
		args = append(args, catalogueNumber)
	}
	query += ` ORDER BY created_at DESC LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, args...)

	var c model.Correction
	var scanID, bc, catno sql.NullString
	var releaseJSON string
	err := row.Scan(&c.ID, &scanID, &bc, &catno, &releaseJSON, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find correction")
	}
	c.ScanID = scanID.String
	c.Barcode = bc.String
	c.CatalogueNumber = catno.String
	if err := json.Unmarshal([]byte(releaseJSON), &c.Release); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal correction release")
	}
	return &c, nil
}

func (s *SQLiteStore) GetCachedMarket(ctx context.Context, releaseID int64) (*model.UnifiedMarketRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT record FROM market_cache
		 WHERE release_id = ? AND expires_at > datetime('now')
		 ORDER BY fetched_at DESC LIMIT 1`,
		releaseID,
	)

	var recordJSON string
	err := row.Scan(&recordJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached market")
	}

	var record model.UnifiedMarketRecord
	if err := json.Unmarshal([]byte(recordJSON), &record); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cached market")
	}
	return &record, nil
}

func (s *SQLiteStore) SetCachedMarket(ctx context.Context, releaseID int64, record model.UnifiedMarketRecord, ttl time.Duration) error {
	id := uuid.New().String()
	now := time.Now().UTC()

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal market record")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO market_cache (id, release_id, record, fetched_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		id, releaseID, string(recordJSON), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set cached market")
}

func (s *SQLiteStore) DeleteExpiredMarket(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM market_cache WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired market cache")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func marshalNullable(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case *model.UnifiedMarketRecord:
		if t == nil {
			return nil, nil
		}
	case *model.Valuation:
		if t == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanScan(row scannable) (*model.Scan, error) {
	var sc model.Scan
	var extractionJSON string
	var matchJSON, marketJSON, valuationJSON sql.NullString

	err := row.Scan(&sc.ID, &extractionJSON, &matchJSON, &marketJSON, &valuationJSON, &sc.Status, &sc.CreatedAt, &sc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("scan not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan row")
	}

	if err := json.Unmarshal([]byte(extractionJSON), &sc.Extraction); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal extraction")
	}
	if matchJSON.Valid {
		sc.Match = &model.ScoredMatch{}
		if err := json.Unmarshal([]byte(matchJSON.String), sc.Match); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal match")
		}
	}
	if marketJSON.Valid {
		sc.Market = &model.UnifiedMarketRecord{}
		if err := json.Unmarshal([]byte(marketJSON.String), sc.Market); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal market")
		}
	}
	if valuationJSON.Valid {
		sc.Valuation = &model.Valuation{}
		if err := json.Unmarshal([]byte(valuationJSON.String), sc.Valuation); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal valuation")
		}
	}
	return &sc, nil
}
