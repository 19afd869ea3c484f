package scenarios

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/hindsightlab/hindsight/internal/database"
	"github.com/hindsightlab/hindsight/internal/modules/backtest"
)

// Schema is the scenario table DDL, applied on startup.
const Schema = `
CREATE TABLE IF NOT EXISTS scenarios (
	id         TEXT PRIMARY KEY,
	hash       TEXT NOT NULL UNIQUE,
	ticker     TEXT NOT NULL,
	payload    BLOB NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_scenarios_ticker ON scenarios(ticker);
`

// Repository stores scenarios in sqlite. Request payloads are msgpack blobs;
// the ticker is extracted into its own column for listing queries.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a scenario repository and applies the schema.
func NewRepository(db *database.DB, log zerolog.Logger) (*Repository, error) {
	if err := db.ApplySchema(Schema); err != nil {
		return nil, err
	}
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "scenarios").Logger(),
	}, nil
}

// Save persists a normalized request and returns its scenario. Saving a
// request that already exists returns the existing scenario unchanged.
func (r *Repository) Save(req backtest.Request) (*Scenario, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash := HashRequest(req)

	payload, err := msgpack.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scenario payload: %w", err)
	}

	// ON CONFLICT keeps concurrent saves of the same request idempotent: the
	// first writer wins and everyone reads back the stored row.
	_, err = r.db.Exec(
		`INSERT INTO scenarios (id, hash, ticker, payload, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(hash) DO NOTHING`,
		uuid.New().String(), hash, req.Ticker, payload, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert scenario: %w", err)
	}

	scenario, err := r.GetByHash(hash)
	if err != nil {
		return nil, err
	}

	r.log.Debug().Str("hash", hash).Str("ticker", req.Ticker).Msg("Scenario saved")
	return scenario, nil
}

// GetByHash loads the scenario addressed by hash.
func (r *Repository) GetByHash(hash string) (*Scenario, error) {
	row := r.db.QueryRow(
		`SELECT id, hash, ticker, payload, created_at FROM scenarios WHERE hash = ?`, hash,
	)

	var (
		scenario Scenario
		ticker   string
		payload  []byte
	)
	err := row.Scan(&scenario.ID, &scenario.Hash, &ticker, &payload, &scenario.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, hash)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario %s: %w", hash, err)
	}

	if err := msgpack.Unmarshal(payload, &scenario.Request); err != nil {
		return nil, fmt.Errorf("failed to decode scenario payload %s: %w", hash, err)
	}
	return &scenario, nil
}

// Count returns the number of stored scenarios.
func (r *Repository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM scenarios`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count scenarios: %w", err)
	}
	return n, nil
}
