package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"RateSentinel/internal/model"
)

// SQLiteStore keeps the same append-only log in a SQLite table. Rows are never
// updated; the autoincrement id is the append order used for last-write-wins.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteStore opens (or creates) the database file.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	// WAL lets a reader load while another process appends.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return &SQLiteStore{db: db, path: dbPath}, nil
}

// EnsureInitialized runs the schema migration. Safe to call repeatedly.
func (s *SQLiteStore) EnsureInitialized() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS observations (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			date       TEXT NOT NULL,
			rate       TEXT NOT NULL,
			source     TEXT NOT NULL DEFAULT 'unknown',
			batch_id   TEXT,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_observations_date ON observations(date)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	log.Debug().Str("path", s.path).Msg("sqlite store ready")
	return nil
}

// Append inserts one row in its own transaction.
func (s *SQLiteStore) Append(obs model.Observation) error {
	if err := validate(obs); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := insertObservations(tx, []model.Observation{obs}); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// AppendRange inserts the observations newer than the latest stored date as one batch.
func (s *SQLiteStore) AppendRange(obs []model.Observation) (int, error) {
	for _, o := range obs {
		if err := validate(o); err != nil {
			return 0, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var maxDate sql.NullString
	if err := tx.QueryRow(`SELECT MAX(date) FROM observations`).Scan(&maxDate); err != nil {
		return 0, fmt.Errorf("query max date: %w", err)
	}
	var max time.Time
	if maxDate.Valid {
		if max, err = model.ParseDay(maxDate.String); err != nil {
			return 0, fmt.Errorf("%w: bad stored date %q", model.ErrCorruptStore, maxDate.String)
		}
	}
	fresh := newerThan(max, obs)
	if len(fresh) == 0 {
		return 0, nil
	}
	if err := insertObservations(tx, fresh); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(fresh), nil
}

func insertObservations(tx *sql.Tx, obs []model.Observation) error {
	batch := uuid.NewString()
	now := time.Now().Unix()
	for _, o := range obs {
		if _, err := tx.Exec(`INSERT INTO observations (date, rate, source, batch_id, created_at) VALUES (?,?,?,?,?)`,
			model.Day(o.Date).Format(model.DateLayout), o.Rate.String(), sourceOrUnknown(o.Source), batch, now,
		); err != nil {
			return fmt.Errorf("insert observation: %w", err)
		}
	}
	return nil
}

// Load replays the table in insertion order, so later rows win for a date.
func (s *SQLiteStore) Load() (model.TimeSeries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT date, rate, source FROM observations ORDER BY id`)
	if err != nil {
		return model.TimeSeries{}, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var obs []model.Observation
	for rows.Next() {
		var dateStr, rateStr, source string
		if err := rows.Scan(&dateStr, &rateStr, &source); err != nil {
			return model.TimeSeries{}, fmt.Errorf("%w: scan: %v", model.ErrCorruptStore, err)
		}
		d, err := model.ParseDay(dateStr)
		if err != nil {
			return model.TimeSeries{}, fmt.Errorf("%w: bad date %q", model.ErrCorruptStore, dateStr)
		}
		rate, err := decimal.NewFromString(rateStr)
		if err != nil || !rate.IsPositive() {
			return model.TimeSeries{}, fmt.Errorf("%w: bad rate %q", model.ErrCorruptStore, rateStr)
		}
		obs = append(obs, model.Observation{Date: d, Rate: rate, Source: sourceOrUnknown(source)})
	}
	if err := rows.Err(); err != nil {
		return model.TimeSeries{}, fmt.Errorf("iterate observations: %w", err)
	}
	return model.BuildSeries(obs), nil
}

func (s *SQLiteStore) Close() error {
	log.Debug().Msg("closing sqlite store")
	return s.db.Close()
}
