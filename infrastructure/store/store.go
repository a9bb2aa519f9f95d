// Package store persists worker reputation and round history in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tranmanhhung/sn102/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS reputation (
	worker TEXT PRIMARY KEY,
	score REAL NOT NULL,
	rounds INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS round_results (
	request_id TEXT NOT NULL,
	worker TEXT NOT NULL,
	prompt TEXT NOT NULL,
	quality REAL NOT NULL,
	latency_bonus REAL NOT NULL,
	quality_score REAL NOT NULL,
	total REAL NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (request_id, worker)
);
`

// Store is a SQLite-backed reputation store and round recorder. Reputation
// folds each round's blended total into an exponential moving average instead
// of overwriting, so one outlier round cannot reset a worker's standing.
type Store struct {
	db    *sql.DB
	alpha float64
}

// Open opens (and migrates) the database at path. alpha is the EWMA weight of
// the newest round; values outside (0, 1] fall back to 0.1.
func Open(path string, alpha float64) (*Store, error) {
	if alpha <= 0 || alpha > 1 {
		alpha = 0.1
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return &Store{db: db, alpha: alpha}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Update folds each record's blended total into the worker's reputation:
// rep' = (1-alpha)*rep + alpha*total. Unknown workers start from their first
// total. All records of a round commit atomically.
func (s *Store) Update(ctx context.Context, records []domain.ScoreRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reputation update: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reputation (worker, score, rounds, updated_at)
			VALUES (?, ?, 1, ?)
			ON CONFLICT(worker) DO UPDATE SET
				score = (1.0 - ?) * score + ? * excluded.score,
				rounds = rounds + 1,
				updated_at = excluded.updated_at`,
			string(rec.Worker), rec.Total, time.Now().UTC(), s.alpha, s.alpha)
		if err != nil {
			return fmt.Errorf("update reputation for %s: %w", rec.Worker, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reputation update: %w", err)
	}
	return nil
}

// Reputation returns the current standing of a worker, zero when unknown.
func (s *Store) Reputation(ctx context.Context, worker domain.WorkerID) (float64, error) {
	var score float64
	err := s.db.QueryRowContext(ctx,
		`SELECT score FROM reputation WHERE worker = ?`, string(worker)).Scan(&score)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read reputation for %s: %w", worker, err)
	}
	return score, nil
}

// RecordRound archives the per-worker score breakdown of one round.
func (s *Store) RecordRound(ctx context.Context, round domain.Round, records []domain.ScoreRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin round archive: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO round_results
				(request_id, worker, prompt, quality, latency_bonus, quality_score, total, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			round.RequestID, string(rec.Worker), round.Prompt,
			rec.Quality, rec.LatencyBonus, rec.QualityScore, rec.Total,
			round.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("archive round %s: %w", round.RequestID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit round archive: %w", err)
	}
	return nil
}
