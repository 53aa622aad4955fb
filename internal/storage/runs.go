package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/DragonSun329/briefai/internal/pipeline"
)

// SaveRun records one completed run and its emitted document. The document
// is stored as jsonb alongside the run counters so past feeds can be
// replayed or diffed.
func (db *DB) SaveRun(ctx context.Context, date time.Time, result pipeline.Result) error {
	doc, err := json.Marshal(result.Feed)
	if err != nil {
		return fmt.Errorf("marshal feed document: %w", err)
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var runID string

	err = tx.QueryRow(ctx, `
		INSERT INTO feed_runs (
			run_date, candidate_count, duplicate_count,
			event_clusters, event_singletons,
			theme_clusters, theme_singletons,
			degraded, degraded_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''))
		RETURNING id`,
		date, result.CandidateCount, result.DuplicateCount,
		result.EventClusters, result.EventSingletons,
		result.ThemeClusters, result.ThemeSingletons,
		result.Degraded, result.DegradedReason,
	).Scan(&runID)
	if err != nil {
		return fmt.Errorf("insert feed run: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO dual_feeds (run_id, version, document)
		VALUES ($1, $2, $3)`,
		runID, result.Feed.Version, doc,
	)
	if err != nil {
		return fmt.Errorf("insert dual feed document: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit archive tx: %w", err)
	}

	return nil
}

// LatestRunDate returns the most recent archived run date, or a zero time
// when the archive is empty.
func (db *DB) LatestRunDate(ctx context.Context) (time.Time, error) {
	var date time.Time

	err := db.Pool.QueryRow(ctx, `
		SELECT run_date FROM feed_runs
		ORDER BY run_date DESC, created_at DESC
		LIMIT 1`,
	).Scan(&date)
	if err != nil {
		if isNoRows(err) {
			return time.Time{}, nil
		}

		return time.Time{}, fmt.Errorf("query latest run date: %w", err)
	}

	return date, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
