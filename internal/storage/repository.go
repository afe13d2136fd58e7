package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kakaur/tensr-signal-agent/internal/signal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	createRunsSQL = `CREATE TABLE IF NOT EXISTS runs (
        id            UUID PRIMARY KEY,
        ts            TIMESTAMPTZ NOT NULL,
        profile_path  TEXT,
        profile_json  JSONB,
        status        TEXT NOT NULL DEFAULT 'pending',
        warning       TEXT NOT NULL DEFAULT '',
        signal_count  INTEGER NOT NULL DEFAULT 0
    );`

	createSignalsSQL = `CREATE TABLE IF NOT EXISTS signals (
        id                 BIGSERIAL PRIMARY KEY,
        run_id             UUID NOT NULL REFERENCES runs(id),
        institution        TEXT NOT NULL,
        country            TEXT NOT NULL DEFAULT 'Unspecified',
        region             TEXT NOT NULL DEFAULT 'Unspecified',
        signal_type        TEXT,
        signal_date        DATE NOT NULL,
        domain             TEXT,
        institution_tier   TEXT,
        seniority          TEXT,
        source_url         TEXT,
        summary            TEXT,
        action_pts         INTEGER NOT NULL,
        seniority_pts      INTEGER NOT NULL,
        domain_pts         INTEGER NOT NULL,
        accessibility_pts  INTEGER NOT NULL,
        recency_pts        INTEGER NOT NULL,
        seniority_inferred BOOLEAN NOT NULL DEFAULT FALSE,
        total_score        INTEGER NOT NULL,
        priority_tier      TEXT NOT NULL,
        scored_at          TIMESTAMPTZ NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_signals_run_id ON signals (run_id);`

	insertRunSQL = `INSERT INTO runs (id, ts, profile_path, profile_json, status, warning)
    VALUES ($1, $2, $3, $4, 'pending', $5);`

	insertSignalSQL = `INSERT INTO signals (
        run_id, institution, country, region, signal_type, signal_date,
        domain, institution_tier, seniority, source_url, summary,
        action_pts, seniority_pts, domain_pts, accessibility_pts, recency_pts,
        seniority_inferred, total_score, priority_tier, scored_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20
    );`

	finalizeRunSQL = `UPDATE runs
    SET status = 'finalized', signal_count = $2
    WHERE id = $1 AND status = 'pending';`

	listBatchesSQL = `SELECT id, ts, COALESCE(profile_path, ''), signal_count, warning
    FROM runs
    WHERE status = 'finalized'
    ORDER BY ts DESC;`

	latestRunSQL = `SELECT id, ts
    FROM runs
    WHERE status = 'finalized'
    ORDER BY ts DESC
    LIMIT 1;`

	deleteSignalsByRunSQL = `DELETE FROM signals WHERE run_id = $1;`
	deleteRunSQL          = `DELETE FROM runs WHERE id = $1;`

	deleteAllSignalsSQL = `DELETE FROM signals;`
	deleteAllRunsSQL    = `DELETE FROM runs;`

	summaryTiersSQL = `SELECT priority_tier, COUNT(*)
    FROM signals
    WHERE run_id = $1
    GROUP BY priority_tier;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// RunStore defines the persistence contract for run batches.
type RunStore interface {
	FinalizeRun(ctx context.Context, run RunRecord, signals []signal.Scored) error
	ListBatches(ctx context.Context) ([]BatchInfo, error)
	DeleteBatch(ctx context.Context, runID uuid.UUID) (int64, error)
	DeleteAllBatches(ctx context.Context) (int64, error)
}

// SignalReader exposes read-only queries, no scoring side effects.
type SignalReader interface {
	LatestSignals(ctx context.Context, filter SignalFilter) ([]SignalRecord, error)
	Summary(ctx context.Context) (Summary, error)
}

// AdvisoryLocker exposes advisory lock helpers for run gating.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to runs and signals.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InitSchema creates the runs and signals tables if missing.
func (s *Store) InitSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, createRunsSQL); err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	if _, err := pool.Exec(ctx, createSignalsSQL); err != nil {
		return fmt.Errorf("create signals table: %w", err)
	}
	return nil
}

// FinalizeRun persists a batch in a single transaction: the run row is
// inserted pending, its signals follow, and the status flips to
// finalized before commit. Readers filter on finalized, so a crash at
// any point leaves no partially visible batch.
func (s *Store) FinalizeRun(ctx context.Context, run RunRecord, signals []signal.Scored) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin finalize tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var profileJSON interface{}
	if len(run.ProfileJSON) > 0 {
		profileJSON = run.ProfileJSON
	}
	var profilePath interface{}
	if run.ProfilePath != "" {
		profilePath = run.ProfilePath
	}

	if _, err := tx.Exec(ctx, insertRunSQL, run.ID, run.Timestamp, profilePath, profileJSON, run.Warning); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, sig := range signals {
		if _, err := tx.Exec(ctx, insertSignalSQL,
			run.ID,
			sig.Institution,
			orUnspecified(sig.Country),
			orUnspecified(sig.Region),
			sig.Type,
			sig.Date,
			sig.Domain,
			sig.InstitutionTier,
			sig.Seniority,
			sig.SourceURL,
			sig.Summary,
			sig.ActionPts,
			sig.SeniorityPts,
			sig.DomainPts,
			sig.AccessibilityPts,
			sig.RecencyPts,
			sig.SeniorityInferred,
			sig.TotalScore,
			string(sig.Tier),
			sig.ScoredAt,
		); err != nil {
			return fmt.Errorf("insert signal for %s: %w", sig.Institution, err)
		}
	}

	tag, err := tx.Exec(ctx, finalizeRunSQL, run.ID, len(signals))
	if err != nil {
		return fmt.Errorf("finalize run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// A run id cannot be finalized twice.
		return fmt.Errorf("finalize run %s: not in pending state", run.ID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit finalize tx: %w", err)
	}
	return nil
}

// ListBatches returns finalized runs, newest first.
func (s *Store) ListBatches(ctx context.Context) ([]BatchInfo, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listBatchesSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list batches: %w", queryErr)
	}
	defer rows.Close()

	batches := make([]BatchInfo, 0)
	for rows.Next() {
		var b BatchInfo
		if err := rows.Scan(&b.ID, &b.Timestamp, &b.ProfilePath, &b.SignalCount, &b.Warning); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return batches, nil
}

// DeleteBatch removes one run and exactly its signals, atomically.
// Unknown run ids report zero deleted rather than an error, keeping
// deletion idempotent.
func (s *Store) DeleteBatch(ctx context.Context, runID uuid.UUID) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, deleteSignalsByRunSQL, runID); err != nil {
		return 0, fmt.Errorf("delete signals: %w", err)
	}
	tag, err := tx.Exec(ctx, deleteRunSQL, runID)
	if err != nil {
		return 0, fmt.Errorf("delete run: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit delete tx: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteAllBatches removes every run and signal, returning the number
// of runs removed.
func (s *Store) DeleteAllBatches(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin delete-all tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, deleteAllSignalsSQL); err != nil {
		return 0, fmt.Errorf("delete all signals: %w", err)
	}
	tag, err := tx.Exec(ctx, deleteAllRunsSQL)
	if err != nil {
		return 0, fmt.Errorf("delete all runs: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit delete-all tx: %w", err)
	}
	return tag.RowsAffected(), nil
}

// LatestSignals returns the most recent finalized batch's signals,
// optionally filtered by region, domains, and tiers.
func (s *Store) LatestSignals(ctx context.Context, filter SignalFilter) ([]SignalRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	var runID uuid.UUID
	var runTS time.Time
	if err := pool.QueryRow(ctx, latestRunSQL).Scan(&runID, &runTS); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []SignalRecord{}, nil
		}
		return nil, fmt.Errorf("latest run: %w", err)
	}

	query := `SELECT id, run_id, institution, country, region, signal_type, signal_date,
        domain, institution_tier, seniority, source_url, summary,
        action_pts, seniority_pts, domain_pts, accessibility_pts, recency_pts,
        seniority_inferred, total_score, priority_tier, scored_at
    FROM signals
    WHERE run_id = $1`
	args := []interface{}{runID}

	if filter.Region != "" {
		args = append(args, filter.Region)
		query += fmt.Sprintf(" AND region = $%d", len(args))
	}
	if len(filter.Domains) > 0 {
		args = append(args, filter.Domains)
		query += fmt.Sprintf(" AND domain = ANY($%d)", len(args))
	}
	if len(filter.Tiers) > 0 {
		tiers := make([]string, 0, len(filter.Tiers))
		for _, t := range filter.Tiers {
			tiers = append(tiers, string(t))
		}
		args = append(args, tiers)
		query += fmt.Sprintf(" AND priority_tier = ANY($%d)", len(args))
	}
	query += " ORDER BY total_score DESC, signal_date DESC, id;"

	rows, queryErr := pool.Query(ctx, query, args...)
	if queryErr != nil {
		return nil, fmt.Errorf("list signals: %w", queryErr)
	}
	defer rows.Close()

	records := make([]SignalRecord, 0)
	for rows.Next() {
		rec, scanErr := scanSignal(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		rec.RunTimestamp = runTS
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

// Summary returns tier counts for the most recent finalized run.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	pool, err := s.getPool()
	if err != nil {
		return Summary{}, err
	}

	var runID uuid.UUID
	var runTS time.Time
	if err := pool.QueryRow(ctx, latestRunSQL).Scan(&runID, &runTS); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Summary{}, nil
		}
		return Summary{}, fmt.Errorf("latest run: %w", err)
	}

	rows, queryErr := pool.Query(ctx, summaryTiersSQL, runID)
	if queryErr != nil {
		return Summary{}, fmt.Errorf("summary: %w", queryErr)
	}
	defer rows.Close()

	sum := Summary{RunID: &runID, Timestamp: &runTS}
	for rows.Next() {
		var tier string
		var count int
		if err := rows.Scan(&tier, &count); err != nil {
			return Summary{}, err
		}
		switch signal.Tier(tier) {
		case signal.TierHot:
			sum.Hot = count
		case signal.TierWarm:
			sum.Warm = count
		case signal.TierNurture:
			sum.Nurture = count
		default:
			sum.Hold += count
		}
		sum.Total += count
	}
	if rows.Err() != nil {
		return Summary{}, rows.Err()
	}
	return sum, nil
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

func scanSignal(rows pgx.Rows) (SignalRecord, error) {
	var rec SignalRecord
	var tier string
	if err := rows.Scan(
		&rec.ID,
		&rec.RunID,
		&rec.Institution,
		&rec.Country,
		&rec.Region,
		&rec.Type,
		&rec.Date,
		&rec.Domain,
		&rec.InstitutionTier,
		&rec.Seniority,
		&rec.SourceURL,
		&rec.Summary,
		&rec.ActionPts,
		&rec.SeniorityPts,
		&rec.DomainPts,
		&rec.AccessibilityPts,
		&rec.RecencyPts,
		&rec.SeniorityInferred,
		&rec.TotalScore,
		&tier,
		&rec.ScoredAt,
	); err != nil {
		return SignalRecord{}, err
	}
	rec.Tier = signal.Tier(tier)
	return rec, nil
}

func orUnspecified(v string) string {
	if v == "" {
		return "Unspecified"
	}
	return v
}

var (
	_ RunStore       = (*Store)(nil)
	_ SignalReader   = (*Store)(nil)
	_ AdvisoryLocker = (*Store)(nil)
)
