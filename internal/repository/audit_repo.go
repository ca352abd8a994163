package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"quiz-audit/internal/domain"
)

const auditSchema = `
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS audit_runs (
		id           UUID PRIMARY KEY,
		quiz_title   TEXT NOT NULL,
		seed         TEXT NOT NULL,
		rounds       INTEGER NOT NULL,
		attempts     INTEGER NOT NULL,
		top_name     TEXT NOT NULL,
		max_share    DOUBLE PRECISION NOT NULL,
		dominated    BOOLEAN NOT NULL,
		unreachable  INTEGER NOT NULL,
		passed       BOOLEAN NOT NULL,
		started_at   TIMESTAMPTZ NOT NULL,
		finished_at  TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audit_tallies (
		audit_id      UUID NOT NULL REFERENCES audit_runs(id) ON DELETE CASCADE,
		character_id  TEXT NOT NULL,
		name          TEXT NOT NULL,
		count         INTEGER NOT NULL,
		share         DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (audit_id, name)
	);

	CREATE TABLE IF NOT EXISTS audit_reachability (
		audit_id       UUID NOT NULL REFERENCES audit_runs(id) ON DELETE CASCADE,
		character_id   TEXT NOT NULL,
		name           TEXT NOT NULL,
		reachable      BOOLEAN NOT NULL,
		method         TEXT NOT NULL,
		witness        TEXT,
		attempts       INTEGER NOT NULL,
		landed_on      TEXT,
		greedy_path    TEXT,
		greedy_traits  vector(6),
		PRIMARY KEY (audit_id, character_id)
	);
`

// AuditRunSummary es la fila resumida de una corrida guardada.
type AuditRunSummary struct {
	ID          string    `json:"id"`
	QuizTitle   string    `json:"quiz_title"`
	Seed        uint64    `json:"seed"`
	Rounds      int       `json:"rounds"`
	Attempts    int       `json:"attempts"`
	TopName     string    `json:"top_name"`
	MaxShare    float64   `json:"max_share"`
	Dominated   bool      `json:"dominated"`
	Unreachable int       `json:"unreachable"`
	Passed      bool      `json:"passed"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

type AuditRepository interface {
	Save(ctx context.Context, report domain.AuditReport) error
	ListRuns(ctx context.Context, limit int) ([]AuditRunSummary, error)
}

type PgAuditRepository struct {
	pool *pgxpool.Pool
}

func NewPgAuditRepository(pool *pgxpool.Pool) *PgAuditRepository {
	return &PgAuditRepository{pool: pool}
}

// EnsureSchema crea las tablas (y la extension vector) si no existen.
func (r *PgAuditRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, auditSchema)
	return err
}

// Save guarda la corrida completa en una transaccion.
func (r *PgAuditRepository) Save(ctx context.Context, report domain.AuditReport) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin audit tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const runQuery = `
		INSERT INTO audit_runs (id, quiz_title, seed, rounds, attempts, top_name, max_share, dominated, unreachable, passed, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	dist := report.Distribution
	if _, err := tx.Exec(ctx, runQuery,
		report.ID,
		report.QuizTitle,
		strconv.FormatUint(report.Seed, 10),
		dist.Rounds,
		report.Attempts,
		dist.Top.Name,
		dist.MaxShare,
		dist.Dominated,
		report.UnreachableCount(),
		report.Passed,
		report.StartedAt,
		report.FinishedAt,
	); err != nil {
		return fmt.Errorf("insert audit run: %w", err)
	}

	const tallyQuery = `
		INSERT INTO audit_tallies (audit_id, character_id, name, count, share)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, t := range dist.Ranked {
		if _, err := tx.Exec(ctx, tallyQuery, report.ID, t.CharacterID, t.Name, t.Count, t.Share); err != nil {
			return fmt.Errorf("insert audit tally %s: %w", t.Name, err)
		}
	}

	const reachQuery = `
		INSERT INTO audit_reachability (audit_id, character_id, name, reachable, method, witness, attempts, landed_on, greedy_path, greedy_traits)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, res := range report.Reachability {
		var witness, landedOn, greedyPath, greedyTraits interface{}
		if res.Reachable {
			witness = res.Witness.String()
		}
		if res.LandedOn != nil {
			landedOn = res.LandedOn.ID
		}
		if len(res.GreedyPath) > 0 {
			greedyPath = res.GreedyPath.String()
		}
		if res.GreedyTraits != nil {
			greedyTraits = res.GreedyTraits.Vector()
		}
		if _, err := tx.Exec(ctx, reachQuery,
			report.ID,
			res.Target.ID,
			res.Target.Name,
			res.Reachable,
			res.Method,
			witness,
			res.Attempts,
			landedOn,
			greedyPath,
			greedyTraits,
		); err != nil {
			return fmt.Errorf("insert reachability %s: %w", res.Target.ID, err)
		}
	}

	return tx.Commit(ctx)
}

// ListRuns devuelve las corridas mas recientes primero.
func (r *PgAuditRepository) ListRuns(ctx context.Context, limit int) ([]AuditRunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
		SELECT id, quiz_title, seed, rounds, attempts, top_name, max_share, dominated, unreachable, passed, started_at, finished_at
		FROM audit_runs
		ORDER BY started_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []AuditRunSummary
	for rows.Next() {
		var (
			s    AuditRunSummary
			seed string
		)
		if err := rows.Scan(
			&s.ID,
			&s.QuizTitle,
			&seed,
			&s.Rounds,
			&s.Attempts,
			&s.TopName,
			&s.MaxShare,
			&s.Dominated,
			&s.Unreachable,
			&s.Passed,
			&s.StartedAt,
			&s.FinishedAt,
		); err != nil {
			return nil, err
		}
		if s.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
			return nil, fmt.Errorf("parse seed %q: %w", seed, err)
		}
		runs = append(runs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}
