package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foxseedlab/bateponto/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (r *PostgresStore) LoadUserRecord(ctx context.Context, userID string) (*repository.UserRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT created_at, total_hours, current_started_at, current_pause_started_at, current_pauses::text
		 FROM punch_users WHERE user_id = $1`,
		userID)
	rec, err := scanPostgresUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, started_at, ended_at, duration_hours, pauses::text
		 FROM punch_sessions WHERE user_id = $1 ORDER BY seq ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		sess, err := scanPostgresSession(rows)
		if err != nil {
			return nil, err
		}
		rec.Sessions = append(rec.Sessions, sess)
	}
	return rec, rows.Err()
}

func (r *PostgresStore) SaveUserRecord(ctx context.Context, userID string, record *repository.UserRecord) error {
	currentPauses := "[]"
	var currentStart, currentPauseStart *time.Time
	if cur := record.CurrentSession; cur != nil {
		start := cur.StartedAt
		currentStart = &start
		if cur.PauseStartedAt != nil {
			ps := *cur.PauseStartedAt
			currentPauseStart = &ps
		}
		encoded, err := marshalPauses(cur.Pauses)
		if err != nil {
			return err
		}
		currentPauses = encoded
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx,
		`INSERT INTO punch_users (user_id, created_at, total_hours, current_started_at, current_pause_started_at, current_pauses)
		 VALUES ($1, $2, $3, $4, $5, $6::jsonb)
		 ON CONFLICT (user_id) DO UPDATE SET
		   total_hours = EXCLUDED.total_hours,
		   current_started_at = EXCLUDED.current_started_at,
		   current_pause_started_at = EXCLUDED.current_pause_started_at,
		   current_pauses = EXCLUDED.current_pauses`,
		userID, record.CreatedAt, record.TotalHours, currentStart, currentPauseStart, currentPauses,
	); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	var stored int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM punch_sessions WHERE user_id = $1`, userID).Scan(&stored); err != nil {
		return fmt.Errorf("count sessions: %w", err)
	}
	if stored > len(record.Sessions) {
		return fmt.Errorf("record has %d sessions but %d are stored; sessions are append-only", len(record.Sessions), stored)
	}
	for i := stored; i < len(record.Sessions); i++ {
		sess := record.Sessions[i]
		pauses, err := marshalPauses(sess.Pauses)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO punch_sessions (user_id, seq, id, started_at, ended_at, duration_hours, pauses)
			 VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)`,
			userID, i, sessionIDOrNew(sess.ID), sess.StartedAt, sess.EndedAt, sess.DurationHours, pauses,
		); err != nil {
			return fmt.Errorf("insert session %d: %w", i, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *PostgresStore) ListUserRecords(ctx context.Context) ([]repository.UserRecordEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, created_at, total_hours, current_started_at, current_pause_started_at, current_pauses::text
		 FROM punch_users ORDER BY created_seq ASC`)
	if err != nil {
		return nil, err
	}
	var entries []repository.UserRecordEntry
	byUser := make(map[string]*repository.UserRecord)
	for rows.Next() {
		var userID string
		rec, err := scanPostgresUser(rows, &userID)
		if err != nil {
			rows.Close()
			return nil, err
		}
		entries = append(entries, repository.UserRecordEntry{UserID: userID, Record: rec})
		byUser[userID] = rec
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sessRows, err := r.pool.Query(ctx,
		`SELECT user_id, id, started_at, ended_at, duration_hours, pauses::text
		 FROM punch_sessions ORDER BY user_id ASC, seq ASC`)
	if err != nil {
		return nil, err
	}
	defer sessRows.Close()
	for sessRows.Next() {
		var userID string
		sess, err := scanPostgresSession(sessRows, &userID)
		if err != nil {
			return nil, err
		}
		if rec, ok := byUser[userID]; ok {
			rec.Sessions = append(rec.Sessions, sess)
		}
	}
	return entries, sessRows.Err()
}

func (r *PostgresStore) Close() error {
	r.pool.Close()
	return nil
}

func scanPostgresUser(row pgx.Row, prefix ...any) (*repository.UserRecord, error) {
	var (
		createdAt         time.Time
		totalHours        float64
		currentStart      *time.Time
		currentPauseStart *time.Time
		currentPauses     string
	)
	dest := append(prefix, &createdAt, &totalHours, &currentStart, &currentPauseStart, &currentPauses)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	rec := &repository.UserRecord{
		CreatedAt:  createdAt.UTC(),
		Sessions:   []repository.CompletedSession{},
		TotalHours: totalHours,
	}
	if currentStart != nil {
		pauses, err := unmarshalPauses(currentPauses)
		if err != nil {
			return nil, err
		}
		cur := &repository.ActiveSession{StartedAt: currentStart.UTC(), Pauses: pauses}
		if currentPauseStart != nil {
			ps := currentPauseStart.UTC()
			cur.PauseStartedAt = &ps
		}
		rec.CurrentSession = cur
	}
	return rec, nil
}

func scanPostgresSession(row pgx.Row, prefix ...any) (repository.CompletedSession, error) {
	var (
		s      repository.CompletedSession
		pauses string
	)
	dest := append(prefix, &s.ID, &s.StartedAt, &s.EndedAt, &s.DurationHours, &pauses)
	if err := row.Scan(dest...); err != nil {
		return repository.CompletedSession{}, err
	}
	decoded, err := unmarshalPauses(pauses)
	if err != nil {
		return repository.CompletedSession{}, err
	}
	s.StartedAt = s.StartedAt.UTC()
	s.EndedAt = s.EndedAt.UTC()
	s.Pauses = decoded
	return s, nil
}
