package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/foxseedlab/bateponto/internal/repository"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and applies the schema.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	dsn := "file:" + cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := RunSQLiteMigration(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run sqlite migration: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) LoadUserRecord(ctx context.Context, userID string) (*repository.UserRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT created_at, total_hours, current_started_at, current_pause_started_at, current_pauses
		 FROM punch_users WHERE user_id = ?`, userID)
	rec, err := scanSQLiteUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, ended_at, duration_hours, pauses
		 FROM punch_sessions WHERE user_id = ? ORDER BY seq ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		sess, err := scanSQLiteSession(rows)
		if err != nil {
			return nil, err
		}
		rec.Sessions = append(rec.Sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return rec, nil
}

// SaveUserRecord upserts the user row and appends sessions not yet stored,
// all inside one transaction.
func (s *SQLiteStore) SaveUserRecord(ctx context.Context, userID string, record *repository.UserRecord) error {
	currentPauses := "[]"
	var currentStart, currentPauseStart sql.NullInt64
	if cur := record.CurrentSession; cur != nil {
		currentStart = sql.NullInt64{Int64: toMillis(cur.StartedAt), Valid: true}
		if cur.PauseStartedAt != nil {
			currentPauseStart = sql.NullInt64{Int64: toMillis(*cur.PauseStartedAt), Valid: true}
		}
		encoded, err := marshalPauses(cur.Pauses)
		if err != nil {
			return err
		}
		currentPauses = encoded
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO punch_users (user_id, created_at, total_hours, current_started_at, current_pause_started_at, current_pauses)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   total_hours=excluded.total_hours,
		   current_started_at=excluded.current_started_at,
		   current_pause_started_at=excluded.current_pause_started_at,
		   current_pauses=excluded.current_pauses`,
		userID, toMillis(record.CreatedAt), record.TotalHours, currentStart, currentPauseStart, currentPauses,
	); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	var stored int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM punch_sessions WHERE user_id = ?`, userID).Scan(&stored); err != nil {
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
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO punch_sessions (user_id, seq, id, started_at, ended_at, duration_hours, pauses)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			userID, i, sessionIDOrNew(sess.ID), toMillis(sess.StartedAt), toMillis(sess.EndedAt), sess.DurationHours, pauses,
		); err != nil {
			return fmt.Errorf("insert session %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListUserRecords(ctx context.Context) ([]repository.UserRecordEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, created_at, total_hours, current_started_at, current_pause_started_at, current_pauses
		 FROM punch_users ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	var entries []repository.UserRecordEntry
	byUser := make(map[string]*repository.UserRecord)
	for rows.Next() {
		var userID string
		rec, err := scanSQLiteUser(rows, &userID)
		if err != nil {
			rows.Close()
			return nil, err
		}
		entries = append(entries, repository.UserRecordEntry{UserID: userID, Record: rec})
		byUser[userID] = rec
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	rows.Close()

	sessRows, err := s.db.QueryContext(ctx,
		`SELECT user_id, id, started_at, ended_at, duration_hours, pauses
		 FROM punch_sessions ORDER BY user_id ASC, seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	defer sessRows.Close()
	for sessRows.Next() {
		var userID string
		sess, err := scanSQLiteSession(sessRows, &userID)
		if err != nil {
			return nil, err
		}
		if rec, ok := byUser[userID]; ok {
			rec.Sessions = append(rec.Sessions, sess)
		}
	}
	if err := sessRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return entries, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanSQLiteUser scans a punch_users row; leading columns go into prefix.
func scanSQLiteUser(row rowScanner, prefix ...any) (*repository.UserRecord, error) {
	var (
		createdAt         int64
		totalHours        float64
		currentStart      sql.NullInt64
		currentPauseStart sql.NullInt64
		currentPauses     string
	)
	dest := append(prefix, &createdAt, &totalHours, &currentStart, &currentPauseStart, &currentPauses)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	rec := &repository.UserRecord{
		CreatedAt:  fromMillis(createdAt),
		Sessions:   []repository.CompletedSession{},
		TotalHours: totalHours,
	}
	if currentStart.Valid {
		pauses, err := unmarshalPauses(currentPauses)
		if err != nil {
			return nil, err
		}
		cur := &repository.ActiveSession{StartedAt: fromMillis(currentStart.Int64), Pauses: pauses}
		if currentPauseStart.Valid {
			ps := fromMillis(currentPauseStart.Int64)
			cur.PauseStartedAt = &ps
		}
		rec.CurrentSession = cur
	}
	return rec, nil
}

func scanSQLiteSession(row rowScanner, prefix ...any) (repository.CompletedSession, error) {
	var (
		id                 string
		startedAt, endedAt int64
		durationHours      float64
		pauses             string
	)
	dest := append(prefix, &id, &startedAt, &endedAt, &durationHours, &pauses)
	if err := row.Scan(dest...); err != nil {
		return repository.CompletedSession{}, fmt.Errorf("scan session: %w", err)
	}
	decoded, err := unmarshalPauses(pauses)
	if err != nil {
		return repository.CompletedSession{}, err
	}
	return repository.CompletedSession{
		ID:            id,
		StartedAt:     fromMillis(startedAt),
		EndedAt:       fromMillis(endedAt),
		DurationHours: durationHours,
		Pauses:        decoded,
	}, nil
}

func sessionIDOrNew(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
