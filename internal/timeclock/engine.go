package timeclock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/foxseedlab/bateponto/internal/repository"
	"github.com/google/uuid"
)

const millisPerHour = 3_600_000

type PauseSignal string

const (
	PauseSignalPaused  PauseSignal = "paused"
	PauseSignalResumed PauseSignal = "resumed"
)

type StartResult struct {
	StartedAt time.Time
}

type PauseResult struct {
	Signal PauseSignal
	At     time.Time
	// PauseDuration is set when Signal is PauseSignalResumed.
	PauseDuration time.Duration
	PauseCount    int
	Clamped       bool
}

type EndResult struct {
	SessionID     string
	StartedAt     time.Time
	EndedAt       time.Time
	DurationHours float64
	TotalPause    time.Duration
	PauseCount    int
	TotalHours    float64
	// Clamped reports that clock skew produced a negative span that was recorded as zero.
	Clamped bool
}

type Status struct {
	State        repository.SessionState
	StartedAt    time.Time
	PausedSince  *time.Time
	Worked       time.Duration
	PauseCount   int
	TotalHours   float64
	SessionCount int
}

// Engine applies shift transitions to user records. Every mutation runs as
// load, mutate, save under a per-user lock; nothing is persisted when the
// transition is rejected or the save fails.
type Engine struct {
	store        repository.UserRecordStore
	locks        *keyedMutex
	newSessionID func() string
}

func NewEngine(store repository.UserRecordStore) *Engine {
	return &Engine{
		store:        store,
		locks:        newKeyedMutex(),
		newSessionID: uuid.NewString,
	}
}

func (e *Engine) Start(ctx context.Context, userID string, now time.Time) (StartResult, error) {
	now = instant(now)
	var res StartResult
	err := e.mutate(ctx, userID, now, func(rec *repository.UserRecord) error {
		if rec.CurrentSession != nil {
			return ErrAlreadyActiveSession
		}
		rec.CurrentSession = &repository.ActiveSession{
			StartedAt: now,
			Pauses:    []repository.PauseInterval{},
		}
		res = StartResult{StartedAt: now}
		return nil
	})
	if err != nil {
		return StartResult{}, err
	}
	slog.Info("shift started", "user_id", userID, "started_at", now)
	return res, nil
}

// TogglePause opens a pause when working and closes it when paused.
func (e *Engine) TogglePause(ctx context.Context, userID string, now time.Time) (PauseResult, error) {
	now = instant(now)
	var res PauseResult
	err := e.mutate(ctx, userID, now, func(rec *repository.UserRecord) error {
		cur := rec.CurrentSession
		if cur == nil {
			return ErrNoActiveSession
		}
		if cur.PauseStartedAt == nil {
			cur.PauseStartedAt = &now
			res = PauseResult{Signal: PauseSignalPaused, At: now, PauseCount: len(cur.Pauses)}
			return nil
		}
		closed, clamped := closePause(cur, now)
		res = PauseResult{
			Signal:        PauseSignalResumed,
			At:            now,
			PauseDuration: closed.Duration,
			PauseCount:    len(cur.Pauses),
			Clamped:       clamped,
		}
		return nil
	})
	if err != nil {
		return PauseResult{}, err
	}
	if res.Clamped {
		slog.Warn("pause ended before it started; recorded as zero", "user_id", userID, "at", now)
	}
	slog.Info("shift pause toggled", "user_id", userID, "signal", res.Signal, "pause_count", res.PauseCount)
	return res, nil
}

func (e *Engine) End(ctx context.Context, userID string, now time.Time) (EndResult, error) {
	now = instant(now)
	var res EndResult
	err := e.mutate(ctx, userID, now, func(rec *repository.UserRecord) error {
		cur := rec.CurrentSession
		if cur == nil {
			return ErrNoActiveSession
		}
		var clamped bool
		if cur.PauseStartedAt != nil {
			_, clamped = closePause(cur, now)
		}
		work, workClamped := netWork(cur, now)
		session := repository.CompletedSession{
			ID:            e.newSessionID(),
			StartedAt:     cur.StartedAt,
			EndedAt:       now,
			DurationHours: millisToHours(work),
			Pauses:        cur.Pauses,
		}
		rec.Sessions = append(rec.Sessions, session)
		rec.TotalHours = rec.SumSessionHours()
		rec.CurrentSession = nil

		res = EndResult{
			SessionID:     session.ID,
			StartedAt:     session.StartedAt,
			EndedAt:       session.EndedAt,
			DurationHours: session.DurationHours,
			TotalPause:    session.TotalPause(),
			PauseCount:    len(session.Pauses),
			TotalHours:    rec.TotalHours,
			Clamped:       clamped || workClamped,
		}
		return nil
	})
	if err != nil {
		return EndResult{}, err
	}
	if res.Clamped {
		slog.Warn("shift span was negative after clock skew; clamped to zero", "user_id", userID, "session_id", res.SessionID)
	}
	slog.Info("shift ended", "user_id", userID, "session_id", res.SessionID, "duration_hours", res.DurationHours, "pause_count", res.PauseCount, "total_hours", res.TotalHours)
	return res, nil
}

// Status reports the user's current state without changing it.
func (e *Engine) Status(ctx context.Context, userID string, now time.Time) (Status, error) {
	if userID == "" {
		return Status{}, fmt.Errorf("%w: user id is required", ErrInvalidAction)
	}
	now = instant(now)
	rec, err := e.load(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	st := Status{State: rec.State()}
	if rec == nil {
		return st, nil
	}
	st.TotalHours = rec.TotalHours
	st.SessionCount = len(rec.Sessions)
	if cur := rec.CurrentSession; cur != nil {
		st.StartedAt = cur.StartedAt
		st.PauseCount = len(cur.Pauses)
		openPause := time.Duration(0)
		if cur.PauseStartedAt != nil {
			since := *cur.PauseStartedAt
			st.PausedSince = &since
			openPause = max(now.Sub(since), 0)
		}
		worked, _ := netWork(cur, now)
		st.Worked = max(worked-openPause, 0)
	}
	return st, nil
}

func (e *Engine) mutate(ctx context.Context, userID string, now time.Time, apply func(*repository.UserRecord) error) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidAction)
	}
	unlock := e.locks.Lock(userID)
	defer unlock()

	stored, err := e.load(ctx, userID)
	if err != nil {
		return err
	}
	rec := stored.Clone()
	if rec == nil {
		rec = repository.NewUserRecord(now)
	}
	if err := apply(rec); err != nil {
		return err
	}
	if err := e.store.SaveUserRecord(ctx, userID, rec); err != nil {
		slog.Error("failed to save user record", "error", err, "user_id", userID)
		return fmt.Errorf("%w: save user record: %w", ErrStorageUnavailable, err)
	}
	return nil
}

func (e *Engine) load(ctx context.Context, userID string) (*repository.UserRecord, error) {
	rec, err := e.store.LoadUserRecord(ctx, userID)
	if err != nil {
		slog.Error("failed to load user record", "error", err, "user_id", userID)
		return nil, fmt.Errorf("%w: load user record: %w", ErrStorageUnavailable, err)
	}
	return rec, nil
}

// closePause appends the open pause to cur.Pauses. A pause that would end
// before it started is recorded with zero duration.
func closePause(cur *repository.ActiveSession, now time.Time) (repository.PauseInterval, bool) {
	start := *cur.PauseStartedAt
	d := now.Sub(start)
	clamped := d < 0
	if clamped {
		d = 0
	}
	p := repository.PauseInterval{StartedAt: start, Duration: d}
	cur.Pauses = append(cur.Pauses, p)
	cur.PauseStartedAt = nil
	return p, clamped
}

// netWork is the span from start to end minus closed pauses, floored at zero.
func netWork(cur *repository.ActiveSession, end time.Time) (time.Duration, bool) {
	work := end.Sub(cur.StartedAt) - cur.TotalPause()
	if work < 0 {
		return 0, true
	}
	return work, false
}

func millisToHours(d time.Duration) float64 {
	return float64(d.Milliseconds()) / millisPerHour
}

// instant drops the monotonic reading and sub-millisecond precision so
// persisted and in-memory values compare equal.
func instant(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli()).UTC()
}
