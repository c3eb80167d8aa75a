package timeclock

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/foxseedlab/bateponto/internal/repository"
)

const (
	RecentSessionLimit = 5
	RankingLimit       = 10
)

type SessionSummary struct {
	ID            string
	StartedAt     time.Time
	EndedAt       time.Time
	DurationHours float64
	PauseCount    int
}

type Report struct {
	UserID         string
	TotalHours     float64
	SessionCount   int
	IsActive       bool
	RecentSessions []SessionSummary
}

type RankingEntry struct {
	UserID     string
	TotalHours float64
}

// Report summarises a user's history. Users without a completed session are
// reported as ErrUnknownUser.
func (e *Engine) Report(ctx context.Context, userID string) (Report, error) {
	if userID == "" {
		return Report{}, fmt.Errorf("%w: user id is required", ErrInvalidAction)
	}
	rec, err := e.load(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	if rec == nil || len(rec.Sessions) == 0 {
		return Report{}, ErrUnknownUser
	}
	return Report{
		UserID:         userID,
		TotalHours:     rec.TotalHours,
		SessionCount:   len(rec.Sessions),
		IsActive:       rec.CurrentSession != nil,
		RecentSessions: recentSessions(rec.Sessions, RecentSessionLimit),
	}, nil
}

func (e *Engine) Ranking(ctx context.Context) ([]RankingEntry, error) {
	entries, err := e.store.ListUserRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list user records: %w", ErrStorageUnavailable, err)
	}
	return rankUsers(entries, RankingLimit), nil
}

// recentSessions returns the last n sessions, newest first.
func recentSessions(sessions []repository.CompletedSession, n int) []SessionSummary {
	from := max(len(sessions)-n, 0)
	out := make([]SessionSummary, 0, len(sessions)-from)
	for i := len(sessions) - 1; i >= from; i-- {
		s := sessions[i]
		out = append(out, SessionSummary{
			ID:            s.ID,
			StartedAt:     s.StartedAt,
			EndedAt:       s.EndedAt,
			DurationHours: s.DurationHours,
			PauseCount:    len(s.Pauses),
		})
	}
	return out
}

// rankUsers keeps users with positive hours, sorted descending. Ties keep
// the store's insertion order.
func rankUsers(entries []repository.UserRecordEntry, limit int) []RankingEntry {
	ranked := make([]RankingEntry, 0, len(entries))
	for _, e := range entries {
		if e.Record == nil || e.Record.TotalHours <= 0 {
			continue
		}
		ranked = append(ranked, RankingEntry{UserID: e.UserID, TotalHours: e.Record.TotalHours})
	}
	slices.SortStableFunc(ranked, func(a, b RankingEntry) int {
		switch {
		case a.TotalHours > b.TotalHours:
			return -1
		case a.TotalHours < b.TotalHours:
			return 1
		default:
			return 0
		}
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
