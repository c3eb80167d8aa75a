package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/foxseedlab/bateponto/internal/repository"
)

// The JSON shapes below follow the layout of existing bateponto.json
// files: instants are epoch milliseconds, pause durations are
// milliseconds and session durations are hours. id and createdAt are
// optional additions.

type userRecordJSON struct {
	CreatedAt      int64                  `json:"createdAt,omitempty"`
	Sessions       []completedSessionJSON `json:"sessions"`
	CurrentSession *activeSessionJSON     `json:"currentSession"`
	TotalHours     float64                `json:"totalHours"`
}

type activeSessionJSON struct {
	Start      int64       `json:"start"`
	Pauses     []pauseJSON `json:"pauses"`
	PauseStart *int64      `json:"pauseStart,omitempty"`
}

type completedSessionJSON struct {
	ID       string      `json:"id,omitempty"`
	Start    int64       `json:"start"`
	End      int64       `json:"end"`
	Duration float64     `json:"duration"`
	Pauses   []pauseJSON `json:"pauses"`
}

type pauseJSON struct {
	Start    int64 `json:"start"`
	Duration int64 `json:"duration"`
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func encodeUserRecord(r *repository.UserRecord) *userRecordJSON {
	out := &userRecordJSON{
		Sessions:   make([]completedSessionJSON, 0, len(r.Sessions)),
		TotalHours: r.TotalHours,
	}
	if !r.CreatedAt.IsZero() {
		out.CreatedAt = toMillis(r.CreatedAt)
	}
	for _, s := range r.Sessions {
		out.Sessions = append(out.Sessions, completedSessionJSON{
			ID:       s.ID,
			Start:    toMillis(s.StartedAt),
			End:      toMillis(s.EndedAt),
			Duration: s.DurationHours,
			Pauses:   encodePauses(s.Pauses),
		})
	}
	if cur := r.CurrentSession; cur != nil {
		active := &activeSessionJSON{
			Start:  toMillis(cur.StartedAt),
			Pauses: encodePauses(cur.Pauses),
		}
		if cur.PauseStartedAt != nil {
			ms := toMillis(*cur.PauseStartedAt)
			active.PauseStart = &ms
		}
		out.CurrentSession = active
	}
	return out
}

func decodeUserRecord(in *userRecordJSON) *repository.UserRecord {
	out := &repository.UserRecord{
		Sessions:   make([]repository.CompletedSession, 0, len(in.Sessions)),
		TotalHours: in.TotalHours,
	}
	if in.CreatedAt != 0 {
		out.CreatedAt = fromMillis(in.CreatedAt)
	}
	for _, s := range in.Sessions {
		out.Sessions = append(out.Sessions, repository.CompletedSession{
			ID:            s.ID,
			StartedAt:     fromMillis(s.Start),
			EndedAt:       fromMillis(s.End),
			DurationHours: s.Duration,
			Pauses:        decodePauses(s.Pauses),
		})
	}
	if cur := in.CurrentSession; cur != nil {
		active := &repository.ActiveSession{
			StartedAt: fromMillis(cur.Start),
			Pauses:    decodePauses(cur.Pauses),
		}
		if cur.PauseStart != nil {
			ps := fromMillis(*cur.PauseStart)
			active.PauseStartedAt = &ps
		}
		out.CurrentSession = active
	}
	return out
}

func encodePauses(in []repository.PauseInterval) []pauseJSON {
	out := make([]pauseJSON, 0, len(in))
	for _, p := range in {
		out = append(out, pauseJSON{Start: toMillis(p.StartedAt), Duration: p.Duration.Milliseconds()})
	}
	return out
}

func decodePauses(in []pauseJSON) []repository.PauseInterval {
	out := make([]repository.PauseInterval, 0, len(in))
	for _, p := range in {
		out = append(out, repository.PauseInterval{StartedAt: fromMillis(p.Start), Duration: time.Duration(p.Duration) * time.Millisecond})
	}
	return out
}

func marshalPauses(in []repository.PauseInterval) (string, error) {
	b, err := json.Marshal(encodePauses(in))
	if err != nil {
		return "", fmt.Errorf("encode pauses: %w", err)
	}
	return string(b), nil
}

func unmarshalPauses(raw string) ([]repository.PauseInterval, error) {
	if raw == "" {
		return []repository.PauseInterval{}, nil
	}
	var in []pauseJSON
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, fmt.Errorf("decode pauses: %w", err)
	}
	return decodePauses(in), nil
}
