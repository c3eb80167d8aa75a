package repository

import "time"

type SessionState string

const (
	SessionStateIdle    SessionState = "idle"
	SessionStateWorking SessionState = "working"
	SessionStatePaused  SessionState = "paused"
)

// UserRecord is everything tracked for one user. TotalHours always equals the
// sum of DurationHours over Sessions.
type UserRecord struct {
	CreatedAt      time.Time
	Sessions       []CompletedSession
	CurrentSession *ActiveSession
	TotalHours     float64
}

// ActiveSession is an open shift. PauseStartedAt is set only while paused.
type ActiveSession struct {
	StartedAt      time.Time
	Pauses         []PauseInterval
	PauseStartedAt *time.Time
}

type PauseInterval struct {
	StartedAt time.Time
	Duration  time.Duration
}

type CompletedSession struct {
	ID            string
	StartedAt     time.Time
	EndedAt       time.Time
	DurationHours float64
	Pauses        []PauseInterval
}

type UserRecordEntry struct {
	UserID string
	Record *UserRecord
}

func NewUserRecord(createdAt time.Time) *UserRecord {
	return &UserRecord{
		CreatedAt: createdAt,
		Sessions:  []CompletedSession{},
	}
}

func (r *UserRecord) State() SessionState {
	switch {
	case r == nil || r.CurrentSession == nil:
		return SessionStateIdle
	case r.CurrentSession.PauseStartedAt != nil:
		return SessionStatePaused
	default:
		return SessionStateWorking
	}
}

func (r *UserRecord) SumSessionHours() float64 {
	var sum float64
	for _, s := range r.Sessions {
		sum += s.DurationHours
	}
	return sum
}

// Clone returns a deep copy so callers can mutate without touching stored state.
func (r *UserRecord) Clone() *UserRecord {
	if r == nil {
		return nil
	}
	out := &UserRecord{
		CreatedAt:  r.CreatedAt,
		Sessions:   make([]CompletedSession, len(r.Sessions)),
		TotalHours: r.TotalHours,
	}
	for i, s := range r.Sessions {
		s.Pauses = clonePauses(s.Pauses)
		out.Sessions[i] = s
	}
	if r.CurrentSession != nil {
		cur := *r.CurrentSession
		cur.Pauses = clonePauses(cur.Pauses)
		if cur.PauseStartedAt != nil {
			ps := *cur.PauseStartedAt
			cur.PauseStartedAt = &ps
		}
		out.CurrentSession = &cur
	}
	return out
}

func (s *ActiveSession) TotalPause() time.Duration {
	return sumPauses(s.Pauses)
}

func (s CompletedSession) TotalPause() time.Duration {
	return sumPauses(s.Pauses)
}

func sumPauses(pauses []PauseInterval) time.Duration {
	var total time.Duration
	for _, p := range pauses {
		total += p.Duration
	}
	return total
}

func clonePauses(in []PauseInterval) []PauseInterval {
	out := make([]PauseInterval, len(in))
	copy(out, in)
	return out
}
