package timeclock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParseActionKind(t *testing.T) {
	for _, raw := range []string{"start", "pause", "end", "status", "report", "ranking"} {
		if _, err := ParseActionKind(raw); err != nil {
			t.Fatalf("expected %q to parse, got %v", raw, err)
		}
	}
	if _, err := ParseActionKind("resume"); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestNewAction_Validation(t *testing.T) {
	cases := []struct {
		name    string
		kind    string
		userID  string
		at      time.Time
		wantErr error
	}{
		{name: "start ok", kind: "start", userID: "u", at: t0},
		{name: "start without user", kind: "start", at: t0, wantErr: ErrInvalidAction},
		{name: "end without time", kind: "end", userID: "u", wantErr: ErrInvalidAction},
		{name: "report without time", kind: "report", userID: "u"},
		{name: "report without user", kind: "report", wantErr: ErrInvalidAction},
		{name: "ranking bare", kind: "ranking"},
		{name: "garbage", kind: "explode", userID: "u", at: t0, wantErr: ErrUnknownAction},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewAction(tc.kind, tc.userID, tc.at)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestHandle_RoutesActions(t *testing.T) {
	e := newTestEngine(newMockStore())
	ctx := context.Background()

	steps := []Action{
		{Kind: ActionStart, UserID: "u", At: t0},
		{Kind: ActionPause, UserID: "u", At: t0.Add(time.Minute)},
		{Kind: ActionPause, UserID: "u", At: t0.Add(2 * time.Minute)},
		{Kind: ActionStatus, UserID: "u", At: t0.Add(3 * time.Minute)},
		{Kind: ActionEnd, UserID: "u", At: t0.Add(time.Hour)},
		{Kind: ActionReport, UserID: "u"},
		{Kind: ActionRanking},
	}
	for _, a := range steps {
		res, err := e.Handle(ctx, a)
		if err != nil {
			t.Fatalf("%s: %v", a.Kind, err)
		}
		if res.Kind != a.Kind {
			t.Fatalf("expected kind %s, got %s", a.Kind, res.Kind)
		}
		switch a.Kind {
		case ActionStart:
			if res.Start == nil {
				t.Fatal("missing start result")
			}
		case ActionPause:
			if res.Pause == nil {
				t.Fatal("missing pause result")
			}
		case ActionStatus:
			if res.Status == nil {
				t.Fatal("missing status result")
			}
		case ActionEnd:
			if res.End == nil || res.End.PauseCount != 1 {
				t.Fatalf("unexpected end result: %+v", res.End)
			}
		case ActionReport:
			if res.Report == nil || res.Report.SessionCount != 1 {
				t.Fatalf("unexpected report: %+v", res.Report)
			}
		case ActionRanking:
			if len(res.Ranking) != 1 || res.Ranking[0].UserID != "u" {
				t.Fatalf("unexpected ranking: %+v", res.Ranking)
			}
		}
	}
}

func TestHandle_RejectsInvalidAction(t *testing.T) {
	e := newTestEngine(newMockStore())
	if _, err := e.Handle(context.Background(), Action{Kind: "dance", UserID: "u", At: t0}); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestKeyedMutex_SerialisesSameKey(t *testing.T) {
	k := newKeyedMutex()
	unlock := k.Lock("a")
	acquired := make(chan struct{})
	released := make(chan struct{})
	go func() {
		u := k.Lock("a")
		close(acquired)
		u()
		close(released)
	}()
	select {
	case <-acquired:
		t.Fatal("second lock acquired while first held")
	case <-time.After(20 * time.Millisecond):
	}
	otherUnlock := k.Lock("b")
	otherUnlock()
	unlock()
	<-acquired
	<-released
	if k.size() != 0 {
		t.Fatalf("expected empty lock table, got %d", k.size())
	}
}
