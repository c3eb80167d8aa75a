package timeclock

import (
	"fmt"
	"time"
)

type ActionKind string

const (
	ActionStart   ActionKind = "start"
	ActionPause   ActionKind = "pause"
	ActionEnd     ActionKind = "end"
	ActionStatus  ActionKind = "status"
	ActionReport  ActionKind = "report"
	ActionRanking ActionKind = "ranking"
)

// Action is an inbound event from the chat layer. UserID is the acting user
// for shift actions and the target user for reports.
type Action struct {
	Kind   ActionKind
	UserID string
	At     time.Time
}

func ParseActionKind(raw string) (ActionKind, error) {
	switch k := ActionKind(raw); k {
	case ActionStart, ActionPause, ActionEnd, ActionStatus, ActionReport, ActionRanking:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, raw)
	}
}

// NewAction parses and validates an action in one step.
func NewAction(kind, userID string, at time.Time) (Action, error) {
	k, err := ParseActionKind(kind)
	if err != nil {
		return Action{}, err
	}
	a := Action{Kind: k, UserID: userID, At: at}
	if err := a.Validate(); err != nil {
		return Action{}, err
	}
	return a, nil
}

func (a Action) Validate() error {
	if _, err := ParseActionKind(string(a.Kind)); err != nil {
		return err
	}
	if a.Kind == ActionRanking {
		return nil
	}
	if a.UserID == "" {
		return fmt.Errorf("%w: %s requires a user id", ErrInvalidAction, a.Kind)
	}
	if a.needsInstant() && a.At.IsZero() {
		return fmt.Errorf("%w: %s requires a timestamp", ErrInvalidAction, a.Kind)
	}
	return nil
}

func (a Action) needsInstant() bool {
	switch a.Kind {
	case ActionStart, ActionPause, ActionEnd, ActionStatus:
		return true
	default:
		return false
	}
}
