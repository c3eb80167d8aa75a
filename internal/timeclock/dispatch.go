package timeclock

import "context"

// Result carries the outcome of Handle; only the field matching Kind is set.
type Result struct {
	Kind    ActionKind
	Start   *StartResult
	Pause   *PauseResult
	End     *EndResult
	Status  *Status
	Report  *Report
	Ranking []RankingEntry
}

// Handle validates an action and routes it to the matching operation.
func (e *Engine) Handle(ctx context.Context, a Action) (Result, error) {
	if err := a.Validate(); err != nil {
		return Result{}, err
	}
	res := Result{Kind: a.Kind}
	switch a.Kind {
	case ActionStart:
		r, err := e.Start(ctx, a.UserID, a.At)
		if err != nil {
			return Result{}, err
		}
		res.Start = &r
	case ActionPause:
		r, err := e.TogglePause(ctx, a.UserID, a.At)
		if err != nil {
			return Result{}, err
		}
		res.Pause = &r
	case ActionEnd:
		r, err := e.End(ctx, a.UserID, a.At)
		if err != nil {
			return Result{}, err
		}
		res.End = &r
	case ActionStatus:
		r, err := e.Status(ctx, a.UserID, a.At)
		if err != nil {
			return Result{}, err
		}
		res.Status = &r
	case ActionReport:
		r, err := e.Report(ctx, a.UserID)
		if err != nil {
			return Result{}, err
		}
		res.Report = &r
	case ActionRanking:
		r, err := e.Ranking(ctx)
		if err != nil {
			return Result{}, err
		}
		res.Ranking = r
	}
	return res, nil
}
