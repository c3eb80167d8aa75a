package notifier

import (
	"context"
	"errors"

	"github.com/foxseedlab/bateponto/internal/notifier"
)

// Fanout delivers an event to every notifier and joins their errors.
type Fanout []notifier.Notifier

func (f Fanout) NotifyShiftCompleted(ctx context.Context, event notifier.ShiftCompletedEvent) error {
	var errs []error
	for _, n := range f {
		if err := n.NotifyShiftCompleted(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Noop struct{}

func (Noop) NotifyShiftCompleted(context.Context, notifier.ShiftCompletedEvent) error {
	return nil
}
