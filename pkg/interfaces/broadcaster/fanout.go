package broadcaster

import "context"

// Func adapts a function to the Broadcaster interface.
type Func func(ctx context.Context, event Event) (int, error)

// Broadcast satisfies the Broadcaster interface.
func (f Func) Broadcast(ctx context.Context, event Event) (int, error) {
	if f == nil {
		return 0, nil
	}
	return f(ctx, event)
}

// Fanout forwards events to multiple downstream broadcasters.
type Fanout struct {
	targets []Broadcaster
}

// NewFanout assembles a broadcaster that multicasts to the provided targets.
func NewFanout(targets ...Broadcaster) *Fanout {
	filtered := make([]Broadcaster, 0, len(targets))
	for _, target := range targets {
		if target != nil {
			filtered = append(filtered, target)
		}
	}
	return &Fanout{targets: filtered}
}

var _ Broadcaster = (*Fanout)(nil)

// Broadcast delivers the event to each target. A failing target does not
// stop delivery to the rest; the counts are summed and the first error
// observed is returned.
func (f *Fanout) Broadcast(ctx context.Context, event Event) (int, error) {
	var firstErr error
	delivered := 0
	for _, target := range f.targets {
		n, err := target.Broadcast(ctx, event)
		delivered += n
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return delivered, firstErr
}
