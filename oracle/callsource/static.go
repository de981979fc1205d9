package callsource

import "context"

// StaticCallSource replays a fixed, pre-ordered slice of events. It is the
// source used by tests and by any offline replay tool that already has a
// complete ordered event log on hand.
type StaticCallSource struct {
	events []Event
	pos    int
}

// NewStaticCallSource returns a source that yields events in the order
// given; callers are responsible for pre-sorting by (block_number,
// log_index).
func NewStaticCallSource(events []Event) *StaticCallSource {
	return &StaticCallSource{events: events}
}

func (s *StaticCallSource) Next(ctx context.Context) (Event, bool, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, false, err
	}
	if s.pos >= len(s.events) {
		return Event{}, false, nil
	}
	e := s.events[s.pos]
	s.pos++
	return e, true, nil
}
