package events

import "sync"

// SourceLoaded reports one row source merged successfully.
type SourceLoaded struct {
	Source string
	Rows   int
}

// SourceFailed reports a row source that could not be read at all. The
// run continues without it.
type SourceFailed struct {
	Source string
	Err    error
}

// RecordDropped reports one row removed before or during validation.
type RecordDropped struct {
	Source string
	Reason string
}

// RunFinished reports pipeline completion.
type RunFinished struct {
	Records int
	Dropped int
	Err     error
}

// Bus provides in-process pub/sub for ingest and run diagnostics.
// Publish never blocks; slow subscribers miss events.
type Bus struct {
	mu   sync.RWMutex
	subs []chan any
}

func NewBus() *Bus { return &Bus{} }

func (b *Bus) Subscribe() <-chan any {
	ch := make(chan any, 64)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, ch)
	return ch
}

func (b *Bus) Publish(ev any) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
