package live

import (
	"context"
	"sync"
)

// Result is a live query handle: Updates yields the current snapshot
// immediately and a fresh result after every write to the watched tables,
// until Cancel runs or the originating context ends. The channel closes on
// cancellation. Multiple Results over the same query are independent.
type Result[T any] struct {
	updates chan T
	cancel  context.CancelFunc
	once    sync.Once
}

// Updates returns the emission channel.
func (r *Result[T]) Updates() <-chan T {
	return r.updates
}

// Cancel stops the subscription. No emission follows a returned Cancel, except
// one already in flight at the moment of the call.
func (r *Result[T]) Cancel() {
	r.once.Do(r.cancel)
}

// Observe runs fetch once for the initial snapshot and again after each
// change to any watched table, pushing every result. A fetch failure skips
// that emission; the subscription stays open.
func Observe[T any](ctx context.Context, broker *Broker, fetch func(context.Context) (T, error), tables ...string) *Result[T] {
	observeCtx, cancel := context.WithCancel(ctx)
	result := &Result[T]{
		updates: make(chan T, 1),
		cancel:  cancel,
	}

	changes, unsubscribe := broker.Subscribe(observeCtx, tables...)

	go func() {
		defer close(result.updates)
		defer unsubscribe()

		if snapshot, err := fetch(observeCtx); err == nil {
			if !emit(observeCtx, result.updates, snapshot) {
				return
			}
		}

		for {
			select {
			case <-observeCtx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				// Collapse a queued burst into one fetch. The fetch starts
				// after the last collapsed write committed, so the snapshot
				// covers every notification the burst carried, including any
				// the broker shed while this consumer was behind.
				if !drainQueued(changes) {
					return
				}
				snapshot, err := fetch(observeCtx)
				if err != nil {
					continue
				}
				if !emit(observeCtx, result.updates, snapshot) {
					return
				}
			}
		}
	}()

	return result
}

func drainQueued(changes <-chan Change) bool {
	for {
		select {
		case _, ok := <-changes:
			if !ok {
				return false
			}
		default:
			return true
		}
	}
}

func emit[T any](ctx context.Context, updates chan T, value T) bool {
	select {
	case updates <- value:
		return true
	case <-ctx.Done():
		return false
	}
}
