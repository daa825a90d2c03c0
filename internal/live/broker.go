package live

import (
	"context"
	"sync"
	"time"
)

// Change describes one committed write to a table.
type Change struct {
	Table     string
	Timestamp time.Time
}

// Broker fans committed table changes out to subscribers. Every write to the
// store publishes its table name; a subscriber registered on that table
// receives one Change per write until it unsubscribes.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string]map[int64]*subscriber
	nextID      int64
	bufferSize  int
}

type subscriber struct {
	id     int64
	stream chan Change
}

// changeBuffer bounds how many undelivered notifications a subscriber can
// queue before the broker starts shedding for it.
const changeBuffer = 16

// NewBroker constructs an empty broker.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[string]map[int64]*subscriber),
		bufferSize:  changeBuffer,
	}
}

// Subscribe registers interest in the given tables. The returned channel
// carries one Change per publish to any of them. Cancellation, via the
// returned func or the context, is effective before the next delivery; a
// change already buffered at cancellation time may still be read once.
func (b *Broker) Subscribe(ctx context.Context, tables ...string) (<-chan Change, func()) {
	if len(tables) == 0 {
		ch := make(chan Change)
		close(ch)
		return ch, func() {}
	}
	sub := &subscriber{
		id:     b.nextSequence(),
		stream: make(chan Change, b.bufferSize),
	}
	for _, table := range tables {
		b.register(table, sub)
	}
	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			for _, table := range tables {
				b.unregister(table, sub.id)
			}
		})
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return sub.stream, cleanup
}

// Publish notifies every subscriber of the table. Slow subscribers whose
// buffers are full miss the change rather than block the writer.
func (b *Broker) Publish(table string) {
	if table == "" {
		return
	}
	change := Change{Table: table, Timestamp: time.Now()}
	b.mu.RLock()
	subscribers := b.subscribers[table]
	if len(subscribers) == 0 {
		b.mu.RUnlock()
		return
	}
	copies := make([]*subscriber, 0, len(subscribers))
	for _, sub := range subscribers {
		copies = append(copies, sub)
	}
	b.mu.RUnlock()
	for _, sub := range copies {
		select {
		case sub.stream <- change:
		default:
		}
	}
}

func (b *Broker) nextSequence() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	return b.nextID
}

func (b *Broker) register(table string, sub *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[table]; !ok {
		b.subscribers[table] = make(map[int64]*subscriber)
	}
	b.subscribers[table][sub.id] = sub
}

func (b *Broker) unregister(table string, subscriberID int64) {
	b.mu.Lock()
	subscribers := b.subscribers[table]
	if subscribers != nil {
		delete(subscribers, subscriberID)
		if len(subscribers) == 0 {
			delete(b.subscribers, table)
		}
	}
	b.mu.Unlock()
}
