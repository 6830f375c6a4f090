package docstore

import "sync"

// Broker is an in-process pub/sub for document snapshots, keyed by document
// key. Each subscriber gets its own ordered queue and callback goroutine, so
// a slow subscriber never blocks a writer and never loses an update.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[*subscriber]struct{}),
	}
}

type subscriber struct {
	fn func(Snapshot)

	mu      sync.Mutex
	queue   []Snapshot
	wake    chan struct{}
	done    chan struct{}
	once    sync.Once
	started bool
	last    int64
}

// Subscribe registers fn for changes to key. The returned subscriber must be
// released with Broker.unsubscribe.
func (b *Broker) subscribe(key string, fn func(Snapshot)) *subscriber {
	s := &subscriber{
		fn:   fn,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	if b.subs[key] == nil {
		b.subs[key] = make(map[*subscriber]struct{})
	}
	b.subs[key][s] = struct{}{}
	b.mu.Unlock()

	go s.run()
	return s
}

func (b *Broker) unsubscribe(key string, s *subscriber) {
	b.mu.Lock()
	delete(b.subs[key], s)
	if len(b.subs[key]) == 0 {
		delete(b.subs, key)
	}
	b.mu.Unlock()
	s.once.Do(func() { close(s.done) })
}

// Publish queues snap for every subscriber of snap.Key.
func (b *Broker) Publish(snap Snapshot) {
	b.mu.RLock()
	for s := range b.subs[snap.Key] {
		s.push(snap)
	}
	b.mu.RUnlock()
}

// Subscribers returns the number of live subscriptions for key.
func (b *Broker) Subscribers(key string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[key])
}

func (s *subscriber) push(snap Snapshot) {
	s.mu.Lock()
	s.queue = append(s.queue, snap)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, snap := range batch {
			select {
			case <-s.done:
				return
			default:
			}
			if !s.accept(snap) {
				continue
			}
			s.fn(snap)
		}
	}
}

// accept enforces monotonic delivery: the first snapshot always passes,
// later ones only when they are newer than the last delivered version.
// A deletion resets the counter so a re-created document is delivered.
func (s *subscriber) accept(snap Snapshot) bool {
	if s.started && snap.Version <= s.last {
		return false
	}
	s.started = true
	s.last = snap.Version
	if !snap.Exists() {
		s.last = 0
	}
	return true
}
