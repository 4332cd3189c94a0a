package channel

import (
	"context"
	"sync"
)

// MemoryBroker is an in-process Broker for tests and single-node development.
type MemoryBroker struct {
	mu   sync.RWMutex
	subs map[string][]*memorySubscription
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string][]*memorySubscription)}
}

func (b *MemoryBroker) Publish(_ context.Context, topic string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs[topic] {
		sub.deliver(payload)
	}
	return nil
}

func (b *MemoryBroker) Subscribe(_ context.Context, topic string) (Subscription, error) {
	sub := &memorySubscription{
		broker: b,
		topic:  topic,
		out:    make(chan []byte, 16),
	}
	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], sub)
	b.mu.Unlock()
	return sub, nil
}

type memorySubscription struct {
	broker *MemoryBroker
	topic  string
	out    chan []byte

	closeOnce sync.Once
	closed    bool
	mu        sync.Mutex
}

func (s *memorySubscription) deliver(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	// Never block a publisher on a slow consumer. Live delivery targets
	// currently-connected subscribers; a dropped payload is recovered from
	// history on resubscribe.
	select {
	case s.out <- payload:
	default:
	}
}

func (s *memorySubscription) Payloads() <-chan []byte {
	return s.out
}

func (s *memorySubscription) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.out)
		s.mu.Unlock()

		s.broker.mu.Lock()
		subs := s.broker.subs[s.topic]
		for i, sub := range subs {
			if sub == s {
				s.broker.subs[s.topic] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		s.broker.mu.Unlock()
	})
	return nil
}
