package bus

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// backoffBase/backoffCap implement spec §7's retry schedule: 500ms
// doubling up to 8s.
const (
	backoffBase = 500 * time.Millisecond
	backoffCap  = 8 * time.Second
)

func backoffFor(attempt uint32) time.Duration {
	d := backoffBase
	for i := uint32(1); i < attempt && d < backoffCap; i++ {
		d *= 2
	}
	if d > backoffCap {
		d = backoffCap
	}
	return d
}

type localSub struct {
	pattern     string
	group       string
	maxAttempts uint32
	ch          chan Message
	bus         *Local
	closed      chan struct{}
	once        sync.Once
}

func (s *localSub) Messages() <-chan Message { return s.ch }

func (s *localSub) Close() error {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		for i, other := range s.bus.subs {
			if other == s {
				s.bus.subs = append(s.bus.subs[:i], s.bus.subs[i+1:]...)
				break
			}
		}
		close(s.closed)
	})
	return nil
}

type localMessage struct {
	subject     string
	data        []byte
	attempt     uint32
	sub         *localSub
	maxAttempts uint32
	acked       chan struct{}
	once        sync.Once
}

func (m *localMessage) Subject() string  { return m.subject }
func (m *localMessage) Data() []byte     { return m.data }
func (m *localMessage) Attempt() uint32  { return m.attempt }

func (m *localMessage) Ack() error {
	m.once.Do(func() { close(m.acked) })
	return nil
}

func (m *localMessage) Nak() error {
	m.once.Do(func() {
		close(m.acked)
		if m.maxAttempts > 0 && m.attempt >= m.maxAttempts {
			log.Error().Str("subject", m.subject).Uint32("attempt", m.attempt).
				Msg("bus: message exceeded max_attempts without caller DLQ, dropping")
			return
		}
		next := &localMessage{
			subject: m.subject, data: m.data, attempt: m.attempt + 1,
			sub: m.sub, maxAttempts: m.maxAttempts, acked: make(chan struct{}),
		}
		delay := backoffFor(next.attempt)
		time.AfterFunc(delay, func() {
			select {
			case <-next.sub.closed:
			case next.sub.ch <- next:
			}
		})
	})
	return nil
}

// Local is the in-process Bus implementation shipped as the OSS
// backend (no NATS client exists anywhere a production deployment's
// Bus would be wired in; see DESIGN.md). Publish fans messages out to
// every matching subscription; subscriptions sharing a non-empty
// group round-robin so only one group member receives each message,
// emulating a durable work-queue's competing-consumer delivery.
type Local struct {
	mu      sync.Mutex
	subs    []*localSub
	rrIndex map[string]int
	closed  bool
}

// NewLocal constructs an empty bus.
func NewLocal() *Local {
	return &Local{rrIndex: make(map[string]int)}
}

func (b *Local) Publish(_ context.Context, subject string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}

	groups := make(map[string][]*localSub)
	for _, s := range b.subs {
		if !subjectMatch(s.pattern, subject) {
			continue
		}
		groups[s.group] = append(groups[s.group], s)
	}

	for group, members := range groups {
		if group == "" {
			for _, s := range members {
				b.deliver(s, subject, data)
			}
			continue
		}
		idx := b.rrIndex[group] % len(members)
		b.rrIndex[group] = idx + 1
		b.deliver(members[idx], subject, data)
	}
	return nil
}

func (b *Local) deliver(s *localSub, subject string, data []byte) {
	msg := &localMessage{subject: subject, data: data, attempt: 1, sub: s, maxAttempts: s.maxAttempts, acked: make(chan struct{})}
	select {
	case s.ch <- msg:
	default:
		log.Warn().Str("subject", subject).Str("pattern", s.pattern).Msg("bus: subscriber channel full, dropping message")
	}
}

func (b *Local) Subscribe(_ context.Context, pattern string) (Subscription, error) {
	return b.subscribe(pattern, "", 0)
}

func (b *Local) QueueSubscribe(_ context.Context, pattern, durable string, maxAttempts uint32) (Subscription, error) {
	return b.subscribe(pattern, durable, maxAttempts)
}

func (b *Local) subscribe(pattern, group string, maxAttempts uint32) (Subscription, error) {
	s := &localSub{pattern: pattern, group: group, maxAttempts: maxAttempts, ch: make(chan Message, 256), bus: b, closed: make(chan struct{})}
	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()
	return s, nil
}

func (b *Local) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for _, s := range b.subs {
		select {
		case <-s.closed:
		default:
			close(s.closed)
		}
	}
	b.subs = nil
	return nil
}
