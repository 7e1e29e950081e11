package bus

import "context"

// Message is a single delivered bus message. Exactly one of Ack/Nak
// must be called per delivery (spec §8's ack/DLQ exclusivity
// invariant); calling neither leaks the in-flight slot until the
// consumer's max unacked limit forces backpressure.
type Message interface {
	Subject() string
	Data() []byte
	// Attempt is 1 on first delivery, incremented on each redelivery.
	Attempt() uint32
	Ack() error
	// Nak schedules redelivery with exponential backoff. Whether to
	// keep retrying or to publish a DLQ record and Ack instead once
	// Attempt exceeds a stage's max_attempts (spec §7 "poison-pill
	// protection") is the caller's decision, not the bus layer's — the
	// caller holds the DLQ payload shape and stage code.
	Nak() error
}

// Subscription is a live consumer registration.
type Subscription interface {
	Messages() <-chan Message
	Close() error
}

// Bus is the narrow publish/subscribe/DLQ contract every fabric stage
// depends on (spec §6). Subscribe is plain fan-out pub/sub (every
// subscriber on a matching pattern gets every message);
// QueueSubscribe is competing-consumer delivery within a named
// durable group (used by the runner's dispatch worker and by egress
// workers balancing across replicas, spec §4.4).
type Bus interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Subscribe(ctx context.Context, pattern string) (Subscription, error)
	QueueSubscribe(ctx context.Context, pattern, durable string, maxAttempts uint32) (Subscription, error)
	Close() error
}
