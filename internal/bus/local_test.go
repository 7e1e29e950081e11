package bus_test

import (
	"context"
	"testing"
	"time"

	"github.com/greentic/messaging-fabric/internal/bus"
)

func TestLocal_PublishSubscribeBroadcast(t *testing.T) {
	b := bus.NewLocal()
	defer b.Close()

	subA, err := b.Subscribe(context.Background(), "greentic.msg.in.acme.>")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	subB, err := b.Subscribe(context.Background(), "greentic.msg.in.acme.>")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := b.Publish(context.Background(), bus.InSubject("acme", "slack", "c1"), []byte("hi")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	for _, sub := range []bus.Subscription{subA, subB} {
		select {
		case msg := <-sub.Messages():
			if string(msg.Data()) != "hi" {
				t.Errorf("Data() = %q, want %q", msg.Data(), "hi")
			}
			msg.Ack()
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for broadcast delivery")
		}
	}
}

func TestLocal_QueueSubscribeBalancesAcrossMembers(t *testing.T) {
	b := bus.NewLocal()
	defer b.Close()

	sub1, _ := b.QueueSubscribe(context.Background(), "greentic.msg.out.*.acme.*.slack", "egress-acme-slack", 3)
	sub2, _ := b.QueueSubscribe(context.Background(), "greentic.msg.out.*.acme.*.slack", "egress-acme-slack", 3)

	subject := bus.OutSubject("prod", "acme", "default", "slack")
	for i := 0; i < 4; i++ {
		if err := b.Publish(context.Background(), subject, []byte("m")); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	total := 0
	drain := func(sub bus.Subscription) {
		for {
			select {
			case msg := <-sub.Messages():
				msg.Ack()
				total++
			case <-time.After(100 * time.Millisecond):
				return
			}
		}
	}
	drain(sub1)
	drain(sub2)

	if total != 4 {
		t.Errorf("total delivered = %d, want 4", total)
	}
}

func TestLocal_NakRedeliversWithBackoff(t *testing.T) {
	b := bus.NewLocal()
	defer b.Close()

	sub, _ := b.QueueSubscribe(context.Background(), "greentic.msg.out.>", "worker", 5)
	if err := b.Publish(context.Background(), "greentic.msg.out.prod.acme.default.slack", []byte("x")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	msg := <-sub.Messages()
	if msg.Attempt() != 1 {
		t.Fatalf("Attempt() = %d, want 1", msg.Attempt())
	}
	msg.Nak()

	select {
	case redelivered := <-sub.Messages():
		if redelivered.Attempt() != 2 {
			t.Errorf("Attempt() after Nak = %d, want 2", redelivered.Attempt())
		}
		redelivered.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for redelivery")
	}
}

func TestLocal_WildcardSubjectsDoNotCrossTenants(t *testing.T) {
	b := bus.NewLocal()
	defer b.Close()

	sub, _ := b.Subscribe(context.Background(), bus.InWildcard("acme"))

	if err := b.Publish(context.Background(), bus.InSubject("other-tenant", "slack", "c1"), []byte("nope")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := b.Publish(context.Background(), bus.InSubject("acme", "slack", "c1"), []byte("yes")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-sub.Messages():
		if string(msg.Data()) != "yes" {
			t.Errorf("Data() = %q, want %q (cross-tenant message must not match)", msg.Data(), "yes")
		}
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	select {
	case msg := <-sub.Messages():
		t.Errorf("unexpected second delivery: %q", msg.Data())
	case <-time.After(50 * time.Millisecond):
	}
}
