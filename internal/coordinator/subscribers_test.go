package coordinator

import (
	"testing"

	"petdoor_hub/internal/logger"
	"petdoor_hub/internal/models"
)

func TestSubscriberRegistry_FanOutAndUnsubscribe(t *testing.T) {
	r := newSubscriberRegistry(logger.Get(logger.ErrorLevel))

	var first, second int
	subA := r.add(func(models.Snapshot) { first++ })
	subB := r.add(func(models.Snapshot) { second++ })

	r.notifyAll(models.Snapshot{})
	if first != 1 || second != 1 {
		t.Fatalf("expected both handlers called once, got %d/%d", first, second)
	}

	subA.Unsubscribe()
	r.notifyAll(models.Snapshot{})
	if first != 1 {
		t.Fatalf("unsubscribed handler still called")
	}
	if second != 2 {
		t.Fatalf("remaining handler missed a merge")
	}

	// Double unsubscribe and unsubscribing the other handle must not panic.
	subA.Unsubscribe()
	subB.Unsubscribe()
	r.notifyAll(models.Snapshot{})
	if second != 2 {
		t.Fatalf("handler called after unsubscribe")
	}
}

func TestSubscriberRegistry_PanicIsIsolated(t *testing.T) {
	r := newSubscriberRegistry(logger.Get(logger.ErrorLevel))

	var survived int
	r.add(func(models.Snapshot) { panic("handler bug") })
	r.add(func(models.Snapshot) { survived++ })

	// Two rounds: the panicking handler stays registered and keeps failing
	// without ever taking the healthy one down.
	r.notifyAll(models.Snapshot{})
	r.notifyAll(models.Snapshot{})

	if survived != 2 {
		t.Fatalf("healthy subscriber starved by a panicking peer: got %d notifications", survived)
	}
}

func TestSubscription_UnsubscribeNilSafe(t *testing.T) {
	var sub *Subscription
	sub.Unsubscribe() // must not panic

	zero := &Subscription{}
	zero.Unsubscribe() // must not panic either
}
