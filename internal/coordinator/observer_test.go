package coordinator

import "testing"

func TestRegistry_PublishReachesAllObservers(t *testing.T) {
	r := NewRegistry()
	var a, b int
	r.Subscribe(func(State) { a++ })
	r.Subscribe(func(State) { b++ })

	r.Publish(State{})
	r.Publish(State{})

	if a != 2 || b != 2 {
		t.Errorf("deliveries = (%d, %d), want (2, 2)", a, b)
	}
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	r := NewRegistry()
	var n int
	sub := r.Subscribe(func(State) { n++ })
	keep := r.Subscribe(func(State) {})

	sub.Remove()
	sub.Remove()
	r.Publish(State{})

	if n != 0 {
		t.Errorf("removed observer received %d deliveries", n)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
	keep.Remove()
}

func TestRegistry_MutationDuringPublish(t *testing.T) {
	r := NewRegistry()
	var lateCalls int
	var sub *Subscription
	r.Subscribe(func(State) {
		// Unsubscribing and subscribing mid-pass must not deadlock or panic.
		sub.Remove()
		r.Subscribe(func(State) { lateCalls++ })
	})
	sub = r.Subscribe(func(State) {})

	r.Publish(State{})
	if lateCalls != 0 {
		t.Errorf("observer added during the pass was invoked %d times in the same pass", lateCalls)
	}

	r.Publish(State{})
	if lateCalls != 1 {
		t.Errorf("late observer deliveries = %d, want 1", lateCalls)
	}
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry()
	var n int
	r.Subscribe(func(State) { n++ })
	r.Clear()
	r.Publish(State{})

	if n != 0 || r.Len() != 0 {
		t.Errorf("after Clear: deliveries = %d, Len = %d, want 0 and 0", n, r.Len())
	}
}
