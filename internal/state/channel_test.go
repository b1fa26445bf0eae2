package state

import (
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
)

type authFixture struct {
	User  string
	Admin bool
	Count int
}

func TestSubscribeReplaysDefaultBeforeAnyPublish(t *testing.T) {
	ch := New("auth", authFixture{User: "anon"})

	var got []authFixture
	ch.Subscribe(func(v authFixture) { got = append(got, v) })

	if len(got) != 1 || got[0].User != "anon" {
		t.Fatalf("expected default replay, got %+v", got)
	}
}

func TestPublishMergesPartialUpdate(t *testing.T) {
	ch := New("auth", authFixture{User: "ana", Count: 1})

	ch.Publish(func(v authFixture) authFixture {
		v.Admin = true
		return v
	})

	got := ch.Value()
	if got.User != "ana" || got.Count != 1 || !got.Admin {
		t.Fatalf("expected shallow merge to keep untouched fields, got %+v", got)
	}
}

func TestLateSubscriberSeesMergedValueThenUpdates(t *testing.T) {
	ch := New("contador", 0)
	ch.Set(1)
	ch.Set(2)

	var got []int
	ch.Subscribe(func(v int) { got = append(got, v) })
	ch.Set(3)
	ch.Set(4)

	want := []int{2, 3, 4}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v got %v", want, got)
	}
}

func TestSubscribersNotifiedInSubscriptionOrder(t *testing.T) {
	ch := New("ordem", 0)
	var order []string
	ch.Subscribe(func(v int) {
		if v > 0 {
			order = append(order, "a")
		}
	})
	ch.Subscribe(func(v int) {
		if v > 0 {
			order = append(order, "b")
		}
	})
	ch.Subscribe(func(v int) {
		if v > 0 {
			order = append(order, "c")
		}
	})

	ch.Set(1)

	if !reflect.DeepEqual(order, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	ch := New("salas", "")
	calls := 0
	unsubscribe := ch.Subscribe(func(string) { calls++ })
	unsubscribe()
	unsubscribe()

	ch.Set("LUNES")

	if calls != 1 {
		t.Fatalf("expected only the replay call, got %d", calls)
	}
	if ch.Observers() != 0 {
		t.Fatalf("expected no observers, got %d", ch.Observers())
	}
}

func TestValueIsIdempotentWithoutPublish(t *testing.T) {
	ch := New("posts", authFixture{User: "x", Count: 7})
	first := ch.Value()
	second := ch.Value()
	if first != second {
		t.Fatalf("expected equal snapshots, got %+v and %+v", first, second)
	}
}

func TestReentrantPublishIsDeliveredAfterCurrentRound(t *testing.T) {
	ch := New("reentrante", 0)
	var first, second []int

	ch.Subscribe(func(v int) {
		first = append(first, v)
		if v == 1 {
			ch.Set(2)
		}
	})
	ch.Subscribe(func(v int) { second = append(second, v) })

	ch.Set(1)

	want := []int{0, 1, 2}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("first observer: expected %v got %v", want, first)
	}
	if !reflect.DeepEqual(second, want) {
		t.Fatalf("second observer: expected %v got %v", want, second)
	}
}

func TestResetRestoresDeclaredDefault(t *testing.T) {
	ch := New("auth", authFixture{User: "anon"})
	ch.Set(authFixture{User: "ana", Admin: true})

	ch.Reset()

	if got := ch.Value(); got.User != "anon" || got.Admin {
		t.Fatalf("expected default after reset, got %+v", got)
	}
}

func TestConcurrentPublishersNeverLoseUpdates(t *testing.T) {
	ch := New("concorrente", 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch.Publish(func(v int) int { return v + 1 })
		}()
	}
	wg.Wait()

	if got := ch.Value(); got != 50 {
		t.Fatalf("expected 50 got %d", got)
	}
}

func TestObserverNeverSeesValueOlderThanSubscription(t *testing.T) {
	ch := New("monotono", 0)

	var mu sync.Mutex
	seen := map[int][]int{}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ch.Publish(func(v int) int { return v + 1 })
		}()
		go func(idx int) {
			defer wg.Done()
			ch.Subscribe(func(v int) {
				mu.Lock()
				seen[idx] = append(seen[idx], v)
				mu.Unlock()
			})
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	for idx, values := range seen {
		for i := 1; i < len(values); i++ {
			if values[i] < values[i-1] {
				t.Fatalf("observer %d saw values out of order: %v", idx, values)
			}
		}
	}
}

func TestSubscribeReplaysWhileAnotherGoroutineDelivers(t *testing.T) {
	ch := New("bloqueado", 0)
	entered := make(chan struct{})
	release := make(chan struct{})
	ch.Subscribe(func(v int) {
		if v == 1 {
			close(entered)
			<-release
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		ch.Set(1)
	}()
	<-entered

	var seen atomic.Int64
	seen.Store(-1)
	ch.Subscribe(func(v int) { seen.Store(int64(v)) })
	if got := seen.Load(); got != 1 {
		t.Fatalf("expected replay of 1 before Subscribe returns, got %d", got)
	}

	close(release)
	<-done
	ch.Set(2)
	if got := seen.Load(); got != 2 {
		t.Fatalf("expected later publish, got %d", got)
	}
}

func TestPanickingObserverKeepsOtherReplaysAndChannelUsable(t *testing.T) {
	ch := New("panico", 0)
	var late []int
	ch.Subscribe(func(v int) {
		if v == 1 {
			ch.Subscribe(func(v int) { late = append(late, v) })
			panic("observador quebrado")
		}
	})

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected the observer panic to propagate")
			}
		}()
		ch.Set(1)
	}()
	if !reflect.DeepEqual(late, []int{1}) {
		t.Fatalf("late subscriber must get its replay, got %v", late)
	}

	ch.Set(2)
	if !reflect.DeepEqual(late, []int{1, 2}) {
		t.Fatalf("channel must keep delivering after a panic, got %v", late)
	}
}
