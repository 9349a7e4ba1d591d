package watch

import (
	"context"
	"testing"
	"time"

	"fooddirect/internal/domain"
	orderrepo "fooddirect/internal/repository/order"
)

type fakeSource struct {
	orders    []domain.Order
	analytics domain.Analytics
	fetches   int
}

func (f *fakeSource) fetch(_ context.Context, _ orderrepo.ListFilter) ([]domain.Order, error) {
	f.fetches++
	out := make([]domain.Order, len(f.orders))
	copy(out, f.orders)
	return out, nil
}

func (f *fakeSource) analyticsFn(_ context.Context) (domain.Analytics, error) {
	return f.analytics, nil
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for snapshot")
		panic("unreachable")
	}
}

func TestSubscribePushesInitialSnapshot(t *testing.T) {
	src := &fakeSource{orders: []domain.Order{{ID: "o1"}}}
	hub := NewHub(nil, src.fetch, src.analyticsFn)

	sub, err := hub.SubscribeOrders(context.Background(), orderrepo.ListFilter{})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	snap := recv(t, sub.C())
	if len(snap) != 1 || snap[0].ID != "o1" {
		t.Fatalf("initial snapshot = %+v", snap)
	}
}

func TestNotifyDeliversFullCollection(t *testing.T) {
	src := &fakeSource{orders: []domain.Order{{ID: "o1"}}}
	hub := NewHub(nil, src.fetch, src.analyticsFn)

	sub, err := hub.SubscribeOrders(context.Background(), orderrepo.ListFilter{})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()
	recv(t, sub.C())

	src.orders = []domain.Order{{ID: "o2"}, {ID: "o1"}}
	hub.Notify(context.Background())

	snap := recv(t, sub.C())
	if len(snap) != 2 || snap[0].ID != "o2" {
		t.Fatalf("snapshot after notify = %+v, want full replacement", snap)
	}
}

func TestSlowSubscriberGetsOnlyNewestSnapshot(t *testing.T) {
	src := &fakeSource{orders: []domain.Order{{ID: "v1"}}}
	hub := NewHub(nil, src.fetch, src.analyticsFn)

	sub, err := hub.SubscribeOrders(context.Background(), orderrepo.ListFilter{})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	// Never consume the initial snapshot; publish two more changes.
	src.orders = []domain.Order{{ID: "v2"}}
	hub.Notify(context.Background())
	src.orders = []domain.Order{{ID: "v3"}}
	hub.Notify(context.Background())

	snap := recv(t, sub.C())
	if len(snap) != 1 || snap[0].ID != "v3" {
		t.Fatalf("want only the newest snapshot v3, got %+v", snap)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	src := &fakeSource{orders: []domain.Order{{ID: "o1"}}}
	hub := NewHub(nil, src.fetch, src.analyticsFn)

	sub, err := hub.SubscribeOrders(context.Background(), orderrepo.ListFilter{})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	recv(t, sub.C())
	sub.Unsubscribe()
	sub.Unsubscribe() // safe to call twice

	if hub.Subscribers() != 0 {
		t.Fatalf("subscriber not removed")
	}

	fetchesBefore := src.fetches
	hub.Notify(context.Background())
	if src.fetches != fetchesBefore {
		t.Fatalf("hub still fetching for removed subscriber")
	}
}

func TestAnalyticsSubscription(t *testing.T) {
	src := &fakeSource{analytics: domain.Analytics{TotalOrders: 5}}
	hub := NewHub(nil, src.fetch, src.analyticsFn)

	sub, err := hub.SubscribeAnalytics(context.Background())
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	snap := recv(t, sub.C())
	if snap.TotalOrders != 5 {
		t.Fatalf("initial analytics = %+v", snap)
	}

	src.analytics = domain.Analytics{TotalOrders: 6}
	hub.Notify(context.Background())
	snap = recv(t, sub.C())
	if snap.TotalOrders != 6 {
		t.Fatalf("analytics after notify = %+v", snap)
	}
}
