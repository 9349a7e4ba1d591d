package watch

import (
	"context"
	"io"
	"log"
	"sync"

	"fooddirect/internal/domain"
	orderrepo "fooddirect/internal/repository/order"
	"github.com/google/uuid"
)

// FetchFunc produces the full current result set for a filter.
type FetchFunc func(ctx context.Context, filter orderrepo.ListFilter) ([]domain.Order, error)

// AnalyticsFunc produces the derived analytics snapshot.
type AnalyticsFunc func(ctx context.Context) (domain.Analytics, error)

// Hub fans order changes out to live subscribers. Every subscriber receives
// the WHOLE current result set for its filter on every change, never a diff;
// downstream consumers replace their state wholesale. A subscriber that has
// not consumed the previous snapshot only ever sees the newest one — stale
// snapshots are dropped, which is safe under full-replace semantics.
type Hub struct {
	logger    *log.Logger
	fetch     FetchFunc
	analytics AnalyticsFunc

	mu       sync.Mutex
	orderSub map[string]*OrderSubscription
	statSub  map[string]*AnalyticsSubscription
}

func NewHub(logger *log.Logger, fetch FetchFunc, analytics AnalyticsFunc) *Hub {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Hub{
		logger:    logger,
		fetch:     fetch,
		analytics: analytics,
		orderSub:  make(map[string]*OrderSubscription),
		statSub:   make(map[string]*AnalyticsSubscription),
	}
}

// OrderSubscription is a live view over a filtered order collection. The
// owner must call Unsubscribe when done or the hub keeps pushing forever.
type OrderSubscription struct {
	id     string
	filter orderrepo.ListFilter
	ch     chan []domain.Order
	hub    *Hub
	once   sync.Once
}

// C delivers full result sets.
func (s *OrderSubscription) C() <-chan []domain.Order { return s.ch }

func (s *OrderSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.orderSub, s.id)
		s.hub.mu.Unlock()
	})
}

// AnalyticsSubscription is a live view over the derived analytics snapshot.
type AnalyticsSubscription struct {
	id   string
	ch   chan domain.Analytics
	hub  *Hub
	once sync.Once
}

func (s *AnalyticsSubscription) C() <-chan domain.Analytics { return s.ch }

func (s *AnalyticsSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.statSub, s.id)
		s.hub.mu.Unlock()
	})
}

// SubscribeOrders registers a live order subscription and immediately pushes
// the current result set.
func (h *Hub) SubscribeOrders(ctx context.Context, filter orderrepo.ListFilter) (*OrderSubscription, error) {
	initial, err := h.fetch(ctx, filter)
	if err != nil {
		return nil, err
	}
	sub := &OrderSubscription{
		id:     uuid.NewString(),
		filter: filter,
		ch:     make(chan []domain.Order, 1),
		hub:    h,
	}
	sub.ch <- initial

	h.mu.Lock()
	h.orderSub[sub.id] = sub
	h.mu.Unlock()
	return sub, nil
}

// SubscribeAnalytics registers a live analytics subscription and immediately
// pushes the current snapshot.
func (h *Hub) SubscribeAnalytics(ctx context.Context) (*AnalyticsSubscription, error) {
	initial, err := h.analytics(ctx)
	if err != nil {
		return nil, err
	}
	sub := &AnalyticsSubscription{
		id:  uuid.NewString(),
		ch:  make(chan domain.Analytics, 1),
		hub: h,
	}
	sub.ch <- initial

	h.mu.Lock()
	h.statSub[sub.id] = sub
	h.mu.Unlock()
	return sub, nil
}

// Notify re-queries every live subscription and pushes fresh snapshots. It is
// called by the order service after every committed mutation.
func (h *Hub) Notify(ctx context.Context) {
	h.mu.Lock()
	orderSubs := make([]*OrderSubscription, 0, len(h.orderSub))
	for _, sub := range h.orderSub {
		orderSubs = append(orderSubs, sub)
	}
	statSubs := make([]*AnalyticsSubscription, 0, len(h.statSub))
	for _, sub := range h.statSub {
		statSubs = append(statSubs, sub)
	}
	h.mu.Unlock()

	for _, sub := range orderSubs {
		snapshot, err := h.fetch(ctx, sub.filter)
		if err != nil {
			h.logger.Printf("watch: refresh order subscription %s: %v", sub.id, err)
			continue
		}
		push(sub.ch, snapshot)
	}

	if len(statSubs) > 0 {
		snapshot, err := h.analytics(ctx)
		if err != nil {
			h.logger.Printf("watch: refresh analytics: %v", err)
			return
		}
		for _, sub := range statSubs {
			push(sub.ch, snapshot)
		}
	}
}

// Subscribers reports the number of live order subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.orderSub)
}

// push delivers v, replacing an unconsumed older snapshot if the subscriber
// is behind.
func push[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
