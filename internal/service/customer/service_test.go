package customer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"fooddirect/internal/domain"
	custrepo "fooddirect/internal/repository/customer"
)

func discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type stubRepo struct {
	byPhone     map[string]*domain.Customer
	created     []domain.Customer
	updates     map[string]custrepo.UpdateInput
	createErr   error
	deleteAlls  int
	failCreates map[string]bool
	nextID      int
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		byPhone: make(map[string]*domain.Customer),
		updates: make(map[string]custrepo.UpdateInput),
	}
}

func (s *stubRepo) Create(_ context.Context, c domain.Customer) (*domain.Customer, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if s.failCreates != nil && s.failCreates[c.PhoneNumber] {
		return nil, errors.New("create failed")
	}
	s.nextID++
	c.ID = fmt.Sprintf("c%d", s.nextID)
	s.created = append(s.created, c)
	copied := c
	s.byPhone[c.PhoneNumber] = &copied
	return &copied, nil
}

func (s *stubRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	for _, c := range s.byPhone {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubRepo) GetByPhone(_ context.Context, phone string) (*domain.Customer, error) {
	if c, ok := s.byPhone[phone]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubRepo) List(_ context.Context, _ int) ([]domain.Customer, error) {
	var out []domain.Customer
	for _, c := range s.byPhone {
		out = append(out, *c)
	}
	return out, nil
}

func (s *stubRepo) Update(_ context.Context, id string, in custrepo.UpdateInput) (*domain.Customer, error) {
	s.updates[id] = in
	for _, c := range s.byPhone {
		if c.ID != id {
			continue
		}
		if in.TotalOrders != nil {
			c.TotalOrders = *in.TotalOrders
		}
		if in.TotalSpent != nil {
			c.TotalSpentCents = *in.TotalSpent
		}
		if in.LastOrderAt != nil {
			c.LastOrderAt = in.LastOrderAt
		}
		if in.IsVIP != nil {
			c.IsVIP = *in.IsVIP
		}
		if in.IsBlocked != nil {
			c.IsBlocked = *in.IsBlocked
		}
		if in.Address != nil {
			c.Address = *in.Address
		}
		if in.Name != nil {
			c.Name = *in.Name
		}
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubRepo) Delete(_ context.Context, _ string) error { return nil }

func (s *stubRepo) DeleteAll(_ context.Context) error {
	s.deleteAlls++
	s.byPhone = make(map[string]*domain.Customer)
	s.created = nil
	return nil
}

type stubOrders struct {
	delivered []domain.Order
	err       error
}

func (s *stubOrders) ListDeliveredAsc(_ context.Context) ([]domain.Order, error) {
	return s.delivered, s.err
}

func deliveredOrder(id, phone string, totalCents int64, createdAt time.Time) domain.Order {
	return domain.Order{
		ID:           id,
		CustomerInfo: domain.CustomerInfo{Name: "Asha", PhoneNumber: phone},
		Status:       domain.StatusDelivered,
		TotalCents:   totalCents,
		CreatedAt:    createdAt,
	}
}

func TestSyncFromOrderIgnoresNonDelivered(t *testing.T) {
	repo := newStubRepo()
	svc := &Service{repo: repo, logger: discard()}

	o := deliveredOrder("o1", "9999999999", 500, time.Now())
	o.Status = domain.StatusPreparing
	if err := svc.SyncFromOrder(context.Background(), o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("non-delivered order must not create a customer")
	}
}

func TestSyncFromOrderCreatesCustomer(t *testing.T) {
	repo := newStubRepo()
	svc := &Service{repo: repo, logger: discard()}

	o := deliveredOrder("o1", "9999999999", 50000, time.Now())
	if err := svc.SyncFromOrder(context.Background(), o); err != nil {
		t.Fatalf("sync: %v", err)
	}

	c, err := repo.GetByPhone(context.Background(), "9999999999")
	if err != nil {
		t.Fatalf("customer not created: %v", err)
	}
	if c.TotalOrders != 1 || c.TotalSpentCents != 50000 {
		t.Fatalf("aggregate = {%d, %d}, want {1, 50000}", c.TotalOrders, c.TotalSpentCents)
	}
}

func TestSyncFromOrderIncrementsExisting(t *testing.T) {
	repo := newStubRepo()
	svc := &Service{repo: repo, logger: discard()}
	ctx := context.Background()

	first := deliveredOrder("o1", "9999999999", 50000, time.Now().Add(-time.Hour))
	if err := svc.SyncFromOrder(ctx, first); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	second := deliveredOrder("o2", "9999999999", 30000, time.Now())
	if err := svc.SyncFromOrder(ctx, second); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	c, _ := repo.GetByPhone(ctx, "9999999999")
	if c.TotalOrders != 2 || c.TotalSpentCents != 80000 {
		t.Fatalf("aggregate = {%d, %d}, want {2, 80000}", c.TotalOrders, c.TotalSpentCents)
	}
	if c.LastOrderAt == nil || !c.LastOrderAt.Equal(second.CreatedAt) {
		t.Fatalf("lastOrderAt not taken from the newest order")
	}
}

func TestSyncFromOrderOrsFlagsAndOverwritesAddress(t *testing.T) {
	repo := newStubRepo()
	svc := &Service{repo: repo, logger: discard()}
	ctx := context.Background()

	first := deliveredOrder("o1", "111", 1000, time.Now().Add(-time.Hour))
	if err := svc.SyncFromOrder(ctx, first); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	second := deliveredOrder("o2", "111", 1000, time.Now())
	second.IsVIP = true
	second.CustomerInfo.Address = "New Street 5"
	if err := svc.SyncFromOrder(ctx, second); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	c, _ := repo.GetByPhone(ctx, "111")
	if !c.IsVIP {
		t.Fatalf("VIP flag must be ORed in")
	}
	if c.Address != "New Street 5" {
		t.Fatalf("address not overwritten, got %q", c.Address)
	}
}

func TestRebuildAllGroupsByPhone(t *testing.T) {
	repo := newStubRepo()
	now := time.Now()
	orders := &stubOrders{delivered: []domain.Order{
		deliveredOrder("o1", "9999999999", 500, now.Add(-2*time.Hour)),
		deliveredOrder("o2", "5550000", 1200, now.Add(-time.Hour)),
		deliveredOrder("o3", "9999999999", 300, now),
	}}
	svc := &Service{repo: repo, orders: orders, logger: discard()}

	created, err := svc.RebuildAll(context.Background())
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if created != 2 {
		t.Fatalf("created = %d, want 2", created)
	}
	if repo.deleteAlls != 1 {
		t.Fatalf("existing customers were not wiped")
	}

	c, _ := repo.GetByPhone(context.Background(), "9999999999")
	if c.TotalOrders != 2 || c.TotalSpentCents != 800 {
		t.Fatalf("aggregate = {%d, %d}, want {2, 800}", c.TotalOrders, c.TotalSpentCents)
	}
}

func TestRebuildAllIsIdempotent(t *testing.T) {
	repo := newStubRepo()
	now := time.Now()
	orders := &stubOrders{delivered: []domain.Order{
		deliveredOrder("o1", "42", 500, now.Add(-time.Hour)),
		deliveredOrder("o2", "42", 300, now),
	}}
	svc := &Service{repo: repo, orders: orders, logger: discard()}
	ctx := context.Background()

	if _, err := svc.RebuildAll(ctx); err != nil {
		t.Fatalf("first rebuild: %v", err)
	}
	first, _ := repo.GetByPhone(ctx, "42")
	firstCopy := *first

	if _, err := svc.RebuildAll(ctx); err != nil {
		t.Fatalf("second rebuild: %v", err)
	}
	second, _ := repo.GetByPhone(ctx, "42")

	if second.TotalOrders != firstCopy.TotalOrders || second.TotalSpentCents != firstCopy.TotalSpentCents {
		t.Fatalf("rebuild not idempotent: %+v vs %+v", firstCopy, *second)
	}
}

func TestRebuildAllSkipsFailures(t *testing.T) {
	repo := newStubRepo()
	repo.failCreates = map[string]bool{"bad": true}
	now := time.Now()
	orders := &stubOrders{delivered: []domain.Order{
		deliveredOrder("o1", "bad", 500, now.Add(-time.Hour)),
		deliveredOrder("o2", "good", 300, now),
	}}
	svc := &Service{repo: repo, orders: orders, logger: discard()}

	created, err := svc.RebuildAll(context.Background())
	if err != nil {
		t.Fatalf("rebuild must continue past per-customer failures: %v", err)
	}
	if created != 1 {
		t.Fatalf("created = %d, want 1", created)
	}
	if _, err := repo.GetByPhone(context.Background(), "good"); err != nil {
		t.Fatalf("surviving customer missing: %v", err)
	}
}
