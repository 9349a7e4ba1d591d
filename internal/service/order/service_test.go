package order

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"testing"
	"time"

	"fooddirect/internal/async"
	"fooddirect/internal/domain"
	orderrepo "fooddirect/internal/repository/order"
)

type stubOrderRepo struct {
	mu      sync.Mutex
	orders  map[string]*domain.Order
	nextID  int
	lists   int
	listErr error
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *stubOrderRepo) Create(_ context.Context, o domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orders {
		if existing.Code == o.Code {
			return nil, domain.ErrAlreadyExists
		}
	}
	r.nextID++
	o.ID = fmt.Sprintf("o%d", r.nextID)
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	o.UpdatedAt = o.CreatedAt
	copied := o
	r.orders[o.ID] = &copied
	out := copied
	return &out, nil
}

func (r *stubOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		out := *o
		return &out, nil
	}
	return nil, domain.ErrNotFound
}

func (r *stubOrderRepo) GetByCode(_ context.Context, code string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.Code == code {
			out := *o
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubOrderRepo) List(_ context.Context, filter orderrepo.ListFilter, limit int) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.Order
	for _, o := range r.orders {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		if filter.Type != nil && o.Type != *filter.Type {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubOrderRepo) ListDeliveredAsc(_ context.Context) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, o := range r.orders {
		if o.Status == domain.StatusDelivered {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *stubOrderRepo) UpdateStatus(_ context.Context, id string, in orderrepo.UpdateStatusInput) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	now := time.Now()
	o.Status = in.Status
	switch in.Status {
	case domain.StatusConfirmation:
		o.ConfirmedAt = &now
	case domain.StatusPreparing:
		o.PreparedAt = &now
	case domain.StatusOutForDelivery:
		o.DispatchedAt = &now
	case domain.StatusDelivered:
		o.DeliveredAt = &now
	case domain.StatusCancelled:
		o.CancelledAt = &now
	}
	if in.Notes != nil {
		o.Notes = *in.Notes
	}
	if in.CancelledReason != nil {
		o.CancelledReason = *in.CancelledReason
	}
	o.UpdatedAt = now
	out := *o
	return &out, nil
}

func (r *stubOrderRepo) Update(_ context.Context, id string, in orderrepo.UpdateInput) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if in.CustomerInfo != nil {
		o.CustomerInfo = *in.CustomerInfo
	}
	if in.Items != nil {
		o.Items = in.Items
	}
	if in.SubtotalCents != nil {
		o.SubtotalCents = *in.SubtotalCents
	}
	if in.TotalCents != nil {
		o.TotalCents = *in.TotalCents
	}
	if in.Notes != nil {
		o.Notes = *in.Notes
	}
	out := *o
	return &out, nil
}

func (r *stubOrderRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

func (r *stubOrderRepo) CountAll(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders), nil
}

type stubMenu struct {
	items map[string]*domain.MenuItem
}

func (m *stubMenu) GetItem(_ context.Context, id string) (*domain.MenuItem, error) {
	if item, ok := m.items[id]; ok {
		return item, nil
	}
	return nil, domain.ErrNotFound
}

type stubCoupons struct {
	mu         sync.Mutex
	coupon     *domain.Coupon
	increments []string
	incErr     error
}

func (c *stubCoupons) GetByCode(_ context.Context, code string) (*domain.Coupon, error) {
	if c.coupon != nil && c.coupon.Code == code {
		out := *c.coupon
		return &out, nil
	}
	return nil, domain.ErrNotFound
}

func (c *stubCoupons) IncrementUsage(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.incErr != nil {
		return c.incErr
	}
	c.increments = append(c.increments, id)
	return nil
}

type stubZones struct {
	zone *domain.DeliveryZone
}

func (z *stubZones) GetByID(_ context.Context, id string) (*domain.DeliveryZone, error) {
	if z.zone != nil && z.zone.ID == id {
		out := *z.zone
		return &out, nil
	}
	return nil, domain.ErrNotFound
}

type stubSyncer struct {
	mu     sync.Mutex
	synced []domain.Order
	err    error
}

func (s *stubSyncer) SyncFromOrder(_ context.Context, o domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.synced = append(s.synced, o)
	return nil
}

func (s *stubSyncer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.synced)
}

type stubMirror struct {
	mu      sync.Mutex
	saved   []domain.Order
	removed []string
	byPhone map[string][]domain.Order
}

func (m *stubMirror) Save(_ context.Context, o domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, o)
	return nil
}

func (m *stubMirror) Remove(_ context.Context, _, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, id)
	return nil
}

func (m *stubMirror) Load(_ context.Context, phone string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byPhone[phone], nil
}

type env struct {
	repo    *stubOrderRepo
	menu    *stubMenu
	coupons *stubCoupons
	zones   *stubZones
	syncer  *stubSyncer
	mirror  *stubMirror
	svc     *Service
}

func newEnv() *env {
	e := &env{
		repo: newStubOrderRepo(),
		menu: &stubMenu{items: map[string]*domain.MenuItem{
			"m1": {ID: "m1", Name: "Paneer Tikka", PriceCents: 25000, Available: true},
			"m2": {ID: "m2", Name: "Garlic Naan", PriceCents: 6000, Available: true},
			"m3": {ID: "m3", Name: "Gone Dish", PriceCents: 1000, Available: false},
		}},
		coupons: &stubCoupons{},
		zones:   &stubZones{},
		syncer:  &stubSyncer{},
		mirror:  &stubMirror{byPhone: make(map[string][]domain.Order)},
	}
	e.svc = New(Deps{
		Orders:    e.repo,
		Menu:      e.menu,
		Coupons:   e.coupons,
		Zones:     e.zones,
		Customers: e.syncer,
		Mirror:    e.mirror,
		Dispatch:  async.New(nil, time.Second),
	})
	return e
}

func (e *env) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := e.svc.dispatch.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
}

func validCreate() CreateInput {
	return CreateInput{
		CustomerName: "Asha",
		PhoneNumber:  "9999999999",
		Type:         domain.FulfillmentPickup,
		Items: []ItemInput{
			{MenuItemID: "m1", Quantity: 2},
			{MenuItemID: "m2", Quantity: 1, Note: "extra crispy"},
		},
	}
}

func TestCreateValidation(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	cases := []struct {
		name  string
		alter func(*CreateInput)
	}{
		{"missing name", func(in *CreateInput) { in.CustomerName = " " }},
		{"bad phone", func(in *CreateInput) { in.PhoneNumber = "call-me" }},
		{"short phone", func(in *CreateInput) { in.PhoneNumber = "123" }},
		{"bad type", func(in *CreateInput) { in.Type = "drone" }},
		{"no items", func(in *CreateInput) { in.Items = nil }},
		{"zero quantity", func(in *CreateInput) { in.Items[0].Quantity = 0 }},
		{"delivery without address", func(in *CreateInput) { in.Type = domain.FulfillmentDelivery }},
		{"bad initial status", func(in *CreateInput) { in.InitialStatus = domain.StatusPreparing }},
	}
	for _, tc := range cases {
		in := validCreate()
		tc.alter(&in)
		if _, err := e.svc.Create(ctx, in); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestCreateRecomputesTotalsServerSide(t *testing.T) {
	e := newEnv()
	created, err := e.svc.Create(context.Background(), validCreate())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if created.SubtotalCents != 56000 {
		t.Fatalf("subtotal = %d, want 56000", created.SubtotalCents)
	}
	if created.TotalCents != created.SubtotalCents+created.DeliveryFeeCents-created.DiscountCents {
		t.Fatalf("total invariant broken: %+v", created)
	}
	if created.Status != domain.StatusPendingWhatsApp {
		t.Fatalf("initial status = %s, want pending_whatsapp", created.Status)
	}
	if ok, _ := regexp.MatchString(`^FD-\d{8}-\d{4}$`, created.Code); !ok {
		t.Fatalf("code format = %q", created.Code)
	}
	if created.Items[0].LineTotalCents != 50000 {
		t.Fatalf("line total = %d, want 50000", created.Items[0].LineTotalCents)
	}

	got, err := e.svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get after create: %v", err)
	}
	if got.TotalCents != created.TotalCents {
		t.Fatalf("round trip total mismatch")
	}
}

func TestCreateRejectsUnavailableItem(t *testing.T) {
	e := newEnv()
	in := validCreate()
	in.Items = []ItemInput{{MenuItemID: "m3", Quantity: 1}}
	if _, err := e.svc.Create(context.Background(), in); err == nil {
		t.Fatalf("expected unavailable item error")
	}
}

func TestCreateAppliesCouponAndCountsUsage(t *testing.T) {
	e := newEnv()
	e.coupons.coupon = &domain.Coupon{
		ID: "cp1", Code: "WELCOME10", Kind: domain.CouponPercent, Percent: 10, Active: true,
	}
	in := validCreate()
	in.CouponCode = "WELCOME10"

	created, err := e.svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.DiscountCents != 5600 {
		t.Fatalf("discount = %d, want 5600", created.DiscountCents)
	}
	if created.Coupon == nil || created.Coupon.Code != "WELCOME10" {
		t.Fatalf("coupon snapshot missing: %+v", created.Coupon)
	}
	if created.TotalCents != 56000-5600 {
		t.Fatalf("total = %d", created.TotalCents)
	}

	e.drain(t)
	if len(e.coupons.increments) != 1 || e.coupons.increments[0] != "cp1" {
		t.Fatalf("coupon usage not counted: %+v", e.coupons.increments)
	}
}

func TestCouponIncrementFailureDoesNotFailCreate(t *testing.T) {
	e := newEnv()
	e.coupons.coupon = &domain.Coupon{ID: "cp1", Code: "X", Kind: domain.CouponFixed, AmountCents: 100, Active: true}
	e.coupons.incErr = errors.New("usage update failed")
	in := validCreate()
	in.CouponCode = "X"

	if _, err := e.svc.Create(context.Background(), in); err != nil {
		t.Fatalf("create must succeed despite usage failure: %v", err)
	}
	e.drain(t)
}

func TestCreateDeliveryZoneFeeAndMinimum(t *testing.T) {
	e := newEnv()
	e.zones.zone = &domain.DeliveryZone{ID: "z1", Name: "North", FeeCents: 3000, MinOrderCents: 10000, Active: true}

	in := validCreate()
	in.Type = domain.FulfillmentDelivery
	in.Address = "12 Hill Road"
	in.ZoneID = "z1"

	created, err := e.svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.DeliveryFeeCents != 3000 {
		t.Fatalf("fee = %d, want 3000", created.DeliveryFeeCents)
	}
	if created.TotalCents != 56000+3000 {
		t.Fatalf("total = %d", created.TotalCents)
	}

	e.zones.zone.MinOrderCents = 100000
	if _, err := e.svc.Create(context.Background(), in); err == nil {
		t.Fatalf("expected below-minimum rejection")
	}
}

func TestUpdateStatusStampsExactlyOneTimestamp(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	created, err := e.svc.Create(ctx, validCreate())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := e.svc.UpdateStatus(ctx, created.ID, UpdateStatusInput{Status: domain.StatusPreparing})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.PreparedAt == nil {
		t.Fatalf("preparedAt not stamped")
	}
	if updated.DispatchedAt != nil || updated.DeliveredAt != nil || updated.CancelledAt != nil {
		t.Fatalf("unrelated timestamps stamped: %+v", updated)
	}

	reason := "customer asked"
	cancelled, err := e.svc.UpdateStatus(ctx, created.ID, UpdateStatusInput{
		Status:          domain.StatusCancelled,
		CancelledReason: &reason,
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.CancelledAt == nil || cancelled.CancelledReason != "customer asked" {
		t.Fatalf("cancellation not recorded: %+v", cancelled)
	}
}

func TestUpdateStatusRejectsTerminalTransitions(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	created, _ := e.svc.Create(ctx, validCreate())
	if _, err := e.svc.UpdateStatus(ctx, created.ID, UpdateStatusInput{Status: domain.StatusDelivered}); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if _, err := e.svc.UpdateStatus(ctx, created.ID, UpdateStatusInput{Status: domain.StatusPending}); err == nil {
		t.Fatalf("delivered order must be frozen")
	}
}

func TestDeliveredTriggersCustomerSync(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	created, _ := e.svc.Create(ctx, validCreate())

	if _, err := e.svc.UpdateStatus(ctx, created.ID, UpdateStatusInput{Status: domain.StatusPreparing}); err != nil {
		t.Fatalf("preparing: %v", err)
	}
	e.drain(t)
	if e.syncer.count() != 0 {
		t.Fatalf("non-delivered transition must not sync customers")
	}

	if _, err := e.svc.UpdateStatus(ctx, created.ID, UpdateStatusInput{Status: domain.StatusDelivered}); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	e.drain(t)
	if e.syncer.count() != 1 {
		t.Fatalf("delivered transition must sync exactly once, got %d", e.syncer.count())
	}
	if e.syncer.synced[0].CustomerInfo.PhoneNumber != "9999999999" {
		t.Fatalf("synced wrong order: %+v", e.syncer.synced[0])
	}
}

func TestCustomerSyncFailureDoesNotFailStatusUpdate(t *testing.T) {
	e := newEnv()
	e.syncer.err = errors.New("sync down")
	ctx := context.Background()
	created, _ := e.svc.Create(ctx, validCreate())
	if _, err := e.svc.UpdateStatus(ctx, created.ID, UpdateStatusInput{Status: domain.StatusDelivered}); err != nil {
		t.Fatalf("status update must succeed despite sync failure: %v", err)
	}
	e.drain(t)
}

func TestConfirmWhatsApp(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	created, _ := e.svc.Create(ctx, validCreate())

	confirmed, err := e.svc.ConfirmWhatsApp(ctx, created.ID, "")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != domain.StatusPending {
		t.Fatalf("status = %s, want pending", confirmed.Status)
	}
	if confirmed.Notes == "" {
		t.Fatalf("confirmation note missing")
	}

	if _, err := e.svc.ConfirmWhatsApp(ctx, created.ID, ""); err == nil {
		t.Fatalf("second confirm must be rejected")
	}
}

func TestFetchGuardSkipsRepeatQueries(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	if _, err := e.svc.Create(ctx, validCreate()); err != nil {
		t.Fatalf("create: %v", err)
	}

	filter := orderrepo.ListFilter{}
	if _, err := e.svc.Fetch(ctx, filter); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	listsAfterFirst := e.repo.lists

	if _, err := e.svc.Fetch(ctx, filter); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if e.repo.lists != listsAfterFirst {
		t.Fatalf("guard did not suppress the repeat query")
	}

	// A mutation invalidates the guard.
	if _, err := e.svc.Create(ctx, validCreate()); err != nil {
		t.Fatalf("create: %v", err)
	}
	before := e.repo.lists
	if _, err := e.svc.Fetch(ctx, filter); err != nil {
		t.Fatalf("fetch after mutation: %v", err)
	}
	if e.repo.lists == before {
		t.Fatalf("guard survived a mutation")
	}
}

func TestSearchMatchesCodePhoneName(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	created, _ := e.svc.Create(ctx, validCreate())

	for _, term := range []string{created.Code, "9999999999", "asha", "ASHA"} {
		got, err := e.svc.Search(ctx, term)
		if err != nil {
			t.Fatalf("search %q: %v", term, err)
		}
		if len(got) != 1 {
			t.Fatalf("search %q returned %d results", term, len(got))
		}
	}

	got, _ := e.svc.Search(ctx, "zzz-no-match")
	if len(got) != 0 {
		t.Fatalf("unexpected matches: %+v", got)
	}
}

func TestSearchFallsBackToEmptyOnRepoError(t *testing.T) {
	e := newEnv()
	e.repo.listErr = errors.New("db down")
	got, err := e.svc.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("search must degrade, not fail: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}

func TestSubscriptionReceivesFullSetAfterMutation(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	if _, err := e.svc.Create(ctx, validCreate()); err != nil {
		t.Fatalf("create: %v", err)
	}

	sub, err := e.svc.SubscribeOrders(ctx, orderrepo.ListFilter{})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	first := <-sub.C()
	if len(first) != 1 {
		t.Fatalf("initial snapshot size = %d", len(first))
	}

	if _, err := e.svc.Create(ctx, validCreate()); err != nil {
		t.Fatalf("second create: %v", err)
	}

	select {
	case snap := <-sub.C():
		if len(snap) != 2 {
			t.Fatalf("snapshot after create = %d orders, want full set of 2", len(snap))
		}
	case <-time.After(time.Second):
		t.Fatalf("no snapshot pushed after mutation")
	}
}

func TestMirrorSavedOnCreateAndStatusChange(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	created, _ := e.svc.Create(ctx, validCreate())
	if _, err := e.svc.UpdateStatus(ctx, created.ID, UpdateStatusInput{Status: domain.StatusPreparing}); err != nil {
		t.Fatalf("status: %v", err)
	}
	e.drain(t)

	e.mirror.mu.Lock()
	defer e.mirror.mu.Unlock()
	if len(e.mirror.saved) != 2 {
		t.Fatalf("mirror saves = %d, want 2", len(e.mirror.saved))
	}
}

func TestDeleteRemovesMirrorEntry(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	created, _ := e.svc.Create(ctx, validCreate())

	if err := e.svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	e.drain(t)

	e.mirror.mu.Lock()
	defer e.mirror.mu.Unlock()
	if len(e.mirror.removed) != 1 || e.mirror.removed[0] != created.ID {
		t.Fatalf("mirror entry not removed: %+v", e.mirror.removed)
	}
}

func TestMyOrdersNormalizesPhone(t *testing.T) {
	e := newEnv()
	e.mirror.byPhone["9999999999"] = []domain.Order{{ID: "o1"}}

	got, err := e.svc.MyOrders(context.Background(), "+99 999-999 99")
	if err != nil {
		t.Fatalf("my orders: %v", err)
	}
	if len(got) != 1 || got[0].ID != "o1" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestAnalyticsSnapshot(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	first, _ := e.svc.Create(ctx, validCreate())
	second, _ := e.svc.Create(ctx, validCreate())
	if _, err := e.svc.UpdateStatus(ctx, first.ID, UpdateStatusInput{Status: domain.StatusDelivered}); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	_ = second

	snap, err := e.svc.Analytics(ctx)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if snap.TotalOrders != 2 {
		t.Fatalf("totalOrders = %d", snap.TotalOrders)
	}
	if snap.ByStatus[domain.StatusDelivered] != 1 || snap.ByStatus[domain.StatusPendingWhatsApp] != 1 {
		t.Fatalf("byStatus = %+v", snap.ByStatus)
	}
	if snap.RevenueCents != first.TotalCents {
		t.Fatalf("revenue = %d, want %d (delivered orders only)", snap.RevenueCents, first.TotalCents)
	}
	if snap.PendingActions != 1 {
		t.Fatalf("pendingActions = %d", snap.PendingActions)
	}
}
