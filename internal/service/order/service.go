package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"fooddirect/internal/async"
	"fooddirect/internal/domain"
	"fooddirect/internal/events"
	orderrepo "fooddirect/internal/repository/order"
	"fooddirect/internal/watch"
)

// fetchGuardTTL suppresses duplicate list queries for an identical filter
// issued within this window. The guard covers only the plain fetch path;
// live subscriptions always re-query.
const fetchGuardTTL = 5 * time.Second

const listLimit = 50

type menuRepo interface {
	GetItem(ctx context.Context, id string) (*domain.MenuItem, error)
}

type couponRepo interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	IncrementUsage(ctx context.Context, id string) error
}

type zoneRepo interface {
	GetByID(ctx context.Context, id string) (*domain.DeliveryZone, error)
}

type customerSyncer interface {
	SyncFromOrder(ctx context.Context, o domain.Order) error
}

type orderMirror interface {
	Save(ctx context.Context, o domain.Order) error
	Remove(ctx context.Context, phone, id string) error
	Load(ctx context.Context, phone string) ([]domain.Order, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, ev events.OrderEvent) error
}

// Deps wires the order service. Mirror and Events are optional; everything
// else is required.
type Deps struct {
	Orders    orderrepo.Repository
	Menu      menuRepo
	Coupons   couponRepo
	Zones     zoneRepo
	Customers customerSyncer
	Mirror    orderMirror
	Events    eventPublisher
	Dispatch  *async.Dispatcher
	Logger    *log.Logger
}

// Service owns the order lifecycle: creation with server-side pricing,
// admin-driven status transitions, search, live subscriptions and the
// best-effort side effects hanging off them.
type Service struct {
	repo      orderrepo.Repository
	menu      menuRepo
	coupons   couponRepo
	zones     zoneRepo
	customers customerSyncer
	mirror    orderMirror
	events    eventPublisher
	dispatch  *async.Dispatcher
	logger    *log.Logger
	hub       *watch.Hub

	guardMu sync.Mutex
	guard   map[string]guardEntry
}

type guardEntry struct {
	at     time.Time
	orders []domain.Order
}

func New(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	dispatch := deps.Dispatch
	if dispatch == nil {
		dispatch = async.New(logger, 15*time.Second)
	}
	s := &Service{
		repo:      deps.Orders,
		menu:      deps.Menu,
		coupons:   deps.Coupons,
		zones:     deps.Zones,
		customers: deps.Customers,
		mirror:    deps.Mirror,
		events:    deps.Events,
		dispatch:  dispatch,
		logger:    logger,
		guard:     make(map[string]guardEntry),
	}
	s.hub = watch.NewHub(logger, s.snapshot, s.Analytics)
	return s
}

// ItemInput is one requested line. Prices are never taken from the client;
// they are resolved against the menu at creation time.
type ItemInput struct {
	MenuItemID string `json:"menuItemId"`
	Quantity   int    `json:"quantity"`
	Note       string `json:"note,omitempty"`
}

type CreateInput struct {
	CustomerName  string                 `json:"customerName"`
	PhoneNumber   string                 `json:"phoneNumber"`
	Address       string                 `json:"address,omitempty"`
	TableNumber   string                 `json:"tableNumber,omitempty"`
	PickupTime    string                 `json:"pickupTime,omitempty"`
	Type          domain.FulfillmentType `json:"type"`
	Items         []ItemInput            `json:"items"`
	CouponCode    string                 `json:"couponCode,omitempty"`
	ZoneID        string                 `json:"zoneId,omitempty"`
	Geo           *domain.GeoPoint       `json:"geo,omitempty"`
	InitialStatus domain.OrderStatus     `json:"initialStatus,omitempty"`
}

// UpdateStatusInput carries an admin status transition.
type UpdateStatusInput struct {
	Status          domain.OrderStatus `json:"status"`
	Notes           *string            `json:"notes,omitempty"`
	CancelledReason *string            `json:"cancelledReason,omitempty"`
}

// Create validates and prices the order server-side, persists it and kicks
// off the best-effort side effects (coupon usage, cache mirror, event).
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Order, error) {
	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		return nil, errors.New("customer name required")
	}
	phone, err := normalizePhone(in.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, errors.New("invalid fulfillment type")
	}
	if in.Type == domain.FulfillmentDelivery && strings.TrimSpace(in.Address) == "" {
		return nil, errors.New("delivery address required")
	}
	if len(in.Items) == 0 {
		return nil, errors.New("at least one item required")
	}

	status := in.InitialStatus
	if status == "" {
		status = domain.StatusPendingWhatsApp
	}
	if status != domain.StatusPendingWhatsApp && status != domain.StatusPending {
		return nil, errors.New("initial status must be pending_whatsapp or pending")
	}

	items := make([]domain.OrderItem, 0, len(in.Items))
	var subtotal int64
	for _, req := range in.Items {
		if req.Quantity <= 0 {
			return nil, errors.New("quantity must be positive")
		}
		menuItem, err := s.menu.GetItem(ctx, req.MenuItemID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("menu item %s not found", req.MenuItemID)
			}
			return nil, err
		}
		if !menuItem.Available {
			return nil, fmt.Errorf("menu item %s is unavailable", menuItem.Name)
		}
		line := menuItem.PriceCents * int64(req.Quantity)
		items = append(items, domain.OrderItem{
			MenuItemID:     menuItem.ID,
			Name:           menuItem.Name,
			UnitPriceCents: menuItem.PriceCents,
			Quantity:       req.Quantity,
			LineTotalCents: line,
			Note:           strings.TrimSpace(req.Note),
		})
		subtotal += line
	}

	var fee int64
	var zoneID *string
	if in.Type == domain.FulfillmentDelivery && in.ZoneID != "" {
		zone, err := s.zones.GetByID(ctx, in.ZoneID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, errors.New("delivery zone not found")
			}
			return nil, err
		}
		if !zone.Active {
			return nil, errors.New("delivery zone is not active")
		}
		if subtotal < zone.MinOrderCents {
			return nil, fmt.Errorf("order below zone minimum of %d", zone.MinOrderCents)
		}
		fee = zone.FeeCents
		zoneID = &zone.ID
	}

	var discount int64
	var couponSnap *domain.CouponSnapshot
	var couponID string
	if code := strings.TrimSpace(in.CouponCode); code != "" {
		coupon, err := s.coupons.GetByCode(ctx, code)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, errors.New("coupon not found")
			}
			return nil, err
		}
		if !coupon.Usable(time.Now(), subtotal) {
			return nil, errors.New("coupon not applicable")
		}
		discount = coupon.DiscountFor(subtotal)
		couponSnap = &domain.CouponSnapshot{ID: coupon.ID, Code: coupon.Code, DiscountCents: discount}
		couponID = coupon.ID
	}

	draft := domain.Order{
		CustomerInfo: domain.CustomerInfo{
			Name:        name,
			PhoneNumber: phone,
			Address:     strings.TrimSpace(in.Address),
			TableNumber: strings.TrimSpace(in.TableNumber),
			PickupTime:  strings.TrimSpace(in.PickupTime),
		},
		Items:            items,
		Type:             in.Type,
		SubtotalCents:    subtotal,
		DeliveryFeeCents: fee,
		DiscountCents:    discount,
		TotalCents:       subtotal + fee - discount,
		Coupon:           couponSnap,
		Geo:              in.Geo,
		ZoneID:           zoneID,
		Status:           status,
	}

	created, err := s.createWithCode(ctx, draft)
	if err != nil {
		return nil, err
	}

	if couponID != "" {
		id := couponID
		s.dispatch.Go("coupon usage", func(ctx context.Context) error {
			return s.coupons.IncrementUsage(ctx, id)
		})
	}
	s.mirrorSave(*created)
	s.publish(events.OrderEvent{
		Type:       events.TypeOrderCreated,
		OrderID:    created.ID,
		Code:       created.Code,
		Status:     created.Status,
		Phone:      created.CustomerInfo.PhoneNumber,
		TotalCents: created.TotalCents,
	})
	s.afterMutation(ctx)
	return created, nil
}

// createWithCode retries on order-code collisions; the 4-digit suffix is
// random and the code column is unique.
func (s *Service) createWithCode(ctx context.Context, draft domain.Order) (*domain.Order, error) {
	for i := 0; i < 5; i++ {
		draft.Code = generateCode(time.Now())
		created, err := s.repo.Create(ctx, draft)
		if err == nil {
			return created, nil
		}
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		return nil, err
	}
	return nil, errors.New("order code collision")
}

// Get returns the order or domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByCode looks an order up by its human-readable code.
func (s *Service) GetByCode(ctx context.Context, code string) (*domain.Order, error) {
	return s.repo.GetByCode(ctx, code)
}

// Fetch lists orders for a filter, newest first, capped at 50. An identical
// filter fetched within the guard window returns the previous result set
// without touching the database.
func (s *Service) Fetch(ctx context.Context, filter orderrepo.ListFilter) ([]domain.Order, error) {
	key := guardKey(filter)
	s.guardMu.Lock()
	if entry, ok := s.guard[key]; ok && time.Since(entry.at) < fetchGuardTTL {
		cached := entry.orders
		s.guardMu.Unlock()
		return cached, nil
	}
	s.guardMu.Unlock()

	orders, err := s.snapshot(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.guardMu.Lock()
	s.guard[key] = guardEntry{at: time.Now(), orders: orders}
	s.guardMu.Unlock()
	return orders, nil
}

// snapshot is the unguarded fetch used by subscriptions. Status/type/flag
// filters run in SQL; the date range and search term run over the fetched
// set.
func (s *Service) snapshot(ctx context.Context, filter orderrepo.ListFilter) ([]domain.Order, error) {
	orders, err := s.repo.List(ctx, filter, listLimit)
	if err != nil {
		return nil, err
	}
	return applyLocalFilters(orders, filter), nil
}

// Search matches the term case-insensitively against order code, phone and
// customer name over the recent order set. Lookup failures degrade to an
// empty result since the admin UI has alternate lookup paths.
func (s *Service) Search(ctx context.Context, term string) ([]domain.Order, error) {
	orders, err := s.repo.List(ctx, orderrepo.ListFilter{}, listLimit)
	if err != nil {
		s.logger.Printf("order search: %v", err)
		return nil, nil
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return orders, nil
	}
	var out []domain.Order
	for _, o := range orders {
		if matchesTerm(o, term) {
			out = append(out, o)
		}
	}
	return out, nil
}

// UpdateStatus performs an admin-driven transition, stamping exactly the
// lifecycle timestamp belonging to the new status. Reaching delivered
// triggers the customer aggregate sync as a best-effort side effect.
func (s *Service) UpdateStatus(ctx context.Context, id string, in UpdateStatusInput) (*domain.Order, error) {
	if !in.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q", in.Status)
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransition(in.Status) {
		return nil, fmt.Errorf("cannot transition from %s to %s", current.Status, in.Status)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, orderrepo.UpdateStatusInput{
		Status:          in.Status,
		Notes:           in.Notes,
		CancelledReason: in.CancelledReason,
	})
	if err != nil {
		return nil, err
	}

	if updated.Status == domain.StatusDelivered && s.customers != nil {
		order := *updated
		s.dispatch.Go("customer sync", func(ctx context.Context) error {
			return s.customers.SyncFromOrder(ctx, order)
		})
	}
	s.mirrorSave(*updated)
	s.publish(events.OrderEvent{
		Type:       events.TypeOrderStatusChanged,
		OrderID:    updated.ID,
		Code:       updated.Code,
		Status:     updated.Status,
		Phone:      updated.CustomerInfo.PhoneNumber,
		TotalCents: updated.TotalCents,
	})
	s.afterMutation(ctx)
	return updated, nil
}

// ConfirmWhatsApp is the dedicated action acknowledging that the customer
// sent the checkout message: pending_whatsapp becomes pending with a note.
func (s *Service) ConfirmWhatsApp(ctx context.Context, id string, note string) (*domain.Order, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.StatusPendingWhatsApp {
		return nil, fmt.Errorf("order is %s, not awaiting whatsapp confirmation", current.Status)
	}
	if strings.TrimSpace(note) == "" {
		note = "confirmed via whatsapp"
	}
	return s.UpdateStatus(ctx, id, UpdateStatusInput{Status: domain.StatusPending, Notes: &note})
}

// Update applies partial admin edits. When items change, the subtotal and
// total are recomputed from the stored unit prices; fee and discount are
// kept.
func (s *Service) Update(ctx context.Context, id string, in orderrepo.UpdateInput) (*domain.Order, error) {
	if in.Items != nil {
		var subtotal int64
		for i := range in.Items {
			if in.Items[i].Quantity <= 0 {
				return nil, errors.New("quantity must be positive")
			}
			in.Items[i].LineTotalCents = in.Items[i].UnitPriceCents * int64(in.Items[i].Quantity)
			subtotal += in.Items[i].LineTotalCents
		}
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		total := subtotal + current.DeliveryFeeCents - current.DiscountCents
		in.SubtotalCents = &subtotal
		in.TotalCents = &total
	}

	updated, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.mirrorSave(*updated)
	s.afterMutation(ctx)
	return updated, nil
}

// Delete removes the order and its mirror entry.
func (s *Service) Delete(ctx context.Context, id string) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.mirror != nil {
		phone := current.CustomerInfo.PhoneNumber
		orderID := current.ID
		s.dispatch.Go("mirror remove", func(ctx context.Context) error {
			return s.mirror.Remove(ctx, phone, orderID)
		})
	}
	s.publish(events.OrderEvent{
		Type:    events.TypeOrderDeleted,
		OrderID: current.ID,
		Code:    current.Code,
	})
	s.afterMutation(ctx)
	return nil
}

// MyOrders lists the mirrored recent orders for a phone number. This serves
// anonymous customers; the mirror, not the database, is consulted.
func (s *Service) MyOrders(ctx context.Context, phone string) ([]domain.Order, error) {
	if s.mirror == nil {
		return nil, nil
	}
	normalized, err := normalizePhone(phone)
	if err != nil {
		return nil, err
	}
	return s.mirror.Load(ctx, normalized)
}

// Analytics derives the dashboard snapshot from the recent and delivered
// order sets.
func (s *Service) Analytics(ctx context.Context) (domain.Analytics, error) {
	recent, err := s.repo.List(ctx, orderrepo.ListFilter{}, listLimit)
	if err != nil {
		return domain.Analytics{}, err
	}
	delivered, err := s.repo.ListDeliveredAsc(ctx)
	if err != nil {
		return domain.Analytics{}, err
	}
	total, err := s.repo.CountAll(ctx)
	if err != nil {
		return domain.Analytics{}, err
	}

	out := domain.Analytics{
		TotalOrders: total,
		ByStatus:    make(map[domain.OrderStatus]int),
	}
	today := time.Now().Truncate(24 * time.Hour)
	for _, o := range recent {
		out.ByStatus[o.Status]++
		if !o.CreatedAt.Before(today) {
			out.TodayOrders++
		}
	}
	out.PendingActions = out.ByStatus[domain.StatusPendingWhatsApp] +
		out.ByStatus[domain.StatusPending] +
		out.ByStatus[domain.StatusConfirmation]
	for _, o := range delivered {
		out.RevenueCents += o.TotalCents
		if !o.CreatedAt.Before(today) {
			out.TodayRevenue += o.TotalCents
		}
	}
	return out, nil
}

// SubscribeOrders opens a live subscription delivering the full filtered
// result set on every change.
func (s *Service) SubscribeOrders(ctx context.Context, filter orderrepo.ListFilter) (*watch.OrderSubscription, error) {
	return s.hub.SubscribeOrders(ctx, filter)
}

// SubscribeAnalytics opens a live subscription over the analytics snapshot.
func (s *Service) SubscribeAnalytics(ctx context.Context) (*watch.AnalyticsSubscription, error) {
	return s.hub.SubscribeAnalytics(ctx)
}

func (s *Service) mirrorSave(o domain.Order) {
	if s.mirror == nil {
		return
	}
	s.dispatch.Go("mirror save", func(ctx context.Context) error {
		return s.mirror.Save(ctx, o)
	})
}

func (s *Service) publish(ev events.OrderEvent) {
	if s.events == nil {
		return
	}
	s.dispatch.Go("publish "+ev.Type, func(ctx context.Context) error {
		return s.events.Publish(ctx, ev)
	})
}

// afterMutation invalidates the fetch guard and refreshes every live
// subscription with the post-commit state.
func (s *Service) afterMutation(ctx context.Context) {
	s.guardMu.Lock()
	s.guard = make(map[string]guardEntry)
	s.guardMu.Unlock()
	s.hub.Notify(ctx)
}

func applyLocalFilters(orders []domain.Order, filter orderrepo.ListFilter) []domain.Order {
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	if term == "" && filter.DateFrom == nil && filter.DateTo == nil {
		return orders
	}
	var out []domain.Order
	for _, o := range orders {
		if filter.DateFrom != nil && o.CreatedAt.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && o.CreatedAt.After(*filter.DateTo) {
			continue
		}
		if term != "" && !matchesTerm(o, term) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func matchesTerm(o domain.Order, lowered string) bool {
	return strings.Contains(strings.ToLower(o.Code), lowered) ||
		strings.Contains(strings.ToLower(o.CustomerInfo.PhoneNumber), lowered) ||
		strings.Contains(strings.ToLower(o.CustomerInfo.Name), lowered)
}

func guardKey(f orderrepo.ListFilter) string {
	var sb strings.Builder
	if f.Status != nil {
		sb.WriteString("s=" + string(*f.Status) + ";")
	}
	if f.Type != nil {
		sb.WriteString("t=" + string(*f.Type) + ";")
	}
	if f.VIP != nil {
		sb.WriteString(fmt.Sprintf("v=%v;", *f.VIP))
	}
	if f.Blocked != nil {
		sb.WriteString(fmt.Sprintf("b=%v;", *f.Blocked))
	}
	if f.DateFrom != nil {
		sb.WriteString("df=" + f.DateFrom.Format(time.RFC3339) + ";")
	}
	if f.DateTo != nil {
		sb.WriteString("dt=" + f.DateTo.Format(time.RFC3339) + ";")
	}
	if f.Search != "" {
		sb.WriteString("q=" + strings.ToLower(f.Search) + ";")
	}
	return sb.String()
}

// generateCode builds codes like FD-20241201-1234.
func generateCode(now time.Time) string {
	return fmt.Sprintf("FD-%s-%04d", now.Format("20060102"), 1000+rand.Intn(9000))
}

func normalizePhone(raw string) (string, error) {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '+' || r == ' ' || r == '-' || r == '(' || r == ')':
			// separators are dropped
		default:
			return "", errors.New("invalid phone number")
		}
	}
	phone := sb.String()
	if len(phone) < 7 || len(phone) > 15 {
		return "", errors.New("invalid phone number")
	}
	return phone, nil
}
