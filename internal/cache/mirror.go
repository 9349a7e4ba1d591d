package cache

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"sort"

	"fooddirect/internal/domain"
)

// maxEntries caps each customer's mirrored order history.
const maxEntries = 50

const keyPrefix = "customer_orders:"

// KV is the minimal key-value surface the mirror needs. The production
// implementation is Redis; tests use an in-memory map.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Mirror keeps a best-effort, phone-scoped copy of each customer's recent
// orders so the storefront can list "my orders" without an account system.
// It is never authoritative; entries are full Order snapshots, newest first,
// unique by id.
type Mirror struct {
	kv     KV
	logger *log.Logger
}

func NewMirror(kv KV, logger *log.Logger) *Mirror {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Mirror{kv: kv, logger: logger}
}

func mirrorKey(phone string) string {
	return keyPrefix + phone
}

// Save upserts the order snapshot: an existing entry with the same id is
// replaced, the snapshot goes to the front, and the list is capped.
func (m *Mirror) Save(ctx context.Context, o domain.Order) error {
	phone := o.CustomerInfo.PhoneNumber
	if phone == "" {
		return nil
	}
	orders, err := m.read(ctx, phone)
	if err != nil {
		return err
	}
	kept := orders[:0]
	for _, existing := range orders {
		if existing.ID != o.ID {
			kept = append(kept, existing)
		}
	}
	orders = append([]domain.Order{o}, kept...)
	if len(orders) > maxEntries {
		orders = orders[:maxEntries]
	}
	return m.write(ctx, phone, orders)
}

// Load returns the mirrored orders newest first. Duplicate ids are collapsed
// keeping the first occurrence; when deduplication changed the list it is
// persisted back.
func (m *Mirror) Load(ctx context.Context, phone string) ([]domain.Order, error) {
	orders, err := m.read(ctx, phone)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(orders))
	deduped := orders[:0]
	for _, o := range orders {
		if seen[o.ID] {
			continue
		}
		seen[o.ID] = true
		deduped = append(deduped, o)
	}
	changed := len(deduped) != len(orders)
	orders = deduped

	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	if changed {
		if err := m.write(ctx, phone, orders); err != nil {
			m.logger.Printf("mirror: repersist after dedup phone=%s err=%v", phone, err)
		}
	}
	return orders, nil
}

// Update applies fn to the cached entry with the given id, if present.
func (m *Mirror) Update(ctx context.Context, phone, id string, fn func(*domain.Order)) error {
	orders, err := m.read(ctx, phone)
	if err != nil {
		return err
	}
	found := false
	for i := range orders {
		if orders[i].ID == id {
			fn(&orders[i])
			found = true
		}
	}
	if !found {
		return nil
	}
	return m.write(ctx, phone, orders)
}

// Remove drops the cached entry with the given id.
func (m *Mirror) Remove(ctx context.Context, phone, id string) error {
	orders, err := m.read(ctx, phone)
	if err != nil {
		return err
	}
	kept := orders[:0]
	for _, o := range orders {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	if len(kept) == len(orders) {
		return nil
	}
	if len(kept) == 0 {
		return m.kv.Delete(ctx, mirrorKey(phone))
	}
	return m.write(ctx, phone, kept)
}

func (m *Mirror) read(ctx context.Context, phone string) ([]domain.Order, error) {
	raw, ok, err := m.kv.Get(ctx, mirrorKey(phone))
	if err != nil {
		return nil, err
	}
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	var orders []domain.Order
	if err := json.Unmarshal(raw, &orders); err != nil {
		// A corrupt mirror is discarded rather than poisoning every later call.
		m.logger.Printf("mirror: corrupt payload phone=%s err=%v", phone, err)
		return nil, nil
	}
	return orders, nil
}

func (m *Mirror) write(ctx context.Context, phone string, orders []domain.Order) error {
	raw, err := json.Marshal(orders)
	if err != nil {
		return err
	}
	return m.kv.Set(ctx, mirrorKey(phone), raw)
}
