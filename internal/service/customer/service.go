package customer

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"fooddirect/internal/domain"
	custrepo "fooddirect/internal/repository/customer"
)

// Service maintains the customer aggregates derived from delivered orders.
type Service struct {
	repo   customerRepo
	orders orderLister
	logger *log.Logger
}

type customerRepo interface {
	Create(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Customer, error)
	List(ctx context.Context, limit int) ([]domain.Customer, error)
	Update(ctx context.Context, id string, in custrepo.UpdateInput) (*domain.Customer, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

type orderLister interface {
	ListDeliveredAsc(ctx context.Context) ([]domain.Order, error)
}

func New(repo custrepo.Repository, orders orderLister, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, orders: orders, logger: logger}
}

// SyncFromOrder folds a delivered order into its customer aggregate, keyed by
// phone number. Orders in any other state never touch customer records.
func (s *Service) SyncFromOrder(ctx context.Context, o domain.Order) error {
	if o.Status != domain.StatusDelivered {
		return nil
	}
	phone := strings.TrimSpace(o.CustomerInfo.PhoneNumber)
	if phone == "" {
		return errors.New("order has no phone number")
	}

	existing, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_, err = s.repo.Create(ctx, customerFromOrder(o))
			return err
		}
		return err
	}

	in := foldOrder(*existing, o)
	_, err = s.repo.Update(ctx, existing.ID, in)
	return err
}

// RebuildAll deletes every customer record and replays all delivered orders
// in ascending creation order. It is an admin maintenance operation and is
// not transactional: per-customer failures are logged and skipped, and a
// partial failure leaves the collection partially rebuilt.
func (s *Service) RebuildAll(ctx context.Context) (int, error) {
	delivered, err := s.orders.ListDeliveredAsc(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.repo.DeleteAll(ctx); err != nil {
		return 0, err
	}

	grouped := make(map[string]domain.Customer)
	var phones []string
	for _, o := range delivered {
		phone := strings.TrimSpace(o.CustomerInfo.PhoneNumber)
		if phone == "" {
			s.logger.Printf("rebuild: skipping order %s without phone", o.ID)
			continue
		}
		agg, ok := grouped[phone]
		if !ok {
			grouped[phone] = customerFromOrder(o)
			phones = append(phones, phone)
			continue
		}
		grouped[phone] = foldAggregate(agg, o)
	}

	created := 0
	for _, phone := range phones {
		if _, err := s.repo.Create(ctx, grouped[phone]); err != nil {
			s.logger.Printf("rebuild: create customer phone=%s err=%v", phone, err)
			continue
		}
		created++
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Customer, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	return s.repo.GetByPhone(ctx, phone)
}

func (s *Service) List(ctx context.Context, limit int) ([]domain.Customer, error) {
	return s.repo.List(ctx, limit)
}

// Search filters the customer list by case-insensitive substring over name
// and phone. Lookup failures degrade to an empty result.
func (s *Service) Search(ctx context.Context, term string) ([]domain.Customer, error) {
	customers, err := s.repo.List(ctx, 0)
	if err != nil {
		s.logger.Printf("customer search: %v", err)
		return nil, nil
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return customers, nil
	}
	var out []domain.Customer
	for _, c := range customers {
		if strings.Contains(strings.ToLower(c.Name), term) ||
			strings.Contains(strings.ToLower(c.PhoneNumber), term) {
			out = append(out, c)
		}
	}
	return out, nil
}

// SetFlags updates the moderation flags on a customer.
func (s *Service) SetFlags(ctx context.Context, id string, vip, blocked *bool) (*domain.Customer, error) {
	if vip == nil && blocked == nil {
		return nil, errors.New("no flags to update")
	}
	return s.repo.Update(ctx, id, custrepo.UpdateInput{IsVIP: vip, IsBlocked: blocked})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func customerFromOrder(o domain.Order) domain.Customer {
	createdAt := o.CreatedAt
	return domain.Customer{
		Name:            o.CustomerInfo.Name,
		PhoneNumber:     strings.TrimSpace(o.CustomerInfo.PhoneNumber),
		Address:         o.CustomerInfo.Address,
		TotalOrders:     1,
		TotalSpentCents: o.TotalCents,
		IsVIP:           o.IsVIP,
		IsBlocked:       o.IsBlocked,
		FirstSeenAt:     createdAt,
		LastOrderAt:     &createdAt,
	}
}

// foldOrder produces the update applying one more delivered order to an
// existing customer row.
func foldOrder(c domain.Customer, o domain.Order) custrepo.UpdateInput {
	totalOrders := c.TotalOrders + 1
	totalSpent := c.TotalSpentCents + o.TotalCents
	lastOrder := o.CreatedAt

	in := custrepo.UpdateInput{
		TotalOrders: &totalOrders,
		TotalSpent:  &totalSpent,
		LastOrderAt: &lastOrder,
	}
	if vip := c.IsVIP || o.IsVIP; vip != c.IsVIP {
		in.IsVIP = &vip
	}
	if blocked := c.IsBlocked || o.IsBlocked; blocked != c.IsBlocked {
		in.IsBlocked = &blocked
	}
	if addr := strings.TrimSpace(o.CustomerInfo.Address); addr != "" {
		in.Address = &addr
	}
	if name := strings.TrimSpace(o.CustomerInfo.Name); name != "" && name != c.Name {
		in.Name = &name
	}
	return in
}

// foldAggregate merges one more delivered order into an in-memory aggregate
// during a full rebuild.
func foldAggregate(c domain.Customer, o domain.Order) domain.Customer {
	c.TotalOrders++
	c.TotalSpentCents += o.TotalCents
	createdAt := o.CreatedAt
	c.LastOrderAt = &createdAt
	c.IsVIP = c.IsVIP || o.IsVIP
	c.IsBlocked = c.IsBlocked || o.IsBlocked
	if addr := strings.TrimSpace(o.CustomerInfo.Address); addr != "" {
		c.Address = addr
	}
	if name := strings.TrimSpace(o.CustomerInfo.Name); name != "" {
		c.Name = name
	}
	return c
}
