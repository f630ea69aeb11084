package memory

import (
	"context"
	"time"

	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/service/customer"
)

// CustomerRepo implements customer.Repository in memory.
type CustomerRepo struct{ db *DB }

var _ customer.Repository = (*CustomerRepo)(nil)

func (r *CustomerRepo) Get(_ context.Context, id string) (*domain.Customer, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	c, ok := r.db.customers[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	c = r.withCounts(c)
	return &c, nil
}

// withCounts fills the voucher counters. Caller holds the lock.
func (r *CustomerRepo) withCounts(c domain.Customer) domain.Customer {
	c.TotalVouchers, c.UsedVouchers, c.Revenue = 0, 0, 0
	for _, v := range r.db.vouchers {
		if v.CustomerID == nil || *v.CustomerID != c.ID {
			continue
		}
		c.TotalVouchers++
		if v.Status == domain.VoucherUsed {
			c.UsedVouchers++
			c.Revenue += v.Value
		}
	}
	c.Tags = cloneStrings(c.Tags)
	return c
}

func (r *CustomerRepo) List(_ context.Context, f customer.ListFilter) ([]domain.Customer, int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]domain.Customer, 0, len(r.db.customers))
	for _, c := range r.db.customers {
		if f.Status != "" && string(c.Status) != f.Status {
			continue
		}
		if f.Tag != "" && !c.HasTag(f.Tag) {
			continue
		}
		if f.Search != "" && !contains(c.Name, f.Search) && !contains(c.Phone, f.Search) && !contains(c.Email, f.Search) {
			continue
		}
		out = append(out, r.withCounts(c))
	}
	sortNewest(out,
		func(c domain.Customer) int64 { return c.CreatedAt.UnixNano() },
		func(c domain.Customer) string { return c.ID })
	return paginate(out, f.Limit, f.Offset), len(out), nil
}

// phoneTaken reports whether another customer uses phone. Caller holds the lock.
func (r *CustomerRepo) phoneTaken(phone, except string) bool {
	for id, c := range r.db.customers {
		if id != except && c.Phone == phone {
			return true
		}
	}
	return false
}

func (r *CustomerRepo) Create(_ context.Context, c *domain.Customer) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.phoneTaken(c.Phone, "") {
		return customer.ErrDuplicatePhone
	}
	cp := *c
	cp.Tags = cloneStrings(c.Tags)
	r.db.customers[c.ID] = cp
	return nil
}

func (r *CustomerRepo) Update(_ context.Context, id string, u customer.UpdateFields) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.customers[id]
	if !ok {
		return customer.ErrNotFound
	}
	if u.Phone != nil && r.phoneTaken(*u.Phone, id) {
		return customer.ErrDuplicatePhone
	}
	c = domain.CustomerPatch(u).Apply(c)
	c.UpdatedAt = time.Now().UTC()
	r.db.customers[id] = c
	return nil
}

func (r *CustomerRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.customers[id]; !ok {
		return customer.ErrNotFound
	}
	delete(r.db.customers, id)
	for code, v := range r.db.vouchers {
		if v.CustomerID != nil && *v.CustomerID == id {
			v.CustomerID = nil
			r.db.vouchers[code] = v
		}
	}
	return nil
}

func (r *CustomerRepo) Stats(_ context.Context) (*domain.CustomerStats, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	s := &domain.CustomerStats{}
	for _, c := range r.db.customers {
		s.Add(r.withCounts(c))
	}
	return s, nil
}
