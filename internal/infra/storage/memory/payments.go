package memory

import (
	"context"
	"sort"
	"sync"

	"erent/internal/domain/payment"
	"erent/internal/domain/shared/paging"
)

// PaymentStore keeps the payment ledger in process. It backs tests and runs
// without a database DSN.
type PaymentStore struct {
	mu       sync.RWMutex
	payments map[payment.ID]*payment.Payment
}

func NewPaymentStore() *PaymentStore {
	return &PaymentStore{payments: make(map[payment.ID]*payment.Payment)}
}

func (s *PaymentStore) ByID(ctx context.Context, id payment.ID) (*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.payments[id]; ok {
		return clonePayment(p), nil
	}
	return nil, payment.ErrNotFound
}

func (s *PaymentStore) Create(ctx context.Context, p *payment.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[p.ID] = clonePayment(p)
	return nil
}

func (s *PaymentStore) Update(ctx context.Context, p *payment.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[p.ID]; !ok {
		return payment.ErrNotFound
	}
	s.payments[p.ID] = clonePayment(p)
	return nil
}

func (s *PaymentStore) Search(ctx context.Context, params payment.SearchParams) (paging.Page[*payment.Payment], error) {
	s.mu.RLock()
	var matches []*payment.Payment
	for _, p := range s.payments {
		if params.Matches(p) {
			matches = append(matches, clonePayment(p))
		}
	}
	s.mu.RUnlock()
	sort.Slice(matches, func(i, j int) bool {
		return newerFirst(matches[i].CreatedAt, matches[j].CreatedAt, string(matches[i].ID), string(matches[j].ID))
	})
	return paging.Apply(matches, params.Paging), nil
}

func clonePayment(p *payment.Payment) *payment.Payment {
	out := *p
	if p.UpdatedAt != nil {
		at := *p.UpdatedAt
		out.UpdatedAt = &at
	}
	return &out
}

var _ payment.Repository = (*PaymentStore)(nil)
