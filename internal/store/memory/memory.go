// Package memory is the in-process reference store.
package memory

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/Kristiina602/collecting-stock/internal/core"
	"github.com/Kristiina602/collecting-stock/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps every collection behind a single mutex. Each method is one
// critical section.
type Store struct {
	mu      sync.Mutex
	users   []core.User
	records []core.StockRecord
	prices  []core.PriceReference
}

func New() *Store {
	return &Store{}
}

func (s *Store) CreateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userIndex(u.ID) >= 0 {
		return errors.New("user already exists")
	}
	s.users = append(s.users, u)
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.userIndex(id)
	if i < 0 {
		return core.User{}, false, nil
	}
	return s.users[i], true, nil
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.users), nil
}

// DeleteUser removes the user only; records referencing it stay.
func (s *Store) DeleteUser(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.userIndex(id)
	if i < 0 {
		return false, nil
	}
	s.users = slices.Delete(s.users, i, i+1)
	return true, nil
}

func (s *Store) InsertRecord(_ context.Context, r core.StockRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordIndex(r.ID) >= 0 {
		return errors.New("record already exists")
	}
	s.records = append(s.records, r)
	return nil
}

func (s *Store) GetRecord(_ context.Context, id string) (core.StockRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.recordIndex(id)
	if i < 0 {
		return core.StockRecord{}, false, nil
	}
	return s.records[i], true, nil
}

func (s *Store) UpdateRecord(_ context.Context, id string, fn func(*core.StockRecord) error) (core.StockRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.recordIndex(id)
	if i < 0 {
		return core.StockRecord{}, false, nil
	}
	next := s.records[i]
	if err := fn(&next); err != nil {
		return core.StockRecord{}, true, err
	}
	s.records[i] = next
	return next, true, nil
}

func (s *Store) DeleteRecord(_ context.Context, id string) (core.StockRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.recordIndex(id)
	if i < 0 {
		return core.StockRecord{}, false, nil
	}
	r := s.records[i]
	s.records = slices.Delete(s.records, i, i+1)
	return r, true, nil
}

func (s *Store) ListRecords(_ context.Context, f store.RecordFilter) ([]core.StockRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.StockRecord, 0, len(s.records))
	for _, r := range s.records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) UpsertPrice(_ context.Context, p core.PriceReference) (core.PriceReference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.prices {
		if cur.Type == p.Type && cur.Species == p.Species && cur.Year == p.Year {
			p.ID = cur.ID
			s.prices[i] = p
			return p, nil
		}
	}
	s.prices = append(s.prices, p)
	return p, nil
}

func (s *Store) ListPrices(_ context.Context, f store.PriceFilter) ([]core.PriceReference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.PriceReference, 0, len(s.prices))
	for _, p := range s.prices {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) DeletePrice(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.prices {
		if p.ID == id {
			s.prices = slices.Delete(s.prices, i, i+1)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) userIndex(id string) int {
	return slices.IndexFunc(s.users, func(u core.User) bool { return u.ID == id })
}

func (s *Store) recordIndex(id string) int {
	return slices.IndexFunc(s.records, func(r core.StockRecord) bool { return r.ID == id })
}
