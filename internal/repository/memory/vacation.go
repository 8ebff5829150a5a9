package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/vacation"
	"github.com/shopspring/decimal"
)

type ledgerRepository struct {
	s *Store
}

func (r *ledgerRepository) ListByEmployee(ctx context.Context, employeeID string) ([]vacation.Entry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []vacation.Entry
	for _, e := range r.s.ledger {
		if e.EmployeeID == employeeID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return vacation.Less(out[i], out[j]) })
	return out, nil
}

func (r *ledgerRepository) Create(ctx context.Context, entry vacation.Entry) (vacation.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertEntry(entry), nil
}

func (s *Store) insertEntry(entry vacation.Entry) vacation.Entry {
	entry.ID = newID()
	now := time.Now()
	entry.CreatedAt, entry.UpdatedAt = now, now
	s.ledger[entry.ID] = entry
	return entry
}

func (r *ledgerRepository) CreateEarnedIfAbsent(ctx context.Context, entry vacation.Entry) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.ledger {
		if e.EmployeeID == entry.EmployeeID && e.Type == vacation.EntryEarned && e.Date.Equal(entry.Date) {
			return false, nil
		}
	}
	entry.Type = vacation.EntryEarned
	r.s.insertEntry(entry)
	return true, nil
}

func (r *ledgerRepository) UpsertInitial(ctx context.Context, entry vacation.Entry) (vacation.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, e := range r.s.ledger {
		if e.EmployeeID == entry.EmployeeID && e.Type == vacation.EntryInitial {
			e.Date = entry.Date
			e.Days = entry.Days
			e.Description = entry.Description
			e.UpdatedAt = time.Now()
			r.s.ledger[id] = e
			return e, nil
		}
	}
	entry.Type = vacation.EntryInitial
	return r.s.insertEntry(entry), nil
}

func (r *ledgerRepository) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.ledger[id]
	if !ok {
		return vacation.ErrEntryNotFound
	}
	e.Balance = balance
	r.s.ledger[id] = e
	return nil
}

func (r *ledgerRepository) DeleteTakenOnDate(ctx context.Context, employeeID string, date time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, e := range r.s.ledger {
		if e.EmployeeID == employeeID && e.Type == vacation.EntryTaken && e.Date.Equal(date) {
			delete(r.s.ledger, id)
			n++
		}
	}
	return n, nil
}

func NewLedgerRepository(s *Store) vacation.LedgerRepository {
	return &ledgerRepository{s: s}
}
