package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/holiday"
)

type holidayRepository struct {
	s *Store
}

// SeedHolidayRule appends a rule to the catalog.
func (s *Store) SeedHolidayRule(rule holiday.Rule) holiday.Rule {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rule.ID == "" {
		rule.ID = newID()
	}
	if rule.Position == 0 {
		rule.Position = len(s.rules) + 1
	}
	s.rules = append(s.rules, rule)
	return rule
}

func (s *Store) SeedConcreteHoliday(ruleID string, date time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.concrete = append(s.concrete, holiday.ConcreteHoliday{ID: newID(), RuleID: ruleID, Date: date})
}

func (r *holidayRepository) ListApplicable(ctx context.Context, branchID string) ([]holiday.Rule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []holiday.Rule
	for _, rule := range r.s.rules {
		if rule.IsActive && rule.AppliesTo(branchID) {
			out = append(out, rule)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *holidayRepository) ListConcrete(ctx context.Context, ruleIDs []string, start, end time.Time) ([]holiday.ConcreteHoliday, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	wanted := make(map[string]bool, len(ruleIDs))
	for _, id := range ruleIDs {
		wanted[id] = true
	}
	var out []holiday.ConcreteHoliday
	for _, c := range r.s.concrete {
		if wanted[c.RuleID] && !c.Date.Before(start) && !c.Date.After(end) {
			out = append(out, c)
		}
	}
	return out, nil
}

func NewHolidayRepository(s *Store) holiday.HolidayRepository {
	return &holidayRepository{s: s}
}
