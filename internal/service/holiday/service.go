package holiday

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/holiday"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
)

type HolidayServiceImpl struct {
	holidayRepo holiday.HolidayRepository
}

// Resolve implements holiday.HolidayService.
// Rules are evaluated in catalog order and the first match names the day.
// Concrete dates are consulted only for days no rule definition matched.
func (s *HolidayServiceImpl) Resolve(ctx context.Context, emp employee.Employee, start, end time.Time) (map[string]string, error) {
	rules, err := s.holidayRepo.ListApplicable(ctx, emp.BranchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holiday rules: %w", err)
	}

	applicable := make([]holiday.Rule, 0, len(rules))
	ruleIDs := make([]string, 0, len(rules))
	for _, r := range rules {
		if !r.IsActive || !r.AppliesTo(emp.BranchID) {
			continue
		}
		applicable = append(applicable, r)
		ruleIDs = append(ruleIDs, r.ID)
	}

	result := make(map[string]string)
	if len(applicable) == 0 {
		return result, nil
	}

	concrete, err := s.holidayRepo.ListConcrete(ctx, ruleIDs, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list concrete holidays: %w", err)
	}
	pinned := make(map[string]map[string]bool, len(concrete))
	for _, c := range concrete {
		key := calendar.Key(c.Date)
		if pinned[key] == nil {
			pinned[key] = make(map[string]bool)
		}
		pinned[key][c.RuleID] = true
	}

	for _, day := range calendar.EachDay(start, end) {
		key := calendar.Key(day)
		if name, ok := firstMatch(applicable, day); ok {
			result[key] = name
			continue
		}
		for _, r := range applicable {
			if pinned[key][r.ID] {
				result[key] = r.Name
				break
			}
		}
	}

	return result, nil
}

func firstMatch(rules []holiday.Rule, day time.Time) (string, bool) {
	for _, r := range rules {
		if r.Definition.Matches(day) {
			return r.Name, true
		}
	}
	return "", false
}

func NewHolidayService(holidayRepo holiday.HolidayRepository) holiday.HolidayService {
	return &HolidayServiceImpl{holidayRepo: holidayRepo}
}
