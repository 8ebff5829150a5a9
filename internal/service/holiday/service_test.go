package holiday

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/holiday"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolidayService_Resolve_RulesAndScopes(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	store.SeedHolidayRule(holiday.Rule{
		Name:       "Constitucion",
		IsActive:   true,
		Definition: holiday.Dynamic(time.February, 1, 1),
	})
	store.SeedHolidayRule(holiday.Rule{
		Name:       "Fiesta local",
		IsActive:   true,
		Definition: holiday.Fixed(time.February, 14),
		BranchIDs:  []string{"branch-2"},
	})
	store.SeedHolidayRule(holiday.Rule{
		Name:       "Inactivo",
		IsActive:   false,
		Definition: holiday.Fixed(time.February, 20),
	})

	svc := NewHolidayService(memory.NewHolidayRepository(store))
	emp := employee.Employee{ID: "emp-1", BranchID: "branch-1"}

	// Act
	got, err := svc.Resolve(ctx, emp, calendar.Date(2025, time.February, 1), calendar.Date(2025, time.February, 28))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"2025-02-03": "Constitucion"}, got)

	emp.BranchID = "branch-2"
	got, err = svc.Resolve(ctx, emp, calendar.Date(2025, time.February, 1), calendar.Date(2025, time.February, 28))
	require.NoError(t, err)
	assert.Equal(t, "Fiesta local", got["2025-02-14"])
	assert.Len(t, got, 2)
}

func TestHolidayService_Resolve_CatalogOrderWins(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	store.SeedHolidayRule(holiday.Rule{Name: "Primero", IsActive: true, Definition: holiday.Fixed(time.May, 1)})
	store.SeedHolidayRule(holiday.Rule{Name: "Segundo", IsActive: true, Definition: holiday.Fixed(time.May, 1)})

	svc := NewHolidayService(memory.NewHolidayRepository(store))
	day := calendar.Date(2024, time.May, 1)

	got, err := svc.Resolve(ctx, employee.Employee{ID: "emp-1"}, day, day)

	require.NoError(t, err)
	assert.Equal(t, "Primero", got["2024-05-01"])
}

func TestHolidayService_Resolve_ConcreteDates(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	// A rule whose definition is invalid only ever applies through pinned dates.
	bridge := store.SeedHolidayRule(holiday.Rule{
		Name:       "Puente",
		IsActive:   true,
		Definition: holiday.Definition{Kind: holiday.KindFixed, Month: 13, Day: 1},
	})
	store.SeedConcreteHoliday(bridge.ID, calendar.Date(2024, time.November, 15))
	store.SeedConcreteHoliday(bridge.ID, calendar.Date(2025, time.November, 14))

	svc := NewHolidayService(memory.NewHolidayRepository(store))

	got, err := svc.Resolve(ctx, employee.Employee{ID: "emp-1"},
		calendar.Date(2024, time.November, 1), calendar.Date(2024, time.November, 30))

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"2024-11-15": "Puente"}, got)
}

func TestHolidayService_Resolve_LastWeekday(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.SeedHolidayRule(holiday.Rule{
		Name:       "Ultimo lunes",
		IsActive:   true,
		Definition: holiday.Dynamic(time.May, holiday.OrderLast, 1),
	})
	svc := NewHolidayService(memory.NewHolidayRepository(store))

	got, err := svc.Resolve(ctx, employee.Employee{ID: "emp-1"},
		calendar.Date(2024, time.May, 1), calendar.Date(2024, time.May, 31))

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"2024-05-27": "Ultimo lunes"}, got)
}
