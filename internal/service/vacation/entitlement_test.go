package vacation

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEntitlementCalculator_AnnualDays(t *testing.T) {
	c := NewEntitlementCalculator()

	tests := []struct {
		serviceYear int
		want        int64
	}{
		{0, 12}, {1, 12}, {2, 14}, {3, 16}, {4, 18}, {5, 20},
		{6, 22}, {10, 22}, {11, 24}, {15, 24}, {16, 26}, {20, 26},
		{21, 28}, {25, 28}, {26, 30}, {30, 30}, {31, 32}, {45, 32},
	}
	for _, tt := range tests {
		assert.True(t, decimal.NewFromInt(tt.want).Equal(c.AnnualDays(tt.serviceYear)),
			"service year %d", tt.serviceYear)
	}
}

func TestEntitlementCalculator_ServiceYear(t *testing.T) {
	c := NewEntitlementCalculator()
	hire := calendar.Date(2020, time.February, 29)

	assert.Equal(t, 1, c.ServiceYear(hire, calendar.Date(2020, time.March, 1)))
	assert.Equal(t, 1, c.ServiceYear(hire, calendar.Date(2021, time.February, 27)))
	assert.Equal(t, 2, c.ServiceYear(hire, calendar.Date(2021, time.February, 28)))
	assert.Equal(t, 5, c.ServiceYear(hire, calendar.Date(2024, time.February, 29)))
}

func TestEntitlementCalculator_WeeklyAccrual(t *testing.T) {
	c := NewEntitlementCalculator()

	assert.Equal(t, "0.23", c.WeeklyAccrual(1).String())
	assert.Equal(t, "0.4216", c.WeeklyAccrual(6).String())
	assert.Equal(t, "0.6133", c.WeeklyAccrual(40).String())
}

func TestEntitlementCalculator_ProportionalInitialBalance(t *testing.T) {
	c := NewEntitlementCalculator()
	hire := calendar.Date(2022, time.January, 1)

	assert.True(t, c.ProportionalInitialBalance(hire, calendar.Date(2021, time.June, 1)).IsZero())
	assert.True(t, c.ProportionalInitialBalance(hire, hire).IsZero())

	// Half of the 2024 service year (a leap year) at 16 days a year.
	half := c.ProportionalInitialBalance(hire, calendar.Date(2024, time.July, 2))
	assert.Equal(t, "8", half.String())
}
