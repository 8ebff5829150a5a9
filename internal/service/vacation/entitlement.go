package vacation

import (
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
	"github.com/shopspring/decimal"
)

// WeeksPerYear is the mean number of weeks in a Gregorian year.
var WeeksPerYear = decimal.RequireFromString("52.1775")

type entitlementBand struct {
	minYear int
	maxYear int // 0 means no upper bound
	days    int64
}

var statutoryBands = []entitlementBand{
	{minYear: 1, maxYear: 1, days: 12},
	{minYear: 2, maxYear: 2, days: 14},
	{minYear: 3, maxYear: 3, days: 16},
	{minYear: 4, maxYear: 4, days: 18},
	{minYear: 5, maxYear: 5, days: 20},
	{minYear: 6, maxYear: 10, days: 22},
	{minYear: 11, maxYear: 15, days: 24},
	{minYear: 16, maxYear: 20, days: 26},
	{minYear: 21, maxYear: 25, days: 28},
	{minYear: 26, maxYear: 30, days: 30},
	{minYear: 31, days: 32},
}

// EntitlementCalculator maps seniority to annual vacation days.
type EntitlementCalculator struct {
	bands []entitlementBand
}

func NewEntitlementCalculator() *EntitlementCalculator {
	return &EntitlementCalculator{bands: statutoryBands}
}

// ServiceYear is the year of service the employee is in on asOf; the first
// year after hire is year 1.
func (c *EntitlementCalculator) ServiceYear(hireDate, asOf time.Time) int {
	return calendar.CompletedYears(hireDate, asOf) + 1
}

// AnnualDays returns the entitlement for a service year.
func (c *EntitlementCalculator) AnnualDays(serviceYear int) decimal.Decimal {
	if serviceYear < 1 {
		serviceYear = 1
	}
	for _, b := range c.bands {
		if serviceYear >= b.minYear && (b.maxYear == 0 || serviceYear <= b.maxYear) {
			return decimal.NewFromInt(b.days)
		}
	}
	return decimal.Zero
}

// WeeklyAccrual is the annual entitlement spread over WeeksPerYear, rounded
// to four decimal places.
func (c *EntitlementCalculator) WeeklyAccrual(serviceYear int) decimal.Decimal {
	return c.AnnualDays(serviceYear).Div(WeeksPerYear).Round(4)
}

// ProportionalInitialBalance is the share of the current service year's
// entitlement earned between the last anniversary and asOf.
func (c *EntitlementCalculator) ProportionalInitialBalance(hireDate, asOf time.Time) decimal.Decimal {
	hireDate, asOf = calendar.Normalize(hireDate), calendar.Normalize(asOf)
	if asOf.Before(hireDate) {
		return decimal.Zero
	}
	completed := calendar.CompletedYears(hireDate, asOf)
	anniversary := calendar.AddYears(hireDate, completed)
	next := calendar.AddYears(hireDate, completed+1)

	elapsed := decimal.NewFromInt(int64(calendar.DaysInclusive(anniversary, asOf) - 1))
	span := decimal.NewFromInt(int64(calendar.DaysInclusive(anniversary, next) - 1))
	return c.AnnualDays(completed + 1).Mul(elapsed).Div(span).Round(4)
}
