package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateOf_UsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/Mexico_City")
	require.NoError(t, err)

	// 03:00 UTC on the 10th is still the 9th in Mexico City
	instant := time.Date(2024, 1, 10, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, Date(2024, 1, 9), DateOf(instant, loc))
	assert.Equal(t, Date(2024, 1, 10), DateOf(instant, time.UTC))
}

func TestDaysInclusive(t *testing.T) {
	cases := []struct {
		start, end time.Time
		want       int
	}{
		{Date(2024, 1, 1), Date(2024, 1, 1), 1},
		{Date(2024, 1, 1), Date(2024, 1, 7), 7},
		{Date(2024, 2, 28), Date(2024, 3, 1), 3},
		{Date(2024, 1, 2), Date(2024, 1, 1), 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, DaysInclusive(c.start, c.end), "%s..%s", Key(c.start), Key(c.end))
	}
}

func TestEachDay(t *testing.T) {
	days := EachDay(Date(2024, 12, 30), Date(2025, 1, 2))
	require.Len(t, days, 4)
	assert.Equal(t, "2024-12-30", Key(days[0]))
	assert.Equal(t, "2025-01-02", Key(days[3]))
}

func TestIsoWeekday(t *testing.T) {
	assert.Equal(t, 1, IsoWeekday(Date(2024, 11, 18))) // Monday
	assert.Equal(t, 6, IsoWeekday(Date(2024, 11, 23))) // Saturday
	assert.Equal(t, 7, IsoWeekday(Date(2024, 11, 24))) // Sunday
}

func TestStartOfIsoWeek(t *testing.T) {
	assert.Equal(t, Date(2024, 11, 18), StartOfIsoWeek(Date(2024, 11, 24)))
	assert.Equal(t, Date(2024, 11, 18), StartOfIsoWeek(Date(2024, 11, 18)))
}

func TestEndOfMonth(t *testing.T) {
	assert.Equal(t, Date(2024, 2, 29), EndOfMonth(Date(2024, 2, 10)))
	assert.Equal(t, Date(2023, 2, 28), EndOfMonth(Date(2023, 2, 10)))
	assert.Equal(t, Date(2024, 12, 31), EndOfMonth(Date(2024, 12, 1)))
}

func TestCompletedYears(t *testing.T) {
	hire := Date(2020, 6, 15)
	assert.Equal(t, 0, CompletedYears(hire, Date(2021, 6, 14)))
	assert.Equal(t, 1, CompletedYears(hire, Date(2021, 6, 15)))
	assert.Equal(t, 4, CompletedYears(hire, Date(2024, 12, 1)))
	assert.Equal(t, 0, CompletedYears(hire, Date(2019, 1, 1)))

	leap := Date(2020, 2, 29)
	assert.Equal(t, 1, CompletedYears(leap, Date(2021, 2, 28)))
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:00")
	require.NoError(t, err)
	assert.Equal(t, ClockTime(540), c)

	c, err = ParseClock("18:30:00")
	require.NoError(t, err)
	assert.Equal(t, ClockTime(1110), c)
	assert.Equal(t, "18:30", c.String())

	for _, bad := range []string{"", "9", "24:00", "12:60", "ab:cd", "10:00:99"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestClockTime_On(t *testing.T) {
	loc, err := time.LoadLocation("America/Mexico_City")
	require.NoError(t, err)

	at := MustClock("09:00").On(Date(2024, 11, 20), loc)
	assert.Equal(t, 9, at.In(loc).Hour())
	assert.Equal(t, Date(2024, 11, 20), DateOf(at, loc))
	assert.Equal(t, MustClock("09:00"), ClockOf(at, loc))
}

func TestAbsMinutes(t *testing.T) {
	a := time.Date(2024, 1, 1, 9, 10, 0, 0, time.UTC)
	b := time.Date(2024, 1, 1, 18, 0, 59, 0, time.UTC)
	assert.Equal(t, 530, AbsMinutes(a, b))
	assert.Equal(t, 530, AbsMinutes(b, a))
}
