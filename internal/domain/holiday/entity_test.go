package holiday

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinition_MatchesFixed(t *testing.T) {
	def := Fixed(time.September, 16)
	assert.True(t, def.Matches(calendar.Date(2024, 9, 16)))
	assert.True(t, def.Matches(calendar.Date(2025, 9, 16)))
	assert.False(t, def.Matches(calendar.Date(2024, 9, 17)))
	assert.False(t, def.Matches(calendar.Date(2024, 10, 16)))
}

func TestDefinition_MatchesNthWeekday(t *testing.T) {
	// Third Monday of November
	def := Dynamic(time.November, 3, 1)

	assert.True(t, def.Matches(calendar.Date(2024, 11, 18)))
	assert.False(t, def.Matches(calendar.Date(2024, 11, 11)))
	assert.False(t, def.Matches(calendar.Date(2024, 11, 25)))
	assert.True(t, def.Matches(calendar.Date(2025, 11, 17)))
}

func TestDefinition_MatchesLastWeekday(t *testing.T) {
	// Last Friday of May
	def := Dynamic(time.May, OrderLast, 5)

	assert.True(t, def.Matches(calendar.Date(2024, 5, 31)))
	assert.False(t, def.Matches(calendar.Date(2024, 5, 24)))
	assert.True(t, def.Matches(calendar.Date(2025, 5, 30)))
}

func TestDefinition_ExactlyOneOccurrencePerMonth(t *testing.T) {
	for year := 2020; year <= 2030; year++ {
		for month := time.January; month <= time.December; month++ {
			for weekday := 1; weekday <= 7; weekday++ {
				for _, order := range []Order{1, 2, 3, 4, OrderLast} {
					def := Dynamic(month, order, weekday)
					matches := 0
					start := calendar.Date(year, month, 1)
					for _, d := range calendar.EachDay(start, calendar.EndOfMonth(start)) {
						if def.Matches(d) {
							matches++
						}
					}
					require.Equal(t, 1, matches, "%d-%02d order %d weekday %d", year, month, order, weekday)
				}
			}
		}
	}
}

func TestDefinition_InvalidNeverMatches(t *testing.T) {
	cases := []Definition{
		{Kind: KindDynamic, Month: 11, Order: 6, Weekday: 1},
		{Kind: KindDynamic, Month: 11, Order: 1, Weekday: 0},
		{Kind: KindFixed, Month: 13, Day: 1},
		{Kind: "weird", Month: 1, Day: 1},
	}
	for _, def := range cases {
		assert.Error(t, def.Validate())
		for _, d := range calendar.EachDay(calendar.Date(2024, 1, 1), calendar.Date(2024, 12, 31)) {
			require.False(t, def.Matches(d))
		}
	}
}

func TestDefinition_OccurrenceIn(t *testing.T) {
	d, ok := Dynamic(time.February, 1, 1).OccurrenceIn(2025)
	require.True(t, ok)
	assert.Equal(t, calendar.Date(2025, 2, 3), d)

	d, ok = Fixed(time.December, 25).OccurrenceIn(2025)
	require.True(t, ok)
	assert.Equal(t, calendar.Date(2025, 12, 25), d)
}

func TestDefinition_UnmarshalJSON(t *testing.T) {
	cases := []struct {
		in   string
		want Definition
	}{
		{`{"type":"fixed","month":1,"day":1}`, Fixed(time.January, 1)},
		{`{"type":"dynamic","month":11,"order":3,"weekday":1}`, Dynamic(time.November, 3, 1)},
		{`{"type":"dynamic","month":11,"order":"tercer","weekday":"Lunes"}`, Dynamic(time.November, 3, 1)},
		{`{"type":"dynamic","month":5,"order":"last","weekday":"friday"}`, Dynamic(time.May, OrderLast, 5)},
		{`{"type":"dynamic","month":5,"order":5,"weekday":"sábado"}`, Dynamic(time.May, OrderLast, 6)},
	}
	for _, c := range cases {
		var got Definition
		require.NoError(t, json.Unmarshal([]byte(c.in), &got), c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	var bad Definition
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"type":"dynamic","month":5,"order":"sometimes","weekday":1}`), &bad), ErrInvalidDefinition)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"type":"dynamic","month":5,"order":1,"weekday":"funday"}`), &bad), ErrInvalidDefinition)
}

func TestDefinition_ValueScan(t *testing.T) {
	original := Dynamic(time.March, 3, 1)
	v, err := original.Value()
	require.NoError(t, err)

	var scanned Definition
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, original, scanned)
}

func TestRule_AppliesTo(t *testing.T) {
	universal := Rule{Name: "Año Nuevo"}
	scoped := Rule{Name: "Feria local", BranchIDs: []string{"b1"}}

	assert.True(t, universal.AppliesTo("b2"))
	assert.True(t, scoped.AppliesTo("b1"))
	assert.False(t, scoped.AppliesTo("b2"))
}
