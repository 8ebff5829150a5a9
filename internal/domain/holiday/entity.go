package holiday

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
)

type Rule struct {
	ID         string
	Name       string
	IsActive   bool
	Definition Definition
	BranchIDs  []string // empty means the rule applies to every branch
	Position   int      // catalog order
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AppliesTo reports whether the rule is scoped to branchID.
func (r Rule) AppliesTo(branchID string) bool {
	if len(r.BranchIDs) == 0 {
		return true
	}
	for _, id := range r.BranchIDs {
		if id == branchID {
			return true
		}
	}
	return false
}

// ConcreteHoliday pins a rule to an explicit date.
type ConcreteHoliday struct {
	ID     string
	RuleID string
	Date   time.Time
}

type Kind string

const (
	KindFixed   Kind = "fixed"
	KindDynamic Kind = "dynamic"
)

// Order is the nth occurrence of a weekday within a month.
type Order int

const OrderLast Order = -1

// Definition is either fixed (Month, Day) or dynamic (Month, Order, Weekday).
// Weekday uses ISO numbering, Monday=1 .. Sunday=7.
type Definition struct {
	Kind    Kind
	Month   int
	Day     int
	Order   Order
	Weekday int
}

func Fixed(month time.Month, day int) Definition {
	return Definition{Kind: KindFixed, Month: int(month), Day: day}
}

func Dynamic(month time.Month, order Order, weekday int) Definition {
	return Definition{Kind: KindDynamic, Month: int(month), Order: order, Weekday: weekday}
}

func (d Definition) Validate() error {
	if d.Month < 1 || d.Month > 12 {
		return fmt.Errorf("%w: month %d", ErrInvalidDefinition, d.Month)
	}
	switch d.Kind {
	case KindFixed:
		if d.Day < 1 || d.Day > 31 {
			return fmt.Errorf("%w: day %d", ErrInvalidDefinition, d.Day)
		}
	case KindDynamic:
		if d.Order != OrderLast && (d.Order < 1 || d.Order > 4) {
			return fmt.Errorf("%w: order %d", ErrInvalidDefinition, d.Order)
		}
		if d.Weekday < 1 || d.Weekday > 7 {
			return fmt.Errorf("%w: weekday %d", ErrInvalidDefinition, d.Weekday)
		}
	default:
		return fmt.Errorf("%w: kind %q", ErrInvalidDefinition, d.Kind)
	}
	return nil
}

// Matches reports whether date satisfies the definition. Invalid definitions
// never match.
func (d Definition) Matches(date time.Time) bool {
	if d.Validate() != nil || int(date.Month()) != d.Month {
		return false
	}
	switch d.Kind {
	case KindFixed:
		return date.Day() == d.Day
	case KindDynamic:
		if calendar.IsoWeekday(date) != d.Weekday {
			return false
		}
		if d.Order == OrderLast {
			return calendar.AddDays(date, 7).Month() != date.Month()
		}
		return (date.Day()+6)/7 == int(d.Order)
	}
	return false
}

// OccurrenceIn returns the date the definition falls on in year.
func (d Definition) OccurrenceIn(year int) (time.Time, bool) {
	if d.Validate() != nil {
		return time.Time{}, false
	}
	first := calendar.Date(year, time.Month(d.Month), 1)
	for day := first; day.Month() == first.Month(); day = calendar.AddDays(day, 1) {
		if d.Matches(day) {
			return day, true
		}
	}
	return time.Time{}, false
}

type definitionJSON struct {
	Type    Kind            `json:"type"`
	Month   int             `json:"month"`
	Day     int             `json:"day,omitempty"`
	Order   json.RawMessage `json:"order,omitempty"`
	Weekday json.RawMessage `json:"weekday,omitempty"`
}

func (d Definition) MarshalJSON() ([]byte, error) {
	out := map[string]any{"type": d.Kind, "month": d.Month}
	switch d.Kind {
	case KindFixed:
		out["day"] = d.Day
	case KindDynamic:
		if d.Order == OrderLast {
			out["order"] = "last"
		} else {
			out["order"] = int(d.Order)
		}
		out["weekday"] = d.Weekday
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts ordinals as 1..4, "last" or 5, and the English or
// Spanish words; weekdays as 1..7 or English or Spanish names.
func (d *Definition) UnmarshalJSON(data []byte) error {
	var raw definitionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	def := Definition{Kind: Kind(strings.ToLower(string(raw.Type))), Month: raw.Month, Day: raw.Day}
	if def.Kind == KindDynamic {
		order, err := parseOrder(raw.Order)
		if err != nil {
			return err
		}
		weekday, err := parseWeekday(raw.Weekday)
		if err != nil {
			return err
		}
		def.Order, def.Weekday = order, weekday
	}
	*d = def
	return nil
}

var ordinalWords = map[string]Order{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "last": OrderLast,
	"primero": 1, "primer": 1, "segundo": 2, "tercero": 3, "tercer": 3, "cuarto": 4,
	"último": OrderLast, "ultimo": OrderLast,
}

var weekdayNames = map[string]int{
	"monday": 1, "tuesday": 2, "wednesday": 3, "thursday": 4, "friday": 5, "saturday": 6, "sunday": 7,
	"lunes": 1, "martes": 2, "miércoles": 3, "miercoles": 3, "jueves": 4, "viernes": 5,
	"sábado": 6, "sabado": 6, "domingo": 7,
}

func parseOrder(raw json.RawMessage) (Order, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		if n == 5 {
			return OrderLast, nil
		}
		return Order(n), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("%w: order %s", ErrInvalidDefinition, string(raw))
	}
	o, ok := ordinalWords[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: order %q", ErrInvalidDefinition, s)
	}
	return o, nil
}

func parseWeekday(raw json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("%w: weekday %s", ErrInvalidDefinition, string(raw))
	}
	w, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: weekday %q", ErrInvalidDefinition, s)
	}
	return w, nil
}

// Value implements driver.Valuer for the JSONB column.
func (d Definition) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner for the JSONB column.
func (d *Definition) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*d = Definition{}
		return nil
	default:
		return fmt.Errorf("unsupported holiday definition type %T", value)
	}
	return json.Unmarshal(data, d)
}
