package vacation

import (
	"time"

	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryInitial    EntryType = "initial"
	EntryEarned     EntryType = "earned"
	EntryTaken      EntryType = "taken"
	EntryAdjustment EntryType = "adjustment"
)

// Entry is one signed movement in an employee's vacation ledger. Balance is
// the running total after this entry in (Date, ID) order.
type Entry struct {
	ID          string
	EmployeeID  string
	Date        time.Time
	Type        EntryType
	Days        decimal.Decimal
	Balance     decimal.Decimal
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Less orders entries by date then id.
func Less(a, b Entry) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.ID < b.ID
}

type Ledger struct {
	EmployeeID string
	Balance    decimal.Decimal
	Entries    []Entry
}
