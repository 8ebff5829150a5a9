package bonus

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeAutomatic Type = "automatic"
	TypeManual    Type = "manual"
)

type RuleType string

const (
	RulePunctuality RuleType = "punctuality"
	RuleAttendance  RuleType = "attendance"
)

const (
	DefaultLateThresholdMinutes = 15
	DefaultAbsenceThreshold     = 0
)

// Rules decide eligibility for an automatic bonus.
type Rules struct {
	Type              RuleType `json:"type"`
	ThresholdMinutes  *int     `json:"threshold_minutes,omitempty"`
	ThresholdAbsences *int     `json:"threshold_absences,omitempty"`
}

func (r Rules) LateThreshold() int {
	if r.ThresholdMinutes == nil {
		return DefaultLateThresholdMinutes
	}
	return *r.ThresholdMinutes
}

func (r Rules) AbsenceThreshold() int {
	if r.ThresholdAbsences == nil {
		return DefaultAbsenceThreshold
	}
	return *r.ThresholdAbsences
}

// Value implements driver.Valuer for the JSONB column.
func (r Rules) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for the JSONB column.
func (r *Rules) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	case nil:
		*r = Rules{}
		return nil
	}
	return fmt.Errorf("unsupported bonus rules type %T", value)
}

type Bonus struct {
	ID          string
	Name        string
	Description string
	Type        Type
	Amount      decimal.Decimal
	Rules       Rules
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "draft"
	ReportStatusFinalized ReportStatus = "finalized"
)

// Report holds the bonus outcome of one month. Period is the first day of
// that month.
type Report struct {
	ID          string
	Period      time.Time
	Status      ReportStatus
	GeneratedAt *time.Time
	FinalizedBy *string
	FinalizedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Details []Detail
}

// Metrics records what an eligibility decision was based on.
type Metrics struct {
	LateMinutes         *int `json:"late_minutes,omitempty"`
	UnjustifiedAbsences *int `json:"unjustified_absences,omitempty"`
}

func (m Metrics) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *Metrics) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = Metrics{}
		return nil
	}
	return fmt.Errorf("unsupported bonus metrics type %T", value)
}

type Detail struct {
	ID               string
	ReportID         string
	EmployeeID       string
	EmployeeName     string
	BranchName       string
	BonusID          string
	BonusName        string
	CalculatedAmount decimal.Decimal
	Metrics          Metrics
	CreatedAt        time.Time
}

func (d Detail) Earned() bool {
	return d.CalculatedAmount.IsPositive()
}
