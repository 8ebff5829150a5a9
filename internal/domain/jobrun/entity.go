package jobrun

import (
	"sync"
	"time"
)

const (
	JobPayrollCycle    = "payroll_cycle"
	JobVacationAccrual = "vacation_accrual"
	JobInitialBalances = "vacation_initial_balances"
	JobBonusReport     = "bonus_report"
	JobAttendanceFix   = "attendance_repair"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one recorded execution of a batch job.
type Run struct {
	ID          string
	JobType     string
	Status      Status
	Details     []byte
	StartedAt   time.Time
	CompletedAt *time.Time
}

type Failure struct {
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
}

// Result summarizes a per-employee batch. A failure for one employee never
// aborts the batch; it is collected here instead.
type Result struct {
	Processed int       `json:"processed"`
	Skipped   int       `json:"skipped"`
	Failures  []Failure `json:"failures,omitempty"`
}

// Collector accumulates a Result from concurrent workers.
type Collector struct {
	mu     sync.Mutex
	result Result
}

func (c *Collector) Processed() {
	c.mu.Lock()
	c.result.Processed++
	c.mu.Unlock()
}

func (c *Collector) Skipped() {
	c.mu.Lock()
	c.result.Skipped++
	c.mu.Unlock()
}

func (c *Collector) Failed(employeeID string, err error) {
	c.mu.Lock()
	c.result.Failures = append(c.result.Failures, Failure{EmployeeID: employeeID, Error: err.Error()})
	c.mu.Unlock()
}

func (c *Collector) Result() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.result
	out.Failures = append([]Failure(nil), c.result.Failures...)
	return out
}
