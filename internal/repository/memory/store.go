// Package memory provides in-memory repositories for tests and local runs.
package memory

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/bonus"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/holiday"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/incident"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/jobrun"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/vacation"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/google/uuid"
)

// Store holds every aggregate behind one lock. Repositories built from the
// same Store see each other's writes.
type Store struct {
	mu sync.RWMutex

	employees    map[string]employee.Employee
	schedules    map[string]schedule.WorkSchedule
	assignments  []schedule.EmployeeScheduleAssignment
	rules        []holiday.Rule
	concrete     []holiday.ConcreteHoliday
	events       map[string]attendance.Event
	types        map[string]incident.Type
	incidents    map[string]incident.Incident
	incidentDays map[dayKey]string
	periods      map[string]payroll.Period
	notes        map[string]payroll.PeriodNote
	ledger       map[string]vacation.Entry
	bonuses      []bonus.Bonus
	reports      map[string]bonus.Report
	details      map[string][]bonus.Detail
	runs         map[string]jobrun.Run

	// txMu serializes WithinTransaction callers.
	txMu sync.Mutex
}

type dayKey struct {
	employeeID string
	day        string
}

func NewStore() *Store {
	return &Store{
		employees:    make(map[string]employee.Employee),
		schedules:    make(map[string]schedule.WorkSchedule),
		events:       make(map[string]attendance.Event),
		types:        make(map[string]incident.Type),
		incidents:    make(map[string]incident.Incident),
		incidentDays: make(map[dayKey]string),
		periods:      make(map[string]payroll.Period),
		notes:        make(map[string]payroll.PeriodNote),
		ledger:       make(map[string]vacation.Entry),
		reports:      make(map[string]bonus.Report),
		details:      make(map[string][]bonus.Detail),
		runs:         make(map[string]jobrun.Run),
	}
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

type txMarker struct{}

type transactor struct {
	s *Store
}

// WithinTransaction runs fn while holding the store's transaction lock. It
// gives isolation between concurrent callers but no rollback.
func (t *transactor) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	if ctx.Value(txMarker{}) != nil {
		return fn(ctx)
	}
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()
	return fn(context.WithValue(ctx, txMarker{}, true))
}

func (t *transactor) WithinSerializableTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	return t.WithinTransaction(ctx, fn)
}

func NewTransactor(s *Store) database.Transactor {
	return &transactor{s: s}
}
