package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/shopspring/decimal"
)

type employeeRepository struct {
	s *Store
}

// SeedEmployee stores emp, assigning an id when empty.
func (s *Store) SeedEmployee(emp employee.Employee) employee.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	if emp.ID == "" {
		emp.ID = newID()
	}
	if emp.EmploymentStatus == "" {
		emp.EmploymentStatus = employee.EmploymentStatusActive
	}
	s.employees[emp.ID] = emp
	return emp
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	emp, ok := r.s.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

func (r *employeeRepository) GetByFaceID(ctx context.Context, faceID string) (employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, emp := range r.s.employees {
		if emp.FaceID != nil && *emp.FaceID == faceID {
			return emp, nil
		}
	}
	return employee.Employee{}, employee.ErrFaceNotEnrolled
}

func (r *employeeRepository) GetActiveDuring(ctx context.Context, start, end time.Time) ([]employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []employee.Employee
	for _, emp := range r.s.employees {
		if emp.EmploymentStatus == employee.EmploymentStatusActive && emp.ActiveDuring(start, end) {
			out = append(out, emp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BranchName != out[j].BranchName {
			return out[i].BranchName < out[j].BranchName
		}
		return out[i].FullName < out[j].FullName
	})
	return out, nil
}

func (r *employeeRepository) LockForUpdate(ctx context.Context, id string) error {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.s.employees[id]; !ok {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

func (r *employeeRepository) UpdateVacationBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	emp, ok := r.s.employees[id]
	if !ok {
		return employee.ErrEmployeeNotFound
	}
	emp.VacationBalance = balance
	r.s.employees[id] = emp
	return nil
}

func NewEmployeeRepository(s *Store) employee.EmployeeRepository {
	return &employeeRepository{s: s}
}
