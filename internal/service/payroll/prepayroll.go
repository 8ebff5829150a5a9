package payroll

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/incident"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/reconciliation"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

const detectedAbsenceName = "Unexcused absence (detected)"

// PrePayroll implements payroll.PayrollService.
func (s *PayrollServiceImpl) PrePayroll(ctx context.Context, periodID string) (payroll.PrePayrollReport, error) {
	period, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return payroll.PrePayrollReport{}, err
	}

	employees, err := s.employeeRepo.GetActiveDuring(ctx, period.StartDate, period.EndDate)
	if err != nil {
		return payroll.PrePayrollReport{}, fmt.Errorf("failed to list employees: %w", err)
	}

	notes, err := s.noteRepo.ListByPeriod(ctx, period.ID)
	if err != nil {
		return payroll.PrePayrollReport{}, fmt.Errorf("failed to load period notes: %w", err)
	}

	now := s.now()
	today := calendar.DateOf(now, s.loc)
	rows := make([]payroll.PrePayrollRow, len(employees))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, emp := range employees {
		g.Go(func() error {
			results, err := s.reconciler.ReconcileEmployee(gCtx, emp, period.StartDate, period.EndDate, today)
			if err != nil {
				return fmt.Errorf("failed to reconcile employee %s: %w", emp.ID, err)
			}
			rows[i] = s.prePayrollRow(emp, results)
			rows[i].Comments = notes[emp.ID].Comments
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return payroll.PrePayrollReport{}, err
	}

	report := payroll.PrePayrollReport{
		Period:      payroll.ToPeriodResponse(period),
		GeneratedAt: now,
	}
	for i, emp := range employees {
		n := len(report.Branches)
		if n == 0 || report.Branches[n-1].BranchName != emp.BranchName {
			report.Branches = append(report.Branches, payroll.BranchPrePayroll{BranchName: emp.BranchName})
			n++
		}
		report.Branches[n-1].Rows = append(report.Branches[n-1].Rows, rows[i])
	}
	return report, nil
}

func (s *PayrollServiceImpl) prePayrollRow(emp employee.Employee, results []reconciliation.DayResult) payroll.PrePayrollRow {
	row := payroll.PrePayrollRow{
		EmployeeID:   emp.ID,
		EmployeeCode: emp.EmployeeCode,
		FullName:     emp.FullName,
		Incidents:    []payroll.IncidentLine{},
	}

	lines := make(map[string]int)
	addLine := func(name string, code incident.Code, date time.Time) {
		key := string(code) + "|" + name
		idx, ok := lines[key]
		if !ok {
			idx = len(row.Incidents)
			lines[key] = idx
			row.Incidents = append(row.Incidents, payroll.IncidentLine{Name: name, Code: code})
		}
		row.Incidents[idx].Dates = append(row.Incidents[idx].Dates, calendar.Key(date))
	}

	for _, day := range results {
		if day.BeforeHire || (emp.TerminationDate != nil && day.Date.After(*emp.TerminationDate)) {
			continue
		}
		row.DaysInPeriod++
		row.LateMinutes += day.EffectiveLateMinutes()
		row.ExtraMinutes += day.ExtraMinutes

		switch day.Classification {
		case reconciliation.ClassIncident:
			addLine(day.IncidentName, day.IncidentCode, day.Date)
			if s.unpaid[day.IncidentCode] {
				row.UnpaidDays++
			}
		case reconciliation.ClassAutoAbsence:
			addLine(detectedAbsenceName, incident.CodeUnjustifiedAbsence, day.Date)
			row.UnpaidDays++
		}
	}

	row.DaysToPay = row.DaysInPeriod - row.UnpaidDays
	return row
}

var prePayrollHeader = []interface{}{
	"Employee code", "Name", "Days in period", "Unpaid days", "Days to pay",
	"Late minutes", "Extra minutes", "Incidents", "Comments",
}

// ExportPrePayroll implements payroll.PayrollService.
// Each branch gets its own sheet.
func (s *PayrollServiceImpl) ExportPrePayroll(ctx context.Context, periodID string, w io.Writer) error {
	report, err := s.PrePayroll(ctx, periodID)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	if len(report.Branches) == 0 {
		if err := f.SetSheetRow(first, "A1", &prePayrollHeader); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		return f.Write(w)
	}

	used := make(map[string]bool)
	for i, branch := range report.Branches {
		name := sheetName(branch.BranchName, used)
		if i == 0 {
			if err := f.SetSheetName(first, name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", name, err)
		}

		title := []interface{}{fmt.Sprintf("Week %d: %s to %s, paid %s", report.Period.WeekNumber,
			report.Period.StartDate, report.Period.EndDate, report.Period.PaymentDate)}
		if err := f.SetSheetRow(name, "A1", &title); err != nil {
			return fmt.Errorf("failed to write title: %w", err)
		}
		if err := f.SetSheetRow(name, "A2", &prePayrollHeader); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}

		for j, row := range branch.Rows {
			cell, err := excelize.CoordinatesToCellName(1, j+3)
			if err != nil {
				return err
			}
			values := []interface{}{
				row.EmployeeCode, row.FullName, row.DaysInPeriod, row.UnpaidDays, row.DaysToPay,
				row.LateMinutes, row.ExtraMinutes, incidentSummary(row.Incidents), row.Comments,
			}
			if err := f.SetSheetRow(name, cell, &values); err != nil {
				return fmt.Errorf("failed to write row for %s: %w", row.EmployeeCode, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func incidentSummary(lines []payroll.IncidentLine) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%s (%s): %s", l.Name, l.Code, strings.Join(l.Dates, ", ")))
	}
	return strings.Join(parts, "; ")
}

// sheetName makes a unique sheet name within Excel's 31 character limit.
func sheetName(branch string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '-'
		}
		return r
	}, strings.TrimSpace(branch))
	if name == "" {
		name = "No branch"
	}
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	base := name
	for n := 2; used[name]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		r := []rune(base)
		if len(r)+len(suffix) > 31 {
			r = r[:31-len(suffix)]
		}
		name = string(r) + suffix
	}
	used[name] = true
	return name
}
