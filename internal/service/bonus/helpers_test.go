package bonus

import "github.com/cmlabs-hris/timeclock-backend-go/internal/domain/reconciliation"

func reconciliationSummary(lateMinutes, absences int) reconciliation.Summary {
	return reconciliation.Summary{LateMinutes: lateMinutes, UnexcusedAbsences: absences}
}
