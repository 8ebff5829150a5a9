package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/bonus"
)

type bonusRepository struct {
	s *Store
}

func (s *Store) SeedBonus(b bonus.Bonus) bonus.Bonus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = newID()
	}
	s.bonuses = append(s.bonuses, b)
	return b
}

func (r *bonusRepository) ListAutomatic(ctx context.Context) ([]bonus.Bonus, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []bonus.Bonus
	for _, b := range r.s.bonuses {
		if b.IsActive && b.Type == bonus.TypeAutomatic {
			out = append(out, b)
		}
	}
	return out, nil
}

func NewBonusRepository(s *Store) bonus.BonusRepository {
	return &bonusRepository{s: s}
}

type reportRepository struct {
	s *Store
}

func (r *reportRepository) GetByID(ctx context.Context, id string) (bonus.Report, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rep, ok := r.s.reports[id]
	if !ok {
		return bonus.Report{}, bonus.ErrReportNotFound
	}
	return rep, nil
}

func (r *reportRepository) GetByPeriod(ctx context.Context, period time.Time) (bonus.Report, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, rep := range r.s.reports {
		if rep.Period.Equal(period) {
			rep.Details = append([]bonus.Detail(nil), r.s.details[rep.ID]...)
			return rep, nil
		}
	}
	return bonus.Report{}, bonus.ErrReportNotFound
}

func (r *reportRepository) FindOrCreateDraft(ctx context.Context, period time.Time) (bonus.Report, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rep := range r.s.reports {
		if rep.Period.Equal(period) {
			return rep, nil
		}
	}
	now := time.Now()
	rep := bonus.Report{
		ID:        newID(),
		Period:    period,
		Status:    bonus.ReportStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.reports[rep.ID] = rep
	return rep, nil
}

func (r *reportRepository) ReplaceDetails(ctx context.Context, reportID string, details []bonus.Detail, generatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rep, ok := r.s.reports[reportID]
	if !ok {
		return bonus.ErrReportNotFound
	}
	stored := make([]bonus.Detail, len(details))
	for i, d := range details {
		d.ID = newID()
		d.ReportID = reportID
		d.CreatedAt = generatedAt
		stored[i] = d
	}
	r.s.details[reportID] = stored
	rep.GeneratedAt = &generatedAt
	rep.UpdatedAt = generatedAt
	r.s.reports[reportID] = rep
	return nil
}

func (r *reportRepository) Finalize(ctx context.Context, reportID string, userID *string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rep, ok := r.s.reports[reportID]
	if !ok {
		return bonus.ErrReportNotFound
	}
	if rep.Status != bonus.ReportStatusDraft {
		return bonus.ErrReportFinalized
	}
	rep.Status = bonus.ReportStatusFinalized
	rep.FinalizedBy = userID
	rep.FinalizedAt = &at
	rep.UpdatedAt = at
	r.s.reports[reportID] = rep
	return nil
}

func NewReportRepository(s *Store) bonus.ReportRepository {
	return &reportRepository{s: s}
}
