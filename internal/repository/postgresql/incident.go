package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/incident"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// ========== Incident types ==========

type typeRepository struct {
	db *database.DB
}

// GetByID implements incident.TypeRepository.
func (r *typeRepository) GetByID(ctx context.Context, id string) (incident.Type, error) {
	q := GetQuerier(ctx, r.db)

	var t incident.Type
	err := q.QueryRow(ctx, `SELECT id, name, code FROM incident_types WHERE id = $1`, id).Scan(&t.ID, &t.Name, &t.Code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return incident.Type{}, incident.ErrIncidentTypeNotFound
		}
		return incident.Type{}, fmt.Errorf("failed to get incident type: %w", err)
	}
	return t, nil
}

// GetByCodes implements incident.TypeRepository.
func (r *typeRepository) GetByCodes(ctx context.Context, codes []incident.Code) (map[incident.Code]incident.Type, error) {
	q := GetQuerier(ctx, r.db)

	raw := make([]string, len(codes))
	for i, c := range codes {
		raw[i] = string(c)
	}

	rows, err := q.Query(ctx, `SELECT id, name, code FROM incident_types WHERE code = ANY($1)`, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to list incident types: %w", err)
	}
	defer rows.Close()

	out := make(map[incident.Code]incident.Type, len(codes))
	for rows.Next() {
		var t incident.Type
		if err := rows.Scan(&t.ID, &t.Name, &t.Code); err != nil {
			return nil, fmt.Errorf("failed to scan incident type: %w", err)
		}
		out[t.Code] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate incident types: %w", err)
	}
	return out, nil
}

func NewIncidentTypeRepository(db *database.DB) incident.TypeRepository {
	return &typeRepository{db: db}
}

// ========== Incidents ==========

type incidentRepository struct {
	db *database.DB
}

const incidentColumns = `
	i.id, i.employee_id, i.incident_type_id, t.id, t.name, t.code,
	i.start_date, i.end_date, i.status, i.notes, i.created_at, i.updated_at
`

func scanIncident(row pgx.Row) (incident.Incident, error) {
	var inc incident.Incident
	err := row.Scan(
		&inc.ID, &inc.EmployeeID, &inc.TypeID, &inc.Type.ID, &inc.Type.Name, &inc.Type.Code,
		&inc.StartDate, &inc.EndDate, &inc.Status, &inc.Notes, &inc.CreatedAt, &inc.UpdatedAt,
	)
	return inc, err
}

// Create implements incident.IncidentRepository.
func (r *incidentRepository) Create(ctx context.Context, inc incident.Incident) (incident.Incident, error) {
	created, ok, err := r.CreateIfDayFree(ctx, inc)
	if err != nil {
		return incident.Incident{}, err
	}
	if !ok {
		return incident.Incident{}, incident.ErrDayAlreadyCovered
	}
	return created, nil
}

// CreateIfDayFree implements incident.IncidentRepository. The incident and
// its day claims are written in one savepoint; a claim that collides with
// another incident rolls both back.
func (r *incidentRepository) CreateIfDayFree(ctx context.Context, inc incident.Incident) (incident.Incident, bool, error) {
	if inc.EndDate.Before(inc.StartDate) {
		return incident.Incident{}, false, incident.ErrInvalidRange
	}
	if inc.ID == "" {
		inc.ID = newID()
	}
	if inc.Status == "" {
		inc.Status = incident.StatusApproved
	}

	created := true
	err := withSavepoint(ctx, r.db, func(q database.Querier) error {
		var covered bool
		err := q.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM incident_days
				WHERE employee_id = $1 AND day BETWEEN $2 AND $3
			)
		`, inc.EmployeeID, inc.StartDate, inc.EndDate).Scan(&covered)
		if err != nil {
			return fmt.Errorf("failed to check incident days: %w", err)
		}
		if covered {
			created = false
			return nil
		}

		err = q.QueryRow(ctx, `
			INSERT INTO incidents (id, employee_id, incident_type_id, start_date, end_date, status, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING created_at, updated_at
		`, inc.ID, inc.EmployeeID, inc.TypeID, inc.StartDate, inc.EndDate, inc.Status, inc.Notes,
		).Scan(&inc.CreatedAt, &inc.UpdatedAt)
		if err != nil {
			if database.IsForeignKeyViolation(err, "incidents_incident_type_id_fkey") {
				return incident.ErrIncidentTypeNotFound
			}
			return fmt.Errorf("failed to insert incident: %w", err)
		}

		_, err = q.Exec(ctx, `
			INSERT INTO incident_days (employee_id, day, incident_id)
			SELECT $1, d::date, $2
			FROM generate_series($3::date, $4::date, interval '1 day') AS d
		`, inc.EmployeeID, inc.ID, inc.StartDate, inc.EndDate)
		if err != nil {
			return fmt.Errorf("failed to claim incident days: %w", err)
		}

		return q.QueryRow(ctx, `SELECT id, name, code FROM incident_types WHERE id = $1`, inc.TypeID).
			Scan(&inc.Type.ID, &inc.Type.Name, &inc.Type.Code)
	})
	if err != nil {
		// A concurrent writer claimed one of the days first.
		if database.IsUniqueViolation(err, "incident_days_pkey") {
			return incident.Incident{}, false, nil
		}
		return incident.Incident{}, false, err
	}
	if !created {
		return incident.Incident{}, false, nil
	}
	return inc, true, nil
}

// ListByEmployee implements incident.IncidentRepository.
func (r *incidentRepository) ListByEmployee(ctx context.Context, employeeID string, start, end time.Time) ([]incident.Incident, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + incidentColumns + `
		FROM incidents i
		JOIN incident_types t ON t.id = i.incident_type_id
		WHERE i.employee_id = $1
		  AND i.start_date <= $3
		  AND i.end_date >= $2
		ORDER BY i.start_date, i.id
	`

	rows, err := q.Query(ctx, query, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	var out []incident.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident: %w", err)
		}
		out = append(out, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate incidents: %w", err)
	}
	return out, nil
}

// GetStartingOn implements incident.IncidentRepository.
func (r *incidentRepository) GetStartingOn(ctx context.Context, employeeID string, date time.Time) (incident.Incident, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + incidentColumns + `
		FROM incidents i
		JOIN incident_types t ON t.id = i.incident_type_id
		WHERE i.employee_id = $1 AND i.start_date = $2
		ORDER BY i.id
		LIMIT 1
	`

	inc, err := scanIncident(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return incident.Incident{}, incident.ErrIncidentNotFound
		}
		return incident.Incident{}, fmt.Errorf("failed to get incident: %w", err)
	}
	return inc, nil
}

// DeleteCoveringDay implements incident.IncidentRepository. Day claims go
// with the incident through ON DELETE CASCADE.
func (r *incidentRepository) DeleteCoveringDay(ctx context.Context, employeeID string, date time.Time) ([]incident.Incident, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		WITH removed AS (
			DELETE FROM incidents
			WHERE employee_id = $1 AND start_date <= $2 AND end_date >= $2
			RETURNING *
		)
		SELECT i.id, i.employee_id, i.incident_type_id, t.id, t.name, t.code,
			   i.start_date, i.end_date, i.status, i.notes, i.created_at, i.updated_at
		FROM removed i
		JOIN incident_types t ON t.id = i.incident_type_id
		ORDER BY i.start_date
	`

	rows, err := q.Query(ctx, query, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to delete incidents: %w", err)
	}
	defer rows.Close()

	var removed []incident.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident: %w", err)
		}
		removed = append(removed, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate incidents: %w", err)
	}
	return removed, nil
}

// Delete implements incident.IncidentRepository.
func (r *incidentRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM incidents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete incident: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return incident.ErrIncidentNotFound
	}
	return nil
}

func NewIncidentRepository(db *database.DB) incident.IncidentRepository {
	return &incidentRepository{db: db}
}
