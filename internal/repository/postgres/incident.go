package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"carrental/internal/domain"
	"carrental/internal/repository"
)

const incidentColumns = `id, vehicle_id, order_id, reported_by, type, severity, description, status, cost, created_at, resolved_at`

// IncidentRepository is a PostgreSQL implementation of repository.IncidentRepository.
type IncidentRepository struct {
	q Querier
}

// NewIncidentRepository creates a new PostgreSQL incident repository.
func NewIncidentRepository(db *sql.DB) *IncidentRepository {
	return &IncidentRepository{q: db}
}

// NewIncidentRepositoryWithTx creates an incident repository using a transaction.
func NewIncidentRepositoryWithTx(tx *sql.Tx) *IncidentRepository {
	return &IncidentRepository{q: tx}
}

// Create persists a new incident.
func (r *IncidentRepository) Create(ctx context.Context, i *domain.Incident) error {
	query := `
		INSERT INTO incidents (` + incidentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.q.ExecContext(ctx, query,
		i.ID,
		i.VehicleID,
		nullString(i.OrderID),
		i.ReportedBy,
		i.Type,
		i.Severity,
		i.Description,
		i.Status,
		i.Cost,
		i.CreatedAt,
		nullTime(i.ResolvedAt),
	)
	return translateError(err)
}

// GetByID retrieves an incident by ID.
func (r *IncidentRepository) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`
	return scanIncident(r.q.QueryRowContext(ctx, query, id))
}

// List retrieves incidents matching the filter, newest first.
func (r *IncidentRepository) List(ctx context.Context, filter domain.IncidentFilter) ([]*domain.Incident, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.VehicleID != "" {
		args = append(args, filter.VehicleID)
		conditions = append(conditions, fmt.Sprintf("vehicle_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + incidentColumns + ` FROM incidents`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incidents []*domain.Incident
	for rows.Next() {
		i, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, i)
	}
	return incidents, rows.Err()
}

// Update overwrites the mutable fields of an incident.
func (r *IncidentRepository) Update(ctx context.Context, i *domain.Incident) error {
	query := `UPDATE incidents SET status = $1, cost = $2, resolved_at = $3 WHERE id = $4`

	result, err := r.q.ExecContext(ctx, query, i.Status, i.Cost, nullTime(i.ResolvedAt), i.ID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// CountOpenByVehicle returns unresolved incidents of a vehicle, ignoring excludeID.
func (r *IncidentRepository) CountOpenByVehicle(ctx context.Context, vehicleID, excludeID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM incidents
		WHERE vehicle_id = $1 AND status <> $2 AND ($3 = '' OR id::text <> $3)
	`
	var count int
	err := r.q.QueryRowContext(ctx, query, vehicleID, domain.IncidentStatusResolved, excludeID).Scan(&count)
	return count, err
}

func scanIncident(row rowScanner) (*domain.Incident, error) {
	var i domain.Incident
	var orderID sql.NullString
	var resolvedAt sql.NullTime

	err := row.Scan(
		&i.ID,
		&i.VehicleID,
		&orderID,
		&i.ReportedBy,
		&i.Type,
		&i.Severity,
		&i.Description,
		&i.Status,
		&i.Cost,
		&i.CreatedAt,
		&resolvedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}

	i.OrderID = orderID.String
	if resolvedAt.Valid {
		i.ResolvedAt = resolvedAt.Time
	}
	return &i, nil
}

var _ repository.IncidentRepository = (*IncidentRepository)(nil)
