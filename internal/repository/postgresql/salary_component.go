package postgresql

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/workstream-hq/payroll-engine-go/internal/domain/salary"
	"github.com/workstream-hq/payroll-engine-go/internal/pkg/database"
)

type componentRepository struct {
	db *database.DB
}

func NewComponentRepository(db *database.DB) salary.ComponentRepository {
	return &componentRepository{db: db}
}

func (r *componentRepository) Create(ctx context.Context, component salary.SalaryComponent) (salary.SalaryComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO salary_components (organization_id, name, kind, calc_type, formula, is_taxable, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, organization_id, name, kind, calc_type, formula, is_taxable, is_active, created_at, updated_at
	`

	var c salary.SalaryComponent
	err := q.QueryRow(ctx, query,
		component.OrganizationID, component.Name, component.Kind, component.CalcType,
		component.Formula, component.IsTaxable, component.IsActive,
	).Scan(
		&c.ID, &c.OrganizationID, &c.Name, &c.Kind, &c.CalcType,
		&c.Formula, &c.IsTaxable, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "uk_salary_component_name") {
			return salary.SalaryComponent{}, salary.ErrComponentNameExists
		}
		return salary.SalaryComponent{}, fmt.Errorf("failed to create salary component: %w", err)
	}

	return c, nil
}

func (r *componentRepository) GetByID(ctx context.Context, id string, organizationID string) (salary.SalaryComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, organization_id, name, kind, calc_type, formula, is_taxable, is_active, created_at, updated_at
		FROM salary_components
		WHERE id = $1 AND organization_id = $2
	`

	var c salary.SalaryComponent
	err := q.QueryRow(ctx, query, id, organizationID).Scan(
		&c.ID, &c.OrganizationID, &c.Name, &c.Kind, &c.CalcType,
		&c.Formula, &c.IsTaxable, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return salary.SalaryComponent{}, salary.ErrComponentNotFound
		}
		return salary.SalaryComponent{}, fmt.Errorf("failed to get salary component: %w", err)
	}

	return c, nil
}

func (r *componentRepository) GetByOrganizationID(ctx context.Context, organizationID string, activeOnly bool) ([]salary.SalaryComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, organization_id, name, kind, calc_type, formula, is_taxable, is_active, created_at, updated_at
		FROM salary_components
		WHERE organization_id = $1
	`
	if activeOnly {
		query += " AND is_active = true"
	}
	query += " ORDER BY name ASC"

	rows, err := q.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary components: %w", err)
	}
	defer rows.Close()

	var components []salary.SalaryComponent
	for rows.Next() {
		var c salary.SalaryComponent
		if err := rows.Scan(
			&c.ID, &c.OrganizationID, &c.Name, &c.Kind, &c.CalcType,
			&c.Formula, &c.IsTaxable, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan salary component: %w", err)
		}
		components = append(components, c)
	}

	return components, rows.Err()
}

func (r *componentRepository) Update(ctx context.Context, organizationID string, req salary.UpdateComponentRequest) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE salary_components SET
			name = COALESCE($3, name),
			formula = COALESCE($4, formula),
			is_taxable = COALESCE($5, is_taxable),
			is_active = COALESCE($6, is_active),
			updated_at = NOW()
		WHERE id = $1 AND organization_id = $2
	`

	tag, err := q.Exec(ctx, query, req.ID, organizationID, req.Name, req.Formula, req.IsTaxable, req.IsActive)
	if err != nil {
		if strings.Contains(err.Error(), "uk_salary_component_name") {
			return salary.ErrComponentNameExists
		}
		return fmt.Errorf("failed to update salary component: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return salary.ErrComponentNotFound
	}

	return nil
}

func (r *componentRepository) Delete(ctx context.Context, id string, organizationID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM salary_components WHERE id = $1 AND organization_id = $2`, id, organizationID)
	if err != nil {
		if strings.Contains(err.Error(), "foreign key") {
			return salary.ErrComponentInUse
		}
		return fmt.Errorf("failed to delete salary component: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return salary.ErrComponentNotFound
	}

	return nil
}
