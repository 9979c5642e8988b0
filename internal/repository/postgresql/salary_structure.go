package postgresql

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/workstream-hq/payroll-engine-go/internal/domain/salary"
	"github.com/workstream-hq/payroll-engine-go/internal/pkg/database"
)

type structureRepository struct {
	db *database.DB
}

func NewStructureRepository(db *database.DB) salary.StructureRepository {
	return &structureRepository{db: db}
}

// Create inserts the structure and its mappings in one transaction and
// returns the structure re-read with joined component details.
func (r *structureRepository) Create(ctx context.Context, structure salary.SalaryStructure) (salary.SalaryStructure, error) {
	var structureID string

	err := WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO salary_structures (organization_id, name, is_active)
			VALUES ($1, $2, $3)
			RETURNING id
		`
		if err := tx.QueryRow(ctx, query, structure.OrganizationID, structure.Name, structure.IsActive).Scan(&structureID); err != nil {
			if strings.Contains(err.Error(), "uk_salary_structure_name") {
				return salary.ErrStructureNameExists
			}
			return fmt.Errorf("failed to create salary structure: %w", err)
		}

		return insertMappings(ctx, tx, structureID, structure.Mappings)
	})
	if err != nil {
		return salary.SalaryStructure{}, err
	}

	return r.GetByID(ctx, structureID, structure.OrganizationID)
}

func (r *structureRepository) GetByID(ctx context.Context, id string, organizationID string) (salary.SalaryStructure, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, organization_id, name, is_active, created_at, updated_at
		FROM salary_structures
		WHERE id = $1 AND organization_id = $2
	`

	var s salary.SalaryStructure
	err := q.QueryRow(ctx, query, id, organizationID).Scan(
		&s.ID, &s.OrganizationID, &s.Name, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return salary.SalaryStructure{}, salary.ErrStructureNotFound
		}
		return salary.SalaryStructure{}, fmt.Errorf("failed to get salary structure: %w", err)
	}

	mappings, err := r.mappingsByStructureID(ctx, id)
	if err != nil {
		return salary.SalaryStructure{}, err
	}
	s.Mappings = mappings

	return s, nil
}

func (r *structureRepository) GetByOrganizationID(ctx context.Context, organizationID string, activeOnly bool) ([]salary.SalaryStructure, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, organization_id, name, is_active, created_at, updated_at
		FROM salary_structures
		WHERE organization_id = $1
	`
	if activeOnly {
		query += " AND is_active = true"
	}
	query += " ORDER BY name ASC"

	rows, err := q.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary structures: %w", err)
	}
	defer rows.Close()

	var structures []salary.SalaryStructure
	for rows.Next() {
		var s salary.SalaryStructure
		if err := rows.Scan(&s.ID, &s.OrganizationID, &s.Name, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan salary structure: %w", err)
		}
		structures = append(structures, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range structures {
		mappings, err := r.mappingsByStructureID(ctx, structures[i].ID)
		if err != nil {
			return nil, err
		}
		structures[i].Mappings = mappings
	}

	return structures, nil
}

func (r *structureRepository) ReplaceMappings(ctx context.Context, structureID string, organizationID string, mappings []salary.ComponentMapping) error {
	return WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx,
			`SELECT id FROM salary_structures WHERE id = $1 AND organization_id = $2 FOR UPDATE`,
			structureID, organizationID,
		).Scan(&id)
		if err != nil {
			if err == pgx.ErrNoRows {
				return salary.ErrStructureNotFound
			}
			return fmt.Errorf("failed to lock salary structure: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM structure_components WHERE structure_id = $1`, structureID); err != nil {
			return fmt.Errorf("failed to clear structure mappings: %w", err)
		}

		return insertMappings(ctx, tx, structureID, mappings)
	})
}

func (r *structureRepository) Update(ctx context.Context, organizationID string, req salary.UpdateStructureRequest) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE salary_structures SET
			name = COALESCE($3, name),
			is_active = COALESCE($4, is_active),
			updated_at = NOW()
		WHERE id = $1 AND organization_id = $2
	`

	tag, err := q.Exec(ctx, query, req.ID, organizationID, req.Name, req.IsActive)
	if err != nil {
		if strings.Contains(err.Error(), "uk_salary_structure_name") {
			return salary.ErrStructureNameExists
		}
		return fmt.Errorf("failed to update salary structure: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return salary.ErrStructureNotFound
	}

	return nil
}

func (r *structureRepository) Delete(ctx context.Context, id string, organizationID string) error {
	return WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM structure_components WHERE structure_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete structure mappings: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM salary_structures WHERE id = $1 AND organization_id = $2`, id, organizationID)
		if err != nil {
			if strings.Contains(err.Error(), "foreign key") {
				return salary.ErrStructureInUse
			}
			return fmt.Errorf("failed to delete salary structure: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return salary.ErrStructureNotFound
		}
		return nil
	})
}

func (r *structureRepository) mappingsByStructureID(ctx context.Context, structureID string) ([]salary.ComponentMapping, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT sc.id, sc.structure_id, sc.component_id, sc.defined_value, sc.percentage_of_component_id,
			   sc.created_at, sc.updated_at,
			   c.name, c.kind, c.calc_type, c.formula, c.is_taxable
		FROM structure_components sc
		JOIN salary_components c ON c.id = sc.component_id
		WHERE sc.structure_id = $1
		ORDER BY c.name ASC
	`

	rows, err := q.Query(ctx, query, structureID)
	if err != nil {
		return nil, fmt.Errorf("failed to list structure mappings: %w", err)
	}
	defer rows.Close()

	var mappings []salary.ComponentMapping
	for rows.Next() {
		var m salary.ComponentMapping
		if err := rows.Scan(
			&m.ID, &m.StructureID, &m.ComponentID, &m.DefinedValue, &m.PercentageOfComponentID,
			&m.CreatedAt, &m.UpdatedAt,
			&m.ComponentName, &m.Kind, &m.CalcType, &m.Formula, &m.IsTaxable,
		); err != nil {
			return nil, fmt.Errorf("failed to scan structure mapping: %w", err)
		}
		mappings = append(mappings, m)
	}

	return mappings, rows.Err()
}

func insertMappings(ctx context.Context, tx pgx.Tx, structureID string, mappings []salary.ComponentMapping) error {
	query := `
		INSERT INTO structure_components (structure_id, component_id, defined_value, percentage_of_component_id)
		VALUES ($1, $2, $3, $4)
	`
	for _, m := range mappings {
		if _, err := tx.Exec(ctx, query, structureID, m.ComponentID, m.DefinedValue, m.PercentageOfComponentID); err != nil {
			if strings.Contains(err.Error(), "uk_structure_component") {
				return salary.ErrDuplicateMapping
			}
			return fmt.Errorf("failed to insert structure mapping: %w", err)
		}
	}
	return nil
}
