package structure

import (
	"context"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"

	"github.com/workstream-hq/payroll-engine-go/internal/domain/salary"
)

// CatalogServiceImpl manages components, structures and assignments. All
// structure writes go through Validate so broken definitions are rejected at
// save time instead of first failing inside a payroll run.
type CatalogServiceImpl struct {
	componentRepo  salary.ComponentRepository
	structureRepo  salary.StructureRepository
	assignmentRepo salary.AssignmentRepository
}

func NewCatalogService(
	componentRepo salary.ComponentRepository,
	structureRepo salary.StructureRepository,
	assignmentRepo salary.AssignmentRepository,
) salary.CatalogService {
	return &CatalogServiceImpl{
		componentRepo:  componentRepo,
		structureRepo:  structureRepo,
		assignmentRepo: assignmentRepo,
	}
}

// Helper to get organization_id and user_id from JWT context
func getClaimsFromContext(ctx context.Context) (organizationID, userID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	organizationID, ok := claims["organization_id"].(string)
	if !ok || organizationID == "" {
		return "", "", fmt.Errorf("organization_id claim is missing or invalid")
	}

	userID, _ = claims["user_id"].(string)

	return organizationID, userID, nil
}

// ========== COMPONENTS ==========

func (s *CatalogServiceImpl) CreateComponent(ctx context.Context, req salary.CreateComponentRequest) (salary.ComponentResponse, error) {
	if err := req.Validate(); err != nil {
		return salary.ComponentResponse{}, err
	}

	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return salary.ComponentResponse{}, err
	}

	isTaxable := false
	if req.IsTaxable != nil {
		isTaxable = *req.IsTaxable
	}

	component := salary.SalaryComponent{
		ID:             uuid.NewString(),
		OrganizationID: organizationID,
		Name:           req.Name,
		Kind:           salary.ComponentKind(req.Kind),
		CalcType:       salary.CalcType(req.CalcType),
		Formula:        req.Formula,
		IsTaxable:      isTaxable,
		IsActive:       true,
	}

	if component.CalcType == salary.CalcTypeFormula {
		// Syntax is checkable without a structure; identifier resolution
		// happens when the component is mapped into one.
		if _, err := parseFormula(*component.Formula); err != nil {
			return salary.ComponentResponse{}, err
		}
	}

	created, err := s.componentRepo.Create(ctx, component)
	if err != nil {
		return salary.ComponentResponse{}, err
	}

	return mapToComponentResponse(created), nil
}

func (s *CatalogServiceImpl) GetComponent(ctx context.Context, id string) (salary.ComponentResponse, error) {
	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return salary.ComponentResponse{}, err
	}

	component, err := s.componentRepo.GetByID(ctx, id, organizationID)
	if err != nil {
		return salary.ComponentResponse{}, err
	}

	return mapToComponentResponse(component), nil
}

func (s *CatalogServiceImpl) ListComponents(ctx context.Context, activeOnly bool) ([]salary.ComponentResponse, error) {
	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	components, err := s.componentRepo.GetByOrganizationID(ctx, organizationID, activeOnly)
	if err != nil {
		return nil, err
	}

	result := make([]salary.ComponentResponse, 0, len(components))
	for _, c := range components {
		result = append(result, mapToComponentResponse(c))
	}

	return result, nil
}

func (s *CatalogServiceImpl) UpdateComponent(ctx context.Context, req salary.UpdateComponentRequest) error {
	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	if req.Formula != nil {
		if _, err := parseFormula(*req.Formula); err != nil {
			return err
		}
	}

	return s.componentRepo.Update(ctx, organizationID, req)
}

func (s *CatalogServiceImpl) DeleteComponent(ctx context.Context, id string) error {
	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	return s.componentRepo.Delete(ctx, id, organizationID)
}

// ========== STRUCTURES ==========

func (s *CatalogServiceImpl) CreateStructure(ctx context.Context, req salary.CreateStructureRequest) (salary.StructureResponse, error) {
	if err := req.Validate(); err != nil {
		return salary.StructureResponse{}, err
	}

	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return salary.StructureResponse{}, err
	}

	structureID := uuid.NewString()
	mappings, err := s.resolveMappings(ctx, organizationID, structureID, req.Mappings)
	if err != nil {
		return salary.StructureResponse{}, err
	}

	structure := salary.SalaryStructure{
		ID:             structureID,
		OrganizationID: organizationID,
		Name:           req.Name,
		IsActive:       true,
		Mappings:       mappings,
	}

	if err := Validate(structure); err != nil {
		return salary.StructureResponse{}, err
	}

	created, err := s.structureRepo.Create(ctx, structure)
	if err != nil {
		return salary.StructureResponse{}, err
	}

	return mapToStructureResponse(created), nil
}

func (s *CatalogServiceImpl) GetStructure(ctx context.Context, id string) (salary.StructureResponse, error) {
	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return salary.StructureResponse{}, err
	}

	structure, err := s.structureRepo.GetByID(ctx, id, organizationID)
	if err != nil {
		return salary.StructureResponse{}, err
	}

	return mapToStructureResponse(structure), nil
}

func (s *CatalogServiceImpl) ListStructures(ctx context.Context, activeOnly bool) ([]salary.StructureResponse, error) {
	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	structures, err := s.structureRepo.GetByOrganizationID(ctx, organizationID, activeOnly)
	if err != nil {
		return nil, err
	}

	result := make([]salary.StructureResponse, 0, len(structures))
	for _, st := range structures {
		result = append(result, mapToStructureResponse(st))
	}

	return result, nil
}

func (s *CatalogServiceImpl) UpdateStructure(ctx context.Context, req salary.UpdateStructureRequest) (salary.StructureResponse, error) {
	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return salary.StructureResponse{}, err
	}

	existing, err := s.structureRepo.GetByID(ctx, req.ID, organizationID)
	if err != nil {
		return salary.StructureResponse{}, err
	}

	if req.Mappings != nil {
		mappings, err := s.resolveMappings(ctx, organizationID, existing.ID, req.Mappings)
		if err != nil {
			return salary.StructureResponse{}, err
		}

		candidate := existing
		candidate.Mappings = mappings
		if err := Validate(candidate); err != nil {
			return salary.StructureResponse{}, err
		}

		if err := s.structureRepo.ReplaceMappings(ctx, existing.ID, organizationID, mappings); err != nil {
			return salary.StructureResponse{}, err
		}
	}

	if req.Name != nil || req.IsActive != nil {
		if err := s.structureRepo.Update(ctx, organizationID, req); err != nil {
			return salary.StructureResponse{}, err
		}
	}

	return s.GetStructure(ctx, req.ID)
}

func (s *CatalogServiceImpl) DeleteStructure(ctx context.Context, id string) error {
	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	return s.structureRepo.Delete(ctx, id, organizationID)
}

// resolveMappings joins mapping requests with their catalog components so the
// resulting mappings carry the component details validation and evaluation
// need.
func (s *CatalogServiceImpl) resolveMappings(ctx context.Context, organizationID, structureID string, reqs []salary.MappingRequest) ([]salary.ComponentMapping, error) {
	components, err := s.componentRepo.GetByOrganizationID(ctx, organizationID, false)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]salary.SalaryComponent, len(components))
	for _, c := range components {
		byID[c.ID] = c
	}

	mappings := make([]salary.ComponentMapping, 0, len(reqs))
	for _, req := range reqs {
		component, ok := byID[req.ComponentID]
		if !ok {
			return nil, fmt.Errorf("%w: %q", salary.ErrComponentNotFound, req.ComponentID)
		}
		mappings = append(mappings, salary.ComponentMapping{
			ID:                      uuid.NewString(),
			StructureID:             structureID,
			ComponentID:             component.ID,
			DefinedValue:            req.DefinedValue,
			PercentageOfComponentID: req.PercentageOfComponentID,
			ComponentName:           component.Name,
			Kind:                    component.Kind,
			CalcType:                component.CalcType,
			Formula:                 component.Formula,
			IsTaxable:               component.IsTaxable,
		})
	}

	return mappings, nil
}

// ========== ASSIGNMENTS ==========

func (s *CatalogServiceImpl) CreateAssignment(ctx context.Context, req salary.CreateAssignmentRequest) (salary.AssignmentResponse, error) {
	if err := req.Validate(); err != nil {
		return salary.AssignmentResponse{}, err
	}

	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return salary.AssignmentResponse{}, err
	}

	structure, err := s.structureRepo.GetByID(ctx, req.StructureID, organizationID)
	if err != nil {
		return salary.AssignmentResponse{}, err
	}
	if err := Validate(structure); err != nil {
		return salary.AssignmentResponse{}, err
	}

	effectiveDate, _ := time.Parse("2006-01-02", req.EffectiveDate)

	assignment := salary.SalaryAssignment{
		ID:             uuid.NewString(),
		OrganizationID: organizationID,
		EmployeeID:     req.EmployeeID,
		StructureID:    req.StructureID,
		BasicSalary:    req.BasicSalary,
		EffectiveDate:  effectiveDate,
		IsActive:       true,
		Overrides:      req.Overrides,
	}

	created, err := s.assignmentRepo.CreateAndActivate(ctx, assignment)
	if err != nil {
		return salary.AssignmentResponse{}, err
	}

	return mapToAssignmentResponse(created), nil
}

func (s *CatalogServiceImpl) GetActiveAssignment(ctx context.Context, employeeID string) (salary.AssignmentResponse, error) {
	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return salary.AssignmentResponse{}, err
	}

	assignment, err := s.assignmentRepo.ActiveAssignment(ctx, employeeID)
	if err != nil {
		return salary.AssignmentResponse{}, err
	}
	if assignment.OrganizationID != organizationID {
		return salary.AssignmentResponse{}, salary.ErrNoActiveAssignment
	}

	return mapToAssignmentResponse(assignment), nil
}

// ========== HELPERS ==========

func mapToComponentResponse(c salary.SalaryComponent) salary.ComponentResponse {
	return salary.ComponentResponse{
		ID:             c.ID,
		OrganizationID: c.OrganizationID,
		Name:           c.Name,
		Kind:           string(c.Kind),
		CalcType:       string(c.CalcType),
		Formula:        c.Formula,
		IsTaxable:      c.IsTaxable,
		IsActive:       c.IsActive,
	}
}

func mapToStructureResponse(st salary.SalaryStructure) salary.StructureResponse {
	mappings := make([]salary.MappingResponse, 0, len(st.Mappings))
	for _, m := range st.Mappings {
		mappings = append(mappings, salary.MappingResponse{
			ID:                      m.ID,
			ComponentID:             m.ComponentID,
			ComponentName:           m.ComponentName,
			Kind:                    string(m.Kind),
			CalcType:                string(m.CalcType),
			DefinedValue:            m.DefinedValue,
			PercentageOfComponentID: m.PercentageOfComponentID,
		})
	}
	return salary.StructureResponse{
		ID:             st.ID,
		OrganizationID: st.OrganizationID,
		Name:           st.Name,
		IsActive:       st.IsActive,
		Mappings:       mappings,
	}
}

func mapToAssignmentResponse(a salary.SalaryAssignment) salary.AssignmentResponse {
	return salary.AssignmentResponse{
		ID:            a.ID,
		EmployeeID:    a.EmployeeID,
		StructureID:   a.StructureID,
		BasicSalary:   a.BasicSalary,
		EffectiveDate: a.EffectiveDate.Format("2006-01-02"),
		IsActive:      a.IsActive,
		Overrides:     a.Overrides,
	}
}
