package structure

import (
	"context"
	"testing"

	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workstream-hq/payroll-engine-go/internal/domain/salary"
)

const testOrgID = "org-1"

func claimsContext(t *testing.T, organizationID string) context.Context {
	t.Helper()
	ja := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := ja.Encode(map[string]interface{}{
		"organization_id": organizationID,
		"user_id":         "user-1",
		"type":            "access",
	})
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

// ========== IN-MEMORY FAKES ==========

type fakeComponentRepo struct {
	byID map[string]salary.SalaryComponent
}

func (f *fakeComponentRepo) Create(ctx context.Context, c salary.SalaryComponent) (salary.SalaryComponent, error) {
	for _, existing := range f.byID {
		if existing.OrganizationID == c.OrganizationID && existing.Name == c.Name {
			return salary.SalaryComponent{}, salary.ErrComponentNameExists
		}
	}
	f.byID[c.ID] = c
	return c, nil
}

func (f *fakeComponentRepo) GetByID(ctx context.Context, id string, organizationID string) (salary.SalaryComponent, error) {
	c, ok := f.byID[id]
	if !ok || c.OrganizationID != organizationID {
		return salary.SalaryComponent{}, salary.ErrComponentNotFound
	}
	return c, nil
}

func (f *fakeComponentRepo) GetByOrganizationID(ctx context.Context, organizationID string, activeOnly bool) ([]salary.SalaryComponent, error) {
	var components []salary.SalaryComponent
	for _, c := range f.byID {
		if c.OrganizationID != organizationID {
			continue
		}
		if activeOnly && !c.IsActive {
			continue
		}
		components = append(components, c)
	}
	return components, nil
}

func (f *fakeComponentRepo) Update(ctx context.Context, organizationID string, req salary.UpdateComponentRequest) error {
	c, ok := f.byID[req.ID]
	if !ok || c.OrganizationID != organizationID {
		return salary.ErrComponentNotFound
	}
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Formula != nil {
		c.Formula = req.Formula
	}
	if req.IsTaxable != nil {
		c.IsTaxable = *req.IsTaxable
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	f.byID[req.ID] = c
	return nil
}

func (f *fakeComponentRepo) Delete(ctx context.Context, id string, organizationID string) error {
	c, ok := f.byID[id]
	if !ok || c.OrganizationID != organizationID {
		return salary.ErrComponentNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeStructureRepo struct {
	byID map[string]salary.SalaryStructure
}

func (f *fakeStructureRepo) Create(ctx context.Context, s salary.SalaryStructure) (salary.SalaryStructure, error) {
	f.byID[s.ID] = s
	return s, nil
}

func (f *fakeStructureRepo) GetByID(ctx context.Context, id string, organizationID string) (salary.SalaryStructure, error) {
	s, ok := f.byID[id]
	if !ok || s.OrganizationID != organizationID {
		return salary.SalaryStructure{}, salary.ErrStructureNotFound
	}
	return s, nil
}

func (f *fakeStructureRepo) GetByOrganizationID(ctx context.Context, organizationID string, activeOnly bool) ([]salary.SalaryStructure, error) {
	var structures []salary.SalaryStructure
	for _, s := range f.byID {
		if s.OrganizationID == organizationID {
			structures = append(structures, s)
		}
	}
	return structures, nil
}

func (f *fakeStructureRepo) ReplaceMappings(ctx context.Context, structureID string, organizationID string, mappings []salary.ComponentMapping) error {
	s, ok := f.byID[structureID]
	if !ok || s.OrganizationID != organizationID {
		return salary.ErrStructureNotFound
	}
	s.Mappings = mappings
	f.byID[structureID] = s
	return nil
}

func (f *fakeStructureRepo) Update(ctx context.Context, organizationID string, req salary.UpdateStructureRequest) error {
	s, ok := f.byID[req.ID]
	if !ok || s.OrganizationID != organizationID {
		return salary.ErrStructureNotFound
	}
	if req.Name != nil {
		s.Name = *req.Name
	}
	if req.IsActive != nil {
		s.IsActive = *req.IsActive
	}
	f.byID[req.ID] = s
	return nil
}

func (f *fakeStructureRepo) Delete(ctx context.Context, id string, organizationID string) error {
	delete(f.byID, id)
	return nil
}

type fakeAssignmentRepo struct {
	byEmployee map[string]salary.SalaryAssignment
}

func (f *fakeAssignmentRepo) CreateAndActivate(ctx context.Context, a salary.SalaryAssignment) (salary.SalaryAssignment, error) {
	f.byEmployee[a.EmployeeID] = a
	return a, nil
}

func (f *fakeAssignmentRepo) ActiveAssignment(ctx context.Context, employeeID string) (salary.SalaryAssignment, error) {
	a, ok := f.byEmployee[employeeID]
	if !ok {
		return salary.SalaryAssignment{}, salary.ErrNoActiveAssignment
	}
	return a, nil
}

func (f *fakeAssignmentRepo) GetByEmployeeID(ctx context.Context, employeeID string, organizationID string) ([]salary.SalaryAssignment, error) {
	a, ok := f.byEmployee[employeeID]
	if !ok {
		return nil, nil
	}
	return []salary.SalaryAssignment{a}, nil
}

func newCatalogFixture() (salary.CatalogService, *fakeComponentRepo, *fakeStructureRepo, *fakeAssignmentRepo) {
	componentRepo := &fakeComponentRepo{byID: make(map[string]salary.SalaryComponent)}
	structureRepo := &fakeStructureRepo{byID: make(map[string]salary.SalaryStructure)}
	assignmentRepo := &fakeAssignmentRepo{byEmployee: make(map[string]salary.SalaryAssignment)}
	service := NewCatalogService(componentRepo, structureRepo, assignmentRepo)
	return service, componentRepo, structureRepo, assignmentRepo
}

func seedComponent(repo *fakeComponentRepo, id, name string, kind salary.ComponentKind, calcType salary.CalcType, formula *string) {
	repo.byID[id] = salary.SalaryComponent{
		ID:             id,
		OrganizationID: testOrgID,
		Name:           name,
		Kind:           kind,
		CalcType:       calcType,
		Formula:        formula,
		IsActive:       true,
	}
}

// ========== TESTS ==========

func TestCatalogService_CreateComponent(t *testing.T) {
	service, _, _, _ := newCatalogFixture()
	ctx := claimsContext(t, testOrgID)

	created, err := service.CreateComponent(ctx, salary.CreateComponentRequest{
		Name:     "House Rent Allowance",
		Kind:     "earning",
		CalcType: "percentage",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, testOrgID, created.OrganizationID)
	assert.True(t, created.IsActive)
}

func TestCatalogService_CreateComponent_BadFormulaSyntax(t *testing.T) {
	service, _, _, _ := newCatalogFixture()
	ctx := claimsContext(t, testOrgID)

	_, err := service.CreateComponent(ctx, salary.CreateComponentRequest{
		Name:     "Broken",
		Kind:     "earning",
		CalcType: "formula",
		Formula:  strPtr("basicSalary * "),
	})
	assert.ErrorIs(t, err, salary.ErrFormulaSyntax)
}

func TestCatalogService_CreateComponent_InvalidKind(t *testing.T) {
	service, _, _, _ := newCatalogFixture()
	ctx := claimsContext(t, testOrgID)

	_, err := service.CreateComponent(ctx, salary.CreateComponentRequest{
		Name:     "Whatever",
		Kind:     "sideways",
		CalcType: "fixed",
	})
	assert.Error(t, err)
}

func TestCatalogService_CreateStructure_RejectsCycle(t *testing.T) {
	service, componentRepo, _, _ := newCatalogFixture()
	seedComponent(componentRepo, "a", "A", salary.ComponentKindEarning, salary.CalcTypePercentage, nil)
	seedComponent(componentRepo, "b", "B", salary.ComponentKindEarning, salary.CalcTypePercentage, nil)
	ctx := claimsContext(t, testOrgID)

	rate := decimal.RequireFromString("0.5")
	_, err := service.CreateStructure(ctx, salary.CreateStructureRequest{
		Name: "Cyclic",
		Mappings: []salary.MappingRequest{
			{ComponentID: "a", DefinedValue: &rate, PercentageOfComponentID: strPtr("b")},
			{ComponentID: "b", DefinedValue: &rate, PercentageOfComponentID: strPtr("a")},
		},
	})
	assert.ErrorIs(t, err, salary.ErrCyclicDependency)
}

func TestCatalogService_CreateStructure_RejectsUnknownComponent(t *testing.T) {
	service, _, _, _ := newCatalogFixture()
	ctx := claimsContext(t, testOrgID)

	amount := decimal.NewFromInt(100)
	_, err := service.CreateStructure(ctx, salary.CreateStructureRequest{
		Name: "Orphan",
		Mappings: []salary.MappingRequest{
			{ComponentID: "missing", DefinedValue: &amount},
		},
	})
	assert.ErrorIs(t, err, salary.ErrComponentNotFound)
}

func TestCatalogService_CreateStructure_RejectsUnresolvableFormula(t *testing.T) {
	service, componentRepo, _, _ := newCatalogFixture()
	seedComponent(componentRepo, "f", "F", salary.ComponentKindEarning, salary.CalcTypeFormula, strPtr("Unmapped * 2"))
	ctx := claimsContext(t, testOrgID)

	_, err := service.CreateStructure(ctx, salary.CreateStructureRequest{
		Name: "Dangling",
		Mappings: []salary.MappingRequest{
			{ComponentID: "f"},
		},
	})
	assert.ErrorIs(t, err, salary.ErrUnknownIdentifier)
}

func TestCatalogService_CreateStructure_ValidPercentageChain(t *testing.T) {
	service, componentRepo, structureRepo, _ := newCatalogFixture()
	seedComponent(componentRepo, "basic-pay", "BasicPay", salary.ComponentKindEarning, salary.CalcTypeFixed, nil)
	seedComponent(componentRepo, "hra", "HRA", salary.ComponentKindEarning, salary.CalcTypePercentage, nil)
	ctx := claimsContext(t, testOrgID)

	amount := decimal.NewFromInt(3000)
	rate := decimal.RequireFromString("0.40")
	created, err := service.CreateStructure(ctx, salary.CreateStructureRequest{
		Name: "Standard",
		Mappings: []salary.MappingRequest{
			{ComponentID: "basic-pay", DefinedValue: &amount},
			{ComponentID: "hra", DefinedValue: &rate, PercentageOfComponentID: strPtr("basic-pay")},
		},
	})
	require.NoError(t, err)
	assert.Len(t, created.Mappings, 2)
	assert.Len(t, structureRepo.byID, 1)
}

func TestCatalogService_CreateAssignment_ValidatesStructureFirst(t *testing.T) {
	service, _, structureRepo, _ := newCatalogFixture()
	// A structure that became invalid after creation (component edited to a
	// broken formula).
	structureRepo.byID["s1"] = salary.SalaryStructure{
		ID:             "s1",
		OrganizationID: testOrgID,
		Name:           "Broken",
		Mappings: []salary.ComponentMapping{
			{ComponentID: "f", ComponentName: "F", Kind: salary.ComponentKindEarning, CalcType: salary.CalcTypeFormula, Formula: strPtr("oops +")},
		},
	}
	ctx := claimsContext(t, testOrgID)

	_, err := service.CreateAssignment(ctx, salary.CreateAssignmentRequest{
		EmployeeID:    "emp-1",
		StructureID:   "s1",
		BasicSalary:   decimal.NewFromInt(5000),
		EffectiveDate: "2025-06-01",
	})
	assert.ErrorIs(t, err, salary.ErrFormulaSyntax)
}

func TestCatalogService_CreateAssignment_NegativeBasicSalary(t *testing.T) {
	service, _, _, _ := newCatalogFixture()
	ctx := claimsContext(t, testOrgID)

	_, err := service.CreateAssignment(ctx, salary.CreateAssignmentRequest{
		EmployeeID:    "emp-1",
		StructureID:   "s1",
		BasicSalary:   decimal.NewFromInt(-100),
		EffectiveDate: "2025-06-01",
	})
	assert.Error(t, err)
}

func TestCatalogService_GetActiveAssignment_CrossOrganization(t *testing.T) {
	service, _, _, assignmentRepo := newCatalogFixture()
	assignmentRepo.byEmployee["emp-1"] = salary.SalaryAssignment{
		ID:             "a1",
		OrganizationID: "someone-else",
		EmployeeID:     "emp-1",
		IsActive:       true,
	}
	ctx := claimsContext(t, testOrgID)

	_, err := service.GetActiveAssignment(ctx, "emp-1")
	assert.ErrorIs(t, err, salary.ErrNoActiveAssignment)
}
