package employee

// EmployeeRef is the slice of the employee record the salary engine needs.
// Full employee management lives in the surrounding application.
type EmployeeRef struct {
	ID             string
	OrganizationID string
	EmployeeCode   string
	FullName       string
}
