package directory

import "context"

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	return s.store.HasPermission(ctx, roleID, permission)
}

func (s *Service) RoleIDByName(ctx context.Context, tenantID, name string) (string, error) {
	return s.store.RoleIDByName(ctx, tenantID, name)
}

func (s *Service) UserExists(ctx context.Context, tenantID, userID string) (bool, error) {
	return s.store.UserExists(ctx, tenantID, userID)
}

func (s *Service) GetUser(ctx context.Context, tenantID, userID string) (*User, error) {
	return s.store.GetUser(ctx, tenantID, userID)
}

func (s *Service) ListUsers(ctx context.Context, tenantID, departmentID, status string) ([]User, error) {
	return s.store.ListUsers(ctx, tenantID, departmentID, status)
}

func (s *Service) CreateUser(ctx context.Context, tenantID string, u User, passwordHash string) (string, error) {
	return s.store.CreateUser(ctx, tenantID, u, passwordHash)
}

func (s *Service) UpdateUser(ctx context.Context, tenantID, userID string, u User) error {
	return s.store.UpdateUser(ctx, tenantID, userID, u)
}

func (s *Service) SetUserStatus(ctx context.Context, tenantID, userID, status string) error {
	return s.store.SetUserStatus(ctx, tenantID, userID, status)
}

func (s *Service) IsManagerOf(ctx context.Context, tenantID, managerID, userID string) (bool, error) {
	return s.store.IsManagerOf(ctx, tenantID, managerID, userID)
}

func (s *Service) GetDepartment(ctx context.Context, tenantID, departmentID string) (*Department, error) {
	return s.store.GetDepartment(ctx, tenantID, departmentID)
}

func (s *Service) ListDepartments(ctx context.Context, tenantID string, includeInactive bool) ([]Department, error) {
	return s.store.ListDepartments(ctx, tenantID, includeInactive)
}

func (s *Service) CreateDepartment(ctx context.Context, tenantID string, dep Department) (string, error) {
	return s.store.CreateDepartment(ctx, tenantID, dep)
}

func (s *Service) UpdateDepartment(ctx context.Context, tenantID, departmentID string, dep Department) error {
	return s.store.UpdateDepartment(ctx, tenantID, departmentID, dep)
}

func (s *Service) SoftDeleteDepartment(ctx context.Context, tenantID, departmentID string) error {
	return s.store.SoftDeleteDepartment(ctx, tenantID, departmentID)
}

func (s *Service) DepartmentHasActiveEmployees(ctx context.Context, tenantID, departmentID string) (bool, error) {
	return s.store.DepartmentHasActiveEmployees(ctx, tenantID, departmentID)
}

func (s *Service) DepartmentHasActiveChildren(ctx context.Context, tenantID, departmentID string) (bool, error) {
	return s.store.DepartmentHasActiveChildren(ctx, tenantID, departmentID)
}

func (s *Service) DepartmentParents(ctx context.Context, tenantID string) (map[string]string, error) {
	return s.store.DepartmentParents(ctx, tenantID)
}
