package directory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM role_permissions rp
    JOIN permissions p ON rp.permission_id = p.id
    WHERE rp.role_id = $1 AND p.key = $2
  `, roleID, permission).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) RoleIDByName(ctx context.Context, tenantID, name string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, "SELECT id FROM roles WHERE tenant_id = $1 AND name = $2", tenantID, name).Scan(&id)
	return id, err
}

func (s *Store) UserExists(ctx context.Context, tenantID, userID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM users
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, userID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

const userColumns = `
    u.id, u.email, u.first_name, u.last_name,
    COALESCE(u.phone, ''), COALESCE(u.position, ''),
    u.role_id, r.name,
    COALESCE(u.department_id::text, ''), COALESCE(u.manager_id::text, ''),
    u.status, u.last_login, u.created_at, u.updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Phone, &u.Position,
		&u.RoleID, &u.RoleName, &u.DepartmentID, &u.ManagerID,
		&u.Status, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

func (s *Store) GetUser(ctx context.Context, tenantID, userID string) (*User, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+userColumns+`
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE u.tenant_id = $1 AND u.id = $2
  `, tenantID, userID)
	u, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context, tenantID, departmentID, status string) ([]User, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+userColumns+`
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE u.tenant_id = $1
      AND ($2 = '' OR u.department_id::text = $2)
      AND ($3 = '' OR u.status = $3)
    ORDER BY u.last_name, u.first_name
  `, tenantID, departmentID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) CreateUser(ctx context.Context, tenantID string, u User, passwordHash string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (tenant_id, email, password_hash, first_name, last_name, phone, position,
      role_id, department_id, manager_id, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    RETURNING id
  `,
		tenantID, u.Email, passwordHash, u.FirstName, u.LastName, u.Phone, u.Position,
		u.RoleID, nullIfEmpty(u.DepartmentID), nullIfEmpty(u.ManagerID), UserStatusActive,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateUser(ctx context.Context, tenantID, userID string, u User) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE users
    SET first_name = $1,
        last_name = $2,
        phone = $3,
        position = $4,
        role_id = $5,
        department_id = $6,
        manager_id = $7,
        updated_at = now()
    WHERE tenant_id = $8 AND id = $9
  `,
		u.FirstName, u.LastName, u.Phone, u.Position,
		u.RoleID, nullIfEmpty(u.DepartmentID), nullIfEmpty(u.ManagerID),
		tenantID, userID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return errors.New("user not found")
	}
	return nil
}

func (s *Store) SetUserStatus(ctx context.Context, tenantID, userID, status string) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE users SET status = $1, updated_at = now() WHERE tenant_id = $2 AND id = $3
  `, status, tenantID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return errors.New("user not found")
	}
	return nil
}

func (s *Store) IsManagerOf(ctx context.Context, tenantID, managerID, userID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM users
    WHERE tenant_id = $1 AND id = $2 AND manager_id = $3
  `, tenantID, userID, managerID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

const departmentColumns = `
    d.id, d.name, COALESCE(d.description, ''),
    COALESCE(d.parent_id::text, ''), COALESCE(d.manager_id::text, ''),
    d.is_active, d.created_at, d.updated_at`

func (s *Store) GetDepartment(ctx context.Context, tenantID, departmentID string) (*Department, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+departmentColumns+`,
           (SELECT COUNT(1) FROM users u WHERE u.tenant_id = d.tenant_id AND u.department_id = d.id AND u.status = 'active')
    FROM departments d
    WHERE d.tenant_id = $1 AND d.id = $2
  `, tenantID, departmentID)
	var dep Department
	if err := row.Scan(
		&dep.ID, &dep.Name, &dep.Description, &dep.ParentID, &dep.ManagerID,
		&dep.IsActive, &dep.CreatedAt, &dep.UpdatedAt, &dep.EmployeeCount,
	); err != nil {
		return nil, err
	}
	return &dep, nil
}

func (s *Store) ListDepartments(ctx context.Context, tenantID string, includeInactive bool) ([]Department, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+departmentColumns+`,
           (SELECT COUNT(1) FROM users u WHERE u.tenant_id = d.tenant_id AND u.department_id = d.id AND u.status = 'active')
    FROM departments d
    WHERE d.tenant_id = $1 AND ($2 OR d.is_active)
    ORDER BY d.name
  `, tenantID, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Department
	for rows.Next() {
		var dep Department
		if err := rows.Scan(
			&dep.ID, &dep.Name, &dep.Description, &dep.ParentID, &dep.ManagerID,
			&dep.IsActive, &dep.CreatedAt, &dep.UpdatedAt, &dep.EmployeeCount,
		); err != nil {
			return nil, err
		}
		out = append(out, dep)
	}
	return out, rows.Err()
}

func (s *Store) CreateDepartment(ctx context.Context, tenantID string, dep Department) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO departments (tenant_id, name, description, parent_id, manager_id, is_active)
    VALUES ($1,$2,$3,$4,$5,true)
    RETURNING id
  `, tenantID, dep.Name, dep.Description, nullIfEmpty(dep.ParentID), nullIfEmpty(dep.ManagerID)).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateDepartment(ctx context.Context, tenantID, departmentID string, dep Department) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE departments
    SET name = $1, description = $2, parent_id = $3, manager_id = $4, updated_at = now()
    WHERE tenant_id = $5 AND id = $6
  `, dep.Name, dep.Description, nullIfEmpty(dep.ParentID), nullIfEmpty(dep.ManagerID), tenantID, departmentID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return errors.New("department not found")
	}
	return nil
}

func (s *Store) SoftDeleteDepartment(ctx context.Context, tenantID, departmentID string) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE departments SET is_active = false, updated_at = now() WHERE tenant_id = $1 AND id = $2
  `, tenantID, departmentID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return errors.New("department not found")
	}
	return nil
}

func (s *Store) DepartmentHasActiveEmployees(ctx context.Context, tenantID, departmentID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM users WHERE tenant_id = $1 AND department_id = $2 AND status = 'active'
  `, tenantID, departmentID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) DepartmentHasActiveChildren(ctx context.Context, tenantID, departmentID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM departments WHERE tenant_id = $1 AND parent_id = $2 AND is_active
  `, tenantID, departmentID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DepartmentParents returns the id -> parent id map for the tenant's active
// departments, used by the reparent cycle check.
func (s *Store) DepartmentParents(ctx context.Context, tenantID string) (map[string]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, COALESCE(parent_id::text, '') FROM departments WHERE tenant_id = $1 AND is_active
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	parents := map[string]string{}
	for rows.Next() {
		var id, parent string
		if err := rows.Scan(&id, &parent); err != nil {
			return nil, err
		}
		parents[id] = parent
	}
	return parents, rows.Err()
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
