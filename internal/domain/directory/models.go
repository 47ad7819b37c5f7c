package directory

import "time"

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Phone        string     `json:"phone"`
	Position     string     `json:"position"`
	RoleID       string     `json:"roleId"`
	RoleName     string     `json:"roleName"`
	DepartmentID string     `json:"departmentId"`
	ManagerID    string     `json:"managerId"`
	Status       string     `json:"status"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type Department struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	ParentID      string    `json:"parentId"`
	ManagerID     string    `json:"managerId"`
	IsActive      bool      `json:"isActive"`
	EmployeeCount int       `json:"employeeCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)
