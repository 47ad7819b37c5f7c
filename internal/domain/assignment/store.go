package assignment

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateActive is returned when a second active assignment for the same
// (type, evaluator, evaluatee) triple hits the partial unique index.
var ErrDuplicateActive = errors.New("active assignment already exists")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const assignmentColumns = `
    id, assignment_type, evaluator_id, evaluatee_id, assigned_by, assigned_at, active`

func scanAssignment(row interface{ Scan(...any) error }) (Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.Type, &a.EvaluatorID, &a.EvaluateeID, &a.AssignedBy, &a.AssignedAt, &a.Active)
	return a, err
}

func (s *Store) Get(ctx context.Context, tenantID, assignmentID string) (*Assignment, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+assignmentColumns+`
    FROM assignments
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, assignmentID)
	a, err := scanAssignment(row)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Filter narrows List; empty fields match everything. ManagerScopeID limits
// rows to assignments the given manager is a party to plus those of their
// direct reports, composing with the other fields so caller filters cannot
// widen the view.
type Filter struct {
	Type           string
	EvaluatorID    string
	EvaluateeID    string
	ManagerScopeID string
}

// List returns inactive assignments alongside active ones; history stays
// visible.
func (s *Store) List(ctx context.Context, tenantID string, f Filter) ([]Assignment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+assignmentColumns+`
    FROM assignments
    WHERE tenant_id = $1
      AND ($2 = '' OR assignment_type = $2)
      AND ($3 = '' OR evaluator_id::text = $3)
      AND ($4 = '' OR evaluatee_id::text = $4)
      AND ($5 = '' OR evaluator_id::text = $5 OR evaluatee_id::text = $5
           OR evaluatee_id IN (SELECT id FROM users WHERE tenant_id = $1 AND manager_id::text = $5))
    ORDER BY assigned_at DESC
  `, tenantID, f.Type, f.EvaluatorID, f.EvaluateeID, f.ManagerScopeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create relies on the partial unique index over active rows; there is no
// pre-query, concurrent inserts race safely inside the database.
func (s *Store) Create(ctx context.Context, tenantID string, a Assignment) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO assignments (tenant_id, assignment_type, evaluator_id, evaluatee_id, assigned_by, active)
    VALUES ($1,$2,$3,$4,$5,true)
    RETURNING id
  `, tenantID, a.Type, a.EvaluatorID, a.EvaluateeID, a.AssignedBy).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", ErrDuplicateActive
		}
		return "", err
	}
	return id, nil
}

func (s *Store) Deactivate(ctx context.Context, tenantID, assignmentID string) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE assignments SET active = false WHERE tenant_id = $1 AND id = $2
  `, tenantID, assignmentID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return errors.New("assignment not found")
	}
	return nil
}

// ActiveBetween returns the newest active evaluation assignment linking the
// pair, if any.
func (s *Store) ActiveBetween(ctx context.Context, tenantID, evaluatorID, evaluateeID string) (*Assignment, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+assignmentColumns+`
    FROM assignments
    WHERE tenant_id = $1 AND assignment_type = $2 AND evaluator_id = $3 AND evaluatee_id = $4 AND active
    ORDER BY assigned_at DESC
    LIMIT 1
  `, tenantID, TypeEvaluation, evaluatorID, evaluateeID)
	a, err := scanAssignment(row)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) CanCreateEvaluation(ctx context.Context, tenantID, evaluatorID, evaluateeID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM assignments
    WHERE tenant_id = $1 AND assignment_type = $2 AND evaluator_id = $3 AND evaluatee_id = $4 AND active
  `, tenantID, TypeEvaluation, evaluatorID, evaluateeID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
