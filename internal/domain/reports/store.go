package reports

import (
	"context"

	"appraise/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) EvaluationCountsByStatus(ctx context.Context, tenantID string) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT status, COUNT(1)
    FROM evaluations
    WHERE tenant_id = $1
    GROUP BY status
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[status] = count
	}
	return out, rows.Err()
}

func (s *Store) CompletedRatings(ctx context.Context, tenantID string) ([]float64, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT overall_rating
    FROM evaluations
    WHERE tenant_id = $1 AND status = 'completed' AND overall_rating IS NOT NULL
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var rating float64
		if err := rows.Scan(&rating); err != nil {
			return nil, err
		}
		out = append(out, rating)
	}
	return out, rows.Err()
}

func (s *Store) AverageRatingByDepartment(ctx context.Context, tenantID string) (map[string]float64, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT d.name, AVG(e.overall_rating)
    FROM evaluations e
    JOIN users u ON e.evaluatee_id = u.id
    JOIN departments d ON u.department_id = d.id
    WHERE e.tenant_id = $1 AND e.status = 'completed' AND e.overall_rating IS NOT NULL
    GROUP BY d.name
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]float64{}
	for rows.Next() {
		var name string
		var avg float64
		if err := rows.Scan(&name, &avg); err != nil {
			return nil, err
		}
		out[name] = avg
	}
	return out, rows.Err()
}
