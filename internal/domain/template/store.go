package template

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const templateColumns = `
    id, name, COALESCE(description, ''), scoring_system,
    categories_json, free_text_json, is_active, created_at, updated_at`

func scanTemplate(row interface{ Scan(...any) error }) (Template, error) {
	var tpl Template
	var categoriesJSON, freeTextJSON []byte
	err := row.Scan(
		&tpl.ID, &tpl.Name, &tpl.Description, &tpl.ScoringSystem,
		&categoriesJSON, &freeTextJSON, &tpl.IsActive, &tpl.CreatedAt, &tpl.UpdatedAt,
	)
	if err != nil {
		return Template{}, err
	}
	if err := json.Unmarshal(categoriesJSON, &tpl.Categories); err != nil {
		return Template{}, err
	}
	if len(freeTextJSON) > 0 {
		if err := json.Unmarshal(freeTextJSON, &tpl.FreeTextQuestions); err != nil {
			return Template{}, err
		}
	}
	return tpl, nil
}

func (s *Store) Get(ctx context.Context, tenantID, templateID string) (*Template, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+templateColumns+`
    FROM evaluation_templates
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, templateID)
	tpl, err := scanTemplate(row)
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (s *Store) List(ctx context.Context, tenantID string, includeInactive bool) ([]Template, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+templateColumns+`
    FROM evaluation_templates
    WHERE tenant_id = $1 AND ($2 OR is_active)
    ORDER BY name
  `, tenantID, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, tenantID string, tpl Template) (string, error) {
	categoriesJSON, err := json.Marshal(tpl.Categories)
	if err != nil {
		return "", err
	}
	freeTextJSON, err := json.Marshal(tpl.FreeTextQuestions)
	if err != nil {
		return "", err
	}
	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO evaluation_templates (tenant_id, name, description, scoring_system, categories_json, free_text_json, is_active)
    VALUES ($1,$2,$3,$4,$5,$6,true)
    RETURNING id
  `, tenantID, tpl.Name, tpl.Description, tpl.ScoringSystem, categoriesJSON, freeTextJSON).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Update(ctx context.Context, tenantID, templateID string, tpl Template) error {
	categoriesJSON, err := json.Marshal(tpl.Categories)
	if err != nil {
		return err
	}
	freeTextJSON, err := json.Marshal(tpl.FreeTextQuestions)
	if err != nil {
		return err
	}
	cmd, err := s.DB.Exec(ctx, `
    UPDATE evaluation_templates
    SET name = $1, description = $2, scoring_system = $3, categories_json = $4, free_text_json = $5, updated_at = now()
    WHERE tenant_id = $6 AND id = $7
  `, tpl.Name, tpl.Description, tpl.ScoringSystem, categoriesJSON, freeTextJSON, tenantID, templateID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return errors.New("template not found")
	}
	return nil
}

func (s *Store) SoftDelete(ctx context.Context, tenantID, templateID string) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE evaluation_templates SET is_active = false, updated_at = now() WHERE tenant_id = $1 AND id = $2
  `, tenantID, templateID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return errors.New("template not found")
	}
	return nil
}
