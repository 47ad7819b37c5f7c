package template

import "context"

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, tenantID, templateID string) (*Template, error) {
	return s.store.Get(ctx, tenantID, templateID)
}

func (s *Service) List(ctx context.Context, tenantID string, includeInactive bool) ([]Template, error) {
	return s.store.List(ctx, tenantID, includeInactive)
}

func (s *Service) Create(ctx context.Context, tenantID string, tpl Template) (string, error) {
	return s.store.Create(ctx, tenantID, tpl)
}

func (s *Service) Update(ctx context.Context, tenantID, templateID string, tpl Template) error {
	return s.store.Update(ctx, tenantID, templateID, tpl)
}

func (s *Service) SoftDelete(ctx context.Context, tenantID, templateID string) error {
	return s.store.SoftDelete(ctx, tenantID, templateID)
}
