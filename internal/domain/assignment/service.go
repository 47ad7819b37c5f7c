package assignment

import "context"

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, tenantID, assignmentID string) (*Assignment, error) {
	return s.store.Get(ctx, tenantID, assignmentID)
}

func (s *Service) List(ctx context.Context, tenantID string, f Filter) ([]Assignment, error) {
	return s.store.List(ctx, tenantID, f)
}

func (s *Service) Create(ctx context.Context, tenantID string, a Assignment) (string, error) {
	return s.store.Create(ctx, tenantID, a)
}

func (s *Service) Deactivate(ctx context.Context, tenantID, assignmentID string) error {
	return s.store.Deactivate(ctx, tenantID, assignmentID)
}

func (s *Service) ActiveBetween(ctx context.Context, tenantID, evaluatorID, evaluateeID string) (*Assignment, error) {
	return s.store.ActiveBetween(ctx, tenantID, evaluatorID, evaluateeID)
}

func (s *Service) CanCreateEvaluation(ctx context.Context, tenantID, evaluatorID, evaluateeID string) (bool, error) {
	return s.store.CanCreateEvaluation(ctx, tenantID, evaluatorID, evaluateeID)
}
