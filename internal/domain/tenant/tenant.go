package tenant

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Settings is the tenant-level configuration blob. BonusMultipliers maps a
// whole-number rating bucket ("1".."5" on a five point scale) to the
// multiplier applied to BonusBase when proposing bonus amounts.
type Settings struct {
	EvaluationCycle  string             `json:"evaluationCycle"`
	Currency         string             `json:"currency"`
	WorkingDays      []string           `json:"workingDays"`
	BonusBase        float64            `json:"bonusBase"`
	BonusMultipliers map[string]float64 `json:"bonusMultipliers"`
}

func DefaultSettings() Settings {
	return Settings{
		EvaluationCycle: "annual",
		Currency:        "USD",
		WorkingDays:     []string{"Mon", "Tue", "Wed", "Thu", "Fri"},
		BonusBase:       0,
		BonusMultipliers: map[string]float64{
			"1": 0,
			"2": 0,
			"3": 0.5,
			"4": 1,
			"5": 1.5,
		},
	}
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Settings(ctx context.Context, tenantID string) (Settings, error) {
	var raw []byte
	if err := s.DB.QueryRow(ctx, "SELECT settings FROM tenants WHERE id = $1", tenantID).Scan(&raw); err != nil {
		return Settings{}, err
	}
	settings := DefaultSettings()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &settings); err != nil {
			return Settings{}, err
		}
	}
	return settings, nil
}

func (s *Store) UpdateSettings(ctx context.Context, tenantID string, settings Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, "UPDATE tenants SET settings = $1 WHERE id = $2", raw, tenantID)
	return err
}

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) Settings(ctx context.Context, tenantID string) (Settings, error) {
	return s.store.Settings(ctx, tenantID)
}

func (s *Service) UpdateSettings(ctx context.Context, tenantID string, settings Settings) error {
	return s.store.UpdateSettings(ctx, tenantID, settings)
}
