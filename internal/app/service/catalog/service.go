// Package catalog is the authoritative fuel-type price list.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/fuelpos/internal/models"
	"github.com/fatflowers/fuelpos/pkg/config"
	"github.com/fatflowers/fuelpos/pkg/tool"
)

var ErrFuelTypeNotFound = errors.New("fuel type not found")

// Lookup is what pricing code needs from the catalog.
type Lookup interface {
	GetFuelType(ctx context.Context, id string) (*models.FuelType, error)
}

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

func (s *Service) GetFuelType(ctx context.Context, id string) (*models.FuelType, error) {
	var ft models.FuelType
	if err := s.db.WithContext(ctx).First(&ft, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFuelTypeNotFound
		}
		return nil, fmt.Errorf("get fuel type %s: %w", id, err)
	}
	return &ft, nil
}

// ListAvailable returns the fuel types that can currently be sold.
func (s *Service) ListAvailable(ctx context.Context) ([]*models.FuelType, error) {
	var out []*models.FuelType
	if err := s.db.WithContext(ctx).Where("is_available = ?", true).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list available fuel types: %w", err)
	}
	return out, nil
}

func (s *Service) ListAll(ctx context.Context) ([]*models.FuelType, error) {
	var out []*models.FuelType
	if err := s.db.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list fuel types: %w", err)
	}
	return out, nil
}

// Seed inserts fuel types that do not exist yet, matched by name. Existing
// rows keep their stored price.
func (s *Service) Seed(ctx context.Context, seeds []config.FuelTypeSeed) error {
	for _, seed := range seeds {
		ft := &models.FuelType{
			ID:            tool.GenerateUUIDV7(),
			Name:          seed.Name,
			Type:          seed.Type,
			PricePerLiter: seed.PricePerLiter,
			IsAvailable:   seed.IsAvailable,
		}
		res := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
			Create(ft)
		if res.Error != nil {
			return fmt.Errorf("seed fuel type %s: %w", seed.Name, res.Error)
		}
		if res.RowsAffected > 0 {
			s.log.Infow("fuel_type_seeded", "name", seed.Name, "price_per_liter", seed.PricePerLiter.StringFixed(2))
		}
	}
	return nil
}

func seedFromConfig(lc fx.Lifecycle, s *Service, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Seed(ctx, cfg.FuelTypes)
		},
	})
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Provide(func(s *Service) Lookup { return s }),
	fx.Invoke(seedFromConfig),
)
