package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/shirtforge-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/shirtforge-backend/pkg/errors"
	"github.com/angelmondragon/shirtforge-backend/pkg/logger"
	"github.com/angelmondragon/shirtforge-backend/pkg/pricing"
)

// Service manages per-product designer configurations.
type Service interface {
	// GetConfig returns the stored configuration, enabled or not.
	GetConfig(ctx context.Context, productID uuid.UUID) (*pricing.ProductDesignConfig, error)
	// LoadForPricing returns a configuration that is safe to price against.
	// A missing, disabled, or invalid configuration is an error.
	LoadForPricing(ctx context.Context, productID uuid.UUID) (*pricing.ProductDesignConfig, error)
	SaveConfig(ctx context.Context, productID uuid.UUID, cfg pricing.ProductDesignConfig) (*pricing.ProductDesignConfig, error)
	Template(productID uuid.UUID) pricing.ProductDesignConfig
	Invalidate(ctx context.Context, productID uuid.UUID)
}

type service struct {
	store    *CachedRepository
	dbClient *db.Client
	logg     *logger.Logger
}

// NewService constructs the catalog service.
func NewService(store *CachedRepository, dbClient *db.Client, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{store: store, dbClient: dbClient, logg: logg}, nil
}

func (s *service) GetConfig(ctx context.Context, productID uuid.UUID) (*pricing.ProductDesignConfig, error) {
	return s.store.GetConfig(ctx, productID)
}

func (s *service) LoadForPricing(ctx context.Context, productID uuid.UUID) (*pricing.ProductDesignConfig, error) {
	cfg, err := s.store.GetConfig(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "designer is not enabled for this product")
	}
	if err := cfg.Validate(); err != nil {
		s.logg.Error(s.logg.WithProductID(ctx, productID.String()), "stored designer configuration is invalid", err)
		return nil, err
	}
	return cfg, nil
}

func (s *service) SaveConfig(ctx context.Context, productID uuid.UUID, cfg pricing.ProductDesignConfig) (*pricing.ProductDesignConfig, error) {
	cfg.ProductID = productID.String()
	if err := cfg.Normalize(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid color keys").
			WithDetails(map[string]any{"issues": errorStrings(err)})
	}
	if err := cfg.Validate(); err != nil {
		typed := pkgerrors.As(err)
		out := pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid designer configuration")
		if typed != nil {
			out = out.WithDetails(typed.Details())
		}
		return nil, out
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		return s.store.Repository().WithTx(tx).SaveConfig(ctx, productID, cfg)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save designer configuration")
	}
	s.store.Invalidate(ctx, productID)
	s.logg.Info(s.logg.WithProductID(ctx, productID.String()), "designer configuration saved")

	return s.store.GetConfig(ctx, productID)
}

func (s *service) Template(productID uuid.UUID) pricing.ProductDesignConfig {
	return pricing.DefaultConfigTemplate(productID.String())
}

func (s *service) Invalidate(ctx context.Context, productID uuid.UUID) {
	s.store.Invalidate(ctx, productID)
}

func errorStrings(err error) []string {
	errs := multierr.Errors(err)
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}
