package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shirtforge-backend/pkg/db"
	"github.com/angelmondragon/shirtforge-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shirtforge-backend/pkg/errors"
	"github.com/angelmondragon/shirtforge-backend/pkg/pricing"
)

// Service exposes admin stock management for designer products.
type Service interface {
	ListLevels(ctx context.Context, productID uuid.UUID) ([]LevelDTO, error)
	ReplaceLevels(ctx context.Context, productID uuid.UUID, input ReplaceLevelsInput) ([]LevelDTO, error)
	Restock(ctx context.Context, productID uuid.UUID, input RestockInput) (*LevelDTO, error)
}

// LevelDTO is one stock row as returned to admins.
type LevelDTO struct {
	ColorKey  string    `json:"color_key"`
	Size      string    `json:"size"`
	Quantity  int       `json:"quantity"`
	Reserved  int       `json:"reserved_quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReplaceLevelsInput carries the full stock grid; rows not listed are removed.
type ReplaceLevelsInput struct {
	Levels map[string]map[string]int
}

// RestockInput adds Quantity units to one color/size.
type RestockInput struct {
	ColorKey string
	Size     string
	Quantity int
}

type configReader interface {
	GetConfig(ctx context.Context, productID uuid.UUID) (*pricing.ProductDesignConfig, error)
}

type configInvalidator interface {
	Invalidate(ctx context.Context, productID uuid.UUID)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	configs  configReader
}

// NewService constructs the inventory service. configs is used to check that
// stock rows reference colors and sizes the product actually offers.
func NewService(repo *Repository, dbClient *db.Client, configs configReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if configs == nil {
		return nil, fmt.Errorf("config reader required")
	}
	return &service{repo: repo, dbClient: dbClient, configs: configs}, nil
}

func (s *service) ListLevels(ctx context.Context, productID uuid.UUID) ([]LevelDTO, error) {
	if _, err := s.configs.GetConfig(ctx, productID); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list inventory")
	}
	return toLevelDTOs(rows), nil
}

func (s *service) ReplaceLevels(ctx context.Context, productID uuid.UUID, input ReplaceLevelsInput) ([]LevelDTO, error) {
	cfg, err := s.configs.GetConfig(ctx, productID)
	if err != nil {
		return nil, err
	}

	levels := make(map[pricing.ColorKey]map[string]int, len(input.Levels))
	var problems []string
	for rawColor, bySize := range input.Levels {
		key, err := pricing.ParseColorKey(rawColor)
		if err != nil {
			problems = append(problems, fmt.Sprintf("color %q: %v", rawColor, err))
			continue
		}
		if !cfg.HasColor(key) {
			problems = append(problems, fmt.Sprintf("color %q is not offered", key))
			continue
		}
		if levels[key] == nil {
			levels[key] = make(map[string]int, len(bySize))
		}
		for rawSize, qty := range bySize {
			size := strings.TrimSpace(rawSize)
			switch {
			case !cfg.SupportsSize(key, size):
				problems = append(problems, fmt.Sprintf("size %q is not offered for %s", size, key))
			case qty < 0:
				problems = append(problems, fmt.Sprintf("stock for %s/%s must be >= 0", key, size))
			default:
				levels[key][size] = qty
			}
		}
	}
	if len(problems) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid inventory levels").
			WithDetails(map[string]any{"problems": problems})
	}

	var rows []models.DesignInventory
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.ReplaceLevels(ctx, productID, levels); err != nil {
			return err
		}
		rows, err = txRepo.List(ctx, productID)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace inventory")
	}
	s.invalidate(ctx, productID)
	return toLevelDTOs(rows), nil
}

func (s *service) Restock(ctx context.Context, productID uuid.UUID, input RestockInput) (*LevelDTO, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restock quantity must be positive")
	}
	cfg, err := s.configs.GetConfig(ctx, productID)
	if err != nil {
		return nil, err
	}
	key, err := pricing.ParseColorKey(input.ColorKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid color key")
	}
	size := strings.TrimSpace(input.Size)
	if !cfg.HasColor(key) || !cfg.SupportsSize(key, size) {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s/%s is not offered", key, size)
	}

	row, err := s.repo.Restock(ctx, productID, key, size, input.Quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restock inventory")
	}
	s.invalidate(ctx, productID)
	dto := toLevelDTO(*row)
	return &dto, nil
}

// Stock is overlaid fresh on every read, but a cache that stores the whole
// config still needs dropping.
func (s *service) invalidate(ctx context.Context, productID uuid.UUID) {
	if inv, ok := s.configs.(configInvalidator); ok {
		inv.Invalidate(ctx, productID)
	}
}

func toLevelDTOs(rows []models.DesignInventory) []LevelDTO {
	out := make([]LevelDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toLevelDTO(row))
	}
	return out
}

func toLevelDTO(row models.DesignInventory) LevelDTO {
	return LevelDTO{
		ColorKey:  row.ColorKey,
		Size:      row.Size,
		Quantity:  row.Quantity,
		Reserved:  row.ReservedQuantity,
		UpdatedAt: row.UpdatedAt,
	}
}
