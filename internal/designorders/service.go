package designorders

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shirtforge-backend/internal/inventory"
	"github.com/angelmondragon/shirtforge-backend/pkg/checkout"
	"github.com/angelmondragon/shirtforge-backend/pkg/db"
	"github.com/angelmondragon/shirtforge-backend/pkg/db/models"
	"github.com/angelmondragon/shirtforge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shirtforge-backend/pkg/errors"
	"github.com/angelmondragon/shirtforge-backend/pkg/logger"
	"github.com/angelmondragon/shirtforge-backend/pkg/metrics"
	"github.com/angelmondragon/shirtforge-backend/pkg/outbox"
	"github.com/angelmondragon/shirtforge-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/shirtforge-backend/pkg/pricing"
)

const (
	opQuote    = "quote"
	opValidate = "validate"
	opFinalize = "finalize"
)

// Service prices design selections and records finalized order designs.
// Preview, add-to-cart and finalize all run the same pricing functions
// against the same configuration.
type Service interface {
	Catalog(ctx context.Context, productID uuid.UUID) (*CatalogView, error)
	Quote(ctx context.Context, productID uuid.UUID, rawSelection []byte) (*QuoteResult, error)
	Validate(ctx context.Context, productID uuid.UUID, rawSelection []byte) (*pricing.ValidationResult, error)
	Finalize(ctx context.Context, input FinalizeInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	ListOrders(ctx context.Context, orderRef string) ([]OrderDTO, error)
	AdjustPlacement(current *pricing.Placement, edit pricing.PlacementEdit) (pricing.Placement, error)
}

// Settings are the store-wide pricing knobs. When Assets is set, inline
// artwork is moved to object storage under AssetPrefix before an order is
// recorded.
type Settings struct {
	MinOrderQuantity int
	DefaultSetupFee  decimal.Decimal
	ReserveStock     bool
	Assets           AssetStore
	AssetPrefix      string
}

// AssetStore stores artwork bytes and returns a URL for them.
type AssetStore interface {
	PutObject(ctx context.Context, object, contentType string, data []byte) (string, error)
	DeleteObject(ctx context.Context, object string) error
}

type configLoader interface {
	LoadForPricing(ctx context.Context, productID uuid.UUID) (*pricing.ProductDesignConfig, error)
}

// EventEmitter queues domain events inside the finalize transaction.
type EventEmitter interface {
	Queue(ctx context.Context, tx *gorm.DB, event outbox.Event) (bool, error)
}

type service struct {
	repo     *Repository
	configs  configLoader
	dbClient *db.Client
	events   EventEmitter
	settings Settings
	metrics  *metrics.DesignerMetrics
	logg     *logger.Logger
}

// NewService constructs the design order service. events and metrics may be
// nil; without an emitter no design_order_finalized events are queued.
func NewService(repo *Repository, configs configLoader, dbClient *db.Client, events EventEmitter, settings Settings, m *metrics.DesignerMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("design order repository required")
	}
	if configs == nil {
		return nil, fmt.Errorf("config loader required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if settings.MinOrderQuantity < 0 {
		return nil, fmt.Errorf("minimum order quantity must be >= 0")
	}
	if settings.DefaultSetupFee.IsNegative() {
		return nil, fmt.Errorf("default setup fee must be >= 0")
	}
	return &service{
		repo:     repo,
		configs:  configs,
		dbClient: dbClient,
		events:   events,
		settings: settings,
		metrics:  m,
		logg:     logg,
	}, nil
}

func (s *service) Catalog(ctx context.Context, productID uuid.UUID) (*CatalogView, error) {
	cfg, err := s.configs.LoadForPricing(ctx, productID)
	if err != nil {
		return nil, err
	}
	view := &CatalogView{
		ProductID:         cfg.ProductID,
		ProductType:       cfg.ProductType,
		UnitPrice:         cfg.UnitPrice,
		Colors:            make([]ColorView, 0, len(cfg.Colors)),
		DecorationMethods: make([]MethodView, 0, len(cfg.DecorationMethods)),
		TierPricing:       cfg.TierPricing,
		MinOrderQuantity:  s.settings.MinOrderQuantity,
		InventoryEnabled:  cfg.InventoryEnabled,
		Positions:         enums.PrintPositions(),
	}
	if cfg.InventoryEnabled {
		view.Inventory = cfg.Inventory
	}
	for _, c := range cfg.Colors {
		view.Colors = append(view.Colors, ColorView{Key: c.Key, DisplayName: c.DisplayName, Sizes: cfg.SizesFor(c.Key)})
	}
	for _, m := range cfg.DecorationMethods {
		view.DecorationMethods = append(view.DecorationMethods, MethodView{
			Key:          m.Key,
			DisplayName:  m.DisplayName,
			SetupFee:     pricing.CalculateSetupFee(m.Key, 1, cfg.SetupFees, s.settings.DefaultSetupFee),
			SetupFeeInfo: pricing.SetupFeeInfo(m.Key, cfg.SetupFees, s.settings.DefaultSetupFee),
		})
	}
	return view, nil
}

func (s *service) Quote(ctx context.Context, productID uuid.UUID, rawSelection []byte) (result *QuoteResult, err error) {
	start := time.Now()
	defer func() { s.observe(opQuote, start, result != nil && result.Validation.OK, err) }()

	sel, cfg, err := s.prepare(ctx, productID, rawSelection)
	if err != nil {
		return nil, err
	}
	validation, _ := checkout.ValidateForCommit(productID, sel, *cfg, s.settings.MinOrderQuantity)
	breakdown := pricing.ComputeBreakdown(cfg.UnitPrice, sel, *cfg, s.settings.DefaultSetupFee)

	result = &QuoteResult{
		Breakdown:    breakdown,
		Validation:   validation,
		DisplayLines: breakdown.DisplayLines(),
		SetupFeeInfo: pricing.SetupFeeInfo(sel.Method(), cfg.SetupFees, s.settings.DefaultSetupFee),
	}
	if breakdown.NextTierPreview != nil {
		result.NextTierMessage = breakdown.NextTierPreview.Message()
	}
	return result, nil
}

func (s *service) Validate(ctx context.Context, productID uuid.UUID, rawSelection []byte) (result *pricing.ValidationResult, err error) {
	start := time.Now()
	defer func() { s.observe(opValidate, start, result != nil && result.OK, err) }()

	sel, cfg, err := s.prepare(ctx, productID, rawSelection)
	if err != nil {
		return nil, err
	}
	validation, verr := checkout.ValidateForCommit(productID, sel, *cfg, s.settings.MinOrderQuantity)
	if verr != nil {
		s.recordViolations(ctx, productID, validation)
	}
	return &validation, nil
}

func (s *service) Finalize(ctx context.Context, input FinalizeInput) (dto *OrderDTO, err error) {
	start := time.Now()
	violated := false
	defer func() {
		if violated {
			s.metrics.Observe(opFinalize, metrics.OutcomeViolations, time.Since(start))
			return
		}
		s.observe(opFinalize, start, dto != nil, err)
	}()

	orderRef := strings.TrimSpace(input.OrderRef)
	if orderRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order_ref is required")
	}
	ctx = s.logg.WithOrderRef(ctx, orderRef)

	sel, cfg, err := s.prepare(ctx, input.ProductID, []byte(input.Selection))
	if err != nil {
		return nil, err
	}
	composites, err := normalizeComposites(sel, input.Composites)
	if err != nil {
		return nil, err
	}

	validation, err := checkout.ValidateForCommit(input.ProductID, sel, *cfg, s.settings.MinOrderQuantity)
	if err != nil {
		violated = true
		s.recordViolations(ctx, input.ProductID, validation)
		return nil, err
	}

	orderID := uuid.New()
	sel, composites, objects, err := s.offloadInlineAssets(ctx, orderID, sel, composites)
	if err != nil {
		return nil, err
	}

	breakdown := pricing.ComputeBreakdown(cfg.UnitPrice, sel, *cfg, s.settings.DefaultSetupFee)
	encoded, err := sel.Encode()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode selection")
	}
	lines := sel.Lines(*cfg)
	reserve := s.settings.ReserveStock && cfg.InventoryEnabled
	order := buildOrder(orderID, input.ProductID, orderRef, strings.TrimSpace(input.LineRef), encoded, sel, *cfg, lines, breakdown, composites)
	order.StockReserved = reserve

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if reserve {
			results, rerr := inventory.ReserveStock(ctx, inventory.NewRepository(tx), input.ProductID, lines)
			if rerr != nil {
				return rerr
			}
			if shortfalls := inventory.Shortfalls(results); len(shortfalls) > 0 {
				violations := make([]pricing.Violation, 0, len(shortfalls))
				for _, sf := range shortfalls {
					violations = append(violations, pricing.InsufficientStock(sf.Line, sf.Available, cfg.ColorName(sf.Line.ColorKey)))
				}
				s.metrics.IncStockReservationFailure()
				return checkout.ViolationsError(input.ProductID, violations)
			}
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		if s.events == nil {
			return nil
		}
		_, err := s.events.Queue(ctx, tx, finalizedEvent(order))
		return err
	})
	if err != nil {
		s.discardAssets(ctx, objects)
		if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			violated = true
			s.logg.Info(ctx, "stock ran out before the order could be finalized")
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finalize design order")
	}

	s.logg.Info(s.logg.WithProductID(ctx, input.ProductID.String()), "design order finalized")
	out := toOrderDTO(*order)
	return &out, nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load design order")
	}
	dto := toOrderDTO(*order)
	return &dto, nil
}

// ListOrders returns every designed line of a storefront order, ordered by
// line ref. An unknown order ref yields an empty list.
func (s *service) ListOrders(ctx context.Context, orderRef string) ([]OrderDTO, error) {
	orderRef = strings.TrimSpace(orderRef)
	if orderRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order_ref is required")
	}
	orders, err := s.repo.ListByOrderRef(ctx, orderRef)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list design orders")
	}
	out := make([]OrderDTO, 0, len(orders))
	for _, order := range orders {
		out = append(out, toOrderDTO(order))
	}
	return out, nil
}

func (s *service) AdjustPlacement(current *pricing.Placement, edit pricing.PlacementEdit) (pricing.Placement, error) {
	base := pricing.DefaultPlacement()
	if current != nil {
		base = *current
	}
	next, err := base.Apply(edit)
	if err != nil {
		return base, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid placement operation")
	}
	return next, nil
}

func (s *service) prepare(ctx context.Context, productID uuid.UUID, rawSelection []byte) (pricing.DesignOrderSelection, *pricing.ProductDesignConfig, error) {
	sel, err := pricing.ParseSelection(rawSelection)
	if err != nil {
		return pricing.DesignOrderSelection{}, nil, err
	}
	cfg, err := s.configs.LoadForPricing(ctx, productID)
	if err != nil {
		return pricing.DesignOrderSelection{}, nil, err
	}
	return sel, cfg, nil
}

func (s *service) recordViolations(ctx context.Context, productID uuid.UUID, result pricing.ValidationResult) {
	kinds := result.Kinds()
	labels := make([]string, 0, len(kinds))
	for _, k := range kinds {
		s.metrics.IncViolation(k.String())
		labels = append(labels, k.String())
	}
	ctx = s.logg.WithProductID(ctx, productID.String())
	ctx = s.logg.WithField(ctx, "violations", labels)
	s.logg.Info(ctx, "design selection rejected")
}

func (s *service) observe(op string, start time.Time, ok bool, err error) {
	outcome := metrics.OutcomeOK
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
	case !ok:
		outcome = metrics.OutcomeViolations
	}
	s.metrics.Observe(op, outcome, time.Since(start))
}

// offloadInlineAssets uploads data URI artwork and composites and swaps in the
// stored URLs. The selection is copied; the caller's maps are not touched.
// The returned object names let the caller discard the uploads if the order
// is not saved.
func (s *service) offloadInlineAssets(
	ctx context.Context,
	orderID uuid.UUID,
	sel pricing.DesignOrderSelection,
	composites map[enums.PrintPosition]string,
) (pricing.DesignOrderSelection, map[enums.PrintPosition]string, []string, error) {
	if s.settings.Assets == nil {
		return sel, composites, nil, nil
	}

	var stored []string
	upload := func(pos enums.PrintPosition, kind, ref string) (string, error) {
		contentType, ext, data, err := pricing.DecodeInlineImage(ref)
		if err != nil {
			return "", pkgerrors.Wrapf(pkgerrors.CodeValidation, err, "%s image for %s is unreadable", kind, pos)
		}
		object := path.Join(s.settings.AssetPrefix, orderID.String(), fmt.Sprintf("%s-%s.%s", pos, kind, ext))
		url, err := s.settings.Assets.PutObject(ctx, object, contentType, data)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store artwork")
		}
		stored = append(stored, object)
		return url, nil
	}

	if len(sel.Designs) > 0 {
		designs := make(map[enums.PrintPosition]string, len(sel.Designs))
		for pos, ref := range sel.Designs {
			if pricing.IsInlineImage(ref) {
				u, err := upload(pos, "design", ref)
				if err != nil {
					s.discardAssets(ctx, stored)
					return sel, nil, nil, err
				}
				ref = u
			}
			designs[pos] = ref
		}
		sel.Designs = designs
	}

	var out map[enums.PrintPosition]string
	if len(composites) > 0 {
		out = make(map[enums.PrintPosition]string, len(composites))
		for pos, ref := range composites {
			if pricing.IsInlineImage(ref) {
				u, err := upload(pos, "composite", ref)
				if err != nil {
					s.discardAssets(ctx, stored)
					return sel, nil, nil, err
				}
				ref = u
			}
			out[pos] = ref
		}
	}

	if len(stored) > 0 {
		logCtx := s.logg.WithFields(ctx, map[string]any{"design_order_id": orderID.String(), "objects": len(stored)})
		s.logg.Info(logCtx, "inline artwork stored")
	}
	return sel, out, stored, nil
}

// discardAssets removes artwork uploaded for an order that was never saved.
func (s *service) discardAssets(ctx context.Context, objects []string) {
	if s.settings.Assets == nil {
		return
	}
	for _, object := range objects {
		if err := s.settings.Assets.DeleteObject(ctx, object); err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"object": object, "error": err.Error()}), "orphaned artwork not removed")
		}
	}
}

func normalizeComposites(sel pricing.DesignOrderSelection, raw map[enums.PrintPosition]string) (map[enums.PrintPosition]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[enums.PrintPosition]string, len(raw))
	var problems []string
	for pos, ref := range raw {
		ref = strings.TrimSpace(ref)
		switch {
		case !sel.HasPosition(pos):
			problems = append(problems, fmt.Sprintf("composite for %q has no design", pos))
		case !pricing.IsAssetReference(ref):
			problems = append(problems, fmt.Sprintf("composite for %q is not an image reference", pos))
		default:
			out[pos] = ref
		}
	}
	if len(problems) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid composite images").
			WithDetails(map[string]any{"problems": problems})
	}
	return out, nil
}

func finalizedEvent(order *models.DesignOrder) outbox.Event {
	data := payloads.DesignOrderFinalizedEvent{
		DesignOrderID:    order.ID,
		OrderRef:         order.OrderRef,
		LineRef:          order.LineRef,
		ProductID:        order.ProductID,
		DecorationMethod: order.DecorationMethod,
		TotalQuantity:    order.TotalQuantity,
		FinalTotal:       order.FinalTotal,
		StockReserved:    order.StockReserved,
		Lines:            make([]payloads.DesignOrderLine, 0, len(order.Lines)),
		Positions:        make([]payloads.DesignOrderPositionEvent, 0, len(order.Positions)),
	}
	for _, line := range order.Lines {
		data.Lines = append(data.Lines, payloads.DesignOrderLine{
			ColorKey:  line.ColorKey,
			ColorName: line.ColorName,
			Size:      line.Size,
			Quantity:  line.Quantity,
		})
	}
	for _, pos := range order.Positions {
		event := payloads.DesignOrderPositionEvent{
			Position:         pos.Position,
			DecorationMethod: pos.DecorationMethod,
		}
		if pricing.IsInlineImage(pos.AssetRef) {
			event.InlineAsset = true
		} else {
			event.AssetRef = pos.AssetRef
		}
		if pos.CompositeRef != nil && !pricing.IsInlineImage(*pos.CompositeRef) {
			event.CompositeRef = *pos.CompositeRef
		}
		data.Positions = append(data.Positions, event)
	}
	return outbox.Event{
		Type:        enums.EventDesignOrderFinalized,
		AggregateID: order.ID,
		Source:      "storefront",
		Data:        data,
		OccurredAt:  order.CreatedAt,
	}
}

func buildOrder(
	orderID, productID uuid.UUID,
	orderRef, lineRef, encoded string,
	sel pricing.DesignOrderSelection,
	cfg pricing.ProductDesignConfig,
	lines []pricing.QuantityLine,
	breakdown pricing.PriceBreakdown,
	composites map[enums.PrintPosition]string,
) *models.DesignOrder {
	order := &models.DesignOrder{
		ID:              orderID,
		OrderRef:        orderRef,
		LineRef:         lineRef,
		ProductID:       productID,
		Status:          enums.DesignOrderStatusFinalized,
		Selection:       encoded,
		TotalQuantity:   breakdown.TotalQuantity,
		UnitPrice:       breakdown.UnitPrice,
		ProductTotal:    breakdown.ProductTotal,
		SetupFeeTotal:   breakdown.SetupFeeTotal,
		DiscountPercent: breakdown.DiscountPercent,
		DiscountAmount:  breakdown.DiscountAmount,
		FinalTotal:      breakdown.FinalTotal,
	}
	if method := sel.Method(); method != "" {
		order.DecorationMethod = &method
	}
	for _, line := range lines {
		order.Lines = append(order.Lines, models.DesignOrderLine{
			DesignOrderID: order.ID,
			ColorKey:      string(line.ColorKey),
			Size:          line.Size,
			ColorName:     cfg.ColorName(line.ColorKey),
			Quantity:      line.Quantity,
		})
	}
	for _, pos := range sel.Positions {
		placement := sel.PlacementFor(pos)
		record := models.DesignOrderPosition{
			DesignOrderID:    order.ID,
			Position:         pos,
			AssetRef:         sel.Designs[pos],
			DecorationMethod: order.DecorationMethod,
			X:                placement.X,
			Y:                placement.Y,
			Scale:            placement.Scale,
			Rotation:         placement.Rotation,
		}
		if method, ok := sel.PositionMethods[pos]; ok && method != "" {
			m := method
			record.DecorationMethod = &m
		}
		if ref, ok := composites[pos]; ok {
			r := ref
			record.CompositeRef = &r
		}
		order.Positions = append(order.Positions, record)
	}
	return order
}
