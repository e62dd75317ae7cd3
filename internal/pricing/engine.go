package pricing

import (
	"context"
	"fmt"
	"strings"

	"printcalc/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Engine prices print orders against a Catalog. It keeps no state between
// calls and is safe for concurrent use.
type Engine struct {
	catalog Catalog
	logger  *zerolog.Logger
}

func NewEngine(catalog Catalog, logger *zerolog.Logger) *Engine {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "pricing").Logger()
	return &Engine{catalog: catalog, logger: &l}
}

// Calculate computes the price and deadline for req.
//
// The total is price * material * modifiers * quantity / band width,
// rounded to 2 places half away from zero. Division happens last so the
// final rounding is the only one.
func (e *Engine) Calculate(ctx context.Context, req Request) (*Result, error) {
	productCode := strings.TrimSpace(req.ProductCode)
	materialCode := strings.TrimSpace(req.MaterialCode)

	if productCode == "" {
		return nil, fmt.Errorf("%w: product code is empty", ErrInvalidInput)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidInput, req.Quantity)
	}
	if materialCode == "" {
		return nil, fmt.Errorf("%w: material code is empty", ErrInvalidInput)
	}

	log := e.log(ctx).With().
		Str("product", productCode).
		Int("quantity", req.Quantity).
		Str("material", materialCode).
		Logger()

	res := &Result{QuantityUsed: req.Quantity, ModifiersUsed: []string{}}

	product, err := e.catalog.GetProductByCode(ctx, productCode)
	if err != nil {
		return nil, fmt.Errorf("get product %q: %w", productCode, err)
	}
	if product == nil {
		return nil, fmt.Errorf("%w: no price for product %q", ErrNotFound, productCode)
	}
	res.ProductName = product.Name
	res.ProductUnit = product.Unit

	ranges, err := e.catalog.GetPriceRanges(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("get price ranges for %q: %w", productCode, err)
	}
	tier, ok := matchRange(ranges, req.Quantity)
	if !ok {
		tier, ok = topRange(ranges)
		if !ok {
			return nil, fmt.Errorf("%w: no price for product %q", ErrNotFound, productCode)
		}
		res.QuantityUsed = tier.RangeTo
		res.warn(WarningQuantityFallback, "",
			fmt.Sprintf("quantity %d is outside every tier, priced as %d", req.Quantity, tier.RangeTo))
		log.Warn().
			Int("quantity_used", tier.RangeTo).
			Msg("Quantity outside all price tiers, using top tier ceiling")
	}

	width := tier.Width()
	if width < 1 {
		log.Error().
			Int64("range_id", tier.ID).
			Int("range_from", tier.RangeFrom).
			Int("range_to", tier.RangeTo).
			Msg("Price range has non-positive width")
		return nil, fmt.Errorf("%w: price range %d has width %d", ErrInvalidData, tier.ID, width)
	}

	material, err := e.catalog.GetMaterialByCode(ctx, materialCode)
	if err != nil {
		return nil, fmt.Errorf("get material %q: %w", materialCode, err)
	}
	if material == nil {
		return nil, fmt.Errorf("%w: material %q", ErrNotFound, materialCode)
	}
	if !material.PriceMultiplier.IsPositive() {
		log.Error().
			Str("multiplier", material.PriceMultiplier.String()).
			Msg("Material has non-positive price multiplier")
		return nil, fmt.Errorf("%w: material %q has multiplier %s",
			ErrInvalidData, materialCode, material.PriceMultiplier)
	}
	res.MaterialName = material.Name

	factor := material.PriceMultiplier
	deadlineShift := 0

	codes := dedupe(req.ModifierCodes)
	if len(codes) > 0 {
		found, err := e.catalog.GetModifiersByCodes(ctx, codes)
		if err != nil {
			return nil, fmt.Errorf("get modifiers: %w", err)
		}
		byCode := make(map[string]models.Modifier, len(found))
		for _, m := range found {
			if _, dup := byCode[m.Code]; !dup {
				byCode[m.Code] = m
			}
		}

		for _, code := range codes {
			m, ok := byCode[code]
			if !ok {
				res.warn(WarningModifierNotFound, code, fmt.Sprintf("modifier %q not found", code))
				log.Warn().Str("modifier", code).Msg("Modifier not found, skipping")
				continue
			}
			deadlineShift += m.DeadlineModifierDays
			if !m.PriceMultiplier.IsPositive() {
				res.warn(WarningModifierMultiplier, code,
					fmt.Sprintf("modifier %q has multiplier %s, price effect skipped", code, m.PriceMultiplier))
				log.Warn().
					Str("modifier", code).
					Str("multiplier", m.PriceMultiplier.String()).
					Msg("Modifier has non-positive multiplier, price effect skipped")
				continue
			}
			factor = factor.Mul(m.PriceMultiplier)
			res.ModifiersUsed = append(res.ModifiersUsed, m.Name)
		}
	}

	w := decimal.NewFromInt(int64(width))
	perBand := tier.Price.Mul(factor)
	total := perBand.Mul(decimal.NewFromInt(int64(res.QuantityUsed))).DivRound(w, 2)
	if total.IsNegative() {
		log.Error().Str("total", total.String()).Msg("Computed negative total")
		return nil, fmt.Errorf("%w: computed total %s is negative", ErrInvalidData, total)
	}
	res.Price = total
	res.UnitPrice = perBand.DivRound(w, 4)

	days := product.BaseDeadlineDays + deadlineShift
	if days < 0 {
		res.warn(WarningDeadlineClamped, "",
			fmt.Sprintf("deadline %d days clamped to 0", days))
		log.Warn().Int("deadline_days", days).Msg("Negative deadline clamped to zero")
		days = 0
	}
	res.DeadlineDays = days

	log.Debug().
		Str("price", res.Price.StringFixed(2)).
		Int("deadline_days", res.DeadlineDays).
		Int("quantity_used", res.QuantityUsed).
		Msg("Quote calculated")

	return res, nil
}

func (e *Engine) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		sub := l.With().Str("component", "pricing").Logger()
		return &sub
	}
	return e.logger
}

func (r *Result) warn(kind WarningKind, code, msg string) {
	r.Warnings = append(r.Warnings, Warning{Kind: kind, Code: code, Message: msg})
}

// matchRange picks the band containing qty. With overlapping bands the one
// with the lowest lower bound wins.
func matchRange(ranges []models.PriceRange, qty int) (models.PriceRange, bool) {
	var (
		best  models.PriceRange
		found bool
	)
	for _, r := range ranges {
		if !r.Contains(qty) {
			continue
		}
		if !found || r.RangeFrom < best.RangeFrom {
			best, found = r, true
		}
	}
	return best, found
}

func topRange(ranges []models.PriceRange) (models.PriceRange, bool) {
	if len(ranges) == 0 {
		return models.PriceRange{}, false
	}
	top := ranges[0]
	for _, r := range ranges[1:] {
		if r.RangeTo > top.RangeTo {
			top = r
		}
	}
	return top, true
}

// dedupe trims codes and drops blanks and repeats, keeping first occurrence.
func dedupe(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
