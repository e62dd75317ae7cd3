package pricing

import (
	"context"

	"printcalc/internal/models"

	"github.com/shopspring/decimal"
)

// Catalog is the read-only view of reference data the engine needs.
// Lookups return (nil, nil) when nothing matches.
type Catalog interface {
	GetProductByCode(ctx context.Context, code string) (*models.Product, error)
	// GetPriceRanges returns every band of the product. Bands of one
	// product must not overlap.
	GetPriceRanges(ctx context.Context, productID int64) ([]models.PriceRange, error)
	GetMaterialByCode(ctx context.Context, code string) (*models.Material, error)
	GetModifiersByCodes(ctx context.Context, codes []string) ([]models.Modifier, error)
}

type Request struct {
	ProductCode   string   `json:"product_code"`
	Quantity      int      `json:"quantity"`
	MaterialCode  string   `json:"material_code"`
	ModifierCodes []string `json:"modifier_codes"`
}

type WarningKind string

const (
	WarningQuantityFallback   WarningKind = "quantity_fallback"
	WarningModifierNotFound   WarningKind = "modifier_not_found"
	WarningModifierMultiplier WarningKind = "modifier_invalid_multiplier"
	WarningDeadlineClamped    WarningKind = "deadline_clamped"
)

// Warning records a degraded but non-fatal condition met while pricing.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message"`
}

type Result struct {
	Price         decimal.Decimal `json:"price"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	DeadlineDays  int             `json:"deadline_days"`
	QuantityUsed  int             `json:"quantity_used"`
	ModifiersUsed []string        `json:"modifiers_used"`
	Warnings      []Warning       `json:"warnings,omitempty"`

	ProductName  string `json:"product_name"`
	ProductUnit  string `json:"product_unit"`
	MaterialName string `json:"material_name"`
}

// HasWarning reports whether a warning of the given kind was recorded.
func (r *Result) HasWarning(kind WarningKind) bool {
	for _, w := range r.Warnings {
		if w.Kind == kind {
			return true
		}
	}
	return false
}
