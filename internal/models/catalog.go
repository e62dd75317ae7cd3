package models

import "github.com/shopspring/decimal"

// Product is a printable item the shop quotes, e.g. business cards.
type Product struct {
	ID               int64  `yaml:"-" json:"id"`
	Code             string `yaml:"code" json:"code"`
	Name             string `yaml:"name" json:"name"`
	Unit             string `yaml:"unit" json:"unit"`
	BaseDeadlineDays int    `yaml:"base_deadline_days" json:"base_deadline_days"`
}

// PriceRange is one quantity band of a product with a flat price for the whole band.
// Bounds are inclusive on both ends.
type PriceRange struct {
	ID        int64           `yaml:"-" json:"id"`
	ProductID int64           `yaml:"-" json:"product_id"`
	RangeFrom int             `yaml:"from" json:"range_from"`
	RangeTo   int             `yaml:"to" json:"range_to"`
	Price     decimal.Decimal `yaml:"price" json:"price"`
}

// Width returns the number of units the band covers.
func (r PriceRange) Width() int {
	return r.RangeTo - r.RangeFrom + 1
}

// Contains reports whether qty falls inside the band.
func (r PriceRange) Contains(qty int) bool {
	return r.RangeFrom <= qty && qty <= r.RangeTo
}

type Material struct {
	ID              int64           `yaml:"-" json:"id"`
	Code            string          `yaml:"code" json:"code"`
	Name            string          `yaml:"name" json:"name"`
	PriceMultiplier decimal.Decimal `yaml:"price_multiplier" json:"price_multiplier"`
}

// Modifier is an optional add-on service (lamination, rounded corners...).
type Modifier struct {
	ID                   int64           `yaml:"-" json:"id"`
	Code                 string          `yaml:"code" json:"code"`
	Name                 string          `yaml:"name" json:"name"`
	PriceMultiplier      decimal.Decimal `yaml:"price_multiplier" json:"price_multiplier"`
	DeadlineModifierDays int             `yaml:"deadline_modifier_days" json:"deadline_modifier_days"`
}

// CatalogProduct is the catalog file representation of a product with its bands.
type CatalogProduct struct {
	Product     `yaml:",inline"`
	PriceRanges []PriceRange `yaml:"price_ranges"`
}

// Catalog is the reference data loaded from catalog.yaml.
type Catalog struct {
	Products  []CatalogProduct `yaml:"products"`
	Materials []Material       `yaml:"materials"`
	Modifiers []Modifier       `yaml:"modifiers"`
}
