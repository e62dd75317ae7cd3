package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a stored quote. ModifierCodes are kept in the order the user picked them,
// ModifierNames lists only the services that affected the price.
type Order struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	ProductCode   string          `json:"product_code"`
	ProductName   string          `json:"product_name"`
	MaterialCode  string          `json:"material_code"`
	MaterialName  string          `json:"material_name"`
	Quantity      int             `json:"quantity"`
	QuantityUsed  int             `json:"quantity_used"`
	ModifierCodes []string        `json:"modifier_codes"`
	ModifierNames []string        `json:"modifier_names"`
	Price         decimal.Decimal `json:"price"`
	DeadlineDays  int             `json:"deadline_days"`
	CreatedAt     time.Time       `json:"created_at"`
}
