package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"printcalc/internal/models"
)

const orderColumns = `id, user_id, product_code, product_name, material_code, material_name,
        quantity, quantity_used, modifier_codes, modifier_names, price, deadline_days, created_at`

func (db *DB) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	order.CreatedAt = order.CreatedAt.UTC().Truncate(time.Second)

	names, err := json.Marshal(nonNil(order.ModifierNames))
	if err != nil {
		return fmt.Errorf("failed to encode modifier names: %w", err)
	}

	query := `INSERT INTO orders (
                user_id, product_code, product_name, material_code, material_name,
                quantity, quantity_used, modifier_codes, modifier_names, price, deadline_days, created_at
              ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		order.UserID,
		order.ProductCode,
		order.ProductName,
		order.MaterialCode,
		order.MaterialName,
		order.Quantity,
		order.QuantityUsed,
		strings.Join(order.ModifierCodes, ","),
		string(names),
		order.Price.StringFixed(2),
		order.DeadlineDays,
		order.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	order.ID = id
	return nil
}

func (db *DB) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	row := db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// GetOrdersByDateRange returns orders created in [from, to) ordered by creation time.
func (db *DB) GetOrdersByDateRange(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
        WHERE created_at >= ? AND created_at < ?
        ORDER BY created_at, id`

	rows, err := db.QueryContext(ctx, query, from.UTC().Format(timeLayout), to.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	db.logger.Debug().
		Time("from", from).
		Time("to", to).
		Int("count", len(orders)).
		Msg("Orders loaded")
	return orders, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		o         models.Order
		codes     string
		names     string
		createdAt time.Time
	)
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.ProductCode,
		&o.ProductName,
		&o.MaterialCode,
		&o.MaterialName,
		&o.Quantity,
		&o.QuantityUsed,
		&codes,
		&names,
		&o.Price,
		&o.DeadlineDays,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	o.ModifierCodes = splitCodes(codes)
	if err := json.Unmarshal([]byte(names), &o.ModifierNames); err != nil {
		return nil, fmt.Errorf("decode modifier names of order %d: %w", o.ID, err)
	}
	o.CreatedAt = createdAt.UTC()
	return &o, nil
}

func splitCodes(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
