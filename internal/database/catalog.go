package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"printcalc/internal/models"
)

// SyncCatalog replaces the reference tables with the contents of cat.
// Rows are upserted by code so ids stay stable across restarts; codes
// missing from cat are removed.
func (db *DB) SyncCatalog(ctx context.Context, cat *models.Catalog) error {
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		productCodes := make([]string, 0, len(cat.Products))
		for i, p := range cat.Products {
			id, err := upsertProduct(ctx, tx, &p.Product, i)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM price_ranges WHERE product_id = ?`, id); err != nil {
				return fmt.Errorf("failed to clear price ranges of %q: %w", p.Code, err)
			}
			for _, r := range p.PriceRanges {
				_, err := tx.ExecContext(ctx,
					`INSERT INTO price_ranges (product_id, range_from, range_to, price) VALUES (?, ?, ?, ?)`,
					id, r.RangeFrom, r.RangeTo, r.Price)
				if err != nil {
					return fmt.Errorf("failed to insert price range of %q: %w", p.Code, err)
				}
			}
			productCodes = append(productCodes, p.Code)
		}
		if err := deleteMissing(ctx, tx, "products", productCodes); err != nil {
			return err
		}

		materialCodes := make([]string, 0, len(cat.Materials))
		for i, m := range cat.Materials {
			_, err := tx.ExecContext(ctx, `INSERT INTO materials (code, name, price_multiplier, sort_order)
                VALUES (?, ?, ?, ?)
                ON CONFLICT(code) DO UPDATE SET
                    name = excluded.name,
                    price_multiplier = excluded.price_multiplier,
                    sort_order = excluded.sort_order`,
				m.Code, m.Name, m.PriceMultiplier, i)
			if err != nil {
				return fmt.Errorf("failed to upsert material %q: %w", m.Code, err)
			}
			materialCodes = append(materialCodes, m.Code)
		}
		if err := deleteMissing(ctx, tx, "materials", materialCodes); err != nil {
			return err
		}

		modifierCodes := make([]string, 0, len(cat.Modifiers))
		for i, m := range cat.Modifiers {
			_, err := tx.ExecContext(ctx, `INSERT INTO modifiers (code, name, price_multiplier, deadline_modifier_days, sort_order)
                VALUES (?, ?, ?, ?, ?)
                ON CONFLICT(code) DO UPDATE SET
                    name = excluded.name,
                    price_multiplier = excluded.price_multiplier,
                    deadline_modifier_days = excluded.deadline_modifier_days,
                    sort_order = excluded.sort_order`,
				m.Code, m.Name, m.PriceMultiplier, m.DeadlineModifierDays, i)
			if err != nil {
				return fmt.Errorf("failed to upsert modifier %q: %w", m.Code, err)
			}
			modifierCodes = append(modifierCodes, m.Code)
		}
		return deleteMissing(ctx, tx, "modifiers", modifierCodes)
	})
	if err != nil {
		return fmt.Errorf("failed to sync catalog: %w", err)
	}

	db.logger.Info().
		Int("products", len(cat.Products)).
		Int("materials", len(cat.Materials)).
		Int("modifiers", len(cat.Modifiers)).
		Msg("Catalog synced")
	return nil
}

func upsertProduct(ctx context.Context, tx *sql.Tx, p *models.Product, order int) (int64, error) {
	_, err := tx.ExecContext(ctx, `INSERT INTO products (code, name, unit, base_deadline_days, sort_order)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(code) DO UPDATE SET
            name = excluded.name,
            unit = excluded.unit,
            base_deadline_days = excluded.base_deadline_days,
            sort_order = excluded.sort_order`,
		p.Code, p.Name, p.Unit, p.BaseDeadlineDays, order)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert product %q: %w", p.Code, err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM products WHERE code = ?`, p.Code).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read product id of %q: %w", p.Code, err)
	}
	return id, nil
}

// deleteMissing removes rows of table whose code is not in keep.
func deleteMissing(ctx context.Context, tx *sql.Tx, table string, keep []string) error {
	query := "DELETE FROM " + table
	args := make([]interface{}, 0, len(keep))
	if len(keep) > 0 {
		query += " WHERE code NOT IN (" + placeholders(len(keep)) + ")"
		for _, c := range keep {
			args = append(args, c)
		}
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to prune %s: %w", table, err)
	}
	return nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func (db *DB) GetProductByCode(ctx context.Context, code string) (*models.Product, error) {
	var p models.Product
	err := db.QueryRowContext(ctx,
		`SELECT id, code, name, unit, base_deadline_days FROM products WHERE code = ?`, code).
		Scan(&p.ID, &p.Code, &p.Name, &p.Unit, &p.BaseDeadlineDays)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

// GetPriceRanges returns the bands of a product ordered by lower bound.
func (db *DB) GetPriceRanges(ctx context.Context, productID int64) ([]models.PriceRange, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, product_id, range_from, range_to, price
        FROM price_ranges WHERE product_id = ? ORDER BY range_from, id`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get price ranges: %w", err)
	}
	defer rows.Close()

	var ranges []models.PriceRange
	for rows.Next() {
		var r models.PriceRange
		if err := rows.Scan(&r.ID, &r.ProductID, &r.RangeFrom, &r.RangeTo, &r.Price); err != nil {
			return nil, fmt.Errorf("failed to scan price range: %w", err)
		}
		ranges = append(ranges, r)
	}
	return ranges, rows.Err()
}

func (db *DB) GetMaterialByCode(ctx context.Context, code string) (*models.Material, error) {
	var m models.Material
	err := db.QueryRowContext(ctx,
		`SELECT id, code, name, price_multiplier FROM materials WHERE code = ?`, code).
		Scan(&m.ID, &m.Code, &m.Name, &m.PriceMultiplier)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get material: %w", err)
	}
	return &m, nil
}

func (db *DB) GetModifiersByCodes(ctx context.Context, codes []string) ([]models.Modifier, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	args := make([]interface{}, len(codes))
	for i, c := range codes {
		args[i] = c
	}
	query := `SELECT id, code, name, price_multiplier, deadline_modifier_days
        FROM modifiers WHERE code IN (` + placeholders(len(codes)) + `) ORDER BY sort_order, id`
	return db.queryModifiers(ctx, query, args...)
}

func (db *DB) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, code, name, unit, base_deadline_days FROM products ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Unit, &p.BaseDeadlineDays); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (db *DB) ListMaterials(ctx context.Context) ([]models.Material, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, code, name, price_multiplier FROM materials ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	defer rows.Close()

	var materials []models.Material
	for rows.Next() {
		var m models.Material
		if err := rows.Scan(&m.ID, &m.Code, &m.Name, &m.PriceMultiplier); err != nil {
			return nil, fmt.Errorf("failed to scan material: %w", err)
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

func (db *DB) ListModifiers(ctx context.Context) ([]models.Modifier, error) {
	return db.queryModifiers(ctx, `SELECT id, code, name, price_multiplier, deadline_modifier_days
        FROM modifiers ORDER BY sort_order, id`)
}

func (db *DB) queryModifiers(ctx context.Context, query string, args ...interface{}) ([]models.Modifier, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get modifiers: %w", err)
	}
	defer rows.Close()

	var modifiers []models.Modifier
	for rows.Next() {
		var m models.Modifier
		if err := rows.Scan(&m.ID, &m.Code, &m.Name, &m.PriceMultiplier, &m.DeadlineModifierDays); err != nil {
			return nil, fmt.Errorf("failed to scan modifier: %w", err)
		}
		modifiers = append(modifiers, m)
	}
	return modifiers, rows.Err()
}
