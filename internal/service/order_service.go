package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"printcalc/internal/domain"
	"printcalc/internal/events"
	"printcalc/internal/metrics"
	"printcalc/internal/models"
	"printcalc/internal/pricing"

	"github.com/rs/zerolog"
)

var ErrInvalidDate = errors.New("invalid date")

// OrderService prices a request, stores it as an order and announces it.
type OrderService struct {
	quoter domain.Quoter
	repo   domain.OrderRepository
	events domain.EventPublisher
	loc    *time.Location
	logger *zerolog.Logger
	now    func() time.Time
}

func NewOrderService(
	quoter domain.Quoter,
	repo domain.OrderRepository,
	publisher domain.EventPublisher,
	loc *time.Location,
	logger *zerolog.Logger,
) *OrderService {
	if loc == nil {
		loc = time.UTC
	}
	return &OrderService{
		quoter: quoter,
		repo:   repo,
		events: publisher,
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}
}

// PlaceOrder calculates req and persists the quote. Pricing errors are
// returned unchanged so callers can match them with errors.Is.
func (s *OrderService) PlaceOrder(ctx context.Context, userID int64, req pricing.Request) (*models.Order, *pricing.Result, error) {
	res, err := s.quoter.Calculate(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	order := &models.Order{
		UserID:        userID,
		ProductCode:   strings.TrimSpace(req.ProductCode),
		ProductName:   res.ProductName,
		MaterialCode:  strings.TrimSpace(req.MaterialCode),
		MaterialName:  res.MaterialName,
		Quantity:      req.Quantity,
		QuantityUsed:  res.QuantityUsed,
		ModifierCodes: req.ModifierCodes,
		ModifierNames: res.ModifiersUsed,
		Price:         res.Price,
		DeadlineDays:  res.DeadlineDays,
		CreatedAt:     s.now(),
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, res, fmt.Errorf("save order: %w", err)
	}
	metrics.IncOrderCreated(order.ProductCode)

	s.logger.Info().
		Int64("order_id", order.ID).
		Int64("user_id", userID).
		Str("product", order.ProductCode).
		Str("price", order.Price.StringFixed(2)).
		Msg("Order created")

	warnings := make([]string, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		warnings = append(warnings, w.Message)
	}
	if s.events != nil {
		err := s.events.PublishJSON(events.EventOrderCreated, events.OrderEventPayload{
			OrderID:      order.ID,
			UserID:       userID,
			ProductCode:  order.ProductCode,
			ProductName:  order.ProductName,
			MaterialName: order.MaterialName,
			Quantity:     order.Quantity,
			QuantityUsed: order.QuantityUsed,
			Modifiers:    order.ModifierNames,
			Price:        order.Price.StringFixed(2),
			DeadlineDays: order.DeadlineDays,
			Warnings:     warnings,
			CreatedAt:    order.CreatedAt,
		})
		if err != nil {
			s.logger.Warn().Err(err).Int64("order_id", order.ID).Msg("Failed to publish order event")
		}
	}

	return order, res, nil
}

// OrdersForDay returns orders created on the calendar day of day in the
// service time zone.
func (s *OrderService) OrdersForDay(ctx context.Context, day time.Time) ([]models.Order, error) {
	d := day.In(s.loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 0, 1)

	orders, err := s.repo.GetOrdersByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	return orders, nil
}

// ParseDay parses DD.MM.YYYY in the service time zone.
func (s *OrderService) ParseDay(raw string) (time.Time, error) {
	day, err := time.ParseInLocation(models.DateLayout, strings.TrimSpace(raw), s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return day, nil
}

func (s *OrderService) Location() *time.Location {
	return s.loc
}
