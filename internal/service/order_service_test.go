package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"printcalc/internal/events"
	"printcalc/internal/models"
	"printcalc/internal/pricing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOrderService_PlaceOrder(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	req := pricing.Request{
		ProductCode:   "business_card",
		Quantity:      250,
		MaterialCode:  "paper_350",
		ModifierCodes: []string{"lamination", "ghost"},
	}
	res := &pricing.Result{
		Price:         decimal.RequireFromString("215.09"),
		DeadlineDays:  4,
		QuantityUsed:  250,
		ModifiersUsed: []string{"Ламінація"},
		Warnings:      []pricing.Warning{{Kind: pricing.WarningModifierNotFound, Code: "ghost", Message: `modifier "ghost" not found`}},
		ProductName:   "Візитки",
		MaterialName:  "Папір 350",
	}

	t.Run("Success", func(t *testing.T) {
		q := new(mockQuoter)
		repo := new(mockOrderRepo)
		pub := new(mockPublisher)

		q.On("Calculate", ctx, req).Return(res, nil).Once()
		repo.On("CreateOrder", ctx, mock.MatchedBy(func(o *models.Order) bool {
			return o.UserID == 42 &&
				o.ProductName == "Візитки" &&
				o.QuantityUsed == 250 &&
				o.CreatedAt.Equal(now) &&
				len(o.ModifierCodes) == 2 &&
				len(o.ModifierNames) == 1
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Order).ID = 17
		}).Return(nil).Once()
		pub.On("PublishJSON", events.EventOrderCreated, mock.MatchedBy(func(p events.OrderEventPayload) bool {
			return p.OrderID == 17 && p.Price == "215.09" && len(p.Warnings) == 1
		})).Return(nil).Once()

		s := NewOrderService(q, repo, pub, time.UTC, &logger)
		s.now = func() time.Time { return now }

		order, got, err := s.PlaceOrder(ctx, 42, req)
		require.NoError(t, err)
		assert.Equal(t, int64(17), order.ID)
		assert.Equal(t, res, got)
		q.AssertExpectations(t)
		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("PricingErrorNotStored", func(t *testing.T) {
		q := new(mockQuoter)
		repo := new(mockOrderRepo)
		q.On("Calculate", ctx, req).Return(nil, pricing.ErrNotFound).Once()

		s := NewOrderService(q, repo, nil, time.UTC, &logger)
		_, _, err := s.PlaceOrder(ctx, 42, req)
		assert.ErrorIs(t, err, pricing.ErrNotFound)
		repo.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	})

	t.Run("StoreErrorKeepsResult", func(t *testing.T) {
		q := new(mockQuoter)
		repo := new(mockOrderRepo)
		pub := new(mockPublisher)
		q.On("Calculate", ctx, req).Return(res, nil).Once()
		repo.On("CreateOrder", ctx, mock.Anything).Return(errors.New("disk full")).Once()

		s := NewOrderService(q, repo, pub, time.UTC, &logger)
		order, got, err := s.PlaceOrder(ctx, 42, req)
		assert.Error(t, err)
		assert.Nil(t, order)
		assert.Equal(t, res, got)
		pub.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything)
	})

	t.Run("PublishErrorIgnored", func(t *testing.T) {
		q := new(mockQuoter)
		repo := new(mockOrderRepo)
		pub := new(mockPublisher)
		q.On("Calculate", ctx, req).Return(res, nil).Once()
		repo.On("CreateOrder", ctx, mock.Anything).Return(nil).Once()
		pub.On("PublishJSON", events.EventOrderCreated, mock.Anything).Return(errors.New("bus")).Once()

		s := NewOrderService(q, repo, pub, time.UTC, &logger)
		_, _, err := s.PlaceOrder(ctx, 42, req)
		assert.NoError(t, err)
	})
}

func TestOrderService_OrdersForDay(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	kyiv := time.FixedZone("EET", 2*60*60)

	repo := new(mockOrderRepo)
	start := time.Date(2026, 3, 14, 0, 0, 0, 0, kyiv)
	end := start.AddDate(0, 0, 1)
	orders := []models.Order{{ID: 1}, {ID: 2}}
	repo.On("GetOrdersByDateRange", ctx, start, end).Return(orders, nil).Once()

	s := NewOrderService(nil, repo, nil, kyiv, &logger)

	// any instant of that local day selects the same range
	got, err := s.OrdersForDay(ctx, time.Date(2026, 3, 14, 20, 30, 0, 0, time.UTC).Add(-10*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, orders, got)
	repo.AssertExpectations(t)

	repo.On("GetOrdersByDateRange", ctx, mock.Anything, mock.Anything).Return(nil, errors.New("closed")).Once()
	_, err = s.OrdersForDay(ctx, start)
	assert.Error(t, err)
}

func TestOrderService_ParseDay(t *testing.T) {
	logger := zerolog.Nop()
	kyiv := time.FixedZone("EET", 2*60*60)
	s := NewOrderService(nil, nil, nil, kyiv, &logger)

	day, err := s.ParseDay(" 14.03.2026 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, kyiv), day)
	assert.Equal(t, kyiv, s.Location())

	for _, raw := range []string{"", "2026-03-14", "32.01.2026", "14/03/2026", "abc"} {
		_, err := s.ParseDay(raw)
		assert.ErrorIs(t, err, ErrInvalidDate, raw)
	}
}

func TestNewOrderService_DefaultLocation(t *testing.T) {
	logger := zerolog.Nop()
	s := NewOrderService(nil, nil, nil, nil, &logger)
	assert.Equal(t, time.UTC, s.Location())
}
