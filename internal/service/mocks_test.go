package service

import (
	"context"
	"time"

	"printcalc/internal/models"
	"printcalc/internal/pricing"

	"github.com/stretchr/testify/mock"
)

type mockQuoter struct {
	mock.Mock
}

func (m *mockQuoter) Calculate(ctx context.Context, req pricing.Request) (*pricing.Result, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*pricing.Result)
	return res, args.Error(1)
}

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepo) GetOrdersByDateRange(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	args := m.Called(ctx, from, to)
	orders, _ := args.Get(0).([]models.Order)
	return orders, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(eventType string, payload interface{}) error {
	args := m.Called(eventType, payload)
	return args.Error(0)
}

type mockCatalogRepo struct {
	mock.Mock
}

func (m *mockCatalogRepo) GetProductByCode(ctx context.Context, code string) (*models.Product, error) {
	args := m.Called(ctx, code)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func (m *mockCatalogRepo) GetPriceRanges(ctx context.Context, productID int64) ([]models.PriceRange, error) {
	args := m.Called(ctx, productID)
	r, _ := args.Get(0).([]models.PriceRange)
	return r, args.Error(1)
}

func (m *mockCatalogRepo) GetMaterialByCode(ctx context.Context, code string) (*models.Material, error) {
	args := m.Called(ctx, code)
	mt, _ := args.Get(0).(*models.Material)
	return mt, args.Error(1)
}

func (m *mockCatalogRepo) GetModifiersByCodes(ctx context.Context, codes []string) ([]models.Modifier, error) {
	args := m.Called(ctx, codes)
	mods, _ := args.Get(0).([]models.Modifier)
	return mods, args.Error(1)
}

func (m *mockCatalogRepo) ListProducts(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).([]models.Product)
	return p, args.Error(1)
}

func (m *mockCatalogRepo) ListMaterials(ctx context.Context) ([]models.Material, error) {
	args := m.Called(ctx)
	mt, _ := args.Get(0).([]models.Material)
	return mt, args.Error(1)
}

func (m *mockCatalogRepo) ListModifiers(ctx context.Context) ([]models.Modifier, error) {
	args := m.Called(ctx)
	mods, _ := args.Get(0).([]models.Modifier)
	return mods, args.Error(1)
}
