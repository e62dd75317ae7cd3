package service

import (
	"context"
	"fmt"

	"printcalc/internal/domain"
	"printcalc/internal/models"

	"github.com/rs/zerolog"
)

// CatalogService serves reference data for keyboards and prompts.
type CatalogService struct {
	repo   domain.CatalogRepository
	logger *zerolog.Logger
}

func NewCatalogService(repo domain.CatalogRepository, logger *zerolog.Logger) *CatalogService {
	return &CatalogService{repo: repo, logger: logger}
}

func (s *CatalogService) Products(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list products")
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *CatalogService) Materials(ctx context.Context) ([]models.Material, error) {
	materials, err := s.repo.ListMaterials(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list materials")
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return materials, nil
}

func (s *CatalogService) Modifiers(ctx context.Context) ([]models.Modifier, error) {
	modifiers, err := s.repo.ListModifiers(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list modifiers")
		return nil, fmt.Errorf("list modifiers: %w", err)
	}
	return modifiers, nil
}
