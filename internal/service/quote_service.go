package service

import (
	"context"
	"errors"

	"printcalc/internal/domain"
	"printcalc/internal/events"
	"printcalc/internal/metrics"
	"printcalc/internal/pricing"

	"github.com/rs/zerolog"
)

const (
	OutcomeOK           = "ok"
	OutcomeInvalidInput = "invalid_input"
	OutcomeNotFound     = "not_found"
	OutcomeInvalidData  = "invalid_data"
	OutcomeError        = "error"
)

// QuoteService wraps the pricing engine with metrics and event publishing.
type QuoteService struct {
	engine domain.Quoter
	events domain.EventPublisher
	source string
	logger *zerolog.Logger
}

// NewQuoteService builds a quoter; source labels metrics ("bot", "api").
func NewQuoteService(engine domain.Quoter, publisher domain.EventPublisher, source string, logger *zerolog.Logger) *QuoteService {
	return &QuoteService{
		engine: engine,
		events: publisher,
		source: source,
		logger: logger,
	}
}

func (s *QuoteService) Calculate(ctx context.Context, req pricing.Request) (*pricing.Result, error) {
	res, err := s.engine.Calculate(ctx, req)
	metrics.IncQuote(s.source, Outcome(err))
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidData) && s.events != nil {
			pubErr := s.events.PublishJSON(events.EventQuoteFailed, events.QuoteFailedPayload{
				ProductCode:  req.ProductCode,
				MaterialCode: req.MaterialCode,
				Error:        err.Error(),
			})
			if pubErr != nil {
				s.logger.Warn().Err(pubErr).Msg("Failed to publish quote failure")
			}
		}
		return nil, err
	}

	for _, w := range res.Warnings {
		metrics.IncDegradation(string(w.Kind))
	}
	return res, nil
}

// Outcome maps a Calculate error to its metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, pricing.ErrInvalidInput):
		return OutcomeInvalidInput
	case errors.Is(err, pricing.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, pricing.ErrInvalidData):
		return OutcomeInvalidData
	default:
		return OutcomeError
	}
}
