package bot

import (
	"context"

	"printcalc/internal/metrics"

	"github.com/rs/zerolog"
)

func (b *Bot) withRecovery(ctx context.Context, handler func()) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncPanic()
			zerolog.Ctx(ctx).Error().Interface("panic", r).Msg("Recovered from panic in update handler")
		}
	}()
	handler()
}
