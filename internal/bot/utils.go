package bot

import (
	"context"

	"printcalc/internal/models"

	"github.com/rs/zerolog"
)

// Вспомогательные методы для работы с состояниями пользователей

func (b *Bot) setUserState(ctx context.Context, userID int64, step string, tempData map[string]interface{}) {
	if tempData == nil {
		tempData = make(map[string]interface{})
	}
	if err := b.stateService.SetUserState(ctx, userID, step, tempData); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Str("step", step).Msg("Failed to save user state")
	}
}

func (b *Bot) getUserState(ctx context.Context, userID int64) *models.UserState {
	state, err := b.stateService.GetUserState(ctx, userID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Msg("Failed to load user state")
		return nil
	}
	return state
}

func (b *Bot) clearUserState(ctx context.Context, userID int64) {
	if err := b.stateService.ClearUserState(ctx, userID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Msg("Failed to clear user state")
	}
}

func (b *Bot) isOperator(userID int64) bool {
	return b.access != nil && b.access.IsAllowed(userID)
}

func (b *Bot) sendMessage(chatID int64, text string) int {
	msg, err := b.tgService.SendMessage(chatID, text)
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
		return 0
	}
	return msg.MessageID
}

func (b *Bot) sendHTML(chatID int64, text string) int {
	msg, err := b.tgService.SendHTML(chatID, text)
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
		return 0
	}
	return msg.MessageID
}

func (b *Bot) answerCallback(callbackID, text string) {
	if err := b.tgService.AnswerCallback(callbackID, text); err != nil {
		b.logger.Debug().Err(err).Msg("Failed to answer callback")
	}
}

// trackMessage remembers an intermediate message so it can be removed when the flow ends.
func trackMessage(state *models.UserState, messageID int) {
	if messageID == 0 {
		return
	}
	ids := state.GetInts(models.KeyMessageIDs)
	for _, id := range ids {
		if id == messageID {
			return
		}
	}
	state.Set(models.KeyMessageIDs, append(ids, messageID))
}

// deleteTracked removes intermediate messages. Failures are ignored: the
// message may be too old or already gone.
func (b *Bot) deleteTracked(ctx context.Context, chatID int64, state *models.UserState) {
	if state == nil {
		return
	}
	for _, id := range state.GetInts(models.KeyMessageIDs) {
		if err := b.tgService.DeleteMessage(chatID, id); err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Int("message_id", id).Msg("Failed to delete message")
		}
	}
}
