package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"printcalc/internal/config"
	"printcalc/internal/models"
	"printcalc/internal/pricing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewBot_RequiresDependencies(t *testing.T) {
	_, err := NewBot(nil, &config.Config{}, nil, nil, nil, nil, nil, nil)
	assert.Error(t, err)

	_, err = NewBot(newMockTelegram(), nil, nil, nil, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestBotStart(t *testing.T) {
	b, m := setupTestBot(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Start(ctx)
		close(done)
	}()

	m.tg.updatesChan <- textUpdate(testUserID, "/start")

	assert.Eventually(t, func() bool {
		return m.tg.lastSent().Text == greeting
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("bot did not stop")
	}
}

func TestCalcFlow(t *testing.T) {
	b, m := setupTestBot(t)
	ctx := context.Background()

	b.processUpdate(ctx, textUpdate(testUserID, "/calc"))
	productsMsg := m.tg.lastSent()
	assert.Equal(t, "Оберіть продукт:", productsMsg.Text)
	require.NotNil(t, productsMsg.Keyboard)
	assert.Equal(t, "product:business_card", *productsMsg.Keyboard.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, models.StateSelectProduct, m.state.states[testUserID].CurrentStep)

	b.processUpdate(ctx, callbackUpdate(testUserID, 101, "product:business_card"))
	assert.Contains(t, m.tg.lastSent().Text, "Введіть кількість")
	assert.Equal(t, models.StateEnterQuantity, m.state.states[testUserID].CurrentStep)

	b.processUpdate(ctx, textUpdate(testUserID, "abc"))
	assert.Equal(t, msgEnterNumber, m.tg.lastSent().Text)
	assert.Equal(t, models.StateEnterQuantity, m.state.states[testUserID].CurrentStep)

	b.processUpdate(ctx, textUpdate(testUserID, "250"))
	assert.Equal(t, "Оберіть матеріал:", m.tg.lastSent().Text)
	assert.Equal(t, models.StateSelectMaterial, m.state.states[testUserID].CurrentStep)

	b.processUpdate(ctx, callbackUpdate(testUserID, 104, "material:paper_350"))
	modsMsg := m.tg.lastSent()
	assert.Contains(t, modsMsg.Text, "додаткові послуги")
	require.NotNil(t, modsMsg.Keyboard)
	assert.Len(t, modsMsg.Keyboard.InlineKeyboard, 3)

	b.processUpdate(ctx, callbackUpdate(testUserID, 105, "mod:lamination"))
	b.processUpdate(ctx, callbackUpdate(testUserID, 105, "mod:corners"))
	b.processUpdate(ctx, callbackUpdate(testUserID, 105, "mod:corners"))
	assert.Equal(t, []string{"lamination"}, m.state.states[testUserID].GetStrings(models.KeyModifiers))

	require.Len(t, m.tg.requests, 3)
	edit, ok := m.tg.requests[2].(tgbotapi.EditMessageReplyMarkupConfig)
	require.True(t, ok)
	assert.Equal(t, 105, edit.MessageID)
	assert.Equal(t, "✅ Ламінація", edit.ReplyMarkup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "Кути", edit.ReplyMarkup.InlineKeyboard[1][0].Text)

	m.orders.On("PlaceOrder", mock.Anything, testUserID, pricing.Request{
		ProductCode:   "business_card",
		Quantity:      250,
		MaterialCode:  "paper_350",
		ModifierCodes: []string{"lamination"},
	}).Return(
		&models.Order{ID: 1, ProductName: "Візитки", MaterialName: "Папір 350 г/м²", Quantity: 250},
		&pricing.Result{
			Price:         decimal.RequireFromString("215.09"),
			DeadlineDays:  4,
			QuantityUsed:  250,
			ModifiersUsed: []string{"Ламінація"},
			ProductUnit:   "шт.",
		},
		nil,
	)

	b.processUpdate(ctx, callbackUpdate(testUserID, 105, cbModifiersEnd))

	quote := m.tg.lastSent().Text
	assert.Contains(t, quote, "Візитки")
	assert.Contains(t, quote, "250 шт.")
	assert.Contains(t, quote, "Ламінація")
	assert.Contains(t, quote, "215.09 грн")
	assert.Contains(t, quote, "4 дн.")

	assert.Contains(t, m.tg.deleted, 101)
	assert.Contains(t, m.tg.deleted, 102)
	assert.Contains(t, m.tg.deleted, 105)
	assert.Len(t, m.tg.deleted, 7)
	assert.NotContains(t, m.state.states, testUserID)
	m.orders.AssertExpectations(t)
}

func TestCalc_PricingErrorEndsFlow(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"NotFound", fmt.Errorf("%w: no price for product", pricing.ErrNotFound), "немає ціни"},
		{"InvalidData", fmt.Errorf("%w: band width", pricing.ErrInvalidData), "Зверніться до друкарні"},
		{"StoreFailure", errors.New("disk I/O error"), msgGenericError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, m := setupTestBot(t)
			ctx := context.Background()

			m.state.states[testUserID] = &models.UserState{
				UserID:      testUserID,
				CurrentStep: models.StateSelectModifiers,
				TempData: map[string]interface{}{
					models.KeyProduct:    "flyer",
					models.KeyQuantity:   float64(50),
					models.KeyMaterial:   "paper_350",
					models.KeyModifiers:  []interface{}{},
					models.KeyMessageIDs: []interface{}{float64(11), float64(12)},
				},
			}
			m.orders.On("PlaceOrder", mock.Anything, testUserID, mock.MatchedBy(func(r pricing.Request) bool {
				return r.ProductCode == "flyer" && r.Quantity == 50
			})).Return(nil, nil, tt.err)

			b.processUpdate(ctx, callbackUpdate(testUserID, 12, cbModifiersEnd))

			assert.Contains(t, m.tg.lastSent().Text, tt.want)
			assert.Equal(t, []int{11, 12}, m.tg.deleted)
			assert.NotContains(t, m.state.states, testUserID)
		})
	}
}

func TestCalc_StaleCallback(t *testing.T) {
	b, m := setupTestBot(t)

	b.processUpdate(context.Background(), callbackUpdate(testUserID, 5, "material:paper_350"))

	assert.Equal(t, msgSessionLost, m.tg.callbacks["cb-material:paper_350"])
	assert.Empty(t, m.tg.sent)
}

func TestCalc_TextDuringKeyboardStep(t *testing.T) {
	b, m := setupTestBot(t)
	m.state.states[testUserID] = &models.UserState{UserID: testUserID, CurrentStep: models.StateSelectMaterial}

	b.processUpdate(context.Background(), textUpdate(testUserID, "папір"))

	assert.Contains(t, m.tg.lastSent().Text, "/cancel")
	assert.Equal(t, models.StateSelectMaterial, m.state.states[testUserID].CurrentStep)
}

func TestCancel(t *testing.T) {
	b, m := setupTestBot(t)
	m.state.states[testUserID] = &models.UserState{
		UserID:      testUserID,
		CurrentStep: models.StateEnterQuantity,
		TempData:    map[string]interface{}{models.KeyMessageIDs: []int{3, 4}},
	}

	b.processUpdate(context.Background(), textUpdate(testUserID, "/cancel"))

	assert.Equal(t, msgCancelled, m.tg.lastSent().Text)
	assert.Equal(t, []int{3, 4}, m.tg.deleted)
	assert.NotContains(t, m.state.states, testUserID)
}

func TestUnknownInput(t *testing.T) {
	b, m := setupTestBot(t)

	b.processUpdate(context.Background(), textUpdate(testUserID, "hello"))
	assert.Equal(t, msgUnknownAction, m.tg.lastSent().Text)

	b.processUpdate(context.Background(), textUpdate(testUserID, "/nope"))
	assert.Equal(t, msgUnknownAction, m.tg.lastSent().Text)
}

func TestRateLimited(t *testing.T) {
	b, m := setupTestBot(t)
	m.state.limited = true

	b.processUpdate(context.Background(), textUpdate(testUserID, "/calc"))
	assert.Equal(t, msgRateLimited, m.tg.lastSent().Text)
	assert.NotContains(t, m.state.states, testUserID)

	// operators are not throttled
	b.processUpdate(context.Background(), textUpdate(testOperatorID, "/start"))
	assert.Equal(t, greeting, m.tg.lastSent().Text)
}

func TestProcessUpdate_RecoversFromPanic(t *testing.T) {
	b, m := setupTestBot(t)
	m.tg.failSend = true
	b.catalogService = nil

	assert.NotPanics(t, func() {
		b.processUpdate(context.Background(), textUpdate(testUserID, "/calc"))
	})
}

func TestProcessUpdate_IgnoresAnonymousUpdates(t *testing.T) {
	b, m := setupTestBot(t)
	b.processUpdate(context.Background(), tgbotapi.Update{})
	b.processUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}}})
	assert.Empty(t, m.tg.sent)
}
