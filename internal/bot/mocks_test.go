package bot

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"printcalc/internal/config"
	"printcalc/internal/domain"
	"printcalc/internal/models"
	"printcalc/internal/pricing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type sentMessage struct {
	ChatID   int64
	Text     string
	Keyboard *tgbotapi.InlineKeyboardMarkup
}

type mockTelegramService struct {
	domain.TelegramService
	mu          sync.Mutex
	updatesChan chan tgbotapi.Update
	nextID      int
	sent        []sentMessage
	requests    []tgbotapi.Chattable
	deleted     []int
	callbacks   map[string]string
	documents   []string
	failSend    bool
}

func newMockTelegram() *mockTelegramService {
	return &mockTelegramService{
		updatesChan: make(chan tgbotapi.Update, 1),
		nextID:      100,
		callbacks:   make(map[string]string),
	}
}

func (m *mockTelegramService) record(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSend {
		return tgbotapi.Message{}, io.ErrClosedPipe
	}
	m.nextID++
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Text: text, Keyboard: kb})
	return tgbotapi.Message{MessageID: m.nextID}, nil
}

func (m *mockTelegramService) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	return m.record(chatID, text, nil)
}

func (m *mockTelegramService) SendHTML(chatID int64, text string) (tgbotapi.Message, error) {
	return m.record(chatID, text, nil)
}

func (m *mockTelegramService) SendWithInlineKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	return m.record(chatID, text, &kb)
}

func (m *mockTelegramService) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (m *mockTelegramService) DeleteMessage(_ int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, messageID)
	return nil
}

func (m *mockTelegramService) AnswerCallback(callbackID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks[callbackID] = text
	return nil
}

func (m *mockTelegramService) SendDocument(chatID int64, path, caption string) (tgbotapi.Message, error) {
	m.mu.Lock()
	m.documents = append(m.documents, path)
	m.mu.Unlock()
	return m.record(chatID, caption, nil)
}

func (m *mockTelegramService) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return m.updatesChan
}

func (m *mockTelegramService) GetSelf() tgbotapi.User {
	return tgbotapi.User{UserName: "test_bot"}
}

func (m *mockTelegramService) StopReceivingUpdates() {}

func (m *mockTelegramService) lastSent() sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMessage{}
	}
	return m.sent[len(m.sent)-1]
}

func (m *mockTelegramService) sentTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, s := range m.sent {
		out = append(out, s.Text)
	}
	return out
}

type mockStateManager struct {
	domain.StateManager
	mu      sync.Mutex
	states  map[int64]*models.UserState
	limited bool
}

func newMockState() *mockStateManager {
	return &mockStateManager{states: make(map[int64]*models.UserState)}
}

func (m *mockStateManager) SetUserState(_ context.Context, userID int64, step string, data map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[userID] = &models.UserState{UserID: userID, CurrentStep: step, TempData: data}
	return nil
}

func (m *mockStateManager) GetUserState(_ context.Context, userID int64) (*models.UserState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[userID], nil
}

func (m *mockStateManager) ClearUserState(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
	return nil
}

func (m *mockStateManager) CheckRateLimit(context.Context, int64, int, time.Duration) (bool, error) {
	return !m.limited, nil
}

type stubCatalog struct {
	products  []models.Product
	materials []models.Material
	modifiers []models.Modifier
}

func (c *stubCatalog) Products(context.Context) ([]models.Product, error)   { return c.products, nil }
func (c *stubCatalog) Materials(context.Context) ([]models.Material, error) { return c.materials, nil }
func (c *stubCatalog) Modifiers(context.Context) ([]models.Modifier, error) { return c.modifiers, nil }

type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) PlaceOrder(ctx context.Context, userID int64, req pricing.Request) (*models.Order, *pricing.Result, error) {
	args := m.Called(ctx, userID, req)
	order, _ := args.Get(0).(*models.Order)
	res, _ := args.Get(1).(*pricing.Result)
	return order, res, args.Error(2)
}

func (m *mockOrderService) OrdersForDay(ctx context.Context, day time.Time) ([]models.Order, error) {
	args := m.Called(ctx, day)
	orders, _ := args.Get(0).([]models.Order)
	return orders, args.Error(1)
}

func (m *mockOrderService) ParseDay(raw string) (time.Time, error) {
	return time.ParseInLocation(models.DateLayout, raw, time.UTC)
}

type stubAccess struct {
	ids []int64
}

func (a *stubAccess) IsAllowed(userID int64) bool {
	for _, id := range a.ids {
		if id == userID {
			return true
		}
	}
	return false
}

func (a *stubAccess) AllowedIDs() []int64 { return a.ids }

type mockExporter struct {
	mock.Mock
}

func (m *mockExporter) ExportOrders(day time.Time, orders []models.Order) (string, error) {
	args := m.Called(day, orders)
	return args.String(0), args.Error(1)
}

const (
	testUserID     = int64(42)
	testOperatorID = int64(7)
)

type testMocks struct {
	tg       *mockTelegramService
	state    *mockStateManager
	orders   *mockOrderService
	exporter *mockExporter
}

func setupTestBot(t *testing.T) (*Bot, *testMocks) {
	t.Helper()

	m := &testMocks{
		tg:       newMockTelegram(),
		state:    newMockState(),
		orders:   new(mockOrderService),
		exporter: new(mockExporter),
	}
	catalog := &stubCatalog{
		products: []models.Product{
			{ID: 1, Code: "business_card", Name: "Візитки", Unit: "шт."},
			{ID: 2, Code: "flyer", Name: "Флаєри", Unit: "шт."},
		},
		materials: []models.Material{
			{ID: 1, Code: "paper_350", Name: "Папір 350 г/м²", PriceMultiplier: decimal.RequireFromString("1.2")},
		},
		modifiers: []models.Modifier{
			{ID: 1, Code: "lamination", Name: "Ламінація", PriceMultiplier: decimal.RequireFromString("1.15"), DeadlineModifierDays: 1},
			{ID: 2, Code: "corners", Name: "Кути", PriceMultiplier: decimal.RequireFromString("1.05")},
		},
	}
	cfg := &config.Config{
		Bot: config.BotConfig{MaxQuantity: 10000, RateLimitMessages: 20, RateLimitWindow: 60},
	}
	logger := zerolog.New(io.Discard)

	b, err := NewBot(m.tg, cfg, m.state, catalog, m.orders, m.exporter, &stubAccess{ids: []int64{testOperatorID}}, &logger)
	if err != nil {
		t.Fatalf("NewBot: %v", err)
	}
	return b, m
}

var userMessageID atomic.Int32

func textUpdate(userID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: int(userMessageID.Add(1)),
		From:      &tgbotapi.User{ID: userID, UserName: "tester"},
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
	}
	if len(text) > 0 && text[0] == '/' {
		end := len(text)
		for i, r := range text {
			if r == ' ' {
				end = i
				break
			}
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}}
	}
	return tgbotapi.Update{Message: msg}
}

func callbackUpdate(userID int64, messageID int, data string) tgbotapi.Update {
	return tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-" + data,
			From: &tgbotapi.User{ID: userID},
			Message: &tgbotapi.Message{
				MessageID: messageID,
				Chat:      &tgbotapi.Chat{ID: userID},
			},
			Data: data,
		},
	}
}
