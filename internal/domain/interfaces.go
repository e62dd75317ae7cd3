package domain

import (
	"context"
	"time"

	"printcalc/internal/models"
	"printcalc/internal/pricing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// CatalogRepository is the reference data store: the engine's read view plus
// listings for keyboards.
type CatalogRepository interface {
	pricing.Catalog
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListMaterials(ctx context.Context) ([]models.Material, error)
	ListModifiers(ctx context.Context) ([]models.Modifier, error)
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrdersByDateRange(ctx context.Context, from, to time.Time) ([]models.Order, error)
}

type StateRepository interface {
	GetState(ctx context.Context, userID int64) (*models.UserState, error)
	SetState(ctx context.Context, state *models.UserState) error
	ClearState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type StateManager interface {
	GetUserState(ctx context.Context, userID int64) (*models.UserState, error)
	SetUserState(ctx context.Context, userID int64, step string, data map[string]interface{}) error
	UpdateUserStateData(ctx context.Context, userID int64, key string, value interface{}) error
	ClearUserState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type Quoter interface {
	Calculate(ctx context.Context, req pricing.Request) (*pricing.Result, error)
}

type OrderService interface {
	PlaceOrder(ctx context.Context, userID int64, req pricing.Request) (*models.Order, *pricing.Result, error)
	OrdersForDay(ctx context.Context, day time.Time) ([]models.Order, error)
	ParseDay(raw string) (time.Time, error)
}

type CatalogService interface {
	Products(ctx context.Context) ([]models.Product, error)
	Materials(ctx context.Context) ([]models.Material, error)
	Modifiers(ctx context.Context) ([]models.Modifier, error)
}

type AccessChecker interface {
	IsAllowed(userID int64) bool
	AllowedIDs() []int64
}

type OrderExporter interface {
	ExportOrders(day time.Time, orders []models.Order) (string, error)
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type TelegramService interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendHTML(chatID int64, text string) (tgbotapi.Message, error)
	SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	DeleteMessage(chatID int64, messageID int) error
	SendDocument(chatID int64, path, caption string) (tgbotapi.Message, error)
	AnswerCallback(callbackID string, text string) error
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}
