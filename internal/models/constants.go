package models

const (
	ParseModeMarkdown = "Markdown"
	ParseModeHTML     = "HTML"
)

// Conversation steps.
const (
	StateSelectProduct   = "select_product"
	StateEnterQuantity   = "enter_quantity"
	StateSelectMaterial  = "select_material"
	StateSelectModifiers = "select_modifiers"
	StateWaitingDate     = "waiting_date"
	StateWaitingExport   = "waiting_export_date"
)

// Keys stored in UserState.TempData.
const (
	KeyProduct    = "product"
	KeyQuantity   = "quantity"
	KeyMaterial   = "material"
	KeyModifiers  = "modifiers"
	KeyMessageIDs = "message_ids"
)

const (
	// DefaultStateTTL время жизни состояния диалога в Redis
	DefaultStateTTL = 24 * 60 * 60 // 24 часа в секундах

	// DefaultMaxQuantity верхняя граница тиража, которую принимает диалог
	DefaultMaxQuantity = 1_000_000

	// RateLimitMessages количество сообщений в окне
	RateLimitMessages = 20

	// RateLimitWindow окно ограничения частоты сообщений
	RateLimitWindow = 60 // 1 минута в секундах

	// DateLayout формат даты, который вводит оператор
	DateLayout = "02.01.2006"
)
