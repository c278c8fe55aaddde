package tooling

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"opschat/internal/domain"
)

// TelegramSender abstracts the Telegram Bot API for testing.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// SendTelegramMessageInput is the argument struct for send_telegram_message.
type SendTelegramMessageInput struct {
	ChatID  string `json:"chat_id" jsonschema:"description=Numeric Telegram chat ID (e.g. 123456789)"`
	Message string `json:"message" jsonschema:"description=The message to send"`
}

// SendTelegramMessageTool sends a notification to a Telegram chat.
type SendTelegramMessageTool struct {
	bot TelegramSender
}

// NewSendTelegramMessageTool connects to the Telegram Bot API with the given token.
func NewSendTelegramMessageTool(token string) (*SendTelegramMessageTool, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &SendTelegramMessageTool{bot: bot}, nil
}

// NewSendTelegramMessageToolWithBot wires a pre-built sender (used by tests).
func NewSendTelegramMessageToolWithBot(bot TelegramSender) *SendTelegramMessageTool {
	return &SendTelegramMessageTool{bot: bot}
}

func (t *SendTelegramMessageTool) Name() string { return "send_telegram_message" }

func (t *SendTelegramMessageTool) Description() string {
	return "Send a message to a Telegram chat (e.g., to alert an on-call group)"
}

func (t *SendTelegramMessageTool) Definition() string {
	return GenerateSchema(SendTelegramMessageInput{})
}

func (t *SendTelegramMessageTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	if err := ValidateAgainstSchema(args, t.Definition()); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err)
	}
	var input SendTelegramMessageInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err)
	}
	chatID, err := strconv.ParseInt(input.ChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: chat_id must be numeric", domain.ErrInvalidArguments)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msg := tgbotapi.NewMessage(chatID, input.Message)
	if _, err := t.bot.Send(msg); err != nil {
		return nil, fmt.Errorf("%w: telegram: %v", domain.ErrToolExecution, err)
	}

	out, _ := json.Marshal(map[string]string{
		"status":  "success",
		"chat_id": input.ChatID,
		"message": input.Message,
	})
	return domain.NewSuccessResult(string(out)), nil
}
