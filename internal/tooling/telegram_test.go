package tooling

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"opschat/internal/domain"
)

type fakeTelegramBot struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeTelegramBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: 1}, nil
}

func TestSendTelegramMessageTool_Call_ShouldSendToChat(t *testing.T) {
	bot := &fakeTelegramBot{}
	tool := NewSendTelegramMessageToolWithBot(bot)

	res, err := tool.Call(context.Background(), json.RawMessage(`{"chat_id":"123456789","message":"server back up"}`))
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	if len(bot.sent) != 1 {
		t.Fatalf("Expected 1 sent message, got %d", len(bot.sent))
	}
	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("Expected MessageConfig, got %T", bot.sent[0])
	}
	if msg.ChatID != 123456789 {
		t.Errorf("Expected chat ID 123456789, got %d", msg.ChatID)
	}
	if msg.Text != "server back up" {
		t.Errorf("Expected message text, got %q", msg.Text)
	}
	if !strings.Contains(res.Payload, `"status":"success"`) {
		t.Errorf("Expected success payload, got %q", res.Payload)
	}
}

func TestSendTelegramMessageTool_Call_ShouldRejectNonNumericChatID(t *testing.T) {
	tool := NewSendTelegramMessageToolWithBot(&fakeTelegramBot{})

	_, err := tool.Call(context.Background(), json.RawMessage(`{"chat_id":"not-a-number","message":"hi"}`))
	if err == nil {
		t.Fatal("Expected error for non-numeric chat_id")
	}
	if !errors.Is(err, domain.ErrInvalidArguments) {
		t.Errorf("Expected ErrInvalidArguments, got: %v", err)
	}
}

func TestSendTelegramMessageTool_Call_ShouldWrapSendFailure(t *testing.T) {
	bot := &fakeTelegramBot{err: errors.New("bot was blocked by the user")}
	tool := NewSendTelegramMessageToolWithBot(bot)

	_, err := tool.Call(context.Background(), json.RawMessage(`{"chat_id":"42","message":"hi"}`))
	if err == nil {
		t.Fatal("Expected error when send fails")
	}
	if !errors.Is(err, domain.ErrToolExecution) {
		t.Errorf("Expected ErrToolExecution, got: %v", err)
	}
}

func TestSendTelegramMessageTool_Call_ShouldHonorCancelledContext(t *testing.T) {
	tool := NewSendTelegramMessageToolWithBot(&fakeTelegramBot{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tool.Call(ctx, json.RawMessage(`{"chat_id":"42","message":"hi"}`))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
}
