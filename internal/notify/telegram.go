package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"

	"github.com/notexe/todo-alarm/internal/reminder"
	"go.uber.org/zap"
)

const defaultAPIBase = "https://api.telegram.org"

// Telegram sends a chat message whenever a reminder starts ringing.
type Telegram struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
	timeout  time.Duration
	logger   *zap.Logger
}

// NewTelegram creates a notifier for the given bot and chat.
func NewTelegram(botToken, chatID string, logger *zap.Logger) *Telegram {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		client:   &http.Client{Timeout: 30 * time.Second},
		timeout:  30 * time.Second,
		logger:   logger.Named("telegram"),
	}
}

type telegramSendRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// Ringing sends the alert in the background so the tick is not held up.
func (t *Telegram) Ringing(r reminder.Reminder) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()

		if err := t.SendMessage(ctx, FormatRinging(r)); err != nil {
			t.logger.Warn("Failed to send ring notification", zap.String("id", r.ID), zap.Error(err))
		}
	}()
}

func (t *Telegram) Dismissed(reminder.Reminder) {}

// FormatRinging renders the Telegram HTML for a ringing reminder.
func FormatRinging(r reminder.Reminder) string {
	return fmt.Sprintf("⏰ <b>%s</b> (%s)", html.EscapeString(r.Title), r.Time)
}

// SendMessage sends a message to the configured chat.
func (t *Telegram) SendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)

	payload := telegramSendRequest{
		ChatID:    t.chatID,
		Text:      text,
		ParseMode: "HTML",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal telegram request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read telegram response: %w", err)
	}

	var tgResp telegramResponse
	if err := json.Unmarshal(respBody, &tgResp); err != nil {
		return fmt.Errorf("failed to parse telegram response: %w", err)
	}

	if !tgResp.OK {
		return fmt.Errorf("telegram API error: %s", tgResp.Description)
	}

	return nil
}
