// README: Telegram notification channel (bot sendMessage).
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"bvetra/internal/modules/draft"
	"bvetra/internal/types"
)

const telegramAPIBase = "https://api.telegram.org"

// Telegram posts a human-readable order summary to a bot chat.
type Telegram struct {
	token   string
	chatID  string
	baseURL string
}

func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{token: token, chatID: chatID, baseURL: telegramAPIBase}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Configured() bool {
	return t.token != "" && t.chatID != ""
}

type telegramSendReq struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type telegramSendResp struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

func (t *Telegram) Send(ctx context.Context, d draft.Draft, history []types.Turn) (string, error) {
	lines := append([]string{"Новый заказ от " + orDash(d.Name)}, summaryLines(d)...)
	if tail := historyTail(history); tail != "" {
		lines = append(lines, "", "Из чата:", tail)
	}

	body, err := json.Marshal(telegramSendReq{
		ChatID:    t.chatID,
		Text:      strings.Join(lines, "\n"),
		ParseMode: "HTML",
	})
	if err != nil {
		return "", fmt.Errorf("telegram: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("telegram: do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("telegram: read response: %w", err)
	}

	var tr telegramSendResp
	if err := json.Unmarshal(raw, &tr); err != nil {
		return "", fmt.Errorf("telegram: parse response (status %d): %w", resp.StatusCode, err)
	}
	if !tr.OK {
		return "", fmt.Errorf("telegram: API error (status %d): %s", resp.StatusCode, tr.Description)
	}
	return fmt.Sprintf("message_id=%d", tr.Result.MessageID), nil
}
