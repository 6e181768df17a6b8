// README: Bitrix CRM channel (crm.lead.add webhook).
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

// Bitrix creates a CRM lead through a configured inbound webhook base URL,
// e.g. https://<domain>/rest/<user>/<webhook>/.
type Bitrix struct {
	webhookURL string
}

func NewBitrix(webhookURL string) *Bitrix {
	return &Bitrix{webhookURL: webhookURL}
}

func (b *Bitrix) Name() string { return "bitrix" }

func (b *Bitrix) Configured() bool { return b.webhookURL != "" }

type bitrixLeadReq struct {
	Fields map[string]any    `json:"fields"`
	Params map[string]string `json:"params"`
}

type bitrixLeadResp struct {
	Result           json.Number `json:"result"`
	Error            string      `json:"error,omitempty"`
	ErrorDescription string      `json:"error_description,omitempty"`
}

func (b *Bitrix) Send(ctx context.Context, d draft.Draft, history []types.Turn) (string, error) {
	comments := strings.Join(summaryLines(d), "\n")
	if tail := historyTail(history); tail != "" {
		comments += "\n\nИз чата:\n" + tail
	}

	body, err := json.Marshal(bitrixLeadReq{
		Fields: map[string]any{
			"TITLE": "Заказ от " + orDash(d.Name),
			"NAME":  d.Name,
			"PHONE": []map[string]string{
				{"VALUE": d.Phone, "VALUE_TYPE": "WORK"},
			},
			"COMMENTS": comments,
		},
		Params: map[string]string{"REGISTER_SONET_EVENT": "Y"},
	})
	if err != nil {
		return "", fmt.Errorf("bitrix: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.leadURL(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("bitrix: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("bitrix: do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("bitrix: read response: %w", err)
	}

	var br bitrixLeadResp
	if err := json.Unmarshal(raw, &br); err != nil {
		return "", fmt.Errorf("bitrix: parse response (status %d): %w", resp.StatusCode, err)
	}
	if br.Error != "" {
		return "", fmt.Errorf("bitrix: API error %s: %s", br.Error, br.ErrorDescription)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("bitrix: unexpected status %d", resp.StatusCode)
	}
	return "lead_id=" + br.Result.String(), nil
}

// leadURL tolerates webhook values that already point at the method.
func (b *Bitrix) leadURL() string {
	if strings.Contains(b.webhookURL, "crm.lead.add") {
		return b.webhookURL
	}
	return strings.TrimRight(b.webhookURL, "/") + "/crm.lead.add.json"
}
