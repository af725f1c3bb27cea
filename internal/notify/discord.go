package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"sprouting-academy/internal/domain"
)

// Discord posts a payment summary to a Discord webhook.
type Discord struct {
	webhookURL string
	httpClient *http.Client
}

func NewDiscord(webhookURL string, httpClient *http.Client) *Discord {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Discord{webhookURL: webhookURL, httpClient: httpClient}
}

type discordMessage struct {
	Content string `json:"content"`
}

// FormatConfirmation renders the human readable payment line.
func FormatConfirmation(c domain.Confirmation) string {
	return fmt.Sprintf("New payment: %s bought %s for %s THB via %s (order %s, payment %s) at %s",
		c.UserName, c.ItemName, humanize.Comma(c.Amount), c.Method, c.OrderNumber, c.PaymentID,
		c.DateTime.In(time.UTC).Format(time.RFC3339))
}

func (d *Discord) PaymentConfirmed(ctx context.Context, c domain.Confirmation) error {
	if d.webhookURL == "" {
		return nil
	}
	body, err := json.Marshal(discordMessage{Content: FormatConfirmation(c)})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord webhook returned %d", resp.StatusCode)
	}
	return nil
}
