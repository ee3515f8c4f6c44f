package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Mailer delivers alert emails through the mail gateway's JSON API.
type Mailer struct {
	token  string
	from   string
	apiURL string
	client *http.Client
	logger *slog.Logger
}

func NewMailer(apiURL, token, from string, logger *slog.Logger) *Mailer {
	return &Mailer{
		token:  token,
		from:   from,
		apiURL: apiURL,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type sendResponse struct {
	OK    bool   `json:"ok"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

// Send posts one message to the gateway. Single attempt, no retries.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(sendRequest{
		From:    m.from,
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+m.token)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var mailResp sendResponse
	if err := json.Unmarshal(respBody, &mailResp); err != nil {
		return fmt.Errorf("parse mail response: %w", err)
	}
	if !mailResp.OK {
		return fmt.Errorf("mail gateway error: %s", mailResp.Error)
	}

	m.logger.Info("alert mail sent", "to", to, "id", mailResp.ID)
	return nil
}
