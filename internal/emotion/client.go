package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/neurobridge/solace/internal/chat"
)

// Client talks to the emotion-analysis service. Sentiment, tone and keyword
// extraction are three independent endpoints over the same input text.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type analyzeRequest struct {
	Text string `json:"text"`
}

type sentimentResponse struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type toneResponse struct {
	Tone string `json:"tone"`
}

type keywordsResponse struct {
	Keywords []string `json:"keywords"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Classify runs the sentiment and tone calls for one message. Either sub-call
// failing fails the whole classification; no partial result is returned.
func (c *Client) Classify(ctx context.Context, text string) (chat.Classification, error) {
	var sentiment sentimentResponse
	if err := c.post(ctx, "/sentiment", text, &sentiment); err != nil {
		return chat.Classification{}, fmt.Errorf("sentiment: %w", err)
	}

	var tone toneResponse
	if err := c.post(ctx, "/tone", text, &tone); err != nil {
		return chat.Classification{}, fmt.Errorf("tone: %w", err)
	}

	return chat.Classification{
		SentimentLabel: sentiment.Label,
		SentimentScore: sentiment.Score,
		ToneLabel:      tone.Tone,
	}, nil
}

// ExtractKeywords returns the normalized trigger keywords for a message.
func (c *Client) ExtractKeywords(ctx context.Context, text string) ([]string, error) {
	var resp keywordsResponse
	if err := c.post(ctx, "/keywords", text, &resp); err != nil {
		return nil, fmt.Errorf("keywords: %w", err)
	}
	return resp.Keywords, nil
}

func (c *Client) post(ctx context.Context, path, text string, out any) error {
	body, err := json.Marshal(analyzeRequest{Text: text})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("api error %d: %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("api error %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
