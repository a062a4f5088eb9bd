package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config for the embedding collaborator. An empty BaseURL disables
// embedding entirely; records are then persisted without vectors.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client calls an OpenAI-compatible /embeddings endpoint. The pipeline
// treats it as an opaque text -> fixed-length vector function whose failures
// are never fatal to extraction.
type Client struct {
	cfg Config
	hc  *http.Client
	log *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg: cfg,
		hc:  &http.Client{Timeout: timeout},
		log: logger,
	}
}

// Enabled reports whether an embedding endpoint is configured.
func (c *Client) Enabled() bool { return c != nil && c.cfg.BaseURL != "" }

// Embed returns the embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("embedding endpoint not configured")
	}

	rid := uuid.New().String()
	start := time.Now()

	body := map[string]any{
		"model": c.cfg.Model,
		"input": []string{text},
	}
	bs, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	c.log.Info("embed.request", "req_id", rid, "model", c.cfg.Model, "text_len", len(text))

	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Error("embed.send_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.log.Warn("embed.response_body_close_error", "req_id", rid, "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	c.log.Info("embed.response", "req_id", rid, "status", resp.StatusCode,
		"bytes", len(raw), "elapsed_ms", time.Since(start).Milliseconds())

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}

	var out struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode embeddings response: %w", err)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding in response")
	}
	return out.Data[0].Embedding, nil
}
