package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"promptcraft/internal/config"
	"promptcraft/internal/logger"
	"promptcraft/internal/model"
)

const maxErrorBodyBytes = 512

// GeneratorClient posts answer sets to the prompt-generation service
type GeneratorClient struct {
	endpoint   string
	httpClient *http.Client
	log        *logger.Logger
}

// NewGeneratorClient creates a new generation service client. The only
// timeout is the transport-level one from cfg.
func NewGeneratorClient(cfg *config.GeneratorConfig, log *logger.Logger) *GeneratorClient {
	return &GeneratorClient{
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
		log: log.With("component", "generator_client"),
	}
}

// Submit performs exactly one POST of req and returns the response body as
// text. Only failures to get a 2xx reply are errors; whatever the body holds
// is left to the normalizer.
func (c *GeneratorClient) Submit(ctx context.Context, req model.PromptRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &TransportError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.log.Info("submitting answers", "endpoint", c.endpoint, "payload_bytes", len(payload))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Error("generation request failed", "error", err)
		return "", &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Error("failed to read generation response", "status", resp.StatusCode, "error", err)
		return "", &TransportError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Error("generation service returned an error", "status", resp.StatusCode, "body_bytes", len(body))
		return "", &TransportError{StatusCode: resp.StatusCode, Body: truncate(string(body), maxErrorBodyBytes)}
	}

	c.log.Info("generation reply received", "status", resp.StatusCode, "body_bytes", len(body))
	return string(body), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
