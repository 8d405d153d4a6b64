package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/radai/aiflow/internal/conversion"
)

// Config for the AI completion client.
type Config struct {
	APIKey        string        // bearer token for the provider
	BaseURL       string        // default https://api.openai.com/v1
	Model         string        // e.g. "gpt-4o"
	Temperature   float32       // 0..2
	MaxTokens     int           // per-call completion budget
	Timeout       time.Duration // http client timeout
	MaxRetries    int           // retries on transport/5xx failures; 0 means no retry
	RetryInterval time.Duration // delay between retries
}

// Client calls an OpenAI-compatible vision/chat completion API. Each method
// is a single blocking request (plus configured retries); callers own any
// broader retry policy.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}

// ExtractPFD extracts structured process data from a PFD image via the
// vision model.
func (c *Client) ExtractPFD(ctx context.Context, image []byte, contentType string) (*PFDAnalysis, error) {
	if len(image) == 0 {
		return nil, conversion.NewValidationError("image", "must not be empty")
	}
	if contentType == "" {
		contentType = "image/png"
	}

	dataURL := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(image)
	schema := buildPFDAnalysisSchema()

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"max_tokens":      c.cfg.MaxTokens,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": extractionSystemPrompt},
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": buildExtractionPrompt()},
					{"type": "image_url", "image_url": map[string]any{"url": dataURL, "detail": "high"}},
				},
			},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	raw, err := c.complete(ctx, "extract", body, schema)
	if err != nil {
		return nil, err
	}

	var out PFDAnalysis
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, c.upstream(0, fmt.Sprintf("unmarshal extraction: %v", err), err)
	}
	out.Raw = raw
	c.log.Info("llm.extract.ok",
		"equipment", len(out.Equipment),
		"streams", len(out.ProcessStreams),
		"missing", len(out.MissingData),
	)
	return &out, nil
}

// GeneratePIDSpec generates the P&ID specification from extracted PFD data.
func (c *Client) GeneratePIDSpec(ctx context.Context, analysis *PFDAnalysis) (*PIDSpec, error) {
	if analysis == nil || len(analysis.Equipment) == 0 {
		return nil, conversion.NewValidationError("analysis", "must contain equipment")
	}

	schema := buildPIDSpecSchema()
	raw, err := c.complete(ctx, "generate_spec", c.textBody(pidSystemPrompt, buildPIDSpecPrompt(analysis), schema), schema)
	if err != nil {
		return nil, err
	}

	var out PIDSpec
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, c.upstream(0, fmt.Sprintf("unmarshal pid spec: %v", err), err)
	}
	out.Raw = raw
	c.log.Info("llm.generate_spec.ok",
		"equipment", len(out.Equipment),
		"lines", len(out.Lines),
		"assumptions", len(out.Assumptions),
	)
	return &out, nil
}

// GenerateInstruments suggests instrumentation for a P&ID specification.
func (c *Client) GenerateInstruments(ctx context.Context, spec *PIDSpec) ([]Instrument, error) {
	if spec == nil || len(spec.Equipment) == 0 {
		return nil, conversion.NewValidationError("spec", "must contain equipment")
	}

	schema := buildInstrumentsSchema()
	raw, err := c.complete(ctx, "generate_instruments", c.textBody(instrumentationSystemPrompt, buildInstrumentsPrompt(spec), schema), schema)
	if err != nil {
		return nil, err
	}

	var out struct {
		SuggestedInstruments []Instrument `json:"suggested_instruments"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, c.upstream(0, fmt.Sprintf("unmarshal instruments: %v", err), err)
	}
	c.log.Info("llm.generate_instruments.ok", "count", len(out.SuggestedInstruments))
	return out.SuggestedInstruments, nil
}

// GenerateValves suggests valves for a P&ID specification.
func (c *Client) GenerateValves(ctx context.Context, spec *PIDSpec) ([]Valve, error) {
	if spec == nil || len(spec.Equipment) == 0 {
		return nil, conversion.NewValidationError("spec", "must contain equipment")
	}

	schema := buildValvesSchema()
	raw, err := c.complete(ctx, "generate_valves", c.textBody(instrumentationSystemPrompt, buildValvesPrompt(spec), schema), schema)
	if err != nil {
		return nil, err
	}

	var out struct {
		SuggestedValves []Valve `json:"suggested_valves"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, c.upstream(0, fmt.Sprintf("unmarshal valves: %v", err), err)
	}
	c.log.Info("llm.generate_valves.ok", "count", len(out.SuggestedValves))
	return out.SuggestedValves, nil
}

// textBody builds a text-only chat/completions request carrying the schema
// as a trailing system message.
func (c *Client) textBody(system, user string, schema map[string]any) map[string]any {
	return map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"max_tokens":      c.cfg.MaxTokens,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}
}

// complete posts the request, extracts the first choice's content, and
// validates it against schema before returning it.
func (c *Client) complete(ctx context.Context, op string, body map[string]any, schema map[string]any) (json.RawMessage, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm."+op+".start", "req_id", rid, "model", c.cfg.Model)

	raw, err := c.postWithRetry(ctx, body)
	if err != nil {
		c.log.Error("llm."+op+".http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, c.upstream(0, fmt.Sprintf("decode provider response: %v", err), err)
	}
	if len(cc.Choices) == 0 {
		return nil, c.upstream(0, "no choices in provider response", nil)
	}

	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))
	if err := validateJSONAgainstSchema(schema, content); err != nil {
		c.log.Error("llm."+op+".schema_validation_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, c.upstream(0, fmt.Sprintf("schema validation failed: %v", err), err)
	}

	c.log.Info("llm."+op+".response",
		"req_id", rid,
		"bytes", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

// postWithRetry retries transport failures and 5xx responses up to
// cfg.MaxRetries times. 4xx responses are never retried.
func (c *Client) postWithRetry(ctx context.Context, body map[string]any) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, c.upstream(0, "request canceled: "+ctx.Err().Error(), ctx.Err())
			case <-time.After(c.cfg.RetryInterval):
			}
			c.log.Warn("llm.http.retry", "attempt", attempt, "max_retries", c.cfg.MaxRetries)
		}

		raw, status, err := c.post(ctx, body)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if status >= 400 && status < 500 {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) post(ctx context.Context, body map[string]any) ([]byte, int, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, c.upstream(0, err.Error(), err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Warn("llm.http.response_body_close_error", "error", cerr)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, c.upstream(resp.StatusCode, string(raw), nil)
	}
	return raw, resp.StatusCode, nil
}

func (c *Client) upstream(status int, msg string, err error) error {
	return &conversion.UpstreamError{
		Provider:   "openai",
		StatusCode: status,
		Message:    msg,
		Err:        err,
	}
}
