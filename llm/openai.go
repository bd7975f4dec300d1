package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/usherhq/usher/config"
	"github.com/usherhq/usher/models"
	"github.com/usherhq/usher/sanitize"
)

// systemPrompt instructs the model to emit exactly the WeddingData JSON
// shape. Field names must stay in sync with the models package tags.
const systemPrompt = `You are a data extraction assistant for wedding websites. The user message contains the text of one wedding website, grouped into sections headed "=== <KIND> PAGE ===". Extract the wedding details and return ONLY a JSON object with this shape:

{
  "partner1_name": string|null,
  "partner2_name": string|null,
  "wedding_date": "YYYY-MM-DD"|null,
  "wedding_time": string|null,
  "dress_code": string|null,
  "ceremony_venue_name": string|null,
  "ceremony_venue_address": string|null,
  "reception_venue_name": string|null,
  "reception_venue_address": string|null,
  "reception_time": string|null,
  "events": [{"name": string, "date": "YYYY-MM-DD"|null, "start_time": string|null, "end_time": string|null, "venue": string|null, "address": string|null, "attire": string|null, "notes": string|null}],
  "accommodations": [{"hotel_name": string, "address": string|null, "phone": string|null, "booking_url": string|null, "has_room_block": boolean, "room_block_name": string|null, "room_block_code": string|null, "room_block_rate": string|null, "room_block_deadline": string|null, "notes": string|null}],
  "faqs": [{"question": string, "answer": string, "category": string|null}],
  "registry_urls": [string],
  "rsvp_url": string|null,
  "additional_notes": string|null
}

Rules:
- Use null (or omit) for anything the text does not state. Never guess.
- Dates are ISO YYYY-MM-DD. Times keep their original wording ("4:00 PM", "half past four").
- Copy FAQ answers verbatim; do not summarize them.
- booking_url and registry_urls must be URLs that appear in the text, including the reference list at the end of a section.
- additional_notes is for guest-relevant details that fit no other field (parking, weather, adults-only policy).`

// Usage reports model token consumption for one extraction call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Extractor calls an OpenAI-compatible chat model to pull structured wedding
// data out of a sanitized text payload.
type Extractor struct {
	client *openai.Client
	cfg    config.LLMConfig
	log    *slog.Logger
}

// New builds an Extractor from config. The client points at any
// OpenAI-compatible endpoint via BaseURL.
func New(cfg config.LLMConfig, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Extractor{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		log:    logger,
	}
}

// Enabled reports whether an API key is configured. Without one the
// coordinator runs heuristics-only extraction.
func (e *Extractor) Enabled() bool {
	return e.cfg.APIKey != ""
}

// Extract sends the payload to the model and parses the structured reply.
// The payload is capped at the prompt budget before sending.
func (e *Extractor) Extract(ctx context.Context, payload string) (*models.WeddingData, Usage, error) {
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	payload = sanitize.TruncateRunes(payload, e.cfg.PromptBudget)

	req := openai.ChatCompletionRequest{
		Model: e.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: payload},
		},
		// The SDK's omitempty drops a literal 0, which would leave the
		// provider default in effect. The smallest positive value keeps
		// extraction deterministic.
		Temperature: math.SmallestNonzeroFloat32,
		MaxTokens:   e.cfg.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, Usage{}, classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, Usage{}, models.NewScrapeError(models.ErrCodeLLMFailure, "model returned no choices", nil)
	}

	usage := Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}

	raw := locateJSON(resp.Choices[0].Message.Content)
	if raw == "" {
		return nil, usage, models.NewScrapeError(models.ErrCodeLLMFailure, "model reply contained no JSON object", nil)
	}

	var data models.WeddingData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, usage, models.NewScrapeError(models.ErrCodeLLMFailure, "model returned invalid JSON", err)
	}

	e.log.Debug("model extraction complete",
		"model", e.cfg.Model,
		"prompt_tokens", usage.PromptTokens,
		"completion_tokens", usage.CompletionTokens,
	)
	return &data, usage, nil
}

// locateJSON finds the JSON object inside a model reply. JSON mode usually
// returns bare JSON, but some compatible endpoints still wrap it in fences.
func locateJSON(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// classifyError maps SDK errors to provider error codes. Auth and rate-limit
// failures stay distinct so operators can tell a bad key from a busy one.
func classifyError(err error) *models.ScrapeError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewScrapeError(models.ErrCodeExtractionUnavailable, "model call timed out", err)
	}
	return models.NewScrapeError(models.ErrCodeLLMFailure, "model call failed", err)
}

func classifyStatus(status int, err error) *models.ScrapeError {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.NewScrapeError(models.ErrCodeLLMAuthFailure, "model API rejected the configured credentials", err)
	case http.StatusTooManyRequests:
		return models.NewScrapeError(models.ErrCodeLLMRateLimited, "model API rate limit hit", err)
	default:
		return models.NewScrapeError(models.ErrCodeLLMFailure, fmt.Sprintf("model API error (status %d)", status), err)
	}
}
