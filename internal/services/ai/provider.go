package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/brandwell/contentforge/internal/common"
	"github.com/brandwell/contentforge/internal/interfaces"
	"github.com/brandwell/contentforge/internal/retry"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderGemini uses Google Gemini API
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses Anthropic Claude API
	ProviderClaude ProviderType = "claude"
)

// ProviderFactory routes text generation to the configured provider.
// It implements interfaces.TextGenerationService. Calls are made exactly
// once; retry policy belongs to the caller.
type ProviderFactory struct {
	geminiConfig *common.GeminiConfig
	claudeConfig *common.ClaudeConfig
	llmConfig    *common.LLMConfig
	audit        AuditLogger
	logger       arbor.ILogger

	geminiClient  *genai.Client
	claudeClient  anthropic.Client
	claudeReady   bool
	geminiLimiter *rate.Limiter
	claudeLimiter *rate.Limiter
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(
	geminiConfig *common.GeminiConfig,
	claudeConfig *common.ClaudeConfig,
	llmConfig *common.LLMConfig,
	audit AuditLogger,
	logger arbor.ILogger,
) *ProviderFactory {
	if audit == nil {
		audit = NewNullAuditLogger()
	}
	geminiInterval := common.ParseDuration(geminiConfig.RateLimit, 4*time.Second)
	claudeInterval := common.ParseDuration(claudeConfig.RateLimit, time.Second)

	return &ProviderFactory{
		geminiConfig:  geminiConfig,
		claudeConfig:  claudeConfig,
		llmConfig:     llmConfig,
		audit:         audit,
		logger:        logger,
		geminiLimiter: rate.NewLimiter(rate.Every(geminiInterval), 1),
		claudeLimiter: rate.NewLimiter(rate.Every(claudeInterval), 1),
	}
}

// ResolveProvider maps a requested provider name to a provider type,
// defaulting to the configured provider.
func (f *ProviderFactory) ResolveProvider(requested string) ProviderType {
	switch strings.ToLower(requested) {
	case "claude", "anthropic":
		return ProviderClaude
	case "gemini", "google":
		return ProviderGemini
	}
	if f.llmConfig.DefaultProvider == common.LLMProviderClaude {
		return ProviderClaude
	}
	return ProviderGemini
}

// FallbackProvider returns the configured alternate provider, or empty when
// no fallback backend is configured.
func (f *ProviderFactory) FallbackProvider() string {
	return string(f.llmConfig.FallbackProvider)
}

// GenerateText produces post text from a brief and brand voice
func (f *ProviderFactory) GenerateText(ctx context.Context, req *interfaces.TextRequest) (string, error) {
	provider := f.ResolveProvider(req.Provider)
	system := buildSystemInstruction(req)

	f.logger.Debug().
		Str("provider", string(provider)).
		Str("platform", string(req.Platform)).
		Int("character_limit", req.CharacterLimit).
		Msg("Generating text")

	start := time.Now()
	var text string
	var err error

	switch provider {
	case ProviderClaude:
		text, err = f.generateWithClaude(ctx, system, req.Brief)
	default:
		text, err = f.generateWithGemini(ctx, system, req.Brief, nil)
	}

	f.audit.LogOperation(OperationText, string(provider), err == nil, time.Since(start), err)
	return text, err
}

// GenerateStructuredText produces machine-parseable output. Gemini enforces
// the schema hint server-side; Claude is instructed to answer with JSON only
// and the caller parses defensively either way.
func (f *ProviderFactory) GenerateStructuredText(ctx context.Context, req *interfaces.StructuredTextRequest) (string, error) {
	provider := f.ResolveProvider(req.Provider)

	start := time.Now()
	var text string
	var err error

	switch provider {
	case ProviderClaude:
		prompt := req.Brief + "\n\nRespond with valid JSON only, no markdown fences or commentary."
		text, err = f.generateWithClaude(ctx, "", prompt)
	default:
		text, err = f.generateWithGemini(ctx, "", req.Brief, req.SchemaHint)
	}

	f.audit.LogOperation(OperationStructured, string(provider), err == nil, time.Since(start), err)
	return text, err
}

// getGeminiClient returns a Gemini client, creating one if necessary
func (f *ProviderFactory) getGeminiClient(ctx context.Context) (*genai.Client, error) {
	if f.geminiClient != nil {
		return f.geminiClient, nil
	}

	if f.geminiConfig.APIKey == "" {
		return nil, retry.NewProviderError(401, "Gemini API key not configured", nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  f.geminiConfig.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	f.geminiClient = client
	return client, nil
}

// getClaudeClient returns a Claude client, creating one if necessary
func (f *ProviderFactory) getClaudeClient() (anthropic.Client, error) {
	if f.claudeReady {
		return f.claudeClient, nil
	}

	if f.claudeConfig.APIKey == "" {
		return anthropic.Client{}, retry.NewProviderError(401, "Anthropic API key not configured", nil)
	}

	f.claudeClient = anthropic.NewClient(
		option.WithAPIKey(f.claudeConfig.APIKey),
	)
	f.claudeReady = true
	return f.claudeClient, nil
}

func (f *ProviderFactory) generateWithClaude(ctx context.Context, system, prompt string) (string, error) {
	client, err := f.getClaudeClient()
	if err != nil {
		return "", err
	}

	if err := f.claudeLimiter.Wait(ctx); err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, common.ParseDuration(f.claudeConfig.Timeout, 2*time.Minute))
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(f.claudeConfig.Model),
		MaxTokens: int64(f.claudeConfig.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if f.claudeConfig.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(f.claudeConfig.Temperature))
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: system},
		}
	}

	resp, err := client.Messages.New(callCtx, params)
	if err != nil {
		return "", classifyClaudeError(err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from Claude API")
	}

	return text.String(), nil
}

func (f *ProviderFactory) generateWithGemini(ctx context.Context, system, prompt string, schemaHint map[string]interface{}) (string, error) {
	client, err := f.getGeminiClient(ctx)
	if err != nil {
		return "", err
	}

	if err := f.geminiLimiter.Wait(ctx); err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, common.ParseDuration(f.geminiConfig.Timeout, 2*time.Minute))
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(f.geminiConfig.Temperature),
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if len(schemaHint) > 0 {
		schema, convErr := convertToGenaiSchema(schemaHint)
		if convErr != nil {
			f.logger.Warn().Err(convErr).Msg("Failed to convert output schema, continuing without")
		} else if schema != nil {
			config.ResponseMIMEType = "application/json"
			config.ResponseSchema = schema
		}
	}

	resp, err := client.Models.GenerateContent(callCtx, f.geminiConfig.Model, genai.Text(prompt), config)
	if err != nil {
		return "", classifyGeminiError(err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}
	responseText := resp.Text()
	if responseText == "" {
		return "", fmt.Errorf("empty text in Gemini response")
	}

	return responseText, nil
}

// Close releases provider clients
func (f *ProviderFactory) Close() error {
	f.geminiClient = nil
	f.claudeClient = anthropic.Client{}
	f.claudeReady = false
	return nil
}

// buildSystemInstruction assembles the brand-steering system prompt
func buildSystemInstruction(req *interfaces.TextRequest) string {
	var sb strings.Builder
	sb.WriteString("You are a social media copywriter for a marketing agency.")
	if req.Brand.Voice != "" {
		sb.WriteString(" Brand voice: " + req.Brand.Voice + ".")
	}
	if req.Brand.Audience != "" {
		sb.WriteString(" Target audience: " + req.Brand.Audience + ".")
	}
	if len(req.Brand.Values) > 0 {
		sb.WriteString(" Brand values: " + strings.Join(req.Brand.Values, ", ") + ".")
	}
	if req.Platform != "" {
		sb.WriteString(fmt.Sprintf(" Write for %s.", req.Platform))
	}
	if req.CharacterLimit > 0 {
		sb.WriteString(fmt.Sprintf(" Hard limit: %d characters. Output only the post text.", req.CharacterLimit))
	}
	return sb.String()
}

// classifyClaudeError maps Anthropic SDK failures into the retry taxonomy
func classifyClaudeError(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return retry.NewProviderError(apierr.StatusCode, apierr.Error(), err)
	}
	return &retry.ClassifiedError{Kind: retry.Classify(err), Message: err.Error(), Err: err}
}

// classifyGeminiError maps genai SDK failures into the retry taxonomy
func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return retry.NewProviderError(apiErr.Code, apiErr.Message, err)
	}
	return &retry.ClassifiedError{Kind: retry.Classify(err), Message: err.Error(), Err: err}
}

// convertToGenaiSchema converts a schema hint map to a genai.Schema.
// Supports the subset used by structured generation requests.
func convertToGenaiSchema(schemaMap map[string]interface{}) (*genai.Schema, error) {
	if len(schemaMap) == 0 {
		return nil, nil
	}

	schema := &genai.Schema{}

	if typeStr, ok := schemaMap["type"].(string); ok {
		switch strings.ToLower(typeStr) {
		case "object":
			schema.Type = genai.TypeObject
		case "array":
			schema.Type = genai.TypeArray
		case "string":
			schema.Type = genai.TypeString
		case "number":
			schema.Type = genai.TypeNumber
		case "integer":
			schema.Type = genai.TypeInteger
		case "boolean":
			schema.Type = genai.TypeBoolean
		}
	}

	if desc, ok := schemaMap["description"].(string); ok {
		schema.Description = desc
	}

	if reqVals, ok := schemaMap["required"].([]string); ok {
		schema.Required = reqVals
	} else if reqVals, ok := schemaMap["required"].([]interface{}); ok {
		for _, v := range reqVals {
			if s, ok := v.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}

	if itemsMap, ok := schemaMap["items"].(map[string]interface{}); ok {
		itemSchema, err := convertToGenaiSchema(itemsMap)
		if err != nil {
			return nil, fmt.Errorf("failed to convert items schema: %w", err)
		}
		schema.Items = itemSchema
	}

	if propsMap, ok := schemaMap["properties"].(map[string]interface{}); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for propName, propVal := range propsMap {
			propMap, ok := propVal.(map[string]interface{})
			if !ok {
				continue
			}
			propSchema, err := convertToGenaiSchema(propMap)
			if err != nil {
				return nil, fmt.Errorf("failed to convert property '%s': %w", propName, err)
			}
			schema.Properties[propName] = propSchema
		}
	}

	return schema, nil
}
