package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/enhancer"
)

// Provider implements the enhancer Provider interface for the OpenAI chat API.
type Provider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	name       string
}

// Config holds configuration for the OpenAI provider.
type Config struct {
	APIKey  string
	Model   string        // e.g. "gpt-4o", "gpt-3.5-turbo"
	BaseURL string        // Optional, defaults to "https://api.openai.com/v1"
	Timeout time.Duration // Optional, defaults to 30s
}

// New creates a new OpenAI provider.
func New(config Config) *Provider {
	if config.Model == "" {
		config.Model = "gpt-3.5-turbo"
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Provider{
		apiKey:  config.APIKey,
		model:   config.Model,
		baseURL: config.BaseURL,
		name:    "openai",
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// Family returns enhancer.FamilyChatCompletion.
func (*Provider) Family() enhancer.Family {
	return enhancer.FamilyChatCompletion
}

// Model returns the configured chat model.
func (p *Provider) Model() string {
	return p.model
}

// Call sends the instruction as a single user message and returns the first
// choice's content verbatim.
func (p *Provider) Call(ctx context.Context, instruction string) (*enhancer.ProviderResponse, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: openai api key is empty", enhancer.ErrMissingCredentials)
	}

	startTime := time.Now()

	// Emit provider.call.started hook
	capitan.Info(ctx, enhancer.ProviderCallStarted,
		enhancer.ProviderKey.Field(p.name),
		enhancer.ModelKey.Field(p.model),
		enhancer.FamilyKey.Field(enhancer.FamilyChatCompletion.String()),
	)

	requestBody := chatCompletionRequest{
		Model: p.model,
		Messages: []message{
			{
				Role:    "user",
				Content: instruction,
			},
		},
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.emitFailed(ctx, startTime, 0, err.Error(), nil)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		perr := &enhancer.ProviderError{
			Provider:   p.name,
			StatusCode: resp.StatusCode,
		}
		var errorResp errorResponse
		if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error.Message != "" {
			perr.Message = errorResp.Error.Message
			perr.Type = errorResp.Error.Type
			perr.Code = errorResp.Error.Code
		}
		p.emitFailed(ctx, startTime, resp.StatusCode, perr.Error(), perr)
		return nil, perr
	}

	var completionResp chatCompletionResponse
	if err := json.Unmarshal(body, &completionResp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %w", enhancer.ErrMalformedResponse, err)
	}

	if len(completionResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response choices returned", enhancer.ErrMalformedResponse)
	}

	duration := time.Since(startTime)

	fields := []capitan.Field{
		enhancer.ProviderKey.Field(p.name),
		enhancer.ModelKey.Field(completionResp.Model),
		enhancer.PromptTokensKey.Field(completionResp.Usage.PromptTokens),
		enhancer.CompletionTokensKey.Field(completionResp.Usage.CompletionTokens),
		enhancer.TotalTokensKey.Field(completionResp.Usage.TotalTokens),
		enhancer.DurationMsKey.Field(int(duration.Milliseconds())),
		enhancer.HTTPStatusCodeKey.Field(resp.StatusCode),
		enhancer.ResponseIDKey.Field(completionResp.ID),
	}
	if completionResp.Choices[0].FinishReason != "" {
		fields = append(fields, enhancer.ResponseFinishReasonKey.Field(completionResp.Choices[0].FinishReason))
	}
	capitan.Info(ctx, enhancer.ProviderCallCompleted, fields...)

	model := completionResp.Model
	if model == "" {
		model = p.model
	}

	return &enhancer.ProviderResponse{
		Content: completionResp.Choices[0].Message.Content,
		Model:   model,
		Usage: &enhancer.TokenUsage{
			Prompt:     completionResp.Usage.PromptTokens,
			Completion: completionResp.Usage.CompletionTokens,
			Total:      completionResp.Usage.TotalTokens,
		},
	}, nil
}

func (p *Provider) emitFailed(ctx context.Context, startTime time.Time, status int, msg string, perr *enhancer.ProviderError) {
	fields := []capitan.Field{
		enhancer.ProviderKey.Field(p.name),
		enhancer.ModelKey.Field(p.model),
		enhancer.DurationMsKey.Field(int(time.Since(startTime).Milliseconds())),
		enhancer.ErrorKey.Field(msg),
	}
	if status != 0 {
		fields = append(fields, enhancer.HTTPStatusCodeKey.Field(status))
	}
	if perr != nil && perr.Type != "" {
		fields = append(fields, enhancer.APIErrorTypeKey.Field(perr.Type))
	}
	if perr != nil && perr.Code != "" {
		fields = append(fields, enhancer.APIErrorCodeKey.Field(perr.Code))
	}
	capitan.Error(ctx, enhancer.ProviderCallFailed, fields...)
}

// Request/Response types for the chat completions API

type chatCompletionRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
	Usage   usage    `json:"usage"`
}

type choice struct {
	Index        int     `json:"index"`
	Message      message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}
