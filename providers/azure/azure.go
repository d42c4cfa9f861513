package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/enhancer"
)

// Provider implements the enhancer Provider interface for Azure OpenAI Service.
// It speaks the same chat-completion shape as OpenAI, addressed by deployment.
type Provider struct {
	endpoint   string
	apiKey     string
	deployment string
	apiVersion string
	httpClient *http.Client
}

// Config holds configuration for the Azure provider.
type Config struct {
	Endpoint   string        // Your Azure OpenAI endpoint (https://{your-resource}.openai.azure.com)
	APIKey     string        // Your Azure API key
	Deployment string        // Your deployment name
	APIVersion string        // API version, defaults to "2024-02-01"
	Timeout    time.Duration // Optional, defaults to 30s
}

// New creates a new Azure OpenAI provider.
func New(config Config) *Provider {
	if config.APIVersion == "" {
		config.APIVersion = "2024-02-01"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Provider{
		endpoint:   strings.TrimSuffix(config.Endpoint, "/"),
		apiKey:     config.APIKey,
		deployment: config.Deployment,
		apiVersion: config.APIVersion,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the provider identifier.
func (*Provider) Name() string {
	return "azure"
}

// Family returns enhancer.FamilyChatCompletion.
func (*Provider) Family() enhancer.Family {
	return enhancer.FamilyChatCompletion
}

// Call sends the instruction to the deployment and returns the first choice's
// content verbatim.
func (p *Provider) Call(ctx context.Context, instruction string) (*enhancer.ProviderResponse, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: azure api key is empty", enhancer.ErrMissingCredentials)
	}
	if p.endpoint == "" || p.deployment == "" {
		return nil, fmt.Errorf("%w: azure endpoint and deployment are required", enhancer.ErrMissingCredentials)
	}

	startTime := time.Now()
	capitan.Info(ctx, enhancer.ProviderCallStarted,
		enhancer.ProviderKey.Field(p.Name()),
		enhancer.ModelKey.Field(p.deployment),
		enhancer.FamilyKey.Field(enhancer.FamilyChatCompletion.String()),
	)

	requestBody := chatCompletionRequest{
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

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		p.endpoint, url.PathEscape(p.deployment), url.QueryEscape(p.apiVersion))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		capitan.Error(ctx, enhancer.ProviderCallFailed,
			enhancer.ProviderKey.Field(p.Name()),
			enhancer.ErrorKey.Field(err.Error()),
		)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		perr := &enhancer.ProviderError{
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
		}
		var errorResp errorResponse
		if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error.Message != "" {
			perr.Message = errorResp.Error.Message
			perr.Type = errorResp.Error.Type
			perr.Code = errorResp.Error.Code
		}
		capitan.Error(ctx, enhancer.ProviderCallFailed,
			enhancer.ProviderKey.Field(p.Name()),
			enhancer.HTTPStatusCodeKey.Field(resp.StatusCode),
			enhancer.DurationMsKey.Field(int(time.Since(startTime).Milliseconds())),
			enhancer.ErrorKey.Field(perr.Error()),
		)
		return nil, perr
	}

	// Same shape as OpenAI
	var completionResp chatCompletionResponse
	if err := json.Unmarshal(body, &completionResp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %w", enhancer.ErrMalformedResponse, err)
	}

	if len(completionResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response choices returned", enhancer.ErrMalformedResponse)
	}

	capitan.Info(ctx, enhancer.ProviderCallCompleted,
		enhancer.ProviderKey.Field(p.Name()),
		enhancer.ModelKey.Field(completionResp.Model),
		enhancer.TotalTokensKey.Field(completionResp.Usage.TotalTokens),
		enhancer.DurationMsKey.Field(int(time.Since(startTime).Milliseconds())),
		enhancer.HTTPStatusCodeKey.Field(resp.StatusCode),
	)

	return &enhancer.ProviderResponse{
		Content: completionResp.Choices[0].Message.Content,
		Model:   completionResp.Model,
		Usage: &enhancer.TokenUsage{
			Prompt:     completionResp.Usage.PromptTokens,
			Completion: completionResp.Usage.CompletionTokens,
			Total:      completionResp.Usage.TotalTokens,
		},
	}, nil
}

// Request/Response types (compatible with OpenAI)

type chatCompletionRequest struct {
	Messages []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type choice struct {
	Index        int     `json:"index"`
	Message      message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}
