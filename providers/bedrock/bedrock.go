package bedrock

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/enhancer"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "us-east-1"

const signingService = "bedrock"

// Provider implements the enhancer Provider interface for AWS Bedrock.
// The request and response shapes follow the model family, which is resolved
// once from the model identifier.
type Provider struct {
	region       string
	accessKey    string
	secretKey    string
	sessionToken string
	model        string
	family       enhancer.Family
	endpoint     string
	signer       *v4.Signer
	httpClient   *http.Client
}

// Config holds configuration for the Bedrock provider.
type Config struct {
	Region       string        // AWS region, defaults to "us-east-1"
	AccessKey    string        // AWS access key
	SecretKey    string        // AWS secret key
	SessionToken string        // Optional, for temporary credentials
	Model        string        // Model ID (e.g. "anthropic.claude-v2", "ai21.j2-ultra-v1", "mistral.mistral-7b-instruct-v0:2")
	Endpoint     string        // Optional, defaults to "https://bedrock-runtime.{region}.amazonaws.com"
	Timeout      time.Duration // Optional, defaults to 30s
}

// New creates a new Bedrock provider.
func New(config Config) *Provider {
	if config.Model == "" {
		config.Model = "anthropic.claude-v2"
	}
	if config.Region == "" {
		config.Region = DefaultRegion
	}
	if config.Endpoint == "" {
		config.Endpoint = fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", config.Region)
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Provider{
		region:       config.Region,
		accessKey:    config.AccessKey,
		secretKey:    config.SecretKey,
		sessionToken: config.SessionToken,
		model:        config.Model,
		family:       enhancer.ResolveFamily(config.Model),
		endpoint:     strings.TrimSuffix(config.Endpoint, "/"),
		signer:       v4.NewSigner(),
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the provider identifier.
func (*Provider) Name() string {
	return "bedrock"
}

// Family returns the family resolved from the model identifier.
func (p *Provider) Family() enhancer.Family {
	return p.family
}

// Model returns the configured model identifier.
func (p *Provider) Model() string {
	return p.model
}

// Call invokes the model once with a family-shaped body and extracts the reply.
func (p *Provider) Call(ctx context.Context, instruction string) (*enhancer.ProviderResponse, error) {
	if p.accessKey == "" || p.secretKey == "" {
		return nil, fmt.Errorf("%w: aws access key and secret key are required", enhancer.ErrMissingCredentials)
	}

	startTime := time.Now()
	capitan.Info(ctx, enhancer.ProviderCallStarted,
		enhancer.ProviderKey.Field(p.Name()),
		enhancer.ModelKey.Field(p.model),
		enhancer.FamilyKey.Field(p.family.String()),
		enhancer.TemperatureKey.Field(float64(enhancer.DefaultTemperature)),
	)

	jsonBody, err := buildBody(p.family, instruction)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/model/%s/invoke", p.endpoint, url.PathEscape(p.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if err := p.signRequest(ctx, req, jsonBody); err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		capitan.Error(ctx, enhancer.ProviderCallFailed,
			enhancer.ProviderKey.Field(p.Name()),
			enhancer.ModelKey.Field(p.model),
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
			Type:       errorType(resp.Header.Get("X-Amzn-Errortype")),
		}
		var errorResp bedrockError
		if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Message != "" {
			perr.Message = errorResp.Message
		}
		capitan.Error(ctx, enhancer.ProviderCallFailed,
			enhancer.ProviderKey.Field(p.Name()),
			enhancer.ModelKey.Field(p.model),
			enhancer.HTTPStatusCodeKey.Field(resp.StatusCode),
			enhancer.APIErrorTypeKey.Field(perr.Type),
			enhancer.DurationMsKey.Field(int(time.Since(startTime).Milliseconds())),
			enhancer.ErrorKey.Field(perr.Error()),
		)
		return nil, perr
	}

	text, err := parseBody(p.family, body)
	if err != nil {
		return nil, err
	}

	capitan.Info(ctx, enhancer.ProviderCallCompleted,
		enhancer.ProviderKey.Field(p.Name()),
		enhancer.ModelKey.Field(p.model),
		enhancer.FamilyKey.Field(p.family.String()),
		enhancer.DurationMsKey.Field(int(time.Since(startTime).Milliseconds())),
		enhancer.HTTPStatusCodeKey.Field(resp.StatusCode),
	)

	return &enhancer.ProviderResponse{
		Content: text,
		Model:   p.model,
	}, nil
}

// signRequest adds AWS Signature V4 headers.
func (p *Provider) signRequest(ctx context.Context, req *http.Request, body []byte) error {
	sum := sha256.Sum256(body)
	creds := aws.Credentials{
		AccessKeyID:     p.accessKey,
		SecretAccessKey: p.secretKey,
		SessionToken:    p.sessionToken,
	}
	return p.signer.SignHTTP(ctx, creds, req, hex.EncodeToString(sum[:]), signingService, p.region, time.Now().UTC())
}

// errorType trims the documentation suffix from x-amzn-ErrorType.
func errorType(header string) string {
	name, _, _ := strings.Cut(header, ":")
	return name
}

type bedrockError struct {
	Message string `json:"message"`
}
