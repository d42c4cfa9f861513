package enhancer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// Result is what an enhancement call hands back to the host.
// Text always carries exactly one string: the provider reply on success, or
// ErrorPrefix followed by the failure description.
type Result struct {
	Text         string
	Conditioning Conditioning
	Kind         ErrorKind // KindNone on success
	RequestID    string
	Usage        *TokenUsage
}

// Failed reports whether Text holds an error string.
func (r Result) Failed() bool {
	return r.Kind != KindNone
}

// Enhancer sends prompts to a provider through a pipz pipeline.
// It never returns an error; see Result.
type Enhancer struct {
	pipeline     pipz.Chainable[*EnhanceRequest]
	provider     Provider
	providerName string
	family       Family
}

// NewTerminal creates the terminal processor that makes the single provider call.
// The request's Provider is called when set, otherwise provider.
func NewTerminal(provider Provider) pipz.Chainable[*EnhanceRequest] {
	return pipz.Apply(TerminalID, func(ctx context.Context, req *EnhanceRequest) (*EnhanceRequest, error) {
		p := req.Provider
		if p == nil {
			p = provider
		}
		if p == nil {
			return req, ErrNoProvider
		}
		resp, err := p.Call(ctx, req.Instruction)
		if err != nil {
			return req, err
		}
		req.Response = resp.Content
		req.Model = resp.Model
		req.Usage = resp.Usage
		return req, nil
	})
}

// New creates an Enhancer for the provider. Options wrap the terminal call in
// the order given.
func New(provider Provider, opts ...Option) *Enhancer {
	var pipeline = NewTerminal(provider)
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}

	return newEnhancer(pipeline, provider)
}

func newEnhancer(pipeline pipz.Chainable[*EnhanceRequest], provider Provider) *Enhancer {
	e := &Enhancer{
		pipeline:     pipeline,
		provider:     provider,
		providerName: "none",
	}
	if provider != nil {
		e.providerName = provider.Name()
		e.family = provider.Family()
	}
	return e
}

// Using returns an Enhancer that calls provider through the same pipeline.
// Timeout, circuit breaker and rate limit state are shared with e, so a
// per-call credential or model override stays behind the configured guards.
// A nil provider returns e.
func (e *Enhancer) Using(provider Provider) *Enhancer {
	if provider == nil {
		return e
	}
	return newEnhancer(e.pipeline, provider)
}

// GetPipeline returns the underlying pipeline.
func (e *Enhancer) GetPipeline() pipz.Chainable[*EnhanceRequest] {
	return e.pipeline
}

// Fire enhances a prompt with the default instruction and returns the text slot.
func (e *Enhancer) Fire(ctx context.Context, prompt string) string {
	return e.FireWithInput(ctx, Input{Prompt: prompt}).Text
}

// FireWithInput enhances the input and returns the full result.
func (e *Enhancer) FireWithInput(ctx context.Context, in Input) Result {
	requestID := uuid.New().String()

	capitan.Info(ctx, RequestStarted,
		RequestIDKey.Field(requestID),
		ProviderKey.Field(e.providerName),
		FamilyKey.Field(e.family.String()),
		InputKey.Field(in.Prompt),
	)

	processed, err := e.process(ctx, &EnhanceRequest{
		Input:        in,
		Instruction:  in.Instruction(),
		Provider:     e.provider,
		RequestID:    requestID,
		ProviderName: e.providerName,
		Family:       e.family,
	})
	if err != nil {
		return e.fail(ctx, requestID, err)
	}

	capitan.Info(ctx, RequestCompleted,
		RequestIDKey.Field(requestID),
		ProviderKey.Field(e.providerName),
		ModelKey.Field(processed.Model),
		InputKey.Field(in.Prompt),
		OutputKey.Field(processed.Response),
	)

	return Result{
		Text:      processed.Response,
		RequestID: requestID,
		Usage:     processed.Usage,
	}
}

// FireWithConditioning enhances the input and re-encodes the reply into a new
// conditioning value. On any failure the caller's cond is returned as-is
// alongside the error string.
func (e *Enhancer) FireWithConditioning(ctx context.Context, in Input, cond Conditioning, encoder TextEncoder) Result {
	result := e.FireWithInput(ctx, in)
	if result.Failed() {
		result.Conditioning = cond
		capitan.Info(ctx, ConditioningKept,
			RequestIDKey.Field(result.RequestID),
			ErrorKindKey.Field(result.Kind.String()),
		)
		return result
	}

	encoded, err := encode(ctx, encoder, result.Text)
	if err != nil {
		failed := e.fail(ctx, result.RequestID, err)
		failed.Conditioning = cond
		capitan.Info(ctx, ConditioningKept,
			RequestIDKey.Field(result.RequestID),
			ErrorKindKey.Field(failed.Kind.String()),
		)
		return failed
	}

	capitan.Info(ctx, ConditioningEncoded,
		RequestIDKey.Field(result.RequestID),
		OutputKey.Field(result.Text),
	)
	result.Conditioning = encoded
	return result
}

// process runs the pipeline and turns a panic anywhere below into an error.
func (e *Enhancer) process(ctx context.Context, req *EnhanceRequest) (processed *EnhanceRequest, err error) {
	defer func() {
		if r := recover(); r != nil {
			processed, err = req, fmt.Errorf("panic during enhancement: %v", r)
		}
	}()
	return e.pipeline.Process(ctx, req)
}

func (e *Enhancer) fail(ctx context.Context, requestID string, err error) Result {
	cause := rootCause(err)
	kind := Classify(cause)

	capitan.Error(ctx, RequestFailed,
		RequestIDKey.Field(requestID),
		ProviderKey.Field(e.providerName),
		ErrorKey.Field(cause.Error()),
		ErrorKindKey.Field(kind.String()),
	)

	return Result{
		Text:      FormatError(cause),
		Kind:      kind,
		RequestID: requestID,
	}
}

func encode(ctx context.Context, encoder TextEncoder, text string) (cond Conditioning, err error) {
	if encoder == nil {
		return nil, fmt.Errorf("%w: no text encoder configured", ErrEncode)
	}
	defer func() {
		if r := recover(); r != nil {
			cond, err = nil, fmt.Errorf("%w: panic: %v", ErrEncode, r)
		}
	}()
	cond, err = encoder.Encode(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return cond, nil
}

// rootCause strips pipz wrapping so the text slot carries the provider's own
// description rather than the pipeline path.
func rootCause(err error) error {
	for {
		var perr *pipz.Error[*EnhanceRequest]
		if !errors.As(err, &perr) || perr.Err == nil {
			return err
		}
		err = perr.Err
	}
}
