package enhancer

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// Pipeline stage identities.
var (
	TerminalID       = pipz.NewIdentity("llm-call", "Single provider call")
	TimeoutID        = pipz.NewIdentity("timeout", "Bounds the provider call duration")
	CircuitBreakerID = pipz.NewIdentity("circuit-breaker", "Fails fast after repeated provider failures")
	RateLimitID      = pipz.NewIdentity("rate-limit", "Limits provider calls per second")
	ErrorHandlerID   = pipz.NewIdentity("error-handler", "Observes pipeline failures")
	DebugID          = pipz.NewIdentity("debug", "Emits the instruction and raw reply")
)

// Option modifies the enhancement pipeline.
// There is no retry option: every request reaches the vendor once.
type Option func(pipz.Chainable[*EnhanceRequest]) pipz.Chainable[*EnhanceRequest]

// WithTimeout adds timeout protection to the pipeline.
// Operations exceeding this duration are canceled and reported as transport errors.
func WithTimeout(duration time.Duration) Option {
	return func(pipeline pipz.Chainable[*EnhanceRequest]) pipz.Chainable[*EnhanceRequest] {
		return pipz.NewTimeout(TimeoutID, pipeline, duration)
	}
}

// WithCircuitBreaker adds circuit breaker protection to the pipeline.
// After 'failures' consecutive failures, the circuit opens for 'recovery' duration
// and calls fail fast without reaching the vendor.
func WithCircuitBreaker(failures int, recovery time.Duration) Option {
	return func(pipeline pipz.Chainable[*EnhanceRequest]) pipz.Chainable[*EnhanceRequest] {
		return pipz.NewCircuitBreaker(CircuitBreakerID, pipeline, failures, recovery)
	}
}

// WithRateLimit adds rate limiting to the pipeline.
// rps = requests per second, burst = burst capacity.
func WithRateLimit(rps float64, burst int) Option {
	return func(pipeline pipz.Chainable[*EnhanceRequest]) pipz.Chainable[*EnhanceRequest] {
		return pipz.NewRateLimiter(RateLimitID, rps, burst, pipeline)
	}
}

// WithErrorHandler adds error handling to the pipeline.
// The handler observes failures; the error still reaches the caller as a string.
func WithErrorHandler(handler pipz.Chainable[*pipz.Error[*EnhanceRequest]]) Option {
	return func(pipeline pipz.Chainable[*EnhanceRequest]) pipz.Chainable[*EnhanceRequest] {
		return pipz.NewHandle(ErrorHandlerID, pipeline, handler)
	}
}

// WithDebug emits the composed instruction and the raw reply (or error) on
// the llm.debug signals.
func WithDebug() Option {
	return func(pipeline pipz.Chainable[*EnhanceRequest]) pipz.Chainable[*EnhanceRequest] {
		return pipz.Apply(DebugID, func(ctx context.Context, req *EnhanceRequest) (*EnhanceRequest, error) {
			capitan.Info(ctx, DebugInstruction,
				RequestIDKey.Field(req.RequestID),
				InstructionKey.Field(req.Instruction),
			)

			processed, err := pipeline.Process(ctx, req)
			if err != nil {
				capitan.Info(ctx, DebugResponse,
					RequestIDKey.Field(req.RequestID),
					ErrorKey.Field(err.Error()),
				)
				return processed, err
			}

			capitan.Info(ctx, DebugResponse,
				RequestIDKey.Field(req.RequestID),
				OutputKey.Field(processed.Response),
			)
			return processed, nil
		})
	}
}
