package enhancer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zoobzio/capitan"
)

const hookTimeout = 2 * time.Second

// waitFor returns the first event for requestID delivered on ch or fails the test.
// Events left over from earlier tests are skipped.
func waitFor(t *testing.T, ch <-chan *capitan.Event, requestID string) *capitan.Event {
	t.Helper()
	deadline := time.After(hookTimeout)
	for {
		select {
		case e := <-ch:
			if id, _ := RequestIDKey.From(e); id == requestID {
				return e
			}
		case <-deadline:
			t.Fatal("Timeout waiting for hook")
			return nil
		}
	}
}

// capture hooks a signal and forwards events to a buffered channel.
func capture(signal capitan.Signal) (<-chan *capitan.Event, func()) {
	ch := make(chan *capitan.Event, 16)
	listener := capitan.Hook(signal, func(_ context.Context, e *capitan.Event) {
		select {
		case ch <- e:
		default:
		}
	})
	return ch, func() { listener.Close() }
}

// TestRequestStartedHook verifies that request.started hook is emitted with all fields.
func TestRequestStartedHook(t *testing.T) {
	events, stop := capture(RequestStarted)
	defer stop()

	result := New(NewMockProviderWithResponse("ok")).FireWithInput(context.Background(), Input{Prompt: "test input"})

	e := waitFor(t, events, result.RequestID)
	if id, _ := RequestIDKey.From(e); id == "" {
		t.Error("Request ID was not set in hook")
	}
	if provider, _ := ProviderKey.From(e); provider != "mock-fixed" {
		t.Errorf("Expected provider 'mock-fixed', got %q", provider)
	}
	if family, _ := FamilyKey.From(e); family != "chat-completion" {
		t.Errorf("Expected family 'chat-completion', got %q", family)
	}
	if input, _ := InputKey.From(e); input != "test input" {
		t.Errorf("Expected input 'test input', got %q", input)
	}
}

// TestRequestCompletedHook verifies that request.completed hook carries the reply.
func TestRequestCompletedHook(t *testing.T) {
	events, stop := capture(RequestCompleted)
	defer stop()

	result := New(NewMockProviderWithResponse("a happy dog")).FireWithInput(context.Background(), Input{Prompt: "a dog"})

	e := waitFor(t, events, result.RequestID)
	if output, _ := OutputKey.From(e); output != "a happy dog" {
		t.Errorf("Expected output 'a happy dog', got %q", output)
	}
}

// TestRequestFailedHook verifies that request.failed hook is emitted with the error kind.
func TestRequestFailedHook(t *testing.T) {
	events, stop := capture(RequestFailed)
	defer stop()

	provider := NewMockProviderWithError(&ProviderError{Provider: "openai", StatusCode: 401, Message: "bad key"})
	result := New(provider).FireWithInput(context.Background(), Input{Prompt: "x"})

	e := waitFor(t, events, result.RequestID)
	if msg, _ := ErrorKey.From(e); msg != "openai error (401): bad key" {
		t.Errorf("Unexpected error field %q", msg)
	}
	if kind, _ := ErrorKindKey.From(e); kind != "auth" {
		t.Errorf("Expected kind 'auth', got %q", kind)
	}
}

// TestConditioningHooks verifies the conditioning outcome signals.
func TestConditioningHooks(t *testing.T) {
	t.Run("encoded", func(t *testing.T) {
		events, stop := capture(ConditioningEncoded)
		defer stop()

		encoder := EncoderFunc(func(_ context.Context, text string) (Conditioning, error) {
			return text, nil
		})
		result := New(NewMockProviderWithResponse("ok")).FireWithConditioning(context.Background(), Input{Prompt: "x"}, "cond", encoder)

		waitFor(t, events, result.RequestID)
	})

	t.Run("kept", func(t *testing.T) {
		events, stop := capture(ConditioningKept)
		defer stop()

		result := New(NewMockProviderWithError(errors.New("down"))).FireWithConditioning(context.Background(), Input{Prompt: "x"}, "cond", nil)

		e := waitFor(t, events, result.RequestID)
		if kind, _ := ErrorKindKey.From(e); kind != "unknown" {
			t.Errorf("Expected kind 'unknown', got %q", kind)
		}
	})
}

// TestDebugHooks verifies that WithDebug emits the instruction.
func TestDebugHooks(t *testing.T) {
	events, stop := capture(DebugInstruction)
	defer stop()

	result := New(NewMockProviderWithResponse("ok"), WithDebug()).FireWithInput(context.Background(), Input{BasePrompt: "Do X", Prompt: "cat"})

	e := waitFor(t, events, result.RequestID)
	if instruction, _ := InstructionKey.From(e); instruction != "Do X\n\ncat" {
		t.Errorf("Expected instruction 'Do X\\n\\ncat', got %q", instruction)
	}
}

// TestObserverSeesRequestLifecycle verifies that a global observer sees start and completion.
func TestObserverSeesRequestLifecycle(t *testing.T) {
	seen := make(chan capitan.Signal, 32)
	observer := capitan.Observe(func(_ context.Context, e *capitan.Event) {
		select {
		case seen <- e.Signal():
		default:
		}
	})
	defer observer.Close()

	New(NewMockProviderWithResponse("ok")).Fire(context.Background(), "x")

	started, completed := false, false
	deadline := time.After(hookTimeout)
	for !started || !completed {
		select {
		case s := <-seen:
			switch s {
			case RequestStarted:
				started = true
			case RequestCompleted:
				completed = true
			}
		case <-deadline:
			t.Fatalf("Timeout waiting for events (started=%v completed=%v)", started, completed)
		}
	}
}

// TestSignalNames verifies signal names and that each carries a description.
func TestSignalNames(t *testing.T) {
	signals := map[string]capitan.Signal{
		"llm.request.started":         RequestStarted,
		"llm.request.completed":       RequestCompleted,
		"llm.request.failed":          RequestFailed,
		"llm.provider.call.started":   ProviderCallStarted,
		"llm.provider.call.completed": ProviderCallCompleted,
		"llm.provider.call.failed":    ProviderCallFailed,
		"llm.conditioning.encoded":    ConditioningEncoded,
		"llm.conditioning.kept":       ConditioningKept,
		"llm.debug.instruction":       DebugInstruction,
		"llm.debug.response":          DebugResponse,
	}

	for name, signal := range signals {
		if signal.Name() != name {
			t.Errorf("Expected signal %q, got %q", name, signal.Name())
		}
		if signal.Description() == "" {
			t.Errorf("Signal %q has no description", name)
		}
	}
}
