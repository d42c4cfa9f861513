package integration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/enhancer"
	"github.com/zoobzio/enhancer/nodes"
	"github.com/zoobzio/enhancer/providers/openai"
	et "github.com/zoobzio/enhancer/testing"
)

func TestConcurrency_MultipleGoroutinesFiring(t *testing.T) {
	// Single enhancer, multiple goroutines firing concurrently
	e := enhancer.New(enhancer.NewMockProvider())

	ctx := context.Background()
	var wg sync.WaitGroup
	var successCount atomic.Int64
	var errorCount atomic.Int64

	goroutines := 50
	callsPerGoroutine := 10

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				prompt := fmt.Sprintf("prompt %d-%d", id, j)
				result := e.FireWithInput(ctx, enhancer.Input{Prompt: prompt})
				if result.Failed() || result.Text != prompt+", highly detailed" {
					errorCount.Add(1)
				} else {
					successCount.Add(1)
				}
			}
		}(i)
	}

	wg.Wait()

	expectedCalls := int64(goroutines * callsPerGoroutine)
	if successCount.Load() != expectedCalls {
		t.Errorf("expected %d successful calls, got %d (errors: %d)",
			expectedCalls, successCount.Load(), errorCount.Load())
	}
}

func TestConcurrency_UniqueRequestIDs(t *testing.T) {
	e := enhancer.New(et.NewSequencedProvider("ok"))

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := e.FireWithInput(context.Background(), enhancer.Input{Prompt: "x"}).RequestID
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}

	wg.Wait()

	if len(seen) != 100 {
		t.Errorf("expected 100 unique request ids, got %d", len(seen))
	}
}

func TestConcurrency_RecorderSeesEveryCall(t *testing.T) {
	recorder := et.NewCallRecorder(et.NewSequencedProvider("ok"))
	e := enhancer.New(recorder)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Fire(context.Background(), "x")
		}()
	}

	wg.Wait()

	if recorder.CallCount() != 25 {
		t.Errorf("expected 25 recorded calls, got %d", recorder.CallCount())
	}
}

func TestConcurrency_ConcurrentTimeouts(t *testing.T) {
	slow := et.NewLatencyProvider(et.NewSequencedProvider("late"), 200*time.Millisecond)
	e := enhancer.New(slow, enhancer.WithTimeout(20*time.Millisecond))

	var wg sync.WaitGroup
	var timeouts atomic.Int64
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if e.FireWithInput(context.Background(), enhancer.Input{Prompt: "x"}).Kind == enhancer.KindTransport {
				timeouts.Add(1)
			}
		}()
	}

	wg.Wait()

	if timeouts.Load() != 20 {
		t.Errorf("expected 20 timeouts, got %d", timeouts.Load())
	}
}

func TestConcurrency_NodeExecute(t *testing.T) {
	// No key configured: every call fails before any I/O, concurrently
	node := nodes.NewPromptEnhancerWithConditioning(openai.Config{}, nil)

	var wg sync.WaitGroup
	var kept atomic.Int64
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			cond := fmt.Sprintf("cond-%d", id)
			out := node.Execute(context.Background(), map[string]any{"prompt": "x", "conditioning": cond})
			text, _ := out[0].(string)
			if strings.HasPrefix(text, enhancer.ErrorPrefix) && out[1] == cond {
				kept.Add(1)
			}
		}(i)
	}

	wg.Wait()

	if kept.Load() != 50 {
		t.Errorf("expected every call to keep its own conditioning, got %d", kept.Load())
	}
}
