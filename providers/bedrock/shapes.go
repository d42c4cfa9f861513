package bedrock

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zoobzio/enhancer"
)

// anthropicStop ends a completion at the next human turn.
const anthropicStop = "\n\nHuman:"

// buildBody shapes the instruction for the model family.
func buildBody(family enhancer.Family, instruction string) ([]byte, error) {
	var requestBody any

	switch family {
	case enhancer.FamilyAnthropic:
		requestBody = anthropicRequest{
			Prompt:            fmt.Sprintf("\n\nHuman: %s\n\nAssistant:", instruction),
			MaxTokensToSample: enhancer.DefaultMaxTokens,
			Temperature:       enhancer.DefaultTemperature,
			StopSequences:     []string{anthropicStop},
		}
	case enhancer.FamilyAI21:
		requestBody = ai21Request{
			Prompt:        instruction,
			MaxTokens:     enhancer.DefaultMaxTokens,
			Temperature:   enhancer.DefaultTemperature,
			StopSequences: []string{},
		}
	default:
		requestBody = instructRequest{
			Prompt:      fmt.Sprintf("<s>[INST] %s [/INST]", instruction),
			Temperature: enhancer.DefaultTemperature,
			MaxTokens:   enhancer.GenericMaxTokens,
			TopP:        enhancer.GenericTopP,
			TopK:        enhancer.GenericTopK,
		}
	}

	// The [INST] template and user prompts carry <, > and & verbatim.
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(requestBody); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// parseBody extracts the reply text for the model family.
// anthropic and ai21 replies are trimmed, generic replies are returned as-is.
func parseBody(family enhancer.Family, body []byte) (string, error) {
	switch family {
	case enhancer.FamilyAnthropic:
		var resp anthropicResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("%w: failed to parse anthropic response: %w", enhancer.ErrMalformedResponse, err)
		}
		return strings.TrimSpace(resp.Completion), nil

	case enhancer.FamilyAI21:
		var resp ai21Response
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("%w: failed to parse ai21 response: %w", enhancer.ErrMalformedResponse, err)
		}
		if len(resp.Completions) == 0 {
			return "", fmt.Errorf("%w: no completions in response", enhancer.ErrMalformedResponse)
		}
		return strings.TrimSpace(resp.Completions[0].Data.Text), nil

	default:
		var resp instructResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("%w: failed to parse response: %w", enhancer.ErrMalformedResponse, err)
		}
		if len(resp.Outputs) == 0 {
			return "", fmt.Errorf("%w: no outputs in response", enhancer.ErrMalformedResponse)
		}
		return resp.Outputs[0].Text, nil
	}
}

// Request types for different model families

type anthropicRequest struct {
	Prompt            string   `json:"prompt"`
	MaxTokensToSample int      `json:"max_tokens_to_sample"`
	Temperature       float32  `json:"temperature"`
	StopSequences     []string `json:"stop_sequences"`
}

type anthropicResponse struct {
	Completion string `json:"completion"`
}

type ai21Request struct {
	Prompt        string   `json:"prompt"`
	MaxTokens     int      `json:"maxTokens"`
	Temperature   float32  `json:"temperature"`
	StopSequences []string `json:"stopSequences"`
}

type ai21Response struct {
	Completions []struct {
		Data struct {
			Text string `json:"text"`
		} `json:"data"`
	} `json:"completions"`
}

type instructRequest struct {
	Prompt      string  `json:"prompt"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	TopP        float32 `json:"top_p"`
	TopK        int     `json:"top_k"`
}

type instructResponse struct {
	Outputs []struct {
		Text string `json:"text"`
	} `json:"outputs"`
}
