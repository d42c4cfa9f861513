package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zoobzio/enhancer"
	"github.com/zoobzio/enhancer/internal/config"
	"github.com/zoobzio/enhancer/providers/azure"
	"github.com/zoobzio/enhancer/providers/bedrock"
	"github.com/zoobzio/enhancer/providers/openai"
)

const enhanceUsage = `Usage:
  enhancer enhance --prompt <text> [flags]
  enhancer enhance [flags] <text...>

Flags:
  --prompt   string   Prompt to improve
  --base     string   Instruction placed before the prompt
  --provider string   openai, azure or bedrock (default "openai")
  --model    string   Model, deployment or Bedrock model id override
  --config   string   Path to YAML configuration file`

// errEnhanceFailed marks a run whose text slot holds an error string.
var errEnhanceFailed = errors.New("enhancement failed")

func enhance(ctx context.Context, args []string, env config.LookupFunc, stdout io.Writer) error {
	fs := flag.NewFlagSet("enhance", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, enhanceUsage)
	}

	var prompt, base, providerName, model, cfgPath string
	fs.StringVar(&prompt, "prompt", "", "prompt to improve")
	fs.StringVar(&base, "base", "", "instruction placed before the prompt")
	fs.StringVar(&providerName, "provider", "openai", "provider to call")
	fs.StringVar(&model, "model", "", "model override")
	fs.StringVar(&cfgPath, "config", "", "path to configuration file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse enhance flags: %w", err)
	}

	if prompt == "" {
		prompt = strings.Join(fs.Args(), " ")
	}
	if prompt == "" {
		return errors.New("enhance command requires --prompt <text>")
	}

	cfg, err := config.Load(cfgPath, env)
	if err != nil {
		return err
	}

	provider, err := providerFor(cfg, providerName, model)
	if err != nil {
		return err
	}

	result := enhancer.New(provider, cfg.Options()...).FireWithInput(ctx, enhancer.Input{
		BasePrompt: base,
		Prompt:     prompt,
	})
	fmt.Fprintln(stdout, result.Text)

	if result.Failed() {
		return fmt.Errorf("%w (%s)", errEnhanceFailed, result.Kind)
	}
	return nil
}

func providerFor(cfg config.Config, name, model string) (enhancer.Provider, error) {
	switch name {
	case "openai":
		c := cfg.OpenAIProvider()
		if model != "" {
			c.Model = model
		}
		return openai.New(c), nil
	case "azure":
		c := cfg.AzureProvider()
		if model != "" {
			c.Deployment = model
		}
		return azure.New(c), nil
	case "bedrock":
		c := cfg.BedrockProvider()
		if model != "" {
			c.Model = model
		}
		return bedrock.New(c), nil
	default:
		return nil, fmt.Errorf("unknown provider %q: must be openai, azure or bedrock", name)
	}
}
