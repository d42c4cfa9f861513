package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/zoobzio/enhancer/internal/config"
)

const usage = `enhancer improves image-generation prompts with a hosted LLM.

Usage:
  enhancer <command> [flags]

Commands:
  enhance  Enhance a single prompt and print the result
  serve    Serve the enhancer nodes over HTTP
  nodes    Print the node declarations as JSON

Flags:
  -h, --help  Show this help message

Credentials are read from the environment (and a .env file when present):
  OPENAI_API_KEY, AZURE_OPENAI_API_KEY, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY`

// Execute runs the CLI dispatcher with the provided arguments.
func Execute(ctx context.Context, args []string, env config.LookupFunc, stdout io.Writer) error {
	if len(args) == 0 {
		return printUsage(stdout)
	}

	switch args[0] {
	case "enhance":
		return enhance(ctx, args[1:], env, stdout)
	case "serve":
		return serve(ctx, args[1:], env)
	case "nodes":
		return listNodes(args[1:], env, stdout)
	case "help", "-h", "--help":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command %q\n\n%s", args[0], usage)
	}
}

func printUsage(w io.Writer) error {
	fmt.Fprintln(w, strings.TrimSpace(usage))
	return nil
}
