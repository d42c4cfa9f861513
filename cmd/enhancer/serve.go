package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/zoobzio/enhancer"
	"github.com/zoobzio/enhancer/internal/config"
	"github.com/zoobzio/enhancer/internal/encoder"
	"github.com/zoobzio/enhancer/internal/server"
	"github.com/zoobzio/enhancer/nodes"
)

const serveUsage = `Usage:
  enhancer serve --config <path> [--port <port>]

Flags:
  --config string   Path to YAML configuration file (required)
  --port   int      Override server port from configuration`

func serve(ctx context.Context, args []string, env config.LookupFunc) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, serveUsage)
	}

	var cfgPath string
	var overridePort int
	fs.StringVar(&cfgPath, "config", "", "path to configuration file")
	fs.IntVar(&overridePort, "port", 0, "override server port")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse serve flags: %w", err)
	}

	if cfgPath == "" {
		return errors.New("serve command requires --config <path>")
	}

	cfg, err := config.Load(cfgPath, env)
	if err != nil {
		return err
	}

	if overridePort != 0 {
		if overridePort <= 0 || overridePort > 65535 {
			return fmt.Errorf("port override %d must be a valid TCP port", overridePort)
		}
		cfg.Server.Port = overridePort
	}

	srv, err := server.New(cfg, registryFor(cfg))
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}

// registryFor builds the built-in nodes from configuration.
func registryFor(cfg config.Config) *nodes.Registry {
	var textEncoder enhancer.TextEncoder
	if cfg.Encoder.URL != "" {
		textEncoder = encoder.New(encoder.Config{
			URL:     cfg.Encoder.URL,
			Timeout: cfg.Encoder.Timeout,
		})
	}

	return nodes.Default(nodes.Config{
		OpenAI:  cfg.OpenAIProvider(),
		Bedrock: cfg.BedrockProvider(),
		Encoder: textEncoder,
		Options: cfg.Options(),
	})
}
