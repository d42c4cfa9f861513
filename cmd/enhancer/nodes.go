package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/zoobzio/enhancer/internal/config"
)

const nodesUsage = `Usage:
  enhancer nodes [--config <path>]

Flags:
  --config string   Path to YAML configuration file`

func listNodes(args []string, env config.LookupFunc, stdout io.Writer) error {
	fs := flag.NewFlagSet("nodes", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, nodesUsage)
	}

	var cfgPath string
	fs.StringVar(&cfgPath, "config", "", "path to configuration file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse nodes flags: %w", err)
	}

	cfg, err := config.Load(cfgPath, env)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(registryFor(cfg).Specs())
}
