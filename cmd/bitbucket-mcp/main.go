// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/bitbucket-mcp/lib/bitbucket"
	"github.com/bureau-foundation/bitbucket-mcp/lib/config"
	"github.com/bureau-foundation/bitbucket-mcp/lib/mcpserver"
	"github.com/bureau-foundation/bitbucket-mcp/lib/process"
	"github.com/bureau-foundation/bitbucket-mcp/lib/tools"
	"github.com/bureau-foundation/bitbucket-mcp/lib/version"
)

const serverName = "bitbucket-mcp"

// requestTimeout bounds a single Bitbucket request including the body
// read. Step logs and large diffs are the slowest responses.
const requestTimeout = 2 * time.Minute

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

// options holds the parsed command line.
type options struct {
	configPath  string
	envFile     string
	logLevel    string
	showVersion bool
	help        bool
}

// usageError is a command-line mistake. It exits with status 2.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }
func (e *usageError) ExitCode() int { return 2 }

func parseFlags(args []string) (options, error) {
	var parsed options
	flagSet := pflag.NewFlagSet(serverName, pflag.ContinueOnError)
	flagSet.SetOutput(os.Stderr)
	flagSet.StringVar(&parsed.configPath, "config", "", "config file, YAML or JSONC (default: $"+config.EnvConfigFile+")")
	flagSet.StringVar(&parsed.envFile, "env-file", "", "dotenv file merged into the environment (default: "+config.DefaultEnvFile+" if present)")
	flagSet.StringVar(&parsed.logLevel, "log-level", "", "debug, info, warn, or error (default: $"+config.EnvLogLevel+" or info)")
	flagSet.BoolVar(&parsed.showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			parsed.help = true
			return parsed, nil
		}
		return options{}, &usageError{err: err}
	}
	if flagSet.NArg() > 0 {
		return options{}, &usageError{err: fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))}
	}
	return parsed, nil
}

func run(args []string) error {
	parsed, err := parseFlags(args)
	if err != nil {
		return err
	}
	if parsed.help {
		return nil
	}
	if parsed.showVersion {
		version.Print(os.Stdout, serverName)
		return nil
	}

	cfg, err := config.Load(config.Options{
		ConfigPath: parsed.configPath,
		EnvFile:    parsed.envFile,
		LogLevel:   parsed.logLevel,
	})
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, level)
	slog.SetDefault(logger)
	logger.Info("starting", "version", version.Info(), "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := bitbucket.NewClient(cfg.Client(ctx, &http.Client{Timeout: requestTimeout}, logger))
	if err != nil {
		return err
	}

	toolset := tools.New(tools.Config{
		Client:    client,
		Workspace: cfg.Workspace,
		User:      cfg.Username,
		Logger:    logger,
	})
	server := mcpserver.New(mcpserver.Config{
		Name:    serverName,
		Version: version.Short(),
		Tools:   toolset.Catalog(),
		Logger:  logger,
	})

	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("serving MCP: %w", err)
	}
	logger.Info("shutting down")
	return nil
}
