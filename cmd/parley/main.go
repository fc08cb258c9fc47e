// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// parley holds one client connection to an IRC-style server: it
// registers, stays registered across drops, resolves incoming traffic
// into conversation targets, and hands them to a delivery pipeline.
//
// Usage:
//
//	parley [--config path] [--verbose]
//	parley status [--config path] [--raw]
//
// Without --config the PARLEY_CONFIG environment variable names the
// config file. The status subcommand reads the status file written by
// a running parley and fails when it is missing or stale.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/parley/lib/clock"
	"github.com/bureau-foundation/parley/lib/codec"
	"github.com/bureau-foundation/parley/lib/config"
	"github.com/bureau-foundation/parley/lib/statefile"
	"github.com/bureau-foundation/parley/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) > 0 && args[0] == "status" {
		return runStatus(args[1:], os.Stdout)
	}

	var (
		configPath  string
		verbose     bool
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("parley", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to config file (default: $PARLEY_CONFIG)")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Printf("parley %s\n", version.Full())
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(verbose)
	logger.Info("parley starting",
		"version", version.Info(),
		"environment", string(cfg.Environment),
		"network", cfg.Server.Network,
		"transport", cfg.Server.Transport,
	)

	application, err := newApp(cfg, appOptions{Logger: logger})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.run(ctx); err != nil {
		return err
	}
	logger.Info("parley stopped")
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// runStatus prints the last snapshot written by a running parley.
func runStatus(args []string, output io.Writer) error {
	var (
		configPath string
		raw        bool
	)
	flagSet := pflag.NewFlagSet("parley status", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to config file (default: $PARLEY_CONFIG)")
	flagSet.BoolVar(&raw, "raw", false, "print the snapshot in CBOR diagnostic notation")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Status.Path == "" {
		return errors.New("status.path is not configured")
	}

	if raw {
		data, err := os.ReadFile(cfg.Status.Path)
		if err != nil {
			return err
		}
		diagnostic, err := codec.Diagnose(data)
		if err != nil {
			return err
		}
		fmt.Fprintln(output, diagnostic)
		return nil
	}

	snapshot, checkErr := statefile.Check(cfg.Status.Path, cfg.Status.MaxAge, clock.Real())
	if checkErr != nil && !errors.Is(checkErr, statefile.ErrStale) {
		return checkErr
	}
	printSnapshot(output, snapshot)
	return checkErr
}

func printSnapshot(output io.Writer, snapshot statefile.Snapshot) {
	fmt.Fprintf(output, "server:     %s\n", snapshot.Server)
	fmt.Fprintf(output, "connection: %s\n", snapshot.Connection)
	fmt.Fprintf(output, "session:    %s\n", snapshot.Session)
	if snapshot.Nick != "" {
		fmt.Fprintf(output, "nick:       %s\n", snapshot.Nick)
	}
	if snapshot.Error != "" {
		fmt.Fprintf(output, "error:      %s\n", snapshot.Error)
	}
	fmt.Fprintf(output, "updated:    %s\n", snapshot.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
}
