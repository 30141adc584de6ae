// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"

	"github.com/gogama/httpexec"
	"github.com/gogama/httpexec/config"
	"github.com/spf13/cobra"
)

// Version is the version printed by the version command.
var Version = "0.1.0"

type rootOptions struct {
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "httpexec",
		Short: "Issue HTTP requests through a pooled, retrying HTTP/1.1 client",
		Long: `httpexec issues HTTP/1.1 requests through a client with connection
pooling, retries of transient I/O failures, redirect following, cookie
management and transparent response decompression.

The client is configured from a YAML file (--config) and HTTPEXEC_*
environment variables.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "configuration file path")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newRequestCmd(opts, "get", "GET"),
		newRequestCmd(opts, "head", "HEAD"),
		newRequestCmd(opts, "post", "POST"),
		newVersionCmd(),
	)
	return cmd
}

// client loads the configuration and builds a client logging to
// stderr.
func (opts *rootOptions) client(stderr io.Writer) (*httpexec.Client, error) {
	cfg, err := config.LoadWithEnvOverrides(opts.configFile)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
		if err = config.Validate(cfg); err != nil {
			return nil, err
		}
	}
	logger := cfg.Logger(stderr)
	return httpexec.NewFromConfig(cfg,
		httpexec.WithLogger(logger),
		httpexec.WithHandlers(httpexec.LogHandlers(logger)))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "httpexec %s\n", Version)
		},
	}
}
