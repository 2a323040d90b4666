// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/mathkitproj/mathsolver-mcp/internal/config"
	"github.com/mathkitproj/mathsolver-mcp/internal/httpapi"
	"github.com/mathkitproj/mathsolver-mcp/internal/service"
	"github.com/mathkitproj/mathsolver-mcp/internal/tool"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = service.Version

const shutdownTimeout = 10 * time.Second

type rootOptions struct {
	configPath string
	logLevel   string

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "mathsolver-mcp",
		Short:         "Classify and solve text math problems over MCP, HTTP or the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.LogLevel = strings.ToLower(opts.logLevel)
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			opts.cfg = cfg
			opts.logger = newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
			slog.SetDefault(opts.logger)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	cmd.AddCommand(
		newServeCmd(opts),
		newHTTPCmd(opts),
		newSolveCmd(opts),
		newBatchCmd(opts),
		newSolversCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// newLogger writes JSON logs to w. MCP stdio mode relies on w being stderr.
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func (o *rootOptions) service(ctx context.Context) (*service.Service, error) {
	return service.FromConfig(ctx, o.cfg, o.logger)
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the math tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := opts.service(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			opts.logger.Info("starting MCP server", "transport", "stdio", "version", version)
			err = tool.NewServer(svc, version).Run(ctx, &mcp.StdioTransport{})
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}
}

func newHTTPCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := opts.service(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			if addr == "" {
				addr = opts.cfg.HTTP.Addr
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           httpapi.New(svc, httpapi.Options{MaxBodyBytes: opts.cfg.HTTP.MaxBodyBytes, Logger: opts.logger}),
				ReadTimeout:       opts.cfg.ReadTimeout(),
				ReadHeaderTimeout: opts.cfg.ReadTimeout(),
				WriteTimeout:      opts.cfg.WriteTimeout(),
			}

			errc := make(chan error, 1)
			go func() {
				opts.logger.Info("starting HTTP server", "addr", addr, "version", version)
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("http server: %w", err)
			case <-ctx.Done():
			}

			opts.logger.Info("shutting down HTTP server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http.addr)")
	return cmd
}

func newSolveCmd(opts *rootOptions) *cobra.Command {
	var (
		subject     string
		difficulty  string
		timeout     time.Duration
		withExplain bool
		output      string
	)
	cmd := &cobra.Command{
		Use:   "solve [problem text]",
		Short: "Solve one problem and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "json" && output != "yaml" {
				return fmt.Errorf("unsupported output %q (want json or yaml)", output)
			}
			ctx := cmd.Context()
			svc, err := opts.service(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			res := svc.Solve(ctx, service.SolveRequest{
				ProblemText:        strings.Join(args, " "),
				SubjectArea:        subject,
				DifficultyLevel:    difficulty,
				TimeoutMS:          int(timeout / time.Millisecond),
				IncludeExplanation: withExplain,
			})
			if err := write(cmd.OutOrStdout(), output, res); err != nil {
				return err
			}
			if !res.Success {
				return errors.New(res.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "subject hint: arithmetic, algebra, geometry, calculus or statistics")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "explanation level: beginner, intermediate or advanced")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "solve time budget, between 1s and 30s")
	cmd.Flags().BoolVar(&withExplain, "explain", false, "add an explanation of the solution")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	return cmd
}

func newSolversCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "solvers",
		Short: "List the registered solvers and their capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()
			return write(cmd.OutOrStdout(), output, svc.Solvers())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: json or yaml")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// Skip config loading.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", tool.ServerName, version)
		},
	}
}

func write(w io.Writer, output string, v any) error {
	switch output {
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported output %q (want json or yaml)", output)
	}
}
