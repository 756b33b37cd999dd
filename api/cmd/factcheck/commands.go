package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"factcheck/api/internal/app"
	"factcheck/api/internal/config"
	"factcheck/api/internal/handle"
	"factcheck/api/internal/httpserver"
	"factcheck/api/internal/logger"
	"factcheck/api/internal/observability"
	"factcheck/api/internal/verify"
)

type rootOptions struct {
	configPath string
	port       string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "factcheck",
		Short:         "Claim verification service grounded on web search and NLI",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "optional YAML config file; environment overrides it")
	root.AddCommand(newServeCmd(opts), newCheckCmd(opts))
	return root
}

func load(opts *rootOptions) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	if opts.port != "" {
		cfg.Port = opts.port
	}
	lg, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, lg, nil
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, lg, err := load(opts)
			if err != nil {
				return err
			}
			defer func() { _ = lg.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdownTracer, err := observability.InitTracer(ctx, cfg.OTLPEndpoint, "factcheck", lg)
			if err != nil {
				return err
			}
			defer shutdownTracer(context.Background())

			pipe, _, err := app.Pipeline(cfg, lg)
			if err != nil {
				return err
			}

			gin.SetMode(gin.ReleaseMode)
			metrics := observability.NewMetrics()
			h := handle.New(pipe, metrics, lg)
			router := httpserver.NewRouter(cfg, h, metrics, lg)

			return httpserver.New(":"+cfg.Port, router, lg).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&opts.port, "port", "", "listen port (overrides PORT)")
	return cmd
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var isLink bool
	cmd := &cobra.Command{
		Use:   "check <claim>",
		Short: "Verify one claim and print the verdict as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, lg, err := load(opts)
			if err != nil {
				return err
			}
			defer func() { _ = lg.Sync() }()

			pipe, _, err := app.Pipeline(cfg, lg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), handle.RequestTimeout)
			defer cancel()

			rep, err := pipe.Verify(ctx, verify.Claim{Text: strings.Join(args, " "), IsLink: isLink})
			if err != nil {
				return errors.Wrap(err, "verify")
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rep.Verdict)
		},
	}
	cmd.Flags().BoolVar(&isLink, "link", false, "treat the claim as a link")
	return cmd
}
