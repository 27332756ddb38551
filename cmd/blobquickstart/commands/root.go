package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tizianocitro/blobquickstart/internal/config"
	"github.com/tizianocitro/blobquickstart/internal/logger"
	"github.com/tizianocitro/blobquickstart/internal/quickstart"
	"go.uber.org/zap"
)

var rootCmd = newRootCmd(os.Stdout, os.Stdin)

func newRootCmd(out io.Writer, in io.Reader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blobquickstart",
		Short: "Walk through the basic blob storage operations",
		Long: `blobquickstart creates a container, uploads a file as a blob, lists the
container, downloads the blob and deletes everything again.

The Azure connection string is read from AZURE_STORAGE_CONNECTION_STRING.
Other settings come from config.yaml, BLOBQUICKSTART_* variables or flags.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, out, in)
		},
	}

	flags := cmd.Flags()
	flags.String("config", "", "config file (default ./config.yaml or ./config/config.yaml)")
	flags.String("provider", "azblob", "storage provider: azblob, s3 or minio")
	flags.String("endpoint", "", "service endpoint, e.g. an Azurite, LocalStack or MinIO address")
	flags.String("region", "", "region for the s3 provider")
	flags.String("local-dir", "", "directory for the temp files (default the desktop folder)")
	flags.Int32("page-size", 5000, "blobs requested per listing page")
	flags.String("public-access", "blob", "container access level: none, blob or container")
	flags.Bool("interactive", true, "wait for Enter before deleting and before exiting")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-format", "console", "log format: console or json")

	return cmd
}

func run(cmd *cobra.Command, out io.Writer, in io.Reader) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log = logger.WithStorage(log, cfg.Storage.Provider, cfg.Storage.Endpoint)

	connect, err := quickstart.NewConnector(cfg.Storage)
	if err != nil {
		return err
	}
	opts, err := quickstart.OptionsFromConfig(cfg.Quickstart)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := quickstart.New(opts, connect, log, out, in).Run(ctx)
	if err != nil {
		if !errors.Is(err, quickstart.ErrNotConfigured) {
			log.Error("quickstart failed", zap.Error(err))
		}
		return err
	}

	log.Info("quickstart finished",
		zap.String("container", report.Container),
		zap.Int("listed", len(report.Listed)))
	return nil
}

// Execute runs the root command and exits with status 1 on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, quickstart.ErrNotConfigured) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
