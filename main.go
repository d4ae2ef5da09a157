package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mlopslite/mlopslite/pkg/config"
	"github.com/mlopslite/mlopslite/pkg/server"
)

var version = "dev"

func loadConfig(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Version == "" || cfg.Version == "dev" {
		cfg.Version = version
	}

	if address, _ := cmd.Flags().GetString("address"); address != "" {
		cfg.Address = address
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	logger := logrus.StandardLogger()
	logger.SetLevel(level)

	return cfg, logger, nil
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "mlops-lite",
		Short:         "Registry for datasets and deployable prediction pipelines",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "path to a JSON or YAML configuration file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the registry HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.Launch(ctx, cfg, logger)
		},
	}
	serve.Flags().String("address", "", "address to listen on (overrides the configuration)")

	show := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			defer encoder.Close()

			return encoder.Encode(cfg)
		},
	}

	root.AddCommand(serve, show, &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(version)
		},
	})

	return root
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		logrus.Fatal(err)
	}
}
