package server

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mlopslite/mlopslite/pkg/config"
	"github.com/mlopslite/mlopslite/pkg/deployable/estimator"
	"github.com/mlopslite/mlopslite/pkg/service"
	"github.com/mlopslite/mlopslite/pkg/store/sql"
)

// Launch serves the registry until ctx is cancelled.
func Launch(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	registry, err := sql.NewRegistryStore(cfg, log)
	if err != nil {
		return fmt.Errorf("could not create registry store: %w", err)
	}

	svc := service.NewRegistryService(cfg, log, registry, estimator.Codec{})
	defer func() {
		if err := svc.Close(); err != nil {
			log.Errorf("Failed to close registry store: %v", err)
		}
	}()

	app, err := NewApp(cfg, log, svc)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()

		if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout.Duration); err != nil {
			log.Errorf("Failed to gracefully shutdown mlops-lite server: %v", err)
		}
	}()

	log.Infof("mlops-lite %s listening on %s", cfg.Version, cfg.Address)

	if err := app.Listen(cfg.Address); err != nil {
		return fmt.Errorf("failed to start mlops-lite server: %w", err)
	}

	return nil
}
