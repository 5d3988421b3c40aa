package container

import (
	"context"
	"fmt"

	"chemhits/adapters/chembl"
	"chemhits/adapters/excel"
	"chemhits/adapters/export"
	"chemhits/adapters/postgres"
	"chemhits/app"
	"chemhits/internal"
	"chemhits/internal/config"
	"chemhits/internal/errors"
	"chemhits/internal/metrics"
	"chemhits/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Record source and outputs
	Supplier ports.RecordSupplier
	Writers  []ports.OutputWriter

	Metrics *metrics.Metrics
}

// New creates a container and connects the configured record source
func New(ctx context.Context, cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	writers, err := export.NewWriters(cfg.Output.Formats)
	if err != nil {
		return nil, err
	}
	c.Writers = writers

	if err := c.initSupplier(ctx); err != nil {
		c.Shutdown(ctx)
		return nil, err
	}

	logger.WithComponent("Container").Info("record source %s ready", c.Supplier.Name())
	return c, nil
}

func (c *Container) initSupplier(ctx context.Context) error {
	switch c.Config.Source.Kind {
	case config.SourcePostgres:
		db, err := postgres.Connect(ctx, c.Config.Database.URL)
		if err != nil {
			return err
		}
		c.DB = db
		c.Supplier = postgres.NewSupplier(db, c.Logger)
	case config.SourceFile:
		supplier, err := excel.NewFileSupplier(excel.FileConfig{FilePath: c.Config.Source.InputFile}, c.Logger)
		if err != nil {
			return err
		}
		c.Supplier = supplier
	default:
		client, err := chembl.NewClient(c.Config.ClientConfig(), c.Logger)
		if err != nil {
			return err
		}
		c.Supplier = client
	}
	return nil
}

// NewService creates a hit-calling service over the container's supplier.
// An empty outputDir disables file outputs.
func (c *Container) NewService(outputDir string) (*app.HitCallingService, error) {
	service, err := app.NewHitCallingService(c.Supplier, c.Writers, app.ServiceConfig{
		Policy:    c.Config.PipelinePolicy(),
		OutputDir: outputDir,
	}, c.Logger)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return service.WithObserver(c.Metrics), nil
}

// DefaultQuery returns the query used when the caller gives no limit
func (c *Container) DefaultQuery() ports.ActivityQuery {
	return ports.ActivityQuery{
		StandardTypes: c.Config.Policy.MeasurementTypes,
		Limit:         c.Config.ChEMBL.RecordLimit,
	}
}

// Shutdown releases the database connection, if any
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return errors.Wrap(err, "failed to close database")
		}
		c.DB = nil
	}
	return nil
}
