// Package commands implements the sdcpipeline CLI subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/sdcpipeline/config"
	"github.com/c360studio/sdcpipeline/graph"
	"github.com/c360studio/sdcpipeline/pipeline"
	"github.com/c360studio/sdcpipeline/storage"
	"github.com/c360studio/sdcpipeline/template"
	"github.com/c360studio/sdcpipeline/validator"
)

// RootOptions carries the persistent flags shared by all subcommands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// Env is the resolved runtime environment for one command invocation.
type Env struct {
	Config *config.Config
	Logger *slog.Logger
}

// LoadEnv configures logging and loads the layered configuration. An
// explicit --config path skips the user/project config discovery.
func LoadEnv(opts *RootOptions) (*Env, error) {
	level := slog.LevelInfo
	switch strings.ToLower(opts.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.LoadFromFile(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		resolveConfigDirs(cfg, filepath.Dir(opts.ConfigPath))
	} else {
		cfg, err = config.NewLoader(logger).Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Env{Config: cfg, Logger: logger}, nil
}

func resolveConfigDirs(cfg *config.Config, base string) {
	if cfg.Templates.Dir != "" && !filepath.IsAbs(cfg.Templates.Dir) {
		cfg.Templates.Dir = filepath.Join(base, cfg.Templates.Dir)
	}
	if cfg.Schemas.Dir != "" && !filepath.IsAbs(cfg.Schemas.Dir) {
		cfg.Schemas.Dir = filepath.Join(base, cfg.Schemas.Dir)
	}
}

// TemplateStore opens the configured templates directory.
func (e *Env) TemplateStore() *template.Store {
	return template.NewStore(os.DirFS(e.Config.Templates.Dir), e.Logger)
}

// Oracle builds the XSD validation oracle for one data model.
func (e *Env) Oracle(dmCTID string) (validator.Oracle, error) {
	return validator.NewXSDOracle(os.DirFS(e.Config.Schemas.Dir), e.Config.SchemaFile(dmCTID), e.Logger)
}

// Records opens the record store: NATS JetStream KV when a server URL
// is configured, in-memory otherwise. The returned closer is always
// safe to call.
func (e *Env) Records(ctx context.Context) (storage.RecordStore, func(), error) {
	if e.Config.NATS.URL == "" {
		return storage.NewMemoryStore(), func() {}, nil
	}

	nc, err := nats.Connect(e.Config.NATS.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS at %s: %w", e.Config.NATS.URL, err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("open JetStream: %w", err)
	}
	store, err := storage.NewKVStore(ctx, js)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("open record bucket: %w", err)
	}
	return store, nc.Close, nil
}

// Processor wires the full pipeline for one data model, honoring the
// GraphDB and NATS sections of the configuration.
func (e *Env) Processor(ctx context.Context, dmCTID string) (*pipeline.Processor, func(), error) {
	oracle, err := e.Oracle(dmCTID)
	if err != nil {
		return nil, nil, fmt.Errorf("load schema for %s: %w", dmCTID, err)
	}

	records, closeRecords, err := e.Records(ctx)
	if err != nil {
		return nil, nil, err
	}

	var opts []pipeline.ProcessorOption
	if e.Config.GraphDB.Enabled {
		var clientOpts []graph.Option
		if e.Config.GraphDB.Username != "" {
			clientOpts = append(clientOpts, graph.WithBasicAuth(e.Config.GraphDB.Username, e.Config.GraphDB.Password))
		}
		client := graph.NewClient(e.Config.GraphDB.URL, e.Config.GraphDB.Repository, e.Logger, clientOpts...)
		opts = append(opts, pipeline.WithGraphUploader(client))
	}

	proc := pipeline.NewProcessor(e.TemplateStore(), oracle, records, e.Logger, opts...)
	return proc, closeRecords, nil
}
