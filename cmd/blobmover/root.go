package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/koustreak/blobmover/internal/config"
	"github.com/koustreak/blobmover/internal/logger"
	"github.com/koustreak/blobmover/internal/storage"
	"github.com/koustreak/blobmover/internal/storage/factory"
)

// app carries the state shared by every subcommand.
type app struct {
	cfgFile   string
	logLevel  string
	logFormat string

	cfg *config.Config
	log *logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "blobmover",
		Short:        "Move blobs between storage backends",
		Long:         `Copy, read and write objects across local, HTTP, S3, GCS, MinIO and WebDAV backends configured as named storage slots.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "blobmover.yaml", "config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format override: json, console")

	root.AddCommand(
		newTransferCmd(a),
		newGetCmd(a),
		newPutCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) init(logOut io.Writer) error {
	// Logging must work before the config is known, to report config errors.
	a.log = logger.New(&logger.Config{Level: a.logLevel, Format: "console", Output: logOut})

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		a.log.ErrorWith("failed to load configuration", err, map[string]any{"path": a.cfgFile})
		return err
	}
	a.cfg = cfg

	lc := cfg.Logger()
	lc.Output = logOut
	if a.logLevel != "" {
		lc.Level = a.logLevel
	}
	if a.logFormat != "" {
		lc.Format = a.logFormat
	}
	a.log = logger.New(lc)

	// Reject a bad slot before any command touches a backend.
	if err := cfg.Validate(); err != nil {
		a.log.ErrorWith("invalid configuration", err, map[string]any{"path": a.cfgFile})
		return err
	}
	a.log.With().Str("path", a.cfgFile).Any("slots", cfg.SlotNames()).Logger().Debug("configuration loaded")
	return nil
}

// backend builds the storage slot called name.
func (a *app) backend(cmd *cobra.Command, name string) (storage.Backend, error) {
	slot, err := a.cfg.Backend(name)
	if err != nil {
		a.log.ErrorWith("unknown storage slot", err, map[string]any{"slot": name})
		return nil, err
	}
	b, err := factory.New(cmd.Context(), slot, a.log.With().Str("slot", name).Logger())
	if err != nil {
		a.log.ErrorWith("failed to build storage backend", err, map[string]any{"slot": name})
		return nil, err
	}
	return b, nil
}
