package main

import (
	"github.com/spf13/cobra"

	"github.com/koustreak/blobmover/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var slot string
	cfg := server.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve one storage slot over HTTP",
		Long: `Expose a storage slot at /objects/{key}: GET reads, PUT writes (unless
--read-only). Another blobmover can read from it with an http backend whose
base_url points at http://host:port/objects.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.backend(cmd, slot)
			if err != nil {
				return err
			}
			return server.New(cfg, b, a.log).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&slot, "backend", "", "storage slot to serve")
	cmd.Flags().StringVar(&cfg.ListenAddr, "addr", cfg.ListenAddr, "listen address")
	cmd.Flags().BoolVar(&cfg.ReadOnly, "read-only", false, "reject PUT requests")
	cmd.Flags().Int64Var(&cfg.MaxObjectBytes, "max-object-bytes", 0, "largest accepted PUT body, 0 for no limit")
	_ = cmd.MarkFlagRequired("backend")
	return cmd
}
