package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/koustreak/blobmover/internal/errs"
)

func newGetCmd(a *app) *cobra.Command {
	var slot, out string

	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Download one object to stdout or a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.backend(cmd, slot)
			if err != nil {
				return err
			}

			data, err := b.Get(cmd.Context(), args[0])
			if err != nil {
				a.log.ErrorWith("get failed", err, map[string]any{"key": args[0]})
				return err
			}

			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return errs.Wrap(errs.ErrKindTransport, "failed to write "+out, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&slot, "backend", "", "storage slot to read from")
	cmd.Flags().StringVar(&out, "out", "", "output file (default stdout)")
	_ = cmd.MarkFlagRequired("backend")
	return cmd
}

func newPutCmd(a *app) *cobra.Command {
	var slot string

	cmd := &cobra.Command{
		Use:   "put KEY FILE",
		Short: "Upload one object from a file, or stdin when FILE is -",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, path := args[0], args[1]

			var data []byte
			var err error
			if path == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(path)
			}
			if err != nil {
				return errs.Wrap(errs.ErrKindInvalidInput, "failed to read "+path, err)
			}

			b, err := a.backend(cmd, slot)
			if err != nil {
				return err
			}
			if err := b.Put(cmd.Context(), key, data); err != nil {
				a.log.ErrorWith("put failed", err, map[string]any{"key": key})
				return err
			}
			a.log.InfoWith("object stored", map[string]any{"key": key, "bytes": len(data)})
			return nil
		},
	}

	cmd.Flags().StringVar(&slot, "backend", "", "storage slot to write to")
	_ = cmd.MarkFlagRequired("backend")
	return cmd
}
