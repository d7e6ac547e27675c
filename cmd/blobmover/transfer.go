package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/koustreak/blobmover/internal/errs"
	"github.com/koustreak/blobmover/internal/transfer"
)

// Filled in by cobra flag parsing.
type transferFlags struct {
	from     string
	to       string
	keysFile string
	output   string
}

func newTransferCmd(a *app) *cobra.Command {
	f := &transferFlags{}

	cmd := &cobra.Command{
		Use:   "transfer [KEY...]",
		Short: "Copy objects from one storage slot to another",
		Long: `Download every key from the --from slot and upload it under the same key to
the --to slot. Keys come from the arguments and from --keys-file (one per line,
blank lines and lines starting with # are skipped). Exits non-zero when any key
fails; the others are still transferred.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validFormat(f.output) {
				return errs.Newf(errs.ErrKindInvalidInput, "unknown output format %q (want text, json or yaml)", f.output)
			}

			keys := append([]string(nil), args...)
			if f.keysFile != "" {
				fileKeys, err := readKeys(f.keysFile)
				if err != nil {
					return err
				}
				keys = append(keys, fileKeys...)
			}
			if len(keys) == 0 {
				return errs.New(errs.ErrKindInvalidInput, "no keys to transfer")
			}

			src, err := a.backend(cmd, f.from)
			if err != nil {
				return err
			}
			dst, err := a.backend(cmd, f.to)
			if err != nil {
				return err
			}

			report := transfer.New(transfer.WithLogger(a.log)).Run(cmd.Context(), keys, src, dst)
			if err := writeReport(cmd.OutOrStdout(), f.output, report); err != nil {
				return err
			}

			if failed := len(report.Failed()); failed > 0 {
				return fmt.Errorf("%d of %d keys failed", failed, len(keys))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&f.from, "from", "", "source storage slot")
	cmd.Flags().StringVar(&f.to, "to", "", "destination storage slot")
	cmd.Flags().StringVar(&f.keysFile, "keys-file", "", "file listing keys, one per line")
	cmd.Flags().StringVarP(&f.output, "output", "o", formatText, "report format: text, json, yaml")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func readKeys(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "cannot open keys file "+path, err)
	}
	defer file.Close()

	var keys []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keys = append(keys, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to read keys file "+path, err)
	}
	return keys, nil
}
