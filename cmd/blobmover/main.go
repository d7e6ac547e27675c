// Command blobmover moves objects between storage backends.
//
//	blobmover --config blobmover.yaml transfer --from images_source --to images_destination file1.bin file2.bin
//	blobmover get --backend images_source file1.bin --out file1.bin
//	blobmover put --backend images_destination file1.bin ./file1.bin
//	blobmover serve --backend images_destination --addr :8080
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
