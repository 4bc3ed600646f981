package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/eculver/aws-session/cmd"
	"github.com/eculver/aws-session/pkg/log"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	err := cmd.Execute(ctx)
	log.Close()
	cancel()
	os.Exit(cmd.ExitCode(err))
}
