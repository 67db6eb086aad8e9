package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sonemaro/sauce/pkg/logger"
)

// forcedExitCode is used when a second interrupt arrives before the run
// has wound down
const forcedExitCode = 130

// WithSignals returns a context cancelled on the first SIGINT or SIGTERM.
// A second signal exits the process immediately. The returned stop
// function releases the signal handlers.
func WithSignals(parent context.Context, log logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	log.Debug("Initializing signal handlers")

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go watchSignals(sigChan, done, cancel, log, os.Exit)

	return ctx, func() {
		signal.Stop(sigChan)
		close(done)
		cancel()
	}
}

// watchSignals cancels on the first signal and calls exit on the second
func watchSignals(sigChan <-chan os.Signal, done <-chan struct{}, cancel context.CancelFunc, log logger.Logger, exit func(int)) {
	interrupted := false
	for {
		select {
		case <-done:
			return
		case sig := <-sigChan:
			log.WithFields(logger.Fields{
				"signal": sig.String(),
			}).Debug("Received system signal")

			if interrupted {
				log.Warn("Received second interrupt, forcing exit")
				exit(forcedExitCode)
				return
			}

			interrupted = true
			log.Info("Interrupted, stopping search")
			cancel()
		}
	}
}
