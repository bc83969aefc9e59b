package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/oradev/ora/cmd/ora"
	"github.com/oradev/ora/pkg/cache"
	"github.com/oradev/ora/pkg/paths"
)

// shutdownRequested flips once on the first interrupt so every code path
// agrees the process is terminating, even if the signal lands while a
// command is already unwinding.
var shutdownRequested atomic.Bool

func main() {
	// An interrupt mid-download must not leave partial artifacts that a
	// later run could mistake for complete ones.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		shutdownRequested.Store(true)
		if p, err := paths.New(); err == nil {
			cache.New(p).ClearDownloads()
		}
		os.Exit(130)
	}()

	os.Exit(run())
}

// run executes the CLI and maps the outcome to an exit code. A shutdown
// request always wins over whatever Execute returned, so an interrupt
// that lands while a command is unwinding still reports as interrupted.
func run() int {
	rootCmd := ora.NewRootCmd()
	err := rootCmd.Execute()
	if shutdownRequested.Load() {
		return 130
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
