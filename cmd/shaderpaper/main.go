// Command shaderpaper draws an animated WGSL shader as a Wayland
// background.
//
// Usage:
//
//	shaderpaper [flags] <shader.wgsl>
//
// Every flag has a SHADERPAPER_* environment variable counterpart; see
// --help.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
)

func init() {
	// Keep the main goroutine, which owns the display connection, on the
	// main OS thread.
	runtime.LockOSThread()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "shaderpaper: %v\n", err)
		stop()
		os.Exit(1)
	}
}
