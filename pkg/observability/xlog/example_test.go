package xlog_test

import (
	"context"
	"os"

	"github.com/omeyang/xinfer/pkg/observability/xlog"
)

func ExampleHandle_SetSinks() {
	h := xlog.NewHandle("vllm.entrypoints")
	h.SetSinks(xlog.Sink{
		Name:    "console",
		Handler: xlog.NewPatternHandler(os.Stdout, &xlog.PatternOptions{Template: "{level} [{logger}] {message}"}),
	})

	h.Info(context.Background(), "server started")
	h.With(xlog.Err(nil)).Warn(context.Background(), "nothing failed")
	// Output:
	// INFO [vllm.entrypoints] server started
	// WARN [vllm.entrypoints] nothing failed
}
