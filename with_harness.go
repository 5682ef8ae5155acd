package mcpharness

import (
	"context"
	"fmt"
)

// WithHarness manages harness lifecycle with automatic cleanup.
//
// This helper creates a harness for cfg, starts it, executes the callback,
// and stops the child when done. The handshake is left to the callback so
// that raw protocol exchanges remain possible.
//
// If the callback returns an error, it is returned to the caller.
// If Stop fails, a warning is logged but does not override the callback's error.
//
// Example usage:
//
//	err := mcpharness.WithHarness(ctx, cfg, func(h mcpharness.Harness) error {
//	    if _, err := h.Initialize(ctx); err != nil {
//	        return err
//	    }
//	    tools, err := h.ListTools(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    // inspect tools...
//	    return nil
//	},
//	    mcpharness.WithLogger(log),
//	)
func WithHarness(ctx context.Context, cfg Config, fn func(Harness) error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	options := applyOptions(opts)

	h := New(cfg, opts...)
	if err := h.Start(ctx); err != nil {
		return fmt.Errorf("failed to start harness: %w", err)
	}

	defer func() {
		if stopErr := h.Stop(); stopErr != nil {
			options.Logger.Warn("failed to stop harness", "error", stopErr)
		}
	}()

	return fn(h)
}
