//go:build cgo

package output

import (
	"log/slog"

	"github.com/gen2brain/malgo"
)

// Context wraps malgo.AllocatedContext with lifecycle management and logging
type Context struct {
	ctx *malgo.AllocatedContext
}

// NewContext initializes a miniaudio context that routes its log output to slog
func NewContext() (*Context, error) {
	slog.Debug("initializing audio context")

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		slog.Debug("malgo internal", "message", message)
	})
	if err != nil {
		slog.Error("failed to initialize audio context", "error", err)
		return nil, err
	}

	slog.Info("audio context initialized")
	return &Context{ctx: ctx}, nil
}

// Close uninitializes and frees the context
func (c *Context) Close() error {
	if c.ctx == nil {
		return nil
	}

	// malgo requires both Uninit() and Free()
	if err := c.ctx.Uninit(); err != nil {
		slog.Error("failed to uninitialize audio context", "error", err)
		return err
	}
	c.ctx.Free()
	c.ctx = nil

	slog.Debug("audio context closed")
	return nil
}

// IsValid checks if the context is still open
func (c *Context) IsValid() bool {
	return c.ctx != nil
}
