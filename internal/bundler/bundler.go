// Package bundler models the build-tool lifecycle a publishing plugin hooks
// into: a compiler exposes named hooks, plugins tap them, and the compiler
// calls them once per build.
package bundler

import (
	"context"
	"fmt"
)

// Compilation is the output metadata of one build.
type Compilation struct {
	// OutputPath is the directory the build emitted its files into.
	OutputPath string
}

// AsyncFunc is a callback tapped into an async hook.
type AsyncFunc func(ctx context.Context, compilation *Compilation) error

// Tap is one registered callback.
type Tap struct {
	Name string
	Fn   AsyncFunc
}

// AsyncSeriesHook runs its taps one after another, in registration order.
type AsyncSeriesHook struct {
	taps []Tap
}

// TapPromise registers fn under name.
func (h *AsyncSeriesHook) TapPromise(name string, fn AsyncFunc) {
	h.taps = append(h.taps, Tap{Name: name, Fn: fn})
}

// Taps returns a copy of the registered callbacks.
func (h *AsyncSeriesHook) Taps() []Tap {
	out := make([]Tap, len(h.taps))
	copy(out, h.taps)
	return out
}

// Call runs every tap in order and stops at the first error.
func (h *AsyncSeriesHook) Call(ctx context.Context, compilation *Compilation) error {
	for _, tap := range h.taps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := tap.Fn(ctx, compilation); err != nil {
			return fmt.Errorf("%s: %w", tap.Name, err)
		}
	}
	return nil
}

// Hooks are the lifecycle extension points of a Compiler.
type Hooks struct {
	// AfterEmit runs once output files have been written.
	AfterEmit AsyncSeriesHook
}

// Plugin is anything that can register itself against a Compiler.
type Plugin interface {
	Apply(compiler *Compiler)
}

// Compiler drives one build's lifecycle for an output directory.
type Compiler struct {
	Hooks      Hooks
	OutputPath string
}

// NewCompiler creates a compiler for outputPath and applies plugins in order.
func NewCompiler(outputPath string, plugins ...Plugin) *Compiler {
	c := &Compiler{OutputPath: outputPath}
	for _, p := range plugins {
		p.Apply(c)
	}
	return c
}

// Run fires the after-emit hook once. The files are expected to already be
// in OutputPath; emitting them is the build tool's job.
func (c *Compiler) Run(ctx context.Context) error {
	return c.Hooks.AfterEmit.Call(ctx, &Compilation{OutputPath: c.OutputPath})
}
