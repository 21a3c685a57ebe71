// Package plugin wires a store publisher into the bundler lifecycle: after
// the build emits its files, the output directory is zipped, handed to the
// publisher and, on success, removed again.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/google/uuid"

	"github.com/mcdonaldj/extpublish/internal/adapters/osfs"
	"github.com/mcdonaldj/extpublish/internal/adapters/ziparchiver"
	"github.com/mcdonaldj/extpublish/internal/bundle"
	"github.com/mcdonaldj/extpublish/internal/bundler"
	"github.com/mcdonaldj/extpublish/internal/config"
	"github.com/mcdonaldj/extpublish/internal/logger"
	"github.com/mcdonaldj/extpublish/internal/ports"
)

// Name is used for the hook tap and as the logger name.
const Name = "extpublish"

// ErrPublishNotImplemented is returned by Unimplemented.
var ErrPublishNotImplemented = errors.New("publish must be overridden by a store-specific publisher")

// Unimplemented is the publisher used when none is supplied.
type Unimplemented struct{}

func (Unimplemented) Publish(ctx context.Context, bundlePath string) (ports.Result, error) {
	return ports.Result{}, ErrPublishNotImplemented
}

// Plugin archives the build output and hands it to a Publisher.
type Plugin struct {
	opts      config.Options
	log       *logger.Logger
	publisher ports.Publisher
	archiver  ports.Archiver
	fs        ports.FileSystem

	// last holds the result of the current or most recent cycle. It is
	// cleared when a cycle starts. One cycle runs per build.
	last    ports.Result
	lastRan bool
}

// Option is a functional option for configuring Plugin.
type Option func(*Plugin)

func WithArchiver(a ports.Archiver) Option {
	return func(p *Plugin) { p.archiver = a }
}

func WithFileSystem(fsys ports.FileSystem) Option {
	return func(p *Plugin) { p.fs = fsys }
}

// WithLogger replaces the logger built from the silent option.
func WithLogger(l *logger.Logger) Option {
	return func(p *Plugin) { p.log = l }
}

// WithLogOutput keeps the level derived from options but writes to w.
func WithLogOutput(w io.Writer) Option {
	return func(p *Plugin) { p.log = logger.New(Name, w, logger.LevelFor(p.opts.Silent)) }
}

// New validates opts and creates a plugin. A nil publisher yields
// Unimplemented.
func New(opts config.Options, publisher ports.Publisher, options ...Option) (*Plugin, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if publisher == nil {
		publisher = Unimplemented{}
	}

	p := &Plugin{
		opts:      opts,
		publisher: publisher,
		archiver:  ziparchiver.New(),
		fs:        osfs.New(),
		log:       logger.New(Name, os.Stderr, logger.LevelFor(opts.Silent)),
	}
	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

func (p *Plugin) Options() config.Options { return p.opts }

func (p *Plugin) Logger() *logger.Logger { return p.log }

// LastResult returns the outcome of the most recent cycle and whether one ran
// to the publish step.
func (p *Plugin) LastResult() (ports.Result, bool) {
	return p.last, p.lastRan
}

// Apply taps the compiler's after-emit hook unless the plugin is disabled.
func (p *Plugin) Apply(compiler *bundler.Compiler) {
	if p.opts.Disabled {
		return
	}
	compiler.Hooks.AfterEmit.TapPromise(Name, p.AfterEmit)
}

// AfterEmit bundles the output directory, publishes the bundle and removes
// it when publishing succeeded and the bundle should not be kept. A failed
// result leaves the bundle on disk.
func (p *Plugin) AfterEmit(ctx context.Context, compilation *bundler.Compilation) error {
	p.last, p.lastRan = ports.Result{}, false

	dir := p.opts.Path
	if dir == "" && compilation != nil {
		dir = compilation.OutputPath
	}
	if dir == "" {
		return errors.New("no output directory: set path or run from a build with an output path")
	}
	dir = config.ExpandPath(dir)

	cycle := uuid.NewString()
	p.log.Debug("Cycle %s: bundling %s", cycle, dir)

	bundlePath, err := p.MakeBundle(ctx, dir)
	if err != nil {
		return fmt.Errorf("bundling %s: %w", dir, err)
	}

	result, err := p.publisher.Publish(ctx, bundlePath)
	if err != nil {
		return err
	}
	p.last, p.lastRan = result, true

	if !result.Succeeded {
		p.log.Warn("Publishing did not succeed, keeping %s.", bundlePath)
		return nil
	}

	if p.opts.KeepBundleOnSuccess {
		p.log.Debug("Cycle %s: keeping %s", cycle, bundlePath)
		return nil
	}

	if err := p.fs.Remove(bundlePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing bundle: %w", err)
	}
	p.log.Debug("Cycle %s: removed %s", cycle, bundlePath)
	return nil
}

// MakeBundle zips the contents of directory into directory/.bundle.zip and
// returns the archive's absolute path.
func (p *Plugin) MakeBundle(ctx context.Context, directory string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dest, err := bundle.PathIn(directory)
	if err != nil {
		return "", err
	}

	count, err := p.archiver.Create(dest, directory)
	if err != nil {
		return "", err
	}

	info, err := bundle.Describe(p.fs, dest, count)
	if err != nil {
		return "", fmt.Errorf("reading bundle: %w", err)
	}
	p.log.Info("Bundled %d files into %s (%s).", info.FileCount, info.Path, bundle.FormatSize(info.SizeBytes))
	p.log.Debug("sha256 %s", info.SHA256)

	return dest, nil
}

// Compile-time check that Plugin implements bundler.Plugin.
var _ bundler.Plugin = (*Plugin)(nil)
