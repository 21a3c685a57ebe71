// Package cli provides the command-line interface with injectable io.Writer for testing.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mcdonaldj/extpublish/internal/adapters/osfs"
	"github.com/mcdonaldj/extpublish/internal/adapters/ziparchiver"
	"github.com/mcdonaldj/extpublish/internal/bundle"
	"github.com/mcdonaldj/extpublish/internal/bundler"
	"github.com/mcdonaldj/extpublish/internal/config"
	"github.com/mcdonaldj/extpublish/internal/logger"
	"github.com/mcdonaldj/extpublish/internal/plugin"
	"github.com/mcdonaldj/extpublish/internal/ports"
	"github.com/mcdonaldj/extpublish/internal/publish"
)

// PublisherFactory builds the store publisher for a run.
type PublisherFactory func(opts config.Options, env config.Env, log *logger.Logger) ports.Publisher

// CLI represents the command-line interface with injectable dependencies.
type CLI struct {
	Out     io.Writer // Standard output
	Err     io.Writer // Standard error
	Version string    // Application version
	Args    []string  // Command arguments (like os.Args)

	// Exit function for testability (defaults to os.Exit)
	Exit func(code int)

	// Injectable dependencies (nil means use defaults)
	Env          config.Env
	NewPublisher PublisherFactory
	Archiver     ports.Archiver
	FileSystem   ports.FileSystem

	// Color functions (can be disabled for testing)
	green  func(a ...interface{}) string
	yellow func(a ...interface{}) string
	cyan   func(a ...interface{}) string
	gray   func(a ...interface{}) string
	red    func(a ...interface{}) string
}

// New creates a new CLI with default settings.
func New(version string) *CLI {
	return &CLI{
		Out:     os.Stdout,
		Err:     os.Stderr,
		Version: version,
		Args:    os.Args,
		Exit:    os.Exit,
		green:   color.New(color.FgGreen, color.Bold).SprintFunc(),
		yellow:  color.New(color.FgYellow).SprintFunc(),
		cyan:    color.New(color.FgCyan).SprintFunc(),
		gray:    color.New(color.FgHiBlack).SprintFunc(),
		red:     color.New(color.FgRed).SprintFunc(),
	}
}

// NewForTesting creates a CLI configured for testing (no colors, captured output).
func NewForTesting(out, errOut io.Writer, args []string) *CLI {
	noColor := func(a ...interface{}) string { return fmt.Sprint(a...) }
	return &CLI{
		Out:     out,
		Err:     errOut,
		Version: "test",
		Args:    args,
		Exit:    func(code int) {},
		Env:     config.Env{},
		green:   noColor,
		yellow:  noColor,
		cyan:    noColor,
		gray:    noColor,
		red:     noColor,
	}
}

func defaultPublisher(opts config.Options, env config.Env, log *logger.Logger) ports.Publisher {
	return publish.NewChromePublisher(opts, log, publish.WithEnv(env))
}

// Helper methods to get the dependency or default
func (c *CLI) env() config.Env {
	if c.Env != nil {
		return c.Env
	}
	return config.EnvFromOS()
}

func (c *CLI) newPublisher() PublisherFactory {
	if c.NewPublisher != nil {
		return c.NewPublisher
	}
	return defaultPublisher
}

func (c *CLI) archiver() ports.Archiver {
	if c.Archiver != nil {
		return c.Archiver
	}
	return ziparchiver.New()
}

func (c *CLI) fileSystem() ports.FileSystem {
	if c.FileSystem != nil {
		return c.FileSystem
	}
	return osfs.New()
}

// Run executes the CLI with the configured arguments.
func (c *CLI) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := c.rootCommand()
	if len(c.Args) > 1 {
		root.SetArgs(c.Args[1:])
	} else {
		root.SetArgs([]string{})
	}

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(c.Err, "%s %v\n", c.red("Error:"), err)
		c.Exit(1)
	}
}

// runFlags are the overrides accepted by publish and bundle.
type runFlags struct {
	configPath string
	target     string
	keep       bool
	silent     bool
	throw      bool
	verbose    bool
	timeout    time.Duration
}

func (c *CLI) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "extpublish",
		Short: "Bundle a build directory and publish it to the Chrome Web Store",
		Long: `extpublish zips a build output directory into .bundle.zip, uploads it as a
new draft of an existing Chrome Web Store item and publishes the draft.

Credentials come from the config file or from GOOGLE_EXTENSION_ID,
GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REFRESH_TOKEN.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(c.Out)
	root.SetErr(c.Err)

	root.AddCommand(c.publishCommand(), c.bundleCommand(), c.initCommand(), c.versionCommand())
	return root
}

func (c *CLI) addRunFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", config.DefaultPath(), "Config file (.yaml, .yml or .toml)")
	cmd.Flags().BoolVarP(&f.silent, "silent", "s", false, "Suppress logging")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Enable debug logging")
}

// loadOptions reads the config file and applies flags the user set.
func (c *CLI) loadOptions(cmd *cobra.Command, f *runFlags) (config.Options, error) {
	opts, err := config.Load(f.configPath)
	if err != nil {
		return config.Options{}, fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("target") {
		opts.Target = f.target
	}
	if flags.Changed("keep") {
		opts.KeepBundleOnSuccess = f.keep
	}
	if flags.Changed("silent") {
		opts.Silent = f.silent
	}
	if flags.Changed("throw") {
		opts.ThrowOnFailure = f.throw
	}
	if flags.Changed("timeout") {
		opts.Timeout = f.timeout
	}

	if err := opts.Validate(); err != nil {
		return config.Options{}, err
	}
	return opts, nil
}

func (c *CLI) logger(opts config.Options, verbose bool) *logger.Logger {
	level := logger.LevelFor(opts.Silent)
	if verbose && !opts.Silent {
		level = logger.LevelDebug
	}
	return logger.New(plugin.Name, c.Err, level)
}

func (c *CLI) publishCommand() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "publish [dir]",
		Short: "Bundle dir (default .) and publish it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.loadOptions(cmd, f)
			if err != nil {
				return err
			}
			return c.runPublish(cmd.Context(), opts, f.verbose, outputDir(args))
		},
	}
	c.addRunFlags(cmd, f)
	cmd.Flags().StringVarP(&f.target, "target", "t", config.TargetDefault, "Publish target: default, trustedTesters or draft")
	cmd.Flags().BoolVarP(&f.keep, "keep", "k", false, "Keep the bundle after a successful publish")
	cmd.Flags().BoolVar(&f.throw, "throw", false, "Treat a rejected upload or publish as an error")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Bound each store request (e.g. 2m); 0 disables")
	return cmd
}

func outputDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func (c *CLI) runPublish(ctx context.Context, opts config.Options, verbose bool, dir string) error {
	log := c.logger(opts, verbose)
	env := c.env()

	p, err := plugin.New(opts, c.newPublisher()(opts, env, log),
		plugin.WithLogger(log),
		plugin.WithArchiver(c.archiver()),
		plugin.WithFileSystem(c.fileSystem()),
	)
	if err != nil {
		return err
	}

	compiler := bundler.NewCompiler(dir, p)
	if len(compiler.Hooks.AfterEmit.Taps()) == 0 {
		fmt.Fprintf(c.Out, "%s %s\n", c.yellow("-"), c.gray("Publishing is disabled in the config; nothing to do."))
		return nil
	}

	if err := compiler.Run(ctx); err != nil {
		return err
	}

	result, ran := p.LastResult()
	if !ran || !result.Succeeded {
		return errors.New("extension was not published")
	}

	if opts.IsDraft() {
		fmt.Fprintf(c.Out, "%s Uploaded draft of %s\n", c.green("*"), c.cyan(config.Resolve(opts, env).ExtensionID))
		return nil
	}
	fmt.Fprintf(c.Out, "%s Published %s to %s\n", c.green("*"), c.cyan(config.Resolve(opts, env).ExtensionID), opts.PublishTarget())
	return nil
}

func (c *CLI) bundleCommand() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "bundle [dir]",
		Short: "Only create dir/.bundle.zip and list its entries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.loadOptions(cmd, f)
			if err != nil {
				return err
			}
			return c.runBundle(cmd.Context(), opts, f.verbose, outputDir(args))
		},
	}
	c.addRunFlags(cmd, f)
	return cmd
}

func (c *CLI) runBundle(ctx context.Context, opts config.Options, verbose bool, dir string) error {
	if opts.Path != "" {
		dir = opts.Path
	}
	dir = config.ExpandPath(dir)

	archiver := c.archiver()
	p, err := plugin.New(opts, plugin.Unimplemented{},
		plugin.WithLogger(c.logger(opts, verbose)),
		plugin.WithArchiver(archiver),
		plugin.WithFileSystem(c.fileSystem()),
	)
	if err != nil {
		return err
	}

	path, err := p.MakeBundle(ctx, dir)
	if err != nil {
		return err
	}

	files, err := archiver.List(path)
	if err != nil {
		return fmt.Errorf("listing bundle: %w", err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(c.Out, "%s %s\n\n", c.green("*"), path)
	for _, name := range names {
		fmt.Fprintf(c.Out, "  %10s  %s\n", c.gray(bundle.FormatSize(files[name].Size)), name)
	}
	return nil
}

func (c *CLI) initCommand() *cobra.Command {
	var (
		path  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.fileSystem().Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.DefaultOptions().Save(path); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			fmt.Fprintf(c.Out, "Created config at %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", config.DefaultPath(), "Config file to create (.yaml, .yml or .toml)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(c.Out, "extpublish v%s\n", c.Version)
		},
	}
}
