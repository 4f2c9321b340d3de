package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crates/internal/formatter"
	"github.com/desertthunder/crates/internal/services"
	"github.com/desertthunder/crates/internal/shared"
	"github.com/desertthunder/crates/internal/tasks"
	"github.com/desertthunder/crates/internal/ui"
	"github.com/urfave/cli/v3"
)

// BandcampFactory builds a Bandcamp client from the resolved session and client settings.
type BandcampFactory func(opts services.BandcampOpts) (services.BandcampAPI, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config    *shared.Config
	logger    *log.Logger
	output    io.Writer // records only
	errOutput io.Writer // prompts and status
	input     io.Reader
	bandcamp  BandcampFactory
	progress  bool // render progress bars on errOutput
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Config is loaded from the --config path when the app starts.
type RunnerOpts struct {
	Config    *shared.Config
	Logger    *log.Logger
	Output    io.Writer
	ErrOutput io.Writer
	Input     io.Reader
	Bandcamp  BandcampFactory

	// ShowProgress forces progress bars; they are otherwise shown when ErrOutput is a terminal.
	ShowProgress bool
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.ErrOutput == nil {
		opts.ErrOutput = os.Stderr
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}

	r := &Runner{
		config:    opts.Config,
		logger:    opts.Logger,
		output:    opts.Output,
		errOutput: opts.ErrOutput,
		input:     opts.Input,
		bandcamp:  opts.Bandcamp,
		progress:  opts.ShowProgress || ui.IsTerminal(opts.ErrOutput),
	}
	if r.bandcamp == nil {
		r.bandcamp = newBandcampService
	}
	return r
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:      "crates",
		Usage:     "Export Bandcamp wishlists, SoundCloud likes and Spotify playlists as JSON",
		Version:   "0.1.0",
		Writer:    r.output,
		ErrWriter: r.errOutput,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("CRATES_CONFIG"),
			},
		},
		Before:   r.before,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		bandcampCommand, soundcloudCommand, spotifyCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the configuration (unless one was injected) and applies the log level.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
		r.progress = false
	}

	if r.config != nil {
		return ctx, nil
	}

	path := cmd.String("config")
	config, err := shared.LoadConfig(path)
	switch {
	case err == nil:
		r.logger.Debug("loaded config", "path", path)
	case errors.Is(err, os.ErrNotExist):
		r.logger.Debug("config file not found, using defaults", "path", path)
		config = shared.DefaultConfig()
	default:
		return ctx, err
	}

	shared.ApplyEnv(config)
	r.config = config
	return ctx, nil
}

func newBandcampService(opts services.BandcampOpts) (services.BandcampAPI, error) {
	svc, err := services.NewBandcampService(opts)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// trackProgress drains engine progress updates into debug logs, and a progress bar when enabled,
// until the returned stop func is called.
func (r *Runner) trackProgress() (chan<- tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	logger := shared.WithLogger(r.logger, "component", "export")

	var bar *progressBar
	if r.progress {
		bar = newProgressBar(r.errOutput)
	}

	go func() {
		defer close(done)
		for u := range progress {
			logger.Debug(u.Message, "phase", u.Phase, "step", u.Step, "total", u.Total)
			if bar != nil {
				bar.update(u)
			}
		}
	}()

	return progress, func() {
		close(progress)
		<-done
		if bar != nil {
			bar.wait()
		}
	}
}

// hint suggests how to recover from err, or returns "" when there is nothing to suggest.
func hint(err error) string {
	if services.IsAuthError(err) {
		return "credentials were missing or rejected: refresh the Bandcamp cookie, " +
			"check the client id and secret, or run \"crates soundcloud authorize\" for a new token"
	}
	return ""
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := formatter.ToJSON(data, pretty)
	if err != nil {
		return err
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// writeRecords renders records with the --format and --pretty flags and writes them in a single write,
// to the --output file when given.
func writeRecords[T formatter.Tabular](r *Runner, cmd *cli.Command, records []T) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	data, err := formatter.Render(records, format, cmd.Bool("pretty"))
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteFile(path, data); err != nil {
			return err
		}
		r.logger.Info("wrote records", "count", len(records), "path", path)
		return nil
	}

	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
