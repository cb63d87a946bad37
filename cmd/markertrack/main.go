package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/markertrack/internal/config"
	"github.com/ironsheep/markertrack/internal/logging"
	"github.com/ironsheep/markertrack/internal/pipeline"
	"github.com/ironsheep/markertrack/internal/report"
	"github.com/ironsheep/markertrack/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	switch args[0] {
	case "--version", "-v", "version":
		fmt.Fprintf(stdout, "markertrack %s\n", Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		return 0
	case "--help", "-h", "help":
		usage(stdout)
		return 0
	case "measure":
		return measure(ctx, args[1:], stdout, stderr)
	case "serve":
		return serve(ctx, args[1:], stdin, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "markertrack - measure the movement of a red marker across a series of frames")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  markertrack measure [options] <input-dir>")
	fmt.Fprintln(w, "  markertrack serve [-log-level level] [-log-file path] [-env-file path]")
	fmt.Fprintln(w, "  markertrack --version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Measure options:")
	fmt.Fprintln(w, "  -scale float         physical units per pixel (required)")
	fmt.Fprintln(w, "  -input dir           directory of frames")
	fmt.Fprintln(w, "  -output dir          report directory (default <input>/annotated)")
	fmt.Fprintln(w, "  -rectify             detect the reference surface (default true)")
	fmt.Fprintln(w, "  -save-rectified      also write rectified frames")
	fmt.Fprintln(w, "  -workers n           frames processed concurrently")
	fmt.Fprintln(w, "  -unit label          distance unit label (default mm)")
	fmt.Fprintln(w, "  -ring-color hex      annotation colour (default #FF0000)")
	fmt.Fprintln(w, "  -log-level level     debug, info, warn or error")
	fmt.Fprintln(w, "  -log-file path       write logs to a rotated file")
	fmt.Fprintln(w, "  -env-file path       settings file (default .env)")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Every option can also be set as %s<OPTION>, e.g. %s.\n", config.EnvPrefix, config.EnvKey("scale"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "serve speaks MCP over stdin/stdout. Logs go to stderr or -log-file.")
}

func measure(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintf(stderr, "markertrack: %v\n", err)
		return 2
	}

	ringColor, err := report.ParseColor(cfg.RingColor)
	if err != nil {
		fmt.Fprintf(stderr, "markertrack: %v\n", err)
		return 2
	}

	logger, closer := logging.New(logging.Options{
		Level:  cfg.Level(),
		Writer: stderr,
		File:   cfg.LogFile,
	})
	defer closer.Close()
	slog.SetDefault(logger)

	res, err := pipeline.Run(ctx, pipeline.Config{
		InputDir: cfg.InputDir,
		Scale:    cfg.Scale,
		Rectify:  cfg.Rectify,
		Workers:  cfg.Workers,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("measurement failed", "input", cfg.InputDir, "error", err)
		if errors.Is(err, context.Canceled) {
			return 130
		}
		return 1
	}

	emitter := &report.Emitter{
		Dir:           cfg.OutputDir,
		Unit:          cfg.Unit,
		RingColor:     ringColor,
		SaveRectified: cfg.SaveRectified,
		Logger:        logger.With("run_id", res.RunID),
	}
	emitErr := emitter.Emit(res)

	rows := report.Rows(res)
	if err := report.WriteSummary(stdout, rows, cfg.Unit); err != nil {
		logger.Error("failed to write summary", "error", err)
	}

	if n := res.Fallbacks(); n > 0 {
		logger.Warn("frames measured without rectification", "count", n, "frames", len(res.Frames))
	}
	if n := len(res.Skipped); n > 0 {
		logger.Warn("undecodable files skipped", "count", n)
	}

	if emitErr != nil {
		logger.Error("report incomplete", "output", cfg.OutputDir, "error", emitErr)
		return 1
	}
	logger.Info("report written", "output", cfg.OutputDir)
	return 0
}

func serve(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.LoadServe(args)
	if err != nil {
		fmt.Fprintf(stderr, "markertrack: %v\n", err)
		return 2
	}

	// stdout carries the protocol.
	logger, closer := logging.New(logging.Options{
		Level:  cfg.Level(),
		Writer: stderr,
		File:   cfg.LogFile,
	})
	defer closer.Close()
	slog.SetDefault(logger)

	srv := server.New(logger, Version)
	if err := srv.Run(ctx, stdin, stdout); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", "error", err)
		return 1
	}
	return 0
}
