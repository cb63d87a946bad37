// Package config loads measurement settings from a .env file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "MARKERTRACK_"

// DefaultEnvFile is loaded when present unless -env-file names another file.
const DefaultEnvFile = ".env"

// Config holds the settings of a measurement run.
type Config struct {
	InputDir      string  `validate:"required,dir"`
	OutputDir     string  `validate:"required"`
	Scale         float64 `validate:"gt=0"`
	Rectify       bool
	SaveRectified bool
	Workers       int    `validate:"gte=1"`
	Unit          string `validate:"required,max=16"`
	RingColor     string `validate:"hexcolor"`
	LogLevel      string `validate:"oneof=debug info warn error"`
	LogFile       string
}

// Default returns the configuration used before any source is applied.
func Default() *Config {
	return &Config{
		Rectify:   true,
		Workers:   runtime.NumCPU(),
		Unit:      "mm",
		RingColor: "#FF0000",
		LogLevel:  "info",
	}
}

// Load builds a Config from args (without the program or subcommand name).
//
// Flags override environment variables, which override the .env file. The
// first positional argument is used as the input directory when -input is not
// given. The result is validated before it is returned.
func Load(args []string) (*Config, error) {
	cfg := Default()

	fset := flag.NewFlagSet("measure", flag.ContinueOnError)
	fset.SetOutput(io.Discard)
	envFile := fset.String("env-file", DefaultEnvFile, "optional .env file")
	fset.StringVar(&cfg.InputDir, "input", cfg.InputDir, "directory of frames")
	fset.StringVar(&cfg.OutputDir, "output", cfg.OutputDir, "report directory (default <input>/annotated)")
	fset.Float64Var(&cfg.Scale, "scale", cfg.Scale, "physical units per pixel")
	fset.BoolVar(&cfg.Rectify, "rectify", cfg.Rectify, "detect the reference surface and remove perspective")
	fset.BoolVar(&cfg.SaveRectified, "save-rectified", cfg.SaveRectified, "also write rectified frames")
	fset.IntVar(&cfg.Workers, "workers", cfg.Workers, "frames processed concurrently")
	fset.StringVar(&cfg.Unit, "unit", cfg.Unit, "distance unit label")
	fset.StringVar(&cfg.RingColor, "ring-color", cfg.RingColor, "annotation colour")
	fset.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fset.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "optional rotated log file")

	if err := fset.Parse(args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	set := make(map[string]bool)
	fset.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if err := loadEnvFile(*envFile, set["env-file"]); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(set); err != nil {
		return nil, err
	}

	if cfg.InputDir == "" && fset.NArg() > 0 {
		cfg.InputDir = fset.Arg(0)
	}
	if cfg.OutputDir == "" && cfg.InputDir != "" {
		cfg.OutputDir = filepath.Join(cfg.InputDir, "annotated")
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing default file is not an error.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

type binding struct {
	flag  string
	apply func(string) error
}

// applyEnv copies MARKERTRACK_* variables into cfg for every flag not set on
// the command line.
func (c *Config) applyEnv(set map[string]bool) error {
	return applyBindings(set, []binding{
		{"input", func(v string) error { c.InputDir = v; return nil }},
		{"output", func(v string) error { c.OutputDir = v; return nil }},
		{"scale", parseInto(&c.Scale, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })},
		{"rectify", parseInto(&c.Rectify, strconv.ParseBool)},
		{"save-rectified", parseInto(&c.SaveRectified, strconv.ParseBool)},
		{"workers", parseInto(&c.Workers, strconv.Atoi)},
		{"unit", func(v string) error { c.Unit = v; return nil }},
		{"ring-color", func(v string) error { c.RingColor = v; return nil }},
		{"log-level", func(v string) error { c.LogLevel = v; return nil }},
		{"log-file", func(v string) error { c.LogFile = v; return nil }},
	})
}

func applyBindings(set map[string]bool, bindings []binding) error {
	for _, b := range bindings {
		if set[b.flag] {
			continue
		}
		key := EnvKey(b.flag)
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		if err := b.apply(v); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	return nil
}

func parseInto[T any](dst *T, parse func(string) (T, error)) func(string) error {
	return func(v string) error {
		parsed, err := parse(v)
		if err != nil {
			return err
		}
		*dst = parsed
		return nil
	}
}

// EnvKey returns the environment variable for a flag name, e.g.
// "save-rectified" -> "MARKERTRACK_SAVE_RECTIFIED".
func EnvKey(flagName string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field against its rule.
func (c *Config) Validate() error {
	return validateStruct(c)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s=%v fails %q", fe.Field(), fe.Value(), rule))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Level returns the configured log level.
func (c *Config) Level() slog.Level {
	return parseLevel(c.LogLevel)
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// ServeConfig holds the settings of the MCP server. Only logging is
// configurable; everything else arrives as tool arguments.
type ServeConfig struct {
	LogLevel string `validate:"oneof=debug info warn error"`
	LogFile  string
}

// LoadServe builds a ServeConfig from args with the same layering as Load:
// flags override environment variables, which override the .env file.
func LoadServe(args []string) (*ServeConfig, error) {
	cfg := &ServeConfig{LogLevel: "info"}

	fset := flag.NewFlagSet("serve", flag.ContinueOnError)
	fset.SetOutput(io.Discard)
	envFile := fset.String("env-file", DefaultEnvFile, "optional .env file")
	fset.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fset.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "optional rotated log file")

	if err := fset.Parse(args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if fset.NArg() > 0 {
		return nil, fmt.Errorf("invalid arguments: unexpected %q", fset.Arg(0))
	}

	set := make(map[string]bool)
	fset.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if err := loadEnvFile(*envFile, set["env-file"]); err != nil {
		return nil, err
	}
	err := applyBindings(set, []binding{
		{"log-level", func(v string) error { cfg.LogLevel = v; return nil }},
		{"log-file", func(v string) error { cfg.LogFile = v; return nil }},
	})
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := validateStruct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Level returns the configured log level.
func (c *ServeConfig) Level() slog.Level {
	return parseLevel(c.LogLevel)
}
