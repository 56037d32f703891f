package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jxwalker/loracover/internal/config"
	friendlyerrors "github.com/jxwalker/loracover/internal/errors"
	"github.com/jxwalker/loracover/internal/host"
	"github.com/jxwalker/loracover/internal/logging"
	"github.com/jxwalker/loracover/internal/metrics"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage()
		return errors.New("no command provided")
	}

	cmd := args[0]
	switch cmd {
	case "apply":
		return handleApply(ctx, args[1:])
	case "resolve":
		return handleResolve(ctx, args[1:])
	case "options":
		return handleOptions(ctx, args[1:])
	case "config":
		return handleConfig(ctx, args[1:])
	case "version":
		fmt.Println(version)
		return nil
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func usage() {
	fmt.Println(strings.TrimSpace(`loracover - keep LoRA/LyCORIS preview images in sync with generated images

Usage:
  loracover <command> [flags]

Commands:
  apply             Update covers for the LoRAs referenced by an image's prompt
  resolve NAME...   Show which model file (and cover path) a LoRA name resolves to
  options           Register the cover settings and show their current values
  config validate   Validate a YAML config file
  config print      Print the loaded config as JSON
  version           Print version
  help              Show this help

Flags:
  --config PATH       Path to YAML config file (or LORACOVER_CONFIG env var; default: ~/.config/loracover/config.yml)
  --settings PATH     Host settings file (overrides host.settings_file)
  --models-root DIR   Host models directory (overrides host.models_root)
  --lora-dir DIR      LoRA directory override (overrides host.lora_dir)
  --log-level L       Log level: debug|info|warn|error (per command)
  --json              JSON output (per command)
`))
}

// common holds the flags every host-facing command shares.
type common struct {
	cfgPath    *string
	settings   *string
	modelsRoot *string
	loraDir    *string
	logLevel   *string
	jsonOut    *bool
}

func addCommon(fs *flag.FlagSet) *common {
	return &common{
		cfgPath:    fs.String("config", "", "Path to YAML config file"),
		settings:   fs.String("settings", "", "host settings file (config.json)"),
		modelsRoot: fs.String("models-root", "", "host models directory"),
		loraDir:    fs.String("lora-dir", "", "LoRA directory override"),
		logLevel:   fs.String("log-level", "", "log level"),
		jsonOut:    fs.Bool("json", false, "json output"),
	}
}

// session is what a command needs to act as the host.
type session struct {
	cfg   *config.Config
	store *host.Store
	env   host.Env
	log   *logging.Logger
	m     *metrics.Manager
}

// open loads the config file when there is one, applies flag overrides,
// validates the result and opens the host settings store. A missing config
// file is fine as long as the flags name a settings file.
func (c *common) open() (*session, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if *c.settings != "" {
		cfg.Host.SettingsFile = *c.settings
	}
	if *c.modelsRoot != "" {
		cfg.Host.ModelsRoot = *c.modelsRoot
	}
	if *c.loraDir != "" {
		cfg.Host.LoraDir = *c.loraDir
	}
	if *c.logLevel != "" {
		cfg.Logging.Level = *c.logLevel
	}
	if *c.jsonOut {
		cfg.Logging.Format = "json"
	}
	if cfg.Host.SettingsFile == "" {
		return nil, friendlyerrors.ConfigError("host.settings_file", "no host settings file configured").
			WithDetails(errors.New("pass --settings or set host.settings_file"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, friendlyerrors.ConfigError("config", err.Error()).WithDetails(err)
	}
	for _, ve := range cfg.ValidateDetailed() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", ve.Error())
	}

	store, err := host.LoadStore(cfg.Host.SettingsFile)
	if err != nil {
		return nil, friendlyerrors.PathError(cfg.Host.SettingsFile, err)
	}
	level := cfg.Logging.Level
	if level == "" {
		level = "info"
	}
	return &session{
		cfg:   cfg,
		store: store,
		env:   host.Env{ModelsRoot: cfg.Host.ModelsRoot, LoraDirOverride: cfg.Host.LoraDir},
		log:   logging.New(level, strings.EqualFold(cfg.Logging.Format, "json")),
		m:     metrics.New(cfg),
	}, nil
}

func (c *common) loadConfig() (*config.Config, error) {
	path := *c.cfgPath
	explicit := path != ""
	if !explicit {
		path = config.DefaultPath()
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return config.LoadUnvalidated(path)
		}
	}
	if explicit {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	return &config.Config{Version: 1}, nil
}

func handleConfig(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("config subcommand required: validate | print")
	}
	sub := args[0]
	fs := flag.NewFlagSet("config "+sub, flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to YAML config file")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if *cfgPath == "" {
		*cfgPath = config.DefaultPath()
	}
	if _, err := os.Stat(*cfgPath); err != nil {
		return fmt.Errorf("config file not found: %s", *cfgPath)
	}
	switch sub {
	case "validate":
		c, err := config.LoadUnvalidated(*cfgPath)
		if err != nil {
			return friendlyerrors.ConfigError("config", err.Error()).WithDetails(err)
		}
		if err := c.ValidateWithFriendlyErrors(); err != nil {
			return err
		}
		fmt.Println("config: valid")
		return nil
	case "print":
		c, err := config.Load(*cfgPath)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	default:
		return fmt.Errorf("unknown config subcommand: %s", sub)
	}
}
