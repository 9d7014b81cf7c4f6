// Package main provides the CLI entry point for unimage-mcp.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/ironsheep/unimage/internal/config"
	"github.com/ironsheep/unimage/internal/decode"
	"github.com/ironsheep/unimage/internal/logger"
	"github.com/ironsheep/unimage/internal/processor"
	"github.com/ironsheep/unimage/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "unimage-mcp",
		Usage:   l10n.T("Image processors over the Model Context Protocol"),
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    l10n.T("Path to a YAML configuration file"),
				EnvVars:  []string{"UNIMAGE_CONFIG"},
				Category: l10n.T("Configuration"),
			},
			&cli.StringFlag{
				Name:     "log-level",
				Aliases:  []string{"l"},
				Usage:    l10n.T("Log level (debug, info, warn, error)"),
				Category: l10n.T("Logging"),
			},
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  l10n.T("Serve MCP requests on stdin/stdout"),
				Action: serveAction,
			},
			{
				Name:      "inspect",
				Usage:     l10n.T("Decode image files and print their dimensions and pixel format"),
				ArgsUsage: "FILE...",
				Action:    inspectAction,
			},
			{
				Name:   "version",
				Usage:  l10n.T("Show version information"),
				Action: versionAction,
			},
		},
	}
}

// loadConfig builds the configuration from defaults, the optional file,
// UNIMAGE_* variables and finally command-line flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	// stdout is for MCP protocol
	log := logger.NewConsole(logger.ParseLogLevel(cfg.LogLevel))
	log.Info("unimage MCP server %s starting", Version)
	if path := c.String("config"); path != "" {
		log.Debug("Loaded configuration from %s", path)
	}

	srv := server.New(server.WithConfig(cfg), server.WithLogger(log))
	log.Debug("Decoders: %s", strings.Join(srv.Formats(), ", "))

	if err := srv.Run(); err != nil {
		log.Error("Server error: %v", err)
		return err
	}
	log.Info("Server stopped")
	return nil
}

func inspectAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit(l10n.T("inspect needs at least one FILE"), 2)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	registry := decode.Default(decode.WithMaxPixels(cfg.MaxPixels))
	failed := 0
	for _, path := range c.Args().Slice() {
		line, err := inspectFile(registry, path)
		if err != nil {
			fmt.Fprintf(c.App.ErrWriter, "%s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintln(c.App.Writer, line)
	}
	if failed > 0 {
		return cli.Exit(l10n.F("%d of %d files could not be decoded", failed, c.NArg()), 1)
	}
	return nil
}

// inspectFile decodes one file through a Processor and describes the result.
func inspectFile(registry *decode.Registry, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	backend, err := registry.Detect(data)
	if err != nil {
		return "", err
	}

	p := processor.New(processor.WithDecoder(registry))
	defer p.Close()
	if err := p.Load(data); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s: %s %dx%d %s (%d bytes)",
		path, backend.Name(), p.Width(), p.Height(), p.Format(), p.ByteSize()), nil
}

func versionAction(c *cli.Context) error {
	fmt.Fprintln(c.App.Writer, l10n.F("unimage-mcp %s", Version))
	fmt.Fprintln(c.App.Writer, l10n.F("  Build time: %s", BuildTime))
	fmt.Fprintln(c.App.Writer, l10n.F("  Git commit: %s", GitCommit))
	return nil
}
