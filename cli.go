package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"go.aimuz.me/murmur/audiocapture"
	"go.aimuz.me/murmur/browser"
	"go.aimuz.me/murmur/config"
	"go.aimuz.me/murmur/hotkey"
	"go.aimuz.me/murmur/internal/app"
	"go.aimuz.me/murmur/internal/types"
	"go.aimuz.me/murmur/permission"
	"go.aimuz.me/murmur/tempfiles"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	return &cli.App{
		Name:    "murmur",
		Usage:   "Push-to-talk voice and screenshot capture into a browser chat tab",
		Version: fmt.Sprintf("%s (%s, %s)", version, commit, date),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Config file (default: user config dir)"},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
			&cli.StringFlag{Name: "endpoint", Usage: "Chrome remote debugging address (host:port)"},
		},
		Before: func(c *cli.Context) error {
			setupLogger(c.App.ErrWriter, c.Bool("debug"))
			return nil
		},
		Action: runAction,
		Commands: []*cli.Command{
			runCmd(),
			doctorCmd(),
			sweepCmd(),
			inspectCmd(),
			configCmd(),
		},
	}
}

// loadConfig reads the config file, overlays .env files and the
// environment, and applies the global flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if err := config.LoadDotEnv(filepath.Dir(cfg.Path())); err != nil {
		slog.Warn("load env files", "error", err)
	}
	cfg.ApplyEnv()
	if ep := c.String("endpoint"); ep != "" {
		cfg.Browser.DebugAddress = ep
	}
	return cfg, nil
}

// runCmd creates the run command.
func runCmd() *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "Listen for the trigger keys (default)",
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("load config: %v", err), 1)
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("invalid config: %v", err), 1)
	}
	cfg.Normalize()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting murmur", "version", version, "commit", commit, "date", date)
	svc := app.New(cfg, version)
	defer svc.Shutdown()

	if err := svc.Init(ctx); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	slog.Info("ready",
		"screenshot", hotkey.DisplayName(cfg.Keys.WithScreenshot),
		"audio_only", hotkey.DisplayName(cfg.Keys.AudioOnly),
		"emotion", cfg.Emotion.Enabled,
		"cleanup", cfg.Cleanup.Enabled)

	err = svc.Run(ctx)
	slog.Info("shutting down")
	return err
}

// doctorCmd creates the doctor command.
func doctorCmd() *cli.Command {
	return &cli.Command{
		Name:  "doctor",
		Usage: "Check permissions, audio input and the browser endpoint",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return cli.Exit(fmt.Sprintf("load config: %v", err), 1)
			}
			w := c.App.Writer
			problems := 0
			check := func(name string, err error, ok string) {
				if err != nil {
					problems++
					fmt.Fprintf(w, "✗ %-18s %v\n", name, err)
					return
				}
				fmt.Fprintf(w, "✓ %-18s %s\n", name, ok)
			}

			fmt.Fprintf(w, "config: %s\n", cfg.Path())
			check("config", cfg.Validate(), "valid")

			report := permission.Probe()
			fmt.Fprintf(w, "  %-18s %s\n", "accessibility", report.Accessibility)
			fmt.Fprintf(w, "  %-18s %s\n", "screen recording", report.ScreenRecording)
			fmt.Fprintf(w, "  %-18s %s\n", "microphone", report.Microphone)
			for _, m := range report.Missing() {
				problems++
				fmt.Fprintf(w, "✗ %s\n", m)
			}

			check("trigger keys", validKeys(cfg), fmt.Sprintf("%s + audio, %s audio only",
				hotkey.DisplayName(cfg.Keys.WithScreenshot), hotkey.DisplayName(cfg.Keys.AudioOnly)))

			terminate, err := audiocapture.InitPortAudio()
			if err == nil {
				var name string
				name, err = audiocapture.DefaultInputName()
				terminate()
				check("audio input", err, name)
			} else {
				check("audio input", err, "")
			}

			ctx, cancel := context.WithTimeout(c.Context, 5*time.Second)
			defer cancel()
			v, err := browser.CheckEndpoint(ctx, cfg.Browser.DebugAddress)
			if err == nil {
				check("browser endpoint", nil, v.Browser+" at "+cfg.Browser.DebugAddress)
			} else {
				check("browser endpoint", err, "")
			}

			fmt.Fprintf(w, "  %-18s %v\n", "emotion analysis", cfg.Emotion.Enabled && cfg.Emotion.APIKey != "")
			fmt.Fprintf(w, "  %-18s %v\n", "prompt cleanup", cfg.Cleanup.Enabled && cfg.Cleanup.APIKey != "")

			if problems > 0 {
				return cli.Exit(fmt.Sprintf("%d problem(s) found", problems), 1)
			}
			return nil
		},
	}
}

func validKeys(cfg *config.Config) error {
	for _, k := range []types.Key{cfg.Keys.WithScreenshot, cfg.Keys.AudioOnly} {
		if _, err := hotkey.Keycode(k); err != nil {
			return err
		}
	}
	return nil
}

// sweepCmd creates the sweep command.
func sweepCmd() *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Remove stale temporary recordings and screenshots",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "max-age", Value: tempfiles.MaxAge, Usage: "Remove files older than this"},
		},
		Action: func(c *cli.Context) error {
			dir, err := tempfiles.Dir()
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			n, err := tempfiles.Sweep(dir, c.Duration("max-age"), time.Now())
			fmt.Fprintf(c.App.Writer, "removed %d file(s) from %s\n", n, dir)
			if err != nil {
				return cli.Exit(fmt.Sprintf("sweep: %v", err), 1)
			}
			return nil
		},
	}
}

// inspectCmd creates the inspect command.
func inspectCmd() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Report the input, mode, upload and submit controls of the target tab",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Also write the page HTML to this file"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return cli.Exit(fmt.Sprintf("load config: %v", err), 1)
			}
			ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
			defer cancel()

			if _, err := browser.CheckEndpoint(ctx, cfg.Browser.DebugAddress); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			ch, err := browser.Connect(ctx, cfg.Browser.DebugAddress, browser.Options{
				AppName:      cfg.Browser.AppName,
				QueryTimeout: time.Duration(cfg.Browser.QueryTimeoutSeconds) * time.Second,
			})
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer ch.Close()

			tab, err := browser.Find(ctx, ch, nil, cfg.Browser.TargetURL)
			if err != nil {
				return cli.Exit(fmt.Sprintf("find %s tab: %v", cfg.Browser.TargetURL, err), 1)
			}
			defer tab.Release()

			html, err := tab.OuterHTML(ctx)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if out := c.String("out"); out != "" {
				if err := os.WriteFile(out, []byte(html), 0644); err != nil {
					return cli.Exit(fmt.Sprintf("write snapshot: %v", err), 1)
				}
			}

			report, err := browser.Inspect(html)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			fmt.Fprint(c.App.Writer, report.String())
			return nil
		},
	}
}

// configCmd creates the config command.
func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or create the config file",
		Subcommands: []*cli.Command{
			{
				Name:  "path",
				Usage: "Print the config file location",
				Action: func(c *cli.Context) error {
					path := c.String("config")
					if path == "" {
						p, err := config.DefaultPath()
						if err != nil {
							return cli.Exit(err.Error(), 1)
						}
						path = p
					}
					fmt.Fprintln(c.App.Writer, path)
					return nil
				},
			},
			{
				Name:  "init",
				Usage: "Write the default config file",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Overwrite an existing file"},
				},
				Action: func(c *cli.Context) error {
					path := c.String("config")
					if path == "" {
						p, err := config.DefaultPath()
						if err != nil {
							return cli.Exit(err.Error(), 1)
						}
						path = p
					}

					if _, err := os.Stat(path); err == nil {
						if !c.Bool("force") {
							return cli.Exit(fmt.Sprintf("%s already exists (use --force to overwrite)", path), 1)
						}
						if err := os.Remove(path); err != nil {
							return cli.Exit(err.Error(), 1)
						}
					} else if !errors.Is(err, fs.ErrNotExist) {
						return cli.Exit(err.Error(), 1)
					}

					// A missing file loads as the defaults bound to path.
					cfg, err := config.Load(path)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					if err := cfg.Save(); err != nil {
						return cli.Exit(err.Error(), 1)
					}
					fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
					return nil
				},
			},
		},
	}
}
