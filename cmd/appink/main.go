//go:build linux
// +build linux

// Package main is the entry point for the appink "now running" indicator.
package main

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pkt.systems/appink"
	"pkt.systems/appink/adapters/fbdev"
	"pkt.systems/appink/adapters/memfb"
	"pkt.systems/appink/adapters/proclauncher"
	"pkt.systems/appink/config"
	"pkt.systems/appink/logger"
	"pkt.systems/appink/port"
	"pkt.systems/appink/render"
)

// Version information injected at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Panel dimensions used when --dry-run replaces the hardware surface.
const (
	dryRunWidth  = 1404
	dryRunHeight = 1872
)

var (
	flagConfig      string
	flagDevice      string
	flagName        string
	flagIcon        string
	flagIconSize    int
	flagCustomImage string
	flagDryRun      bool

	// exitCode carries the outcome of the run into os.Exit. The child's own
	// exit code passes through; tool failures use appink.ExitFailure and
	// user-requested termination uses appink.ExitCancelled.
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "appink [flags] <executable> [args...]",
	Short: "Show a 'now running' screen on the e-ink panel while an executable runs",
	Long: `appink renders an icon and app name (or a full custom image) on the
device's framebuffer, launches the given executable with its arguments
passed through verbatim, and keeps the screen up until the executable
exits or the hardware interrupt combo is pressed.

appink's own flags are recognized before and after the executable path.
Put -- before child arguments that start with a dash:

  appink /bin/sleep 5 --name "Test" --icon icon.png
  appink --name "Test" /usr/bin/mytool -- --verbose`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "Path to config file (default: $XDG_CONFIG_HOME/appink/config.yaml)")
	rootCmd.Flags().StringVar(&flagDevice, "device", "", "Framebuffer device (overrides config)")
	rootCmd.Flags().StringVarP(&flagName, "name", "n", "", "App name to display")
	rootCmd.Flags().StringVarP(&flagIcon, "icon", "i", "", "Path for icon to display")
	rootCmd.Flags().IntVar(&flagIconSize, "icon-size", 500, "Size of icon to display (squared)")
	rootCmd.Flags().StringVarP(&flagCustomImage, "custom-image", "c", "", "Display a custom full image instead of name and icon")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Render to an in-memory surface instead of the panel")
	rootCmd.MarkFlagsMutuallyExclusive("name", "custom-image")
	rootCmd.MarkFlagsMutuallyExclusive("icon", "custom-image")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if exitCode == 0 {
			exitCode = appink.ExitFailure
		}
	}
	os.Exit(exitCode)
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	log, err := logger.Setup(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	req, err := buildRequest(log, args[0])
	if err != nil {
		return err
	}

	var surface port.Surface
	if flagDryRun {
		surface = memfb.New(dryRunWidth, dryRunHeight)
	} else {
		device := cfg.Device
		if flagDevice != "" {
			device = flagDevice
		}
		s, err := fbdev.Open(device)
		if err != nil {
			return err
		}
		surface = s
	}

	coordinator := appink.NewCoordinator()
	coordinator.Install()

	controller := &appink.Controller{
		Surface:      surface,
		Launcher:     proclauncher.New(),
		Renderer:     render.NewFrame(req),
		Signals:      coordinator,
		PollInterval: cfg.PollInterval,
		GracePeriod:  cfg.GracePeriod,
		Log:          log,
	}
	outcome, err := controller.Run(cmd.Context(), args[0], args[1:])
	if err != nil {
		return err
	}
	exitCode = outcome.ExitCode()
	return nil
}

func buildRequest(log *slog.Logger, command string) (*render.Request, error) {
	if flagCustomImage != "" {
		img, err := render.LoadBitmap(flagCustomImage)
		if err != nil {
			return nil, &appink.RenderError{Err: err}
		}
		log.Warn("custom image will not display how to quit; use the hardware button combo")
		return render.NewCustomImage(img)
	}

	label := flagName
	if label == "" {
		log.Warn("no app name provided, using command instead", "command", command)
		label = filepath.Base(command)
	}

	var icon image.Image
	if flagIcon != "" {
		img, err := render.LoadBitmap(flagIcon)
		if err != nil {
			return nil, &appink.RenderError{Err: err}
		}
		icon = img
	}
	req, err := render.NewIconLabel(label, icon, flagIconSize)
	if err != nil {
		return nil, &appink.RenderError{Err: err}
	}
	return req, nil
}
