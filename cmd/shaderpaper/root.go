package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gogpu/shaderpaper"
	"github.com/gogpu/shaderpaper/internal/app"
	"github.com/gogpu/shaderpaper/internal/audio"
	"github.com/gogpu/shaderpaper/internal/config"
	"github.com/gogpu/shaderpaper/internal/wayland"
)

// NewRootCmd builds the shaderpaper command.
func NewRootCmd() *cobra.Command {
	defaults := config.Defaults()
	var (
		envFile     string
		listDevices bool
	)

	cmd := &cobra.Command{
		Use:   "shaderpaper [flags] <shader.wgsl>",
		Short: "Animated WGSL shader wallpaper for wlroots compositors",
		Long: `shaderpaper renders a WGSL fragment shader on a wlr-layer-shell surface.

The shader receives the elapsed time at @group(0), a trail of recent pointer
positions at @group(1) and per-channel audio spectra at @group(2).`,
		Version:       shaderpaper.Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listDevices {
				return listAudioDevices(cmd.OutOrStdout(), cmd.ErrOrStderr())
			}
			var shader string
			if len(args) == 1 {
				shader = args[0]
			}
			cfg, err := config.Load(envFile, cmd.Flags(), shader)
			if err != nil {
				return err
			}
			shaderpaper.SetLogger(newLogger(cmd.ErrOrStderr(), cfg))
			return run(cmd, cfg)
		},
	}

	config.BindFlags(cmd.Flags(), &defaults)
	cmd.Flags().StringVar(&envFile, "config", "", "dotenv file with SHADERPAPER_* settings")
	cmd.Flags().BoolVar(&listDevices, "list-audio-devices", false, "print audio input devices and exit")
	return cmd
}

func run(cmd *cobra.Command, cfg *config.Config) error {
	conn, err := wayland.Open()
	if err != nil {
		return err
	}
	defer conn.Close()

	g, err := app.NewGPU()
	if err != nil {
		return err
	}
	defer g.Close()

	return app.New(cfg, app.Deps{Conn: conn, GPU: g}).Run(cmd.Context())
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func listAudioDevices(out, errOut io.Writer) error {
	devices, err := audio.ListInputDevices()
	if err != nil {
		return err
	}
	return printAudioDevices(out, errOut, devices)
}

func printAudioDevices(w, errOut io.Writer, devices []audio.DeviceInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tHOST API\tCHANNELS\tRATE\tDEFAULT")
	for _, d := range devices {
		def := ""
		if d.Default {
			def = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%g\t%s\n", d.Name, d.HostAPI, d.MaxInputChannels, d.DefaultSampleRate, def)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Fprintln(errOut, "no audio input devices found")
	}
	return nil
}
