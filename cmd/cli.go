// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"visualizer/internal/config"
	"visualizer/pkg/build"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// One-off commands that run instead of the visualiser.
const (
	CommandList    = "list"
	CommandDevices = "devices"
	CommandVersion = "version"
)

// Options holds the parsed command line. Flag values only override the
// loaded configuration when the flag was given explicitly.
type Options struct {
	Command    string
	File       string
	ConfigPath string
	Verbose    bool

	DeviceID      int
	Mode          string
	Width         int
	Height        int
	FPS           int
	Headless      bool
	Threshold     float64
	NoHaptics     bool
	HapticsUDP    string
	WebSocket     bool
	WebSocketPort int
	UDP           bool
	UDPAddr       string

	changed map[string]bool
}

// ParseArgs parses os.Args.
func ParseArgs() (*Options, error) {
	return parse(os.Args[1:])
}

func parse(args []string) (*Options, error) {
	buildInfo := build.GetBuildFlags()
	options := &Options{changed: map[string]bool{}}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name + " [file]",
		Short:         build.Description,
		Version:       buildInfo.Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				options.File = args[0]
			}
			return nil
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   CommandList,
			Short: "List available audio output devices",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				options.Command = CommandList
			},
		},
		&cobra.Command{
			Use:   CommandDevices,
			Short: "Pick an output device interactively",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				options.Command = CommandDevices
			},
		},
		&cobra.Command{
			Use:   CommandVersion,
			Short: "Print build information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				options.Command = CommandVersion
			},
		},
	)

	flags := rootCmd.PersistentFlags()

	// Configuration
	flags.StringVarP(&options.ConfigPath, "config", "c", "",
		"Path to a YAML config file (default: search ./config.yaml, ~/.config/beatviz/config.yaml)")
	flags.BoolVarP(&options.Verbose, "verbose", "v", false,
		"Show verbose output and log every frame")

	// Audio Device Configuration
	flags.IntVarP(&options.DeviceID, "device", "d", config.DefaultDeviceID,
		"Specify output device ID. Use 'list' or 'devices' to see available devices.")

	// Rendering
	flags.StringVarP(&options.Mode, "mode", "m", config.DefaultMode,
		"Visualisation mode (bars|waveform)")
	flags.IntVar(&options.Width, "width", config.DefaultWidth, "Drawing surface width in pixels")
	flags.IntVar(&options.Height, "height", config.DefaultHeight, "Drawing surface height in pixels")
	flags.IntVar(&options.FPS, "fps", config.DefaultFPS, "Ticks per second")
	flags.BoolVar(&options.Headless, "headless", config.DefaultHeadless,
		"Run without a window, driving the loop from a ticker")
	flags.Float64Var(&options.Threshold, "threshold", config.DefaultBeatThreshold,
		"Relative volume rise that counts as a beat")

	// Haptics
	flags.BoolVar(&options.NoHaptics, "no-haptics", false, "Disable controller vibration")
	flags.StringVar(&options.HapticsUDP, "haptics-udp", "",
		"Send rumble effects to a remote actuator at host:port")

	// Transports
	flags.BoolVar(&options.WebSocket, "ws", false, "Broadcast frames over WebSocket")
	flags.IntVar(&options.WebSocketPort, "ws-port", config.DefaultWebSocketPort, "WebSocket listen port")
	flags.BoolVar(&options.UDP, "udp", false, "Publish frames as UDP packets")
	flags.StringVar(&options.UDPAddr, "udp-addr",
		net.JoinHostPort(config.DefaultUDPAddress, strconv.Itoa(config.DefaultUDPPort)),
		"UDP frame destination host:port")

	// Execute the CLI
	rootCmd.SetArgs(args)
	cmd, err := rootCmd.ExecuteC()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("help") || cmd.Flags().Changed("version") {
		return nil, nil
	}

	cmd.Flags().Visit(func(f *pflag.Flag) {
		options.changed[f.Name] = true
	})

	return options, nil
}

// Changed reports whether the named flag was given.
func (o *Options) Changed(name string) bool {
	return o.changed[name]
}

// Apply writes the explicitly given flags over cfg and validates the result.
func (o *Options) Apply(cfg *config.Config) error {
	if o.Verbose {
		cfg.LogLevel = "debug"
	}
	if o.Changed("device") {
		cfg.Audio.DeviceID = o.DeviceID
	}
	if o.Changed("mode") {
		cfg.Render.Mode = o.Mode
	}
	if o.Changed("width") {
		cfg.Render.Width = o.Width
	}
	if o.Changed("height") {
		cfg.Render.Height = o.Height
	}
	if o.Changed("fps") {
		cfg.Render.FPS = o.FPS
	}
	if o.Changed("headless") {
		cfg.Render.Headless = o.Headless
	}
	if o.Changed("threshold") {
		cfg.Detector.Threshold = o.Threshold
	}
	if o.NoHaptics {
		cfg.Haptics.Enabled = false
	}
	if o.Changed("haptics-udp") {
		cfg.Haptics.UDPAddr = o.HapticsUDP
	}
	if o.Changed("ws") {
		cfg.Transport.WebSocket.Enabled = o.WebSocket
	}
	if o.Changed("ws-port") {
		cfg.Transport.WebSocket.Port = o.WebSocketPort
	}
	if o.Changed("udp") {
		cfg.Transport.UDP.Enabled = o.UDP
	}
	if o.Changed("udp-addr") {
		host, port, err := net.SplitHostPort(o.UDPAddr)
		if err != nil {
			return fmt.Errorf("%w: --udp-addr: %v", config.ErrInvalidConfig, err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("%w: --udp-addr port %q", config.ErrInvalidConfig, port)
		}
		cfg.Transport.UDP.Address = host
		cfg.Transport.UDP.Port = p
	}
	return cfg.Validate()
}
