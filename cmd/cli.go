// SPDX-License-Identifier: MIT

// Package cmd wires the command line onto the engine. The root
// command runs a live session; subcommands cover device listing,
// offline rendering and build information.
package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/W47K3R9/SpectralDev/internal/audio"
	"github.com/W47K3R9/SpectralDev/internal/config"
	"github.com/W47K3R9/SpectralDev/internal/engine"
	applog "github.com/W47K3R9/SpectralDev/internal/log"
	"github.com/W47K3R9/SpectralDev/internal/transport"
	"github.com/W47K3R9/SpectralDev/internal/transport/udp"
	"github.com/W47K3R9/SpectralDev/internal/tui"
	"github.com/W47K3R9/SpectralDev/pkg/build"
)

// Execute parses the command line and runs the selected command.
func Execute() error {
	info := build.Get()
	def := config.Default()

	var configPath string
	var headless bool

	rootCmd := &cobra.Command{
		Use:           info.Name,
		Short:         "Real-time spectral resynthesis engine",
		Version:       info.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, configPath)
			if err != nil {
				return err
			}
			return runLive(cfg, headless)
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "f", "", "Path to a YAML config file")
	pf.String("log-level", def.LogLevel, "Log level (debug, info, warn, error)")

	// Audio device configuration
	pf.IntP("input-device", "i", def.Audio.InputDevice,
		"Input device ID. Use the 'list' command to see available devices.")
	pf.IntP("output-device", "o", def.Audio.OutputDevice,
		"Output device ID. Use the 'list' command to see available devices.")
	pf.Float64P("sample-rate", "s", def.Audio.SampleRate,
		"Sample rate, measured in Hertz (Hz)")
	pf.IntP("frames-per-buffer", "b", def.Audio.FramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	pf.BoolP("low-latency", "l", def.Audio.LowLatency,
		"Use the devices' low latency settings")

	// Analysis and resynthesis configuration
	pf.Int("fft-size", def.Engine.FFTSize, "Analysis block length (power of two)")
	pf.IntP("voices", "n", def.Engine.Voices, "Audible voice limit")
	pf.StringP("waveform", "w", def.Engine.Waveform,
		"Voice waveform (sine, triangle, square, sawtooth)")
	pf.Float64P("threshold", "t", def.Engine.Threshold,
		"Spectral magnitude floor for peak extraction")
	pf.Int("glide", def.Engine.GlideSteps, "Retune glide length in samples")
	pf.Float64("gain", def.Engine.Gain, "Output gain [0, 2]")
	pf.Float64("cutoff", def.Engine.FilterCutoff,
		"Output lowpass cutoff in Hz (0 disables)")
	pf.Bool("continuous", def.Engine.ContinuousTuning,
		"Retune after every analyzed block instead of on the timed trigger")

	// Recording configuration
	pf.BoolP("record", "r", def.Recording.Enabled,
		"Capture the synthesized output to a WAV file")
	pf.String("record-dir", def.Recording.OutputDir, "Directory for capture files")
	pf.Int("bit-depth", def.Recording.BitDepth, "Capture bit depth (16 or 24)")

	// Peak feed configuration
	pf.String("udp", def.Transport.UDPTargetAddress,
		"Stream peak frames to this UDP address (host:port)")
	pf.String("ws", def.Transport.WSListenAddress,
		"Serve the websocket peak feed on this address")

	rootCmd.Flags().BoolVar(&headless, "headless", false,
		"Run without the terminal UI until interrupted")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := audio.Initialize(); err != nil {
				return err
			}
			defer audio.Terminate()
			return audio.ListDevices()
		},
	}

	renderCmd := &cobra.Command{
		Use:   "render <input.wav> <output.wav>",
		Short: "Resynthesize a WAV file offline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, configPath)
			if err != nil {
				return err
			}
			applog.Setup(cfg.LogLevel, nil)
			return audio.Render(args[0], args[1], cfg)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(info.String())
		},
	}

	rootCmd.AddCommand(listCmd, renderCmd, versionCmd)
	rootCmd.SetArgs(os.Args[1:])
	return rootCmd.Execute()
}

// loadConfig layers the sources: built-in defaults, then the YAML
// file (or the default locations when no path is given), then any
// flag set explicitly on the command line.
func loadConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	applyFlagOverrides(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlagOverrides copies explicitly set flags onto the config.
// Flag defaults never override file values.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	fl := cmd.Flags()

	if fl.Changed("log-level") {
		cfg.LogLevel, _ = fl.GetString("log-level")
	}
	if fl.Changed("input-device") {
		cfg.Audio.InputDevice, _ = fl.GetInt("input-device")
	}
	if fl.Changed("output-device") {
		cfg.Audio.OutputDevice, _ = fl.GetInt("output-device")
	}
	if fl.Changed("sample-rate") {
		cfg.Audio.SampleRate, _ = fl.GetFloat64("sample-rate")
	}
	if fl.Changed("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer, _ = fl.GetInt("frames-per-buffer")
	}
	if fl.Changed("low-latency") {
		cfg.Audio.LowLatency, _ = fl.GetBool("low-latency")
	}

	if fl.Changed("fft-size") {
		cfg.Engine.FFTSize, _ = fl.GetInt("fft-size")
	}
	if fl.Changed("voices") {
		cfg.Engine.Voices, _ = fl.GetInt("voices")
	}
	if fl.Changed("waveform") {
		cfg.Engine.Waveform, _ = fl.GetString("waveform")
	}
	if fl.Changed("threshold") {
		cfg.Engine.Threshold, _ = fl.GetFloat64("threshold")
	}
	if fl.Changed("glide") {
		cfg.Engine.GlideSteps, _ = fl.GetInt("glide")
	}
	if fl.Changed("gain") {
		cfg.Engine.Gain, _ = fl.GetFloat64("gain")
	}
	if fl.Changed("cutoff") {
		cfg.Engine.FilterCutoff, _ = fl.GetFloat64("cutoff")
	}
	if fl.Changed("continuous") {
		cfg.Engine.ContinuousTuning, _ = fl.GetBool("continuous")
	}

	if fl.Changed("record") {
		cfg.Recording.Enabled, _ = fl.GetBool("record")
	}
	if fl.Changed("record-dir") {
		cfg.Recording.OutputDir, _ = fl.GetString("record-dir")
	}
	if fl.Changed("bit-depth") {
		cfg.Recording.BitDepth, _ = fl.GetInt("bit-depth")
	}

	if fl.Changed("udp") {
		addr, _ := fl.GetString("udp")
		cfg.Transport.UDPTargetAddress = addr
		cfg.Transport.UDPEnabled = addr != ""
	}
	if fl.Changed("ws") {
		addr, _ := fl.GetString("ws")
		cfg.Transport.WSListenAddress = addr
		cfg.Transport.WSEnabled = addr != ""
	}
}

// runLive brings up the full stack for an interactive session: the
// engine, the duplex stream, the peak feeds and either the terminal
// UI or a signal wait.
func runLive(cfg *config.Config, headless bool) error {
	applog.Setup(cfg.LogLevel, nil)

	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	engCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}
	eng, err := engine.New(engCfg)
	if err != nil {
		return err
	}
	defer eng.Close()
	eng.Apply(cfg.EngineParams())

	host, err := audio.NewHost(cfg.Audio, cfg.Recording, eng)
	if err != nil {
		return err
	}
	if err := host.Start(); err != nil {
		return err
	}
	defer host.Close()

	stopFeeds, err := startFeeds(cfg, eng)
	if err != nil {
		return err
	}
	defer stopFeeds()

	if cfg.Recording.Enabled {
		target := audio.RecordingFilename(cfg.Recording.OutputDir)
		if err := host.StartRecording(target); err != nil {
			return err
		}
	}

	if headless {
		applog.Infof("Running headless, Ctrl-C to stop")
		waitForSignal()
		return nil
	}

	// The monitor owns the terminal; silence the logger while it runs.
	applog.Setup(cfg.LogLevel, io.Discard)
	uiErr := tui.Run(eng)
	applog.Setup(cfg.LogLevel, os.Stderr)
	return uiErr
}

// startFeeds brings up the enabled peak transports and returns a
// function shutting them down in reverse order.
func startFeeds(cfg *config.Config, eng *engine.Engine) (func(), error) {
	var shutdown []func()
	stop := func() {
		for i := len(shutdown) - 1; i >= 0; i-- {
			shutdown[i]()
		}
	}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			stop()
			return nil, err
		}
		pub, err := udp.NewPublisher(cfg.Transport.UDPSendInterval, sender, eng)
		if err != nil {
			sender.Close()
			stop()
			return nil, err
		}
		pub.Start()
		shutdown = append(shutdown, func() {
			pub.Close()
			sender.Close()
		})
	}

	if cfg.Transport.WSEnabled {
		wst := transport.NewWebSocketTransport(cfg.Transport.WSListenAddress)
		pub := transport.NewPeakPublisher(cfg.Transport.UDPSendInterval, eng, wst)
		pub.Start()
		shutdown = append(shutdown, func() {
			pub.Stop()
			wst.Close()
		})
	}

	return stop, nil
}

func waitForSignal() {
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done
}
