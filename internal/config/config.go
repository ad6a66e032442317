// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/W47K3R9/SpectralDev/internal/engine"
	"github.com/W47K3R9/SpectralDev/internal/fft"
	"github.com/W47K3R9/SpectralDev/internal/osc"
	"github.com/W47K3R9/SpectralDev/internal/ring"
	"github.com/W47K3R9/SpectralDev/pkg/bitint"
)

// Hardware and processing limits.
const (
	MinDeviceID     = -1     // -1 selects the system default device
	MinSampleRate   = 8000   // minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // maximum frames per host buffer
)

// Config is the application configuration, loaded from YAML with
// environment overrides on top.
type Config struct {
	Debug    bool   `yaml:"debug"`     // verbose logging and debug features
	LogLevel string `yaml:"log_level"` // "debug", "info", "warn", "error"

	Engine    EngineConfig    `yaml:"engine"`    // analysis and resynthesis settings
	Audio     AudioConfig     `yaml:"audio"`     // device and stream settings
	Recording RecordingConfig `yaml:"recording"` // output capture settings
	Transport TransportConfig `yaml:"transport"` // peak feed settings
}

// EngineConfig holds the analysis and resynthesis settings.
type EngineConfig struct {
	FFTSize          int           `yaml:"fft_size"`          // analysis block length, power of two
	WavetableSize    int           `yaml:"wavetable_size"`    // oscillator cycle length, power of two
	Window           string        `yaml:"window"`            // analysis window name (e.g. "hann", "blackman")
	Waveform         string        `yaml:"waveform"`          // voice shape ("sine", "triangle", "square", "sawtooth")
	Voices           int           `yaml:"voices"`            // audible voice limit
	Threshold        float64       `yaml:"threshold"`         // spectral magnitude floor, 0 for noise floor
	GlideSteps       int           `yaml:"glide_steps"`       // retune ramp length in samples
	ContinuousTuning bool          `yaml:"continuous_tuning"` // retune after every block
	TuningInterval   time.Duration `yaml:"tuning_interval"`   // triggered-mode cadence
	FrequencyOffset  float64       `yaml:"frequency_offset"`  // Hz added to every tuned voice
	FilterCutoff     float64       `yaml:"filter_cutoff"`     // output lowpass in Hz, 0 disables
	Gain             float64       `yaml:"gain"`              // output gain [0, 2]
}

// AudioConfig holds device and stream settings.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`  // device index, -1 for default
	OutputDevice    int     `yaml:"output_device"` // device index, -1 for default
	SampleRate      float64 `yaml:"sample_rate"`
	FramesPerBuffer int     `yaml:"frames_per_buffer"`
	LowLatency      bool    `yaml:"low_latency"`
}

// RecordingConfig holds output capture settings.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
	BitDepth  int    `yaml:"bit_depth"` // 16 or 24
}

// TransportConfig holds peak feed settings.
type TransportConfig struct {
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"`
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`
	WSEnabled        bool          `yaml:"ws_enabled"`
	WSListenAddress  string        `yaml:"ws_listen_address"`
}

// Default returns the built-in configuration: CD-rate analysis over
// 1024-sample blocks, four continuously retuned sine voices, no
// recording, no transport.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Engine: EngineConfig{
			FFTSize:          1024,
			WavetableSize:    256,
			Window:           "hann",
			Waveform:         "sine",
			Voices:           engine.DefaultVoices,
			GlideSteps:       osc.DefaultGlideSteps,
			ContinuousTuning: true,
			TuningInterval:   engine.DefaultTuningInterval,
			Gain:             1,
		},
		Audio: AudioConfig{
			InputDevice:     MinDeviceID,
			OutputDevice:    MinDeviceID,
			SampleRate:      44100,
			FramesPerBuffer: 512,
		},
		Recording: RecordingConfig{
			OutputDir: "./recordings",
			BitDepth:  16,
		},
		Transport: TransportConfig{
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendInterval:  33 * time.Millisecond,
			WSListenAddress:  ":8090",
		},
	}
}

// Validate checks every section and returns the first violation.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %g outside [%d, %d]", c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.FramesPerBuffer < 1 || c.Audio.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("audio.frames_per_buffer %d outside [1, %d]", c.Audio.FramesPerBuffer, MaxBufferFrames)
	}
	if c.Audio.InputDevice < MinDeviceID {
		return fmt.Errorf("audio.input_device %d below %d", c.Audio.InputDevice, MinDeviceID)
	}
	if c.Audio.OutputDevice < MinDeviceID {
		return fmt.Errorf("audio.output_device %d below %d", c.Audio.OutputDevice, MinDeviceID)
	}

	if !bitint.IsPowerOfTwo(c.Engine.FFTSize) || c.Engine.FFTSize < fft.MinSize || c.Engine.FFTSize > fft.MaxSize {
		return fmt.Errorf("engine.fft_size %d must be a power of two in [%d, %d]", c.Engine.FFTSize, fft.MinSize, fft.MaxSize)
	}
	if !bitint.IsPowerOfTwo(c.Engine.WavetableSize) || c.Engine.WavetableSize < osc.MinTableSize || c.Engine.WavetableSize > osc.MaxTableSize {
		return fmt.Errorf("engine.wavetable_size %d must be a power of two in [%d, %d]", c.Engine.WavetableSize, osc.MinTableSize, osc.MaxTableSize)
	}
	if _, err := ring.ParseWindowFunc(c.Engine.Window); err != nil {
		return fmt.Errorf("engine.window: %w", err)
	}
	if _, err := osc.ParseWaveform(c.Engine.Waveform); err != nil {
		return fmt.Errorf("engine.waveform: %w", err)
	}
	if c.Engine.Voices < 0 || c.Engine.Voices > osc.MaxOscillators {
		return fmt.Errorf("engine.voices %d outside [0, %d]", c.Engine.Voices, osc.MaxOscillators)
	}
	if c.Engine.Threshold < 0 {
		return fmt.Errorf("engine.threshold %g must not be negative", c.Engine.Threshold)
	}

	if c.Recording.Enabled {
		if c.Recording.BitDepth != 16 && c.Recording.BitDepth != 24 {
			return fmt.Errorf("recording.bit_depth %d must be 16 or 24", c.Recording.BitDepth)
		}
		if c.Recording.OutputDir == "" {
			return fmt.Errorf("recording.output_dir must be set when recording is enabled")
		}
	}

	if c.Transport.UDPEnabled {
		if !strings.Contains(c.Transport.UDPTargetAddress, ":") {
			return fmt.Errorf("transport.udp_target_address %q appears invalid (missing port?)", c.Transport.UDPTargetAddress)
		}
		if c.Transport.UDPSendInterval <= 0 {
			return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}
	if c.Transport.WSEnabled && c.Transport.WSListenAddress == "" {
		return fmt.Errorf("transport.ws_listen_address must be set when the websocket feed is enabled")
	}

	return nil
}

// EngineConfig maps the validated settings onto an engine
// construction config.
func (c *Config) EngineConfig() (engine.Config, error) {
	win, err := ring.ParseWindowFunc(c.Engine.Window)
	if err != nil {
		return engine.Config{}, fmt.Errorf("engine.window: %w", err)
	}
	wf, err := osc.ParseWaveform(c.Engine.Waveform)
	if err != nil {
		return engine.Config{}, fmt.Errorf("engine.waveform: %w", err)
	}
	return engine.Config{
		SampleRate:       c.Audio.SampleRate,
		FFTSize:          c.Engine.FFTSize,
		WavetableSize:    c.Engine.WavetableSize,
		Window:           win,
		Waveform:         wf,
		Voices:           c.Engine.Voices,
		Threshold:        c.Engine.Threshold,
		GlideSteps:       c.Engine.GlideSteps,
		TuningInterval:   c.Engine.TuningInterval,
		ContinuousTuning: c.Engine.ContinuousTuning,
	}, nil
}

// EngineParams maps the runtime knobs onto a parameter snapshot for
// engine.Apply.
func (c *Config) EngineParams() engine.Params {
	wf, err := osc.ParseWaveform(c.Engine.Waveform)
	if err != nil {
		wf = osc.Sine
	}
	return engine.Params{
		Waveform:         wf,
		FilterCutoff:     c.Engine.FilterCutoff,
		Threshold:        c.Engine.Threshold,
		FrequencyOffset:  c.Engine.FrequencyOffset,
		Gain:             c.Engine.Gain,
		GlideSteps:       c.Engine.GlideSteps,
		Voices:           c.Engine.Voices,
		ContinuousTuning: c.Engine.ContinuousTuning,
	}
}
