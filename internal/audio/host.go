// SPDX-License-Identifier: MIT
/*
Package audio hosts the spectral engine in a PortAudio duplex stream:
- Input frames feed engine.ProcessChunk on the stream callback
- The rendered output leaves on the same callback, fanned out to the
  device's channels
- Optional WAV capture of the synthesized output

Thread safety:
- The callback uses pre-allocated buffers only, no allocations
- Recording state is guarded by an atomic flag plus a TryLock, so the
  audio thread never blocks on recorder shutdown
*/
package audio

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"

	"github.com/W47K3R9/SpectralDev/internal/config"
	"github.com/W47K3R9/SpectralDev/internal/engine"
	applog "github.com/W47K3R9/SpectralDev/internal/log"
)

// Host owns the duplex stream around one engine instance.
type Host struct {
	audioCfg config.AudioConfig
	recCfg   config.RecordingConfig
	proc     *engine.Engine

	inputDevice   *portaudio.DeviceInfo
	outputDevice  *portaudio.DeviceInfo
	inputLatency  time.Duration
	outputLatency time.Duration
	stream        *portaudio.Stream

	inChannels  int
	outChannels int
	frames      int

	// Mono working buffers for the engine, sized to FramesPerBuffer.
	inBuffer  []float64
	outBuffer []float64

	// Recording state. The callback only touches it after winning a
	// TryLock; Start/StopRecording take the lock outright.
	isRecording atomic.Bool
	recMu       sync.Mutex
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer
	recScale    float64
	recErr      atomic.Pointer[error]
}

// NewHost resolves the configured devices and prepares the buffers.
// PortAudio must be initialized. The stream does not run until Start.
func NewHost(audioCfg config.AudioConfig, recCfg config.RecordingConfig, proc *engine.Engine) (*Host, error) {
	if proc == nil {
		return nil, fmt.Errorf("audio host: engine cannot be nil")
	}

	inputDevice, err := InputDevice(audioCfg.InputDevice)
	if err != nil {
		return nil, err
	}
	outputDevice, err := OutputDevice(audioCfg.OutputDevice)
	if err != nil {
		return nil, err
	}

	h := &Host{
		audioCfg:     audioCfg,
		recCfg:       recCfg,
		proc:         proc,
		inputDevice:  inputDevice,
		outputDevice: outputDevice,
		inChannels:   1,
		outChannels:  min(2, outputDevice.MaxOutputChannels),
		frames:       audioCfg.FramesPerBuffer,
		inBuffer:     make([]float64, audioCfg.FramesPerBuffer),
		outBuffer:    make([]float64, audioCfg.FramesPerBuffer),
		recScale:     pcmFullScale(recCfg.BitDepth),
	}

	if audioCfg.LowLatency {
		h.inputLatency = inputDevice.DefaultLowInputLatency
		h.outputLatency = outputDevice.DefaultLowOutputLatency
	} else {
		h.inputLatency = inputDevice.DefaultHighInputLatency
		h.outputLatency = outputDevice.DefaultHighOutputLatency
	}

	return h, nil
}

// Start opens and starts the duplex stream.
func (h *Host) Start() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: h.inChannels,
			Device:   h.inputDevice,
			Latency:  h.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: h.outChannels,
			Device:   h.outputDevice,
			Latency:  h.outputLatency,
		},
		FramesPerBuffer: h.frames,
		SampleRate:      h.audioCfg.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, h.processStream)
	if err != nil {
		return fmt.Errorf("failed to open duplex stream: %w", err)
	}
	h.stream = stream

	if err := h.stream.Start(); err != nil {
		h.stream.Close()
		h.stream = nil
		return fmt.Errorf("failed to start stream: %w", err)
	}

	applog.Infof("Host: duplex stream started (%s -> %s, %d frames @ %.0f Hz)",
		h.inputDevice.Name, h.outputDevice.Name, h.frames, h.audioCfg.SampleRate)
	return nil
}

// Stop halts and closes the stream. Safe to call when not running.
func (h *Host) Stop() error {
	if h.stream != nil {
		if err := h.stream.Stop(); err != nil {
			return err
		}
		if err := h.stream.Close(); err != nil {
			return err
		}
		h.stream = nil
		applog.Infof("Host: stream stopped")
	}
	return nil
}

// Close stops the stream first and then the recorder, in that order so
// no callback can race the encoder shutdown.
func (h *Host) Close() error {
	if err := h.Stop(); err != nil {
		return err
	}
	return h.StopRecording()
}

// processStream is the duplex stream callback.
// Performance critical:
// - Runs on the PortAudio audio thread (locked to its OS thread)
// - Uses pre-allocated buffers only
// - No allocations in the hot path
func (h *Host) processStream(in, out []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	n := min(h.frames, len(in)/h.inChannels, len(out)/h.outChannels)

	monoFromInterleaved(h.inBuffer[:n], in, h.inChannels)
	h.proc.ProcessChunk(h.inBuffer[:n], h.outBuffer[:n])
	fanOutInterleaved(out, h.outBuffer[:n], h.outChannels)

	if h.isRecording.Load() {
		h.appendRecording(h.outBuffer[:n])
	}
}

// monoFromInterleaved copies channel 0 of an interleaved float32
// buffer into dst.
func monoFromInterleaved(dst []float64, src []float32, channels int) {
	for i := range dst {
		dst[i] = float64(src[i*channels])
	}
}

// fanOutInterleaved writes the mono source to every channel of an
// interleaved float32 buffer and zeroes whatever remains of dst.
func fanOutInterleaved(dst []float32, src []float64, channels int) {
	for i, v := range src {
		s := float32(v)
		base := i * channels
		for c := 0; c < channels; c++ {
			dst[base+c] = s
		}
	}
	for i := len(src) * channels; i < len(dst); i++ {
		dst[i] = 0
	}
}

// pcmFullScale returns the largest positive sample value for a signed
// PCM bit depth. Unset depths fall back to 16-bit.
func pcmFullScale(bitDepth int) float64 {
	if bitDepth <= 0 {
		bitDepth = 16
	}
	return float64(int64(1)<<(bitDepth-1) - 1)
}
