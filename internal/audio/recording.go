// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "github.com/W47K3R9/SpectralDev/internal/log"
)

// RecordingFilename builds a timestamped capture path inside dir.
func RecordingFilename(dir string) string {
	return filepath.Join(dir, time.Now().Format("spectral-20060102-150405.wav"))
}

// recordingBitDepth normalizes the configured depth to a supported
// PCM width.
func (h *Host) recordingBitDepth() int {
	if h.recCfg.BitDepth == 24 {
		return 24
	}
	return 16
}

// StartRecording begins capturing the synthesized output to a mono
// WAV file at the configured bit depth, creating the directory if
// needed.
func (h *Host) StartRecording(filename string) error {
	if h.isRecording.Load() {
		return fmt.Errorf("already recording")
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create recording directory: %w", err)
		}
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	bitDepth := h.recordingBitDepth()

	h.recMu.Lock()
	h.outputFile = file
	h.wavEncoder = wav.NewEncoder(file, int(h.audioCfg.SampleRate), bitDepth, 1, 1)
	h.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  int(h.audioCfg.SampleRate),
		},
		Data:           make([]int, h.frames),
		SourceBitDepth: bitDepth,
	}
	h.recScale = pcmFullScale(bitDepth)
	h.recErr.Store(nil)
	h.recMu.Unlock()

	h.isRecording.Store(true)
	applog.Infof("Host: recording to %s (%d-bit @ %.0f Hz)", filename, bitDepth, h.audioCfg.SampleRate)
	return nil
}

// StopRecording finalizes the WAV file. Safe to call when nothing is
// recording. An error that hit the writer mid-stream surfaces here.
func (h *Host) StopRecording() error {
	h.isRecording.Store(false)

	h.recMu.Lock()
	defer h.recMu.Unlock()

	if h.wavEncoder == nil && h.outputFile == nil {
		return nil
	}

	var firstErr error
	if p := h.recErr.Load(); p != nil {
		firstErr = fmt.Errorf("recording failed mid-stream: %w", *p)
	}

	if h.wavEncoder != nil {
		if err := h.wavEncoder.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		h.wavEncoder = nil
	}
	if h.outputFile != nil {
		if err := h.outputFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		h.outputFile = nil
	}

	applog.Infof("Host: recording stopped")
	return firstErr
}

// appendRecording converts one block of synthesized output to PCM and
// hands it to the encoder. Called from the stream callback; when the
// TryLock loses against a concurrent Start/StopRecording the block is
// dropped from the file rather than blocking the audio thread.
func (h *Host) appendRecording(samples []float64) {
	if !h.recMu.TryLock() {
		return
	}
	defer h.recMu.Unlock()

	if h.wavEncoder == nil {
		return
	}

	data := h.sampleBuf.Data[:len(samples)]
	for i, v := range samples {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		data[i] = int(math.Round(v * h.recScale))
	}
	h.sampleBuf.Data = data

	if err := h.wavEncoder.Write(h.sampleBuf); err != nil {
		// Disable further writes and hold the error for StopRecording.
		h.recErr.CompareAndSwap(nil, &err)
		h.isRecording.Store(false)
	}
}
