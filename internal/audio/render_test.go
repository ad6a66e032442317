// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/W47K3R9/SpectralDev/internal/config"
)

// writeToneWav writes a 16-bit test tone and returns the frame count.
// The default analysis setup (1024-point FFT at 44100 Hz) puts
// 10*44100/1024 Hz exactly on a bin center.
func writeToneWav(t *testing.T, path string, freq, seconds float64, channels int) int {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create input: %v", err)
	}
	enc := wav.NewEncoder(f, testSampleRate, 16, channels, 1)

	n := int(seconds * testSampleRate)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: testSampleRate},
		Data:           make([]int, n*channels),
		SourceBitDepth: 16,
	}
	for i := 0; i < n; i++ {
		v := int(math.Round(0.8 * math.Sin(2*math.Pi*freq*float64(i)/testSampleRate) * 32767))
		for c := 0; c < channels; c++ {
			buf.Data[i*channels+c] = v
		}
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode input: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("finalize input: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close input: %v", err)
	}
	return n
}

func TestRenderResynthesizesTone(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	outPath := filepath.Join(dir, "out.wav")
	frames := writeToneWav(t, in, 10.0*testSampleRate/1024.0, 1.0, 1)

	cfg := config.Default()
	if err := Render(in, outPath, cfg); err != nil {
		t.Fatalf("Render: %v", err)
	}

	buf := decodeRecording(t, outPath)
	if buf.Format.NumChannels != 1 {
		t.Errorf("output channels = %d, want 1", buf.Format.NumChannels)
	}
	if buf.Format.SampleRate != testSampleRate {
		t.Errorf("output rate = %d, want %d", buf.Format.SampleRate, testSampleRate)
	}
	if len(buf.Data) != frames {
		t.Fatalf("output has %d samples, want %d", len(buf.Data), frames)
	}

	// Nothing can sound before the first full block has been analyzed.
	for i := 0; i < 1024; i++ {
		if buf.Data[i] != 0 {
			t.Fatalf("sample %d = %d, want silence before the first analyzed block", i, buf.Data[i])
		}
	}

	var sum float64
	tail := buf.Data[frames/2:]
	for _, s := range tail {
		v := float64(s) / 32767
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(tail)))
	if rms < 0.1 {
		t.Errorf("resynthesized RMS = %.4f, want at least 0.1", rms)
	}
}

func TestRenderMixesStereoInput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "stereo.wav")
	outPath := filepath.Join(dir, "out.wav")
	frames := writeToneWav(t, in, 10.0*testSampleRate/1024.0, 0.3, 2)

	if err := Render(in, outPath, config.Default()); err != nil {
		t.Fatalf("Render: %v", err)
	}

	buf := decodeRecording(t, outPath)
	if len(buf.Data) != frames {
		t.Fatalf("output has %d samples, want %d per-channel frames", len(buf.Data), frames)
	}
}

func TestRenderRejectsMissingInput(t *testing.T) {
	dir := t.TempDir()
	err := Render(filepath.Join(dir, "missing.wav"), filepath.Join(dir, "out.wav"), config.Default())
	if err == nil || !strings.Contains(err.Error(), "failed to open input") {
		t.Errorf("Render = %v, want open failure", err)
	}
}

func TestRenderRejectsGarbageInput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "noise.bin")
	if err := os.WriteFile(in, []byte("definitely not audio"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	err := Render(in, filepath.Join(dir, "out.wav"), config.Default())
	if err == nil || !strings.Contains(err.Error(), "not a valid WAV file") {
		t.Errorf("Render = %v, want invalid-file error", err)
	}
}
