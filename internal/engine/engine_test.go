// SPDX-License-Identifier: MIT
package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/W47K3R9/SpectralDev/internal/analysis"
	"github.com/W47K3R9/SpectralDev/internal/osc"
)

// toneChunk renders one analysis block of a unit sinusoid centered on
// the given bin.
func toneChunk(size, bin int) []float64 {
	chunk := make([]float64, size)
	for n := range chunk {
		chunk[n] = math.Sin(2 * math.Pi * float64(bin) * float64(n) / float64(size))
	}
	return chunk
}

func chunkPeak(out []float64) float64 {
	peak := 0.0
	for _, v := range out {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}

func TestNewRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"fft size not a power of two", func(c *Config) { c.FFTSize = 1000 }},
		{"fft size out of range", func(c *Config) { c.FFTSize = 4096 }},
		{"wavetable too small", func(c *Config) { c.WavetableSize = 8 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			_, err := New(cfg)
			require.Error(t, err)
		})
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	e, err := New(DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
}

// Workers sleeping on their wake channels must still join when Close
// is called before any block was ever handed off.
func TestCloseJoinsIdleWorkers(t *testing.T) {
	e, err := New(DefaultConfig())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		e.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not join the workers")
	}
}

// A wakeup parked just before shutdown must not wedge or crash the
// workers.
func TestCloseWithPendingWake(t *testing.T) {
	e, err := New(DefaultConfig())
	require.NoError(t, err)
	e.calc.fftGate.notify()
	e.calc.tuneGate.notify()
	require.NoError(t, e.Close())
}

// Feeding a steady tone must come back out as sound: block handoff,
// transform, peak extraction and continuous tuning all in play.
func TestContinuousCycleResynthesizesTone(t *testing.T) {
	cfg := DefaultConfig()
	e, err := New(cfg)
	require.NoError(t, err)
	defer e.Close()

	e.SetThreshold(100) // keep the driven partial, reject numeric noise
	e.SetGlideSteps(1)

	in := toneChunk(cfg.FFTSize, 10)
	out := make([]float64, cfg.FFTSize)

	require.Eventually(t, func() bool {
		e.ProcessChunk(in, out)
		return chunkPeak(out) > 0.5
	}, 5*time.Second, time.Millisecond, "engine never began resynthesizing the tone")

	dst := make([]analysis.Peak, 8)
	n := e.PeaksInto(dst)
	require.Greater(t, n, 0)
	require.Equal(t, 10, dst[0].Bin, "strongest peak should sit on the driven bin")
}

func TestTriggeredTuningResynthesizes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ContinuousTuning = false
	cfg.TuningInterval = 10 * time.Millisecond
	e, err := New(cfg)
	require.NoError(t, err)
	defer e.Close()

	e.SetThreshold(100)
	e.SetGlideSteps(1)

	in := toneChunk(cfg.FFTSize, 10)
	out := make([]float64, cfg.FFTSize)

	require.Eventually(t, func() bool {
		e.ProcessChunk(in, out)
		return chunkPeak(out) > 0.5
	}, 5*time.Second, time.Millisecond, "periodic trigger never retuned the bank")
}

// With the periodic trigger effectively off, analysis alone must not
// move the voices; a manual trigger must.
func TestManualTriggerTuning(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ContinuousTuning = false
	cfg.TuningInterval = time.Hour
	e, err := New(cfg)
	require.NoError(t, err)
	defer e.Close()

	e.SetThreshold(100)
	e.SetGlideSteps(1)

	in := toneChunk(cfg.FFTSize, 10)
	out := make([]float64, cfg.FFTSize)

	dst := make([]analysis.Peak, 8)
	require.Eventually(t, func() bool {
		e.ProcessChunk(in, out)
		return e.PeaksInto(dst) > 0
	}, 5*time.Second, time.Millisecond, "analysis never produced peaks")
	require.Equal(t, 0.0, chunkPeak(out), "bank moved before any trigger")

	e.TriggerTuning()
	require.Eventually(t, func() bool {
		e.ProcessChunk(in, out)
		return chunkPeak(out) > 0.5
	}, 5*time.Second, time.Millisecond, "manual trigger never retuned the bank")
}

func TestEngineReset(t *testing.T) {
	cfg := DefaultConfig()
	e, err := New(cfg)
	require.NoError(t, err)
	defer e.Close()

	e.SetThreshold(100)
	e.SetGlideSteps(1)
	in := toneChunk(cfg.FFTSize, 10)
	out := make([]float64, cfg.FFTSize)
	require.Eventually(t, func() bool {
		e.ProcessChunk(in, out)
		return chunkPeak(out) > 0.5
	}, 5*time.Second, time.Millisecond)

	require.NoError(t, e.Reset(48000))

	require.Equal(t, float64(48000), e.SampleRate())
	require.Equal(t, 0, e.RingIndex())
	require.InDelta(t, 468.75, e.FrequencyForBin(10), 1e-12)
	dst := make([]analysis.Peak, 4)
	require.Equal(t, 0, e.PeaksInto(dst))

	// Half a block after the reset: no boundary yet, so nothing can
	// have retuned the muted voices.
	half := make([]float64, cfg.FFTSize/2)
	copy(half, in)
	outHalf := make([]float64, cfg.FFTSize/2)
	e.ProcessChunk(half, outHalf)
	require.Equal(t, 0.0, chunkPeak(outHalf))
	require.Equal(t, cfg.FFTSize/2, e.RingIndex())

	require.Error(t, e.Reset(0))
}

func TestApplyAndParamsRoundTrip(t *testing.T) {
	e, err := New(DefaultConfig())
	require.NoError(t, err)
	defer e.Close()

	require.Equal(t, Params{
		Gain:             1,
		GlideSteps:       osc.DefaultGlideSteps,
		Voices:           DefaultVoices,
		ContinuousTuning: true,
	}, e.Params())

	p := Params{
		Waveform:         osc.Sawtooth,
		FilterCutoff:     2000,
		Threshold:        0.5,
		FrequencyOffset:  5,
		Gain:             1.5,
		GlideSteps:       8,
		Voices:           9,
		Freeze:           true,
		ContinuousTuning: false,
	}
	e.Apply(p)
	require.Equal(t, p, e.Params())

	// Out-of-range values come back clamped.
	e.SetGain(5)
	require.Equal(t, 2.0, e.Params().Gain)
	e.SetVoices(100)
	require.Equal(t, osc.MaxOscillators, e.Params().Voices)
	e.SetVoices(-1)
	require.Equal(t, 0, e.Params().Voices)
	e.SetGlideSteps(0)
	require.Equal(t, 1, e.Params().GlideSteps)
}

func TestSetTuningInterval(t *testing.T) {
	e, err := New(DefaultConfig())
	require.NoError(t, err)
	defer e.Close()

	e.SetTuningInterval(50 * time.Millisecond)
	require.Equal(t, 50*time.Millisecond, e.trigger.Interval())

	// Invalid cadences leave the current one in place.
	e.SetTuningInterval(0)
	require.Equal(t, 50*time.Millisecond, e.trigger.Interval())
}

func TestSettleAppliesTuning(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.GlideSteps = 1
	e, err := New(cfg)
	require.NoError(t, err)
	defer e.Close()

	in := toneChunk(cfg.FFTSize, 10)
	out := make([]float64, cfg.FFTSize)
	e.ProcessChunk(in, out)

	require.True(t, e.Settle(5*time.Second), "cycle did not settle")

	// With the cycle settled the very next chunk is already retuned,
	// no polling needed.
	e.ProcessChunk(in, out)
	require.Greater(t, chunkPeak(out), 0.5)

	var peaks [8]analysis.Peak
	require.NotZero(t, e.PeaksInto(peaks[:]))
}

func TestSettleOnIdleEngineReturnsImmediately(t *testing.T) {
	t.Parallel()

	e, err := New(DefaultConfig())
	require.NoError(t, err)
	defer e.Close()

	require.True(t, e.Settle(time.Second))
}

func BenchmarkProcessChunk(b *testing.B) {
	e, err := New(DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}
	defer e.Close()

	in := toneChunk(e.BlockSize(), 10)
	out := make([]float64, e.BlockSize())

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		e.ProcessChunk(in, out)
	}
}
