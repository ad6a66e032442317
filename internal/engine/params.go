// SPDX-License-Identifier: MIT
package engine

import "github.com/W47K3R9/SpectralDev/internal/osc"

// Params is a complete snapshot of the runtime-adjustable controls.
// Apply installs every field, so a caller changing one knob should
// start from Params() rather than from a zero value.
type Params struct {
	Waveform         osc.Waveform
	FilterCutoff     float64 // Hz, non-positive bypasses the output filter
	Threshold        float64 // spectral magnitude floor for peak extraction
	FrequencyOffset  float64 // Hz added to every tuned voice
	Gain             float64 // output gain, clamped to [0, 2]
	GlideSteps       int     // retune ramp length in samples
	Voices           int     // audible voice limit
	Freeze           bool    // hold the current spectrum
	ContinuousTuning bool    // retune after every block instead of on trigger
}

// Apply installs a full parameter snapshot. Out-of-range fields are
// clamped by the individual setters.
func (e *Engine) Apply(p Params) {
	e.SelectWaveform(p.Waveform)
	e.SetCutoff(p.FilterCutoff)
	e.SetThreshold(p.Threshold)
	e.SetFrequencyOffset(p.FrequencyOffset)
	e.SetGain(p.Gain)
	e.SetGlideSteps(p.GlideSteps)
	e.SetVoices(p.Voices)
	e.SetFreeze(p.Freeze)
	e.SetContinuousTuning(p.ContinuousTuning)
}

// Params returns the current runtime controls.
func (e *Engine) Params() Params {
	return Params{
		Waveform:         e.bank.Waveform(),
		FilterCutoff:     loadFloat(&e.buf.cutoff),
		Threshold:        loadFloat(&e.calc.threshold),
		FrequencyOffset:  e.bank.FrequencyOffset(),
		Gain:             loadFloat(&e.buf.gain),
		GlideSteps:       e.bank.GlideSteps(),
		Voices:           int(e.calc.voices.Load()),
		Freeze:           e.buf.freeze.Load(),
		ContinuousTuning: e.calc.continuous.Load(),
	}
}
