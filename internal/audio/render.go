// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/W47K3R9/SpectralDev/internal/config"
	"github.com/W47K3R9/SpectralDev/internal/engine"
	applog "github.com/W47K3R9/SpectralDev/internal/log"
)

// settleTimeout bounds how long offline rendering waits for a block's
// analysis to land before giving up on the file.
const settleTimeout = 5 * time.Second

// Render plays a WAV file through a fresh engine offline and writes
// the resynthesized signal to outPath as mono PCM at the recording bit
// depth. Multi-channel input is averaged down to mono. The engine runs
// at the file's sample rate and retunes after every analyzed block;
// the wall-clock tuning trigger has no meaning offline.
func Render(inPath, outPath string, cfg *config.Config) error {
	f, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return fmt.Errorf("not a valid WAV file: %s", inPath)
	}
	decoder.ReadInfo()

	rate := int(decoder.SampleRate)
	channels := int(decoder.NumChans)
	bits := int(decoder.BitDepth)
	if rate <= 0 || channels <= 0 || bits <= 0 {
		return fmt.Errorf("unusable WAV format in %s (rate %d, channels %d, %d-bit)",
			inPath, rate, channels, bits)
	}

	engCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}
	engCfg.SampleRate = float64(rate)

	eng, err := engine.New(engCfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	params := cfg.EngineParams()
	eng.Apply(params)
	eng.SetContinuousTuning(true)
	eng.SetFreeze(false)

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer out.Close()

	outBits := 16
	if cfg.Recording.BitDepth == 24 {
		outBits = 24
	}
	encoder := wav.NewEncoder(out, rate, outBits, 1, 1)

	frames := cfg.Audio.FramesPerBuffer
	if frames <= 0 {
		frames = 512
	}

	inBuf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:   make([]int, frames*channels),
	}
	outBuf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           make([]int, frames),
		SourceBitDepth: outBits,
	}
	inF := make([]float64, frames)
	outF := make([]float64, frames)

	inScale := 1.0 / float64(int64(1)<<(bits-1))
	outScale := pcmFullScale(outBits)

	total := 0
	for {
		n, err := decoder.PCMBuffer(inBuf)
		if err != nil {
			return fmt.Errorf("failed to decode input: %w", err)
		}
		if n == 0 {
			break
		}
		nf := n / channels

		// Average the channels into the mono engine input.
		for i := 0; i < nf; i++ {
			sum := 0
			for c := 0; c < channels; c++ {
				sum += inBuf.Data[i*channels+c]
			}
			inF[i] = float64(sum) * inScale / float64(channels)
		}

		eng.ProcessChunk(inF[:nf], outF[:nf])

		// Offline time outruns the workers; wait for each block's
		// analysis so the result does not depend on scheduling.
		if !eng.Settle(settleTimeout) {
			return fmt.Errorf("analysis did not settle, aborting render")
		}

		for i := 0; i < nf; i++ {
			v := outF[i]
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}
			outBuf.Data[i] = int(math.Round(v * outScale))
		}
		outBuf.Data = outBuf.Data[:nf]
		if err := encoder.Write(outBuf); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		outBuf.Data = outBuf.Data[:cap(outBuf.Data)]
		total += nf
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to finalize output: %w", err)
	}

	applog.Infof("Render: wrote %d samples (%.2fs at %d Hz) to %s",
		total, float64(total)/float64(rate), rate, outPath)
	return nil
}
