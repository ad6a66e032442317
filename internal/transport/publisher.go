// SPDX-License-Identifier: MIT
package transport

import (
	"sync"
	"time"

	"github.com/W47K3R9/SpectralDev/internal/analysis"
	applog "github.com/W47K3R9/SpectralDev/internal/log"
)

// DefaultSendInterval is the feed rate used when a configured interval
// is missing or invalid. Roughly 30 frames per second.
const DefaultSendInterval = 33 * time.Millisecond

// PeakFrame is one published snapshot of the current spectral peaks.
// It is the JSON payload for websocket consumers; the UDP pipeline has
// its own binary layout.
type PeakFrame struct {
	Seq       uint32      `json:"seq"`
	Timestamp int64       `json:"timestamp"`
	Peaks     []FramePeak `json:"peaks"`
}

// FramePeak is one peak within a frame, with the bin resolved to Hz so
// consumers need no knowledge of the analysis configuration.
type FramePeak struct {
	Bin       int     `json:"bin"`
	Frequency float64 `json:"frequency"`
	Magnitude float64 `json:"magnitude"`
}

// PeakPublisher periodically snapshots a PeakSource and fans the frame
// out to its sinks. It runs on its own goroutine; a slow or failing
// sink is logged and skipped, never retried.
type PeakPublisher struct {
	mu       sync.Mutex
	interval time.Duration
	source   PeakSource
	sinks    []Transport

	// scratch is reused across ticks. Frames get a fresh slice because
	// sinks may queue them beyond the current tick.
	scratch []analysis.Peak
	seq     uint32

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	started  bool
}

// NewPeakPublisher creates a publisher reading from source and sending
// to sinks. A non-positive interval falls back to DefaultSendInterval.
func NewPeakPublisher(interval time.Duration, source PeakSource, sinks ...Transport) *PeakPublisher {
	if interval <= 0 {
		applog.Warnf("PeakPublisher: invalid interval %v, using default %v", interval, DefaultSendInterval)
		interval = DefaultSendInterval
	}
	return &PeakPublisher{
		interval: interval,
		source:   source,
		sinks:    sinks,
		scratch:  make([]analysis.Peak, source.BlockSize()/2),
	}
}

// Start launches the publishing loop. Calling Start on a running
// publisher is a no-op.
func (p *PeakPublisher) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-p.ticker.C:
				p.publish()
			case <-p.doneChan:
				return
			}
		}
	}()

	applog.Infof("PeakPublisher: started (interval %v, %d sink(s))", p.interval, len(p.sinks))
}

// Stop halts the loop and waits for it to exit. The sinks are not
// closed; their owner decides their lifetime. Safe to call more than
// once and safe on a publisher that never started.
func (p *PeakPublisher) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	ticker := p.ticker
	done := p.doneChan
	p.mu.Unlock()

	p.stopOnce.Do(func() {
		ticker.Stop()
		close(done)
		p.wg.Wait()
		applog.Infof("PeakPublisher: stopped")
	})
}

// publish builds one frame and hands it to every sink. Empty frames
// are sent too so consumers can observe silence.
func (p *PeakPublisher) publish() {
	n := p.source.PeaksInto(p.scratch)

	p.seq++
	frame := PeakFrame{
		Seq:       p.seq,
		Timestamp: time.Now().UnixNano(),
		Peaks:     make([]FramePeak, n),
	}
	for i := 0; i < n; i++ {
		frame.Peaks[i] = FramePeak{
			Bin:       p.scratch[i].Bin,
			Frequency: p.source.FrequencyForBin(p.scratch[i].Bin),
			Magnitude: p.scratch[i].Mag,
		}
	}

	for _, sink := range p.sinks {
		if err := sink.Send(frame); err != nil {
			applog.Warnf("PeakPublisher: send failed: %v", err)
		}
	}
}
