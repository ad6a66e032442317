// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/W47K3R9/SpectralDev/internal/analysis"
	applog "github.com/W47K3R9/SpectralDev/internal/log"
	"github.com/W47K3R9/SpectralDev/internal/transport"
)

// Publisher periodically snapshots the current spectral peaks, packs
// them into a compact binary frame, and sends the frame over UDP. It
// runs in its own goroutine managed by Start and Stop.
type Publisher struct {
	sender   *Sender
	source   transport.PeakSource
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop

	sequenceNum uint32

	// Pre-allocated buffers so buildAndSendPacket stays allocation-light.
	peakBuffer   []analysis.Peak
	wireBuffer   []wirePeak
	packetBuffer *bytes.Buffer
}

// wirePeak is the on-the-wire form of one peak. encoding/binary packs
// the fields in declaration order with no padding.
type wirePeak struct {
	Bin       uint16
	Frequency float32
	Magnitude float32
}

// NewPublisher creates a publisher reading from source and sending via
// sender. A non-positive interval falls back to the transport default.
func NewPublisher(interval time.Duration, sender *Sender, source transport.PeakSource) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: sender cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("UDPPublisher: peak source cannot be nil")
	}

	if interval <= 0 {
		interval = transport.DefaultSendInterval
		applog.Warnf("UDPPublisher: invalid interval provided, defaulting to %s", interval)
	}

	// A block of N samples yields at most N/2 usable bins, so no frame
	// can ever carry more peaks than that.
	maxPeaks := source.BlockSize() / 2
	applog.Infof("UDPPublisher: initializing (interval: %s, max peaks: %d)", interval, maxPeaks)

	return &Publisher{
		sender:       sender,
		source:       source,
		interval:     interval,
		peakBuffer:   make([]analysis.Peak, maxPeaks),
		wireBuffer:   make([]wirePeak, maxPeaks),
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Start begins periodic publishing. Safe to call on a running
// publisher; the extra call is a no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDPPublisher: Start called but already running")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{} // Reset for this run

	// Capture locals so the goroutine never races Start/Stop on the fields.
	ticker := p.ticker
	doneChan := p.doneChan

	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("UDPPublisher: publisher goroutine started (interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				applog.Infof("UDPPublisher: publisher goroutine received stop signal")
				return
			}
		}
	}()
}

// Stop signals the goroutine to terminate and waits for it to exit.
// Safe to call more than once and safe on a publisher that never
// started. The publisher can be started again afterwards.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		applog.Debugf("UDPPublisher: Stop called but not running")
		return nil
	}

	p.stopOnce.Do(func() {
		applog.Infof("UDPPublisher: initiating stop sequence")
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})

	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("UDPPublisher: publisher goroutine finished")
	return nil
}

/*
UDP packet structure (BigEndian):

+--------------------------------------------------------------------------+
| Field           | Data Type | Size (Bytes) | Description                 |
|-----------------|-----------|--------------|-----------------------------|
| Sequence Number | uint32    | 4            | Monotonically increasing    |
| Timestamp       | int64     | 8            | Nanoseconds since epoch     |
| Peak Count      | uint16    | 2            | Number of peaks (N)         |
| Peaks           | N records | N * 10       | Descending magnitude order  |
+--------------------------------------------------------------------------+

Each peak record:

|<-- 2 Bytes -->|<---- 4 Bytes ---->|<---- 4 Bytes ---->|
+---------------+-------------------+-------------------+
|   Bin Index   |     Frequency     |     Magnitude     |
|    (uint16)   |   (float32, Hz)   |     (float32)     |
+---------------+-------------------+-------------------+
*/

// buildAndSendPacket runs once per tick: fetch the current peaks,
// resolve each bin to Hz, pack the frame, and hand it to the sender.
func (p *Publisher) buildAndSendPacket() {
	n := p.source.PeaksInto(p.peakBuffer)

	for i := 0; i < n; i++ {
		pk := p.peakBuffer[i]
		p.wireBuffer[i] = wirePeak{
			Bin:       uint16(pk.Bin),
			Frequency: float32(p.source.FrequencyForBin(pk.Bin)),
			Magnitude: float32(pk.Mag),
		}
	}

	p.sequenceNum++
	timestamp := time.Now().UnixNano()
	peakCount := uint16(n)

	p.packetBuffer.Reset()

	err := binary.Write(p.packetBuffer, binary.BigEndian, p.sequenceNum)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, timestamp)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, peakCount)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, p.wireBuffer[:n])
	}
	if err != nil {
		applog.Errorf("UDPPublisher: error packing frame: %v", err)
		return
	}

	packetBytes := p.packetBuffer.Bytes()
	if err := p.sender.Send(packetBytes); err == nil {
		applog.Debugf("UDPPublisher: sent packet %d (%d peaks, %d bytes)", p.sequenceNum, n, len(packetBytes))
	}
}

// Close implements io.Closer by stopping the publisher.
func (p *Publisher) Close() error {
	applog.Debugf("UDPPublisher: Close called, stopping publisher")
	return p.Stop()
}

var _ interface{ Close() error } = (*Publisher)(nil)
