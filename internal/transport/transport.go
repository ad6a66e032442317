// SPDX-License-Identifier: MIT
package transport

import "github.com/W47K3R9/SpectralDev/internal/analysis"

// Transport sends analysis data to an external consumer.
type Transport interface {
	// Send transmits the given data. Implementations must not block
	// indefinitely; slow consumers drop frames instead of stalling the
	// feed.
	Send(data any) error

	// Close shuts down the transport and releases its resources.
	Close() error
}

// PeakSource is the analysis surface a feed publishes from. It allows
// decoupling the transport layer from the engine implementation.
type PeakSource interface {
	// PeaksInto copies the current spectral peaks into dst and returns
	// the number copied.
	PeaksInto(dst []analysis.Peak) int

	// FrequencyForBin converts a bin index to its center frequency in Hz.
	FrequencyForBin(bin int) float64

	// BlockSize returns the analysis block size, which bounds how many
	// peaks a single frame can carry.
	BlockSize() int
}
