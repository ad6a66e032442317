// SPDX-License-Identifier: MIT

/*
Package analysis turns a transformed block into the short list of
spectral peaks the oscillator bank resynthesizes. Only the lower half
of the spectrum carries information for real input, so the list scans
bins [0, n/2), keeps everything at or above the threshold, and sorts
the survivors by descending magnitude so the loudest components claim
the available voices first.
*/
package analysis

import (
	"math/cmplx"
	"sort"
)

// minMagnitude is the absolute noise floor. A zero threshold must not
// let rounding residue and denormals through.
const minMagnitude = 1e-13

// Peak is one retained spectral component: its bin index and the raw,
// uncorrected magnitude from the transform.
type Peak struct {
	Bin int
	Mag float64
}

// PeakList is the reusable result of one extraction. The first Valid()
// entries are ordered by descending magnitude; the rest of the backing
// array is stale. Written by the transform worker, read by the tuning
// worker; callers serialize access with their own lock.
type PeakList struct {
	peaks []Peak
	valid int
}

// NewPeakList allocates a list with capacity for every lower-half bin
// of a blockSize-point transform.
func NewPeakList(blockSize int) *PeakList {
	return &PeakList{peaks: make([]Peak, blockSize/2)}
}

// Extract scans the lower half of spectrum, keeps bins whose magnitude
// reaches the threshold (never below the noise floor), sorts the kept
// prefix loudest-first and returns its length. Reuses the backing
// array; no allocation. Equal magnitudes have no defined order.
func (l *PeakList) Extract(spectrum []complex128, threshold float64) int {
	if threshold < minMagnitude {
		threshold = minMagnitude
	}

	n := 0
	for bin := range l.peaks {
		mag := cmplx.Abs(spectrum[bin])
		if mag >= threshold {
			l.peaks[n] = Peak{Bin: bin, Mag: mag}
			n++
		}
	}
	l.valid = n
	sort.Sort(l)
	return n
}

// Valid returns the number of peaks the last extraction retained.
func (l *PeakList) Valid() int { return l.valid }

// Cap returns the maximum number of peaks the list can hold.
func (l *PeakList) Cap() int { return len(l.peaks) }

// At returns the i-th loudest peak of the last extraction. i must be
// below Valid().
func (l *PeakList) At(i int) Peak { return l.peaks[i] }

// PeaksInto copies the valid peaks into dst and returns how many were
// copied, at most len(dst).
func (l *PeakList) PeaksInto(dst []Peak) int {
	n := copy(dst, l.peaks[:l.valid])
	return n
}

// Reset discards the previous extraction.
func (l *PeakList) Reset() { l.valid = 0 }

// sort.Interface over the valid prefix. Implementing it on the list
// itself keeps sort.Sort from boxing a fresh value per extraction.
func (l *PeakList) Len() int           { return l.valid }
func (l *PeakList) Less(i, j int) bool { return l.peaks[i].Mag > l.peaks[j].Mag }
func (l *PeakList) Swap(i, j int)      { l.peaks[i], l.peaks[j] = l.peaks[j], l.peaks[i] }

var _ sort.Interface = (*PeakList)(nil)
