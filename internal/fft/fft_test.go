// SPDX-License-Identifier: MIT
package fft

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"testing"

	dspfft "github.com/mjibson/go-dsp/fft"
)

func TestNewPlanRejectsInvalidSizes(t *testing.T) {
	tests := []int{-1024, 0, 1, 8, 15, 1000, 4096}

	for _, size := range tests {
		t.Run(fmt.Sprintf("size_%d", size), func(t *testing.T) {
			if _, err := NewPlan(size); !errors.Is(err, ErrInvalidSize) {
				t.Errorf("NewPlan(%d) error = %v, want ErrInvalidSize", size, err)
			}
		})
	}
}

func TestNewPlanAcceptsFullRange(t *testing.T) {
	for size := MinSize; size <= MaxSize; size <<= 1 {
		p, err := NewPlan(size)
		if err != nil {
			t.Fatalf("NewPlan(%d) unexpected error: %v", size, err)
		}
		if p.Size() != size {
			t.Errorf("Size() = %d, want %d", p.Size(), size)
		}
	}
}

// A unit impulse at index zero transforms to a flat spectrum of ones.
func TestTransformImpulse(t *testing.T) {
	const size = 64
	p := mustPlan(t, size)

	x := make([]complex128, size)
	x[0] = 1

	p.Transform(x)

	for i, v := range x {
		if cmplx.Abs(v-1) > 1e-12 {
			t.Errorf("bin %d = %v, want 1", i, v)
		}
	}
}

// A constant block concentrates all energy in the DC bin.
func TestTransformDC(t *testing.T) {
	const size = 256
	p := mustPlan(t, size)

	x := make([]complex128, size)
	for i := range x {
		x[i] = 1
	}

	p.Transform(x)

	if got := cmplx.Abs(x[0]); math.Abs(got-size) > 1e-9 {
		t.Errorf("DC bin = %g, want %d", got, size)
	}
	for i := 1; i < size; i++ {
		if cmplx.Abs(x[i]) > 1e-9 {
			t.Errorf("bin %d = %g, want 0", i, cmplx.Abs(x[i]))
		}
	}
}

// A sinusoid completing exactly k cycles per block lands all its energy
// in bins k and size-k with magnitude size/2.
func TestTransformSingleBin(t *testing.T) {
	sizes := []int{16, 64, 256, 1024}

	for _, size := range sizes {
		t.Run(fmt.Sprintf("size_%d", size), func(t *testing.T) {
			p := mustPlan(t, size)
			k := size / 8

			x := make([]complex128, size)
			for n := range x {
				x[n] = complex(math.Sin(2*math.Pi*float64(k)*float64(n)/float64(size)), 0)
			}

			p.Transform(x)

			want := float64(size) / 2
			for i := 0; i < size; i++ {
				mag := cmplx.Abs(x[i])
				switch i {
				case k, size - k:
					if math.Abs(mag-want) > 1e-8 {
						t.Errorf("bin %d = %g, want %g", i, mag, want)
					}
				default:
					if mag > 1e-8 {
						t.Errorf("bin %d = %g, want 0", i, mag)
					}
				}
			}
		})
	}
}

// The plan must agree with an independent FFT implementation on a dense
// multi-component signal.
func TestTransformMatchesReference(t *testing.T) {
	const size = 1024
	p := mustPlan(t, size)

	x := make([]complex128, size)
	ref := make([]complex128, size)
	for n := range x {
		v := math.Sin(0.37*float64(n)) +
			0.6*math.Cos(1.93*float64(n)) +
			0.25*math.Sin(11.1*float64(n)+0.5)
		x[n] = complex(v, 0)
		ref[n] = x[n]
	}

	p.Transform(x)
	want := dspfft.FFT(ref)

	for i := 0; i < size; i++ {
		if d := cmplx.Abs(x[i] - want[i]); d > 1e-6 {
			t.Fatalf("bin %d: plan %v, reference %v (diff %g)", i, x[i], want[i], d)
		}
	}
}

// Identical inputs must produce bit-identical spectra.
func TestTransformDeterministic(t *testing.T) {
	const size = 128
	p := mustPlan(t, size)

	a := make([]complex128, size)
	b := make([]complex128, size)
	for n := range a {
		v := complex(math.Sin(0.71*float64(n)), 0)
		a[n], b[n] = v, v
	}

	p.Transform(a)
	p.Transform(b)

	for i := 0; i < size; i++ {
		if a[i] != b[i] {
			t.Fatalf("bin %d differs between runs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestTransformZeroAllocs(t *testing.T) {
	const size = 1024
	p := mustPlan(t, size)
	x := make([]complex128, size)
	for n := range x {
		x[n] = complex(math.Sin(0.1*float64(n)), 0)
	}

	allocs := testing.AllocsPerRun(100, func() {
		p.Transform(x)
	})
	if allocs > 0 {
		t.Errorf("expected zero allocations in Transform, got %.1f", allocs)
	}
}

func mustPlan(t *testing.T, size int) *Plan {
	t.Helper()
	p, err := NewPlan(size)
	if err != nil {
		t.Fatalf("NewPlan(%d): %v", size, err)
	}
	return p
}

func BenchmarkTransform(b *testing.B) {
	for _, size := range []int{256, 1024, 2048} {
		b.Run(fmt.Sprintf("size_%d", size), func(b *testing.B) {
			p, err := NewPlan(size)
			if err != nil {
				b.Fatal(err)
			}
			x := make([]complex128, size)
			for n := range x {
				x[n] = complex(math.Sin(2*math.Pi*440*float64(n)/44100), 0)
			}

			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				p.Transform(x)
			}
		})
	}
}
