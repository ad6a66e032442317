// SPDX-License-Identifier: MIT
package engine

import "sync/atomic"

// gate is one handoff edge between two threads: an atomic completion
// flag paired with a buffered wake channel. The flag tells the
// producer side whether it may hand work over; the channel carries at
// most one pending wakeup so notifying never blocks.
type gate struct {
	done atomic.Bool
	wake chan struct{}
}

func newGate(ready bool) *gate {
	g := &gate{wake: make(chan struct{}, 1)}
	g.done.Store(ready)
	return g
}

func (g *gate) completed() bool { return g.done.Load() }
func (g *gate) clear()          { g.done.Store(false) }
func (g *gate) complete()       { g.done.Store(true) }

// notify wakes the consumer unless a wakeup is already pending.
func (g *gate) notify() {
	select {
	case g.wake <- struct{}{}:
	default:
	}
}
