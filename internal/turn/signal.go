package turn

import (
	"context"
	"fmt"
)

// Signal is a binary handoff credit. It holds at most one pending credit.
type Signal struct {
	ch chan struct{}
}

func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Raise - adds a credit without blocking. It reports false when a credit was
// already pending, which means the caller broke the one-credit rule.
func (that *Signal) Raise() bool {
	select {
	case that.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// TryAcquire - consumes the pending credit, if any, without blocking.
func (that *Signal) TryAcquire() bool {
	select {
	case <-that.ch:
		return true
	default:
		return false
	}
}

// Wait - blocks until a credit is consumed or ctx is done.
func (that *Signal) Wait(ctx context.Context) error {
	select {
	case <-that.ch:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for signal: %w", ctx.Err())
	}
}

// Drain - consumes every pending credit and returns how many there were.
func (that *Signal) Drain() int {
	drained := 0
	for that.TryAcquire() {
		drained++
	}

	return drained
}

// Set holds one turn signal per player slot.
type Set struct {
	signals []*Signal
}

func NewSet(slots int) *Set {
	signals := make([]*Signal, slots)
	for i := range signals {
		signals[i] = NewSignal()
	}

	return &Set{signals: signals}
}

func (that *Set) Len() int {
	return len(that.signals)
}

// Raise - grants a turn to the 0-based slot.
func (that *Set) Raise(slot int) bool {
	return that.signals[slot].Raise()
}

// TryAcquire - consumes the slot's turn credit if one is pending.
func (that *Set) TryAcquire(slot int) bool {
	return that.signals[slot].TryAcquire()
}

// Drain - empties every slot and returns the total credits removed.
func (that *Set) Drain() int {
	drained := 0
	for _, signal := range that.signals {
		drained += signal.Drain()
	}

	return drained
}
