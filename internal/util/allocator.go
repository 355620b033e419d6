package util

import (
	"math/bits"
	"sync"
)

// IntAllocator allocates integer IDs (e.g., for channel IDs). Allocate
// always returns the lowest free ID.
type IntAllocator struct {
	min, max int
	used     []uint64 // bit i set when min+i is allocated
	count    int
	mu       sync.Mutex
}

// NewIntAllocator creates a new integer allocator over [min, max]
func NewIntAllocator(min, max int) *IntAllocator {
	size := 0
	if max >= min {
		size = max - min + 1
	}
	return &IntAllocator{
		min:  min,
		max:  max,
		used: make([]uint64, (size+63)/64),
	}
}

// Allocate allocates the lowest free integer
func (a *IntAllocator) Allocate() (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for w, word := range a.used {
		if word == ^uint64(0) {
			continue
		}
		i := w*64 + bits.TrailingZeros64(^word)
		if a.min+i > a.max {
			break
		}
		a.used[w] |= 1 << uint(i%64)
		a.count++
		return a.min + i, true
	}
	return 0, false
}

// Free releases an integer back to the pool
func (a *IntAllocator) Free(i int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	w, mask, ok := a.slot(i)
	if !ok || a.used[w]&mask == 0 {
		return false
	}
	a.used[w] &^= mask
	a.count--
	return true
}

// Reserve marks an integer as allocated
func (a *IntAllocator) Reserve(i int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	w, mask, ok := a.slot(i)
	if !ok || a.used[w]&mask != 0 {
		return false
	}
	a.used[w] |= mask
	a.count++
	return true
}

// Available returns number of available integers
func (a *IntAllocator) Available() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.max - a.min + 1 - a.count
}

// Max returns the largest integer the allocator hands out
func (a *IntAllocator) Max() int {
	return a.max
}

func (a *IntAllocator) slot(i int) (int, uint64, bool) {
	if i < a.min || i > a.max {
		return 0, 0, false
	}
	off := i - a.min
	return off / 64, 1 << uint(off%64), true
}
