// Package damage keeps the per-frame damage of an output so that a back buffer
// which is several frames old can be brought up to date with a partial repaint.
package damage

import (
	"github.com/bnema/wayout/internal/region"
)

// Capacity is the number of frames remembered. It must stay a power of two,
// the index arithmetic masks with Capacity-1.
const Capacity = 16

const mask = Capacity - 1

// History is a fixed ring of damage regions, one slot per presented frame.
//
// Usage per frame: Record the damage painted this frame, present, then Step.
// Lookup(1) after Step returns the damage of the frame that was just presented.
type History struct {
	damages [Capacity]*region.Region
	index   int
}

// NewHistory returns a history with every slot empty
func NewHistory() *History {
	return &History{}
}

// Destroy releases every stored region. The history can be reused afterwards
// and behaves like a new one.
func (h *History) Destroy() {
	for i := range h.damages {
		h.damages[i] = nil
	}
	h.index = 0
}

// IsAgeValid reports whether the damage recorded age frames ago is still known.
// Age 0 carries no damage and ages from Capacity up would alias the slot being
// written, so both are rejected.
func (h *History) IsAgeValid(age int) bool {
	if age <= 0 || age >= Capacity {
		return false
	}
	_, ok := h.Lookup(age)
	return ok
}

// Record stores a copy of damage in the current slot, replacing whatever was
// there. The index does not move.
func (h *History) Record(damage region.Region) {
	c := damage.Copy()
	h.damages[h.index] = &c
}

// Step moves to the next slot; call once per frame after Record.
// The slot stepped into is evicted: it holds damage from Capacity frames ago,
// and a frame that is never recorded must read back as unknown.
func (h *History) Step() {
	h.index = (h.index + 1) & mask
	h.damages[h.index] = nil
}

// Lookup returns the region recorded age steps before the current index
func (h *History) Lookup(age int) (region.Region, bool) {
	if age <= 0 || age >= Capacity {
		return region.Region{}, false
	}
	d := h.damages[(h.index-age)&mask]
	if d == nil {
		return region.Region{}, false
	}
	return d.Copy(), true
}

// Accumulate unions the damage of the last age frames. It reports false, with
// an empty region, when any of those frames is unknown.
func (h *History) Accumulate(age int) (region.Region, bool) {
	if !h.IsAgeValid(age) {
		return region.Region{}, false
	}
	var acc region.Region
	for a := 1; a <= age; a++ {
		d, ok := h.Lookup(a)
		if !ok {
			return region.Region{}, false
		}
		acc = acc.Union(d)
	}
	return acc, true
}

// Index returns the slot the next Record will write
func (h *History) Index() int {
	return h.index
}
