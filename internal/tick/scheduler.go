// Package tick provides the ordered per-frame update list.
package tick

import "slices"

// DefaultOrder is the order assigned by Add. Lower orders tick first.
const DefaultOrder uint8 = 255

// Tickable is anything updated once per frame.
type Tickable interface {
	Tick(dt float64)
}

type entry struct {
	t     Tickable // nil marks a tombstone
	order uint8
}

// Scheduler ticks registered objects in order. Objects added during a pass are
// queued and join after the pass; objects removed during a pass leave a tombstone
// that is compacted after the pass.
type Scheduler struct {
	entries []entry
	pending []entry // Added during the current pass
	ticking bool
	dirty   bool // Tombstones present
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Add registers t with DefaultOrder.
func (s *Scheduler) Add(t Tickable) {
	s.AddWithOrder(t, DefaultOrder)
}

// AddWithOrder registers t to tick at the given order.
// Registering an object twice is a no-op.
func (s *Scheduler) AddWithOrder(t Tickable, order uint8) {
	if t == nil || s.Contains(t) {
		return
	}
	e := entry{t: t, order: order}
	if s.ticking {
		s.pending = append(s.pending, e)
		return
	}
	s.insert(e)
}

// Remove unregisters t. During a pass the slot becomes a tombstone.
func (s *Scheduler) Remove(t Tickable) {
	if t == nil {
		return
	}
	for i, e := range s.pending {
		if e.t == t {
			s.pending = slices.Delete(s.pending, i, i+1)
			return
		}
	}
	for i, e := range s.entries {
		if e.t != t {
			continue
		}
		if s.ticking {
			s.entries[i].t = nil
			s.dirty = true
		} else {
			s.entries = slices.Delete(s.entries, i, i+1)
		}
		return
	}
}

// Contains reports whether t is registered or pending.
func (s *Scheduler) Contains(t Tickable) bool {
	for _, e := range s.entries {
		if e.t == t {
			return true
		}
	}
	for _, e := range s.pending {
		if e.t == t {
			return true
		}
	}
	return false
}

// Len returns the number of registered objects, pending ones included.
func (s *Scheduler) Len() int {
	n := len(s.pending)
	for _, e := range s.entries {
		if e.t != nil {
			n++
		}
	}
	return n
}

// Ticking reports whether a pass is in progress.
func (s *Scheduler) Ticking() bool {
	return s.ticking
}

// Tick runs one pass over every registered object.
func (s *Scheduler) Tick(dt float64) {
	if s.ticking {
		panic("tick: Tick called during a tick pass")
	}
	s.ticking = true
	defer s.finishPass()

	// Length is fixed for the pass: additions go to pending.
	n := len(s.entries)
	for i := 0; i < n; i++ {
		if t := s.entries[i].t; t != nil {
			t.Tick(dt)
		}
	}
}

// finishPass ends the pass even if a tickable panicked.
func (s *Scheduler) finishPass() {
	s.ticking = false
	s.compact()
	s.flushPending()
}

// compact drops tombstones left by removals during the pass.
func (s *Scheduler) compact() {
	if !s.dirty {
		return
	}
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.t != nil {
			kept = append(kept, e)
		}
	}
	clear(s.entries[len(kept):])
	s.entries = kept
	s.dirty = false
}

// flushPending adds all queued objects and clears the queue.
func (s *Scheduler) flushPending() {
	for _, e := range s.pending {
		s.insert(e)
	}
	clear(s.pending)
	s.pending = s.pending[:0]
}

// insert places e after every entry with an order <= e.order.
func (s *Scheduler) insert(e entry) {
	i := len(s.entries)
	for i > 0 && s.entries[i-1].order > e.order {
		i--
	}
	s.entries = slices.Insert(s.entries, i, e)
}
