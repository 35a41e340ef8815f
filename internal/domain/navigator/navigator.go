// Package navigator implements the keyboard/button-driven cursor over a
// clip's thread list.
//
// The navigator never holds its own copy of the threads; it re-reads the
// store on every call so mutations are always reflected. Navigation both
// selects the thread and seeks playback to the thread's start time.
package navigator

import (
	"sort"

	"github.com/frameproof/frameproof/internal/domain/model"
)

// Filter selects which lifecycle states the cursor walks.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterOpen     Filter = "open"
	FilterResolved Filter = "resolved"
)

// Valid reports whether f is a known filter.
func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterOpen, FilterResolved:
		return true
	}
	return false
}

// Source is the slice of the annotation store the navigator needs.
type Source interface {
	Threads() []model.Thread
	OpenThreads() []model.Thread
	ResolvedThreads() []model.Thread
	SelectThread(id string)
	SelectedThread() (model.Thread, bool)
}

// SeekFunc asks the video surface to seek to a timestamp (ms) and pause.
type SeekFunc func(ms int64)

// Navigator is a linear cursor with boundary clamping: no wraparound in
// either direction.
type Navigator struct {
	source Source
	seek   SeekFunc
	filter Filter
	index  int // -1 when no thread has been visited yet
}

// New creates a navigator over the given source. A nil seek is allowed
// and leaves playback untouched on navigation.
func New(source Source, seek SeekFunc) *Navigator {
	return &Navigator{
		source: source,
		seek:   seek,
		filter: FilterAll,
		index:  -1,
	}
}

// Filter returns the active filter.
func (n *Navigator) Filter() Filter { return n.filter }

// SetFilter switches the visible list and resets the cursor. The
// previously selected thread may no longer be present; the contract is to
// clear the selection, not to guess a replacement.
func (n *Navigator) SetFilter(f Filter) error {
	if !f.Valid() {
		return ErrUnknownFilter
	}
	n.filter = f
	n.index = -1
	n.source.SelectThread("")
	return nil
}

// Threads returns the filtered list in display order: start time
// ascending, chip as tie-break.
func (n *Navigator) Threads() []model.Thread {
	var threads []model.Thread
	switch n.filter {
	case FilterOpen:
		threads = n.source.OpenThreads()
	case FilterResolved:
		threads = n.source.ResolvedThreads()
	case FilterAll:
		threads = n.source.Threads()
	}
	sort.SliceStable(threads, func(i, j int) bool {
		if threads[i].TStartMS != threads[j].TStartMS {
			return threads[i].TStartMS < threads[j].TStartMS
		}
		return threads[i].Chip < threads[j].Chip
	})
	return threads
}

// CurrentIndex returns the cursor position, -1 before any navigation.
func (n *Navigator) CurrentIndex() int {
	n.clamp(len(n.Threads()))
	return n.index
}

// HasPrevious reports whether GoToPrevious would move.
func (n *Navigator) HasPrevious() bool {
	n.clamp(len(n.Threads()))
	return n.index > 0
}

// HasNext reports whether GoToNext would move.
func (n *Navigator) HasNext() bool {
	count := len(n.Threads())
	n.clamp(count)
	return n.index < count-1
}

// GoToNext advances the cursor. At the last thread it is a no-op: no
// re-selection, no seek.
func (n *Navigator) GoToNext() {
	threads := n.Threads()
	if len(threads) == 0 {
		return
	}
	n.clamp(len(threads))
	switch {
	case n.index == -1:
		n.index = 0
	case n.index < len(threads)-1:
		n.index++
	default:
		return
	}
	n.visit(threads[n.index])
}

// GoToPrevious steps the cursor back. At the first thread it is a no-op:
// no re-selection, no seek.
func (n *Navigator) GoToPrevious() {
	threads := n.Threads()
	if len(threads) == 0 {
		return
	}
	n.clamp(len(threads))
	switch {
	case n.index == -1:
		n.index = 0
	case n.index > 0:
		n.index--
	default:
		return
	}
	n.visit(threads[n.index])
}

// visit selects the thread and seeks playback to its anchor.
func (n *Navigator) visit(t model.Thread) {
	n.source.SelectThread(t.ID)
	if n.seek != nil {
		n.seek(t.TStartMS)
	}
}

// clamp keeps the cursor inside the current list, which may have shrunk
// since the last navigation.
func (n *Navigator) clamp(count int) {
	if count == 0 {
		n.index = -1
		return
	}
	if n.index >= count {
		n.index = count - 1
	}
}
