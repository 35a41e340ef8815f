// Package playback decides which annotation thread is visible at the
// current playback instant and drives re-projection when the render
// surface changes size.
//
// Point-in-time threads follow a nearest-neighbor rule bounded by a
// visibility window; range-anchored threads use inclusive-interval
// membership. The synchronizer tracks the currently visible thread so the
// host repaints only on transitions.
package playback

import (
	"time"

	"github.com/frameproof/frameproof/internal/domain/geometry"
	"github.com/frameproof/frameproof/internal/domain/model"
	"github.com/frameproof/frameproof/pkg/metrics"
)

// Default synchronizer configuration constants.
const (
	defaultVisibilityWindowMS = 2000
	defaultSettleDelay        = 50 * time.Millisecond
)

// Update describes the outcome of one playback tick.
type Update struct {
	Thread  model.Thread
	Visible bool
	// Changed reports a transition: a different thread became visible or
	// the surface fell empty. The host repaints (or clears) only when set.
	Changed bool
}

// Synchronizer watches playback time against a clip's thread list.
type Synchronizer struct {
	windowMS int64
	settle   time.Duration

	current    string
	hasCurrent bool
}

// New creates a synchronizer.
func New(opts ...Option) *Synchronizer {
	p := &Synchronizer{
		windowMS: defaultVisibilityWindowMS,
		settle:   defaultSettleDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SettleDelay returns how long the host should wait after a resize or
// fullscreen change before re-measuring, letting layout finish.
func (p *Synchronizer) SettleDelay() time.Duration { return p.settle }

// Step evaluates visibility at nowMS and records the transition.
func (p *Synchronizer) Step(threads []model.Thread, nowMS int64) Update {
	thread, visible := p.activeThread(threads, nowMS)

	var changed bool
	switch {
	case visible && (!p.hasCurrent || p.current != thread.ID):
		changed = true
	case !visible && p.hasCurrent:
		changed = true
	}

	if visible {
		p.current = thread.ID
		p.hasCurrent = true
	} else {
		p.current = ""
		p.hasCurrent = false
	}
	return Update{Thread: thread, Visible: visible, Changed: changed}
}

// Reset forgets the visible thread, forcing the next Step to report a
// transition. Used when the surface is torn down between annotations.
func (p *Synchronizer) Reset() {
	p.current = ""
	p.hasCurrent = false
}

// activeThread picks the thread to display at nowMS.
//
// Range-anchored threads match by inclusive-interval membership and take
// precedence; among several the earliest start wins. Otherwise the
// nearest point-in-time thread within the visibility window is chosen,
// with ties broken toward the earlier timestamp.
func (p *Synchronizer) activeThread(threads []model.Thread, nowMS int64) (model.Thread, bool) {
	var ranged *model.Thread
	for i := range threads {
		t := &threads[i]
		if t.TEndMS == nil {
			continue
		}
		if t.TStartMS <= nowMS && nowMS <= *t.TEndMS {
			if ranged == nil || t.TStartMS < ranged.TStartMS {
				ranged = t
			}
		}
	}
	if ranged != nil {
		return ranged.Clone(), true
	}

	var nearest *model.Thread
	var nearestDiff int64
	for i := range threads {
		t := &threads[i]
		if t.TEndMS != nil {
			continue
		}
		diff := t.TStartMS - nowMS
		if diff < 0 {
			diff = -diff
		}
		if nearest == nil || diff < nearestDiff ||
			(diff == nearestDiff && t.TStartMS < nearest.TStartMS) {
			nearest = t
			nearestDiff = diff
		}
	}
	if nearest == nil || nearestDiff > p.windowMS {
		return model.Thread{}, false
	}
	return nearest.Clone(), true
}

// Project re-projects a thread's stored shapes onto the current render
// surface. Zero target dimensions defer the operation; the caller retries
// on the next valid measurement.
func (p *Synchronizer) Project(thread model.Thread, targetWidth, targetHeight float64) ([]model.Shape, error) {
	shapes, err := geometry.DenormalizeAll(thread.Shapes, targetWidth, targetHeight)
	if err != nil {
		metrics.RecordDeferredGeometry()
		return nil, err
	}
	metrics.RecordReprojection()
	return shapes, nil
}

// Resize recomputes the overlay box after a window resize, orientation
// change, or fullscreen toggle, so the canvas can be repositioned to
// exactly cover the rendered video picture.
func (p *Synchronizer) Resize(containerW, containerH, videoW, videoH float64) (geometry.Box, error) {
	box, err := geometry.OverlayBox(containerW, containerH, videoW, videoH)
	if err != nil {
		metrics.RecordDeferredGeometry()
		return geometry.Box{}, err
	}
	metrics.RecordOverlayResync()
	return box, nil
}
