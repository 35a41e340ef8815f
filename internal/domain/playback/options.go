package playback

import "time"

// Option applies a configuration option to the Synchronizer.
type Option func(*Synchronizer)

// WithVisibilityWindow sets how far (in ms) playback time may sit from a
// point annotation's timestamp before it is hidden.
func WithVisibilityWindow(ms int64) Option {
	return func(p *Synchronizer) {
		if ms > 0 {
			p.windowMS = ms
		}
	}
}

// WithSettleDelay sets the pause before re-measuring after layout changes.
func WithSettleDelay(d time.Duration) Option {
	return func(p *Synchronizer) {
		if d >= 0 {
			p.settle = d
		}
	}
}
