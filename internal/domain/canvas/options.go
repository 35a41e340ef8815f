package canvas

// Option applies a configuration option to the Surface.
type Option func(*Surface)

// WithStyle sets the initial color and stroke width.
func WithStyle(color string, strokeWidth float64) Option {
	return func(s *Surface) {
		if color != "" {
			s.color = color
		}
		if strokeWidth > 0 {
			s.strokeWidth = strokeWidth
		}
	}
}

// WithShapeExtent sets the half-size in pixels of shapes placed by
// PlaceShape.
func WithShapeExtent(extent float64) Option {
	return func(s *Surface) {
		if extent > 0 {
			s.shapeExtent = extent
		}
	}
}

// WithMaxHistory bounds the undo stack depth.
func WithMaxHistory(depth int) Option {
	return func(s *Surface) {
		if depth > 1 {
			s.maxHistory = depth
		}
	}
}

// WithIDGenerator overrides shape id generation, mainly for deterministic
// tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *Surface) {
		if gen != nil {
			s.newID = gen
		}
	}
}
