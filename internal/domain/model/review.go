// Package model contains domain models passed between layers.
package model

import "time"

// Point is a 2D coordinate. Persisted points are always fractional
// (0.0-1.0 of frame width/height); render-space pixel points exist only
// transiently between capture and normalization.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ShapeKind enumerates the closed set of drawable shape variants.
type ShapeKind string

// Shape variants. Every normalize/denormalize/render site switches
// exhaustively over these.
const (
	ShapePath   ShapeKind = "path"
	ShapeCircle ShapeKind = "circle"
	ShapeRect   ShapeKind = "rect"
	ShapeText   ShapeKind = "text"
)

// Valid reports whether k is one of the known shape kinds.
func (k ShapeKind) Valid() bool {
	switch k {
	case ShapePath, ShapeCircle, ShapeRect, ShapeText:
		return true
	}
	return false
}

// Shape is one drawn mark. Point layout by kind:
//   - path:   ordered polyline points
//   - circle: [center, radius-encoding point]
//   - rect:   [top-left, bottom-right]
//   - text:   [anchor]
type Shape struct {
	ID          string    `json:"id"`
	Kind        ShapeKind `json:"kind"`
	Points      []Point   `json:"points"`
	Color       string    `json:"color"`
	StrokeWidth float64   `json:"stroke_width"`
	Text        string    `json:"text,omitempty"`
}

// Clone returns a deep copy of the shape.
func (s Shape) Clone() Shape {
	out := s
	out.Points = make([]Point, len(s.Points))
	copy(out.Points, s.Points)
	return out
}

// CloneShapes deep-copies a shape list.
func CloneShapes(shapes []Shape) []Shape {
	if shapes == nil {
		return nil
	}
	out := make([]Shape, len(shapes))
	for i, s := range shapes {
		out[i] = s.Clone()
	}
	return out
}

// Attachment is an opaque reference to an uploaded file. The engine
// stores and returns these; it never touches their bytes.
type Attachment struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Type       string    `json:"type"`
	MimeType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Comment is one entry in a thread. Comments are append-only.
type Comment struct {
	ID          string       `json:"id"`
	AuthorID    string       `json:"author_id"`
	Body        string       `json:"body"`
	CreatedAt   time.Time    `json:"created_at"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Clone returns a deep copy of the comment.
func (c Comment) Clone() Comment {
	out := c
	if c.Attachments != nil {
		out.Attachments = make([]Attachment, len(c.Attachments))
		copy(out.Attachments, c.Attachments)
	}
	return out
}

// ThreadState is the open/resolved lifecycle state. Both transitions are
// reviewer-triggered and reversible; there is no terminal state.
type ThreadState string

const (
	ThreadOpen     ThreadState = "open"
	ThreadResolved ThreadState = "resolved"
)

// Thread groups comments and shapes anchored to a time range. Chip is
// the stable display number: first thread gets 1, then max+1, never
// reused even after deletion.
type Thread struct {
	ID        string      `json:"id"`
	ClipID    string      `json:"clip_id"`
	Chip      int         `json:"chip"`
	State     ThreadState `json:"state"`
	TStartMS  int64       `json:"t_start_ms"`
	TEndMS    *int64      `json:"t_end_ms,omitempty"`
	Shapes    []Shape     `json:"shapes,omitempty"`
	Comments  []Comment   `json:"comments"`
	Round     int         `json:"round"`
	CreatedAt time.Time   `json:"created_at"`
}

// Clone returns a deep copy of the thread, suitable for snapshotting
// before an optimistic mutation.
func (t Thread) Clone() Thread {
	out := t
	if t.TEndMS != nil {
		end := *t.TEndMS
		out.TEndMS = &end
	}
	out.Shapes = CloneShapes(t.Shapes)
	if t.Comments != nil {
		out.Comments = make([]Comment, len(t.Comments))
		for i, c := range t.Comments {
			out.Comments[i] = c.Clone()
		}
	}
	return out
}

// CloneThreads deep-copies a thread list.
func CloneThreads(threads []Thread) []Thread {
	if threads == nil {
		return nil
	}
	out := make([]Thread, len(threads))
	for i, t := range threads {
		out[i] = t.Clone()
	}
	return out
}

// Annotation is one reviewer mark bound to a single video instant: the
// shapes drawn over a paused frame plus the comment typed alongside.
// Saving an annotation is atomic; shapes, comment, and timestamp are
// persisted together or not at all.
type Annotation struct {
	ID            string       `json:"id"`
	ClipID        string       `json:"clip_id"`
	TimestampMS   int64        `json:"timestamp_ms"`
	Shapes        []Shape      `json:"shapes,omitempty"`
	Comment       string       `json:"comment,omitempty"`
	Attachments   []Attachment `json:"attachments,omitempty"`
	ScreenshotURL string       `json:"screenshot_url,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Degenerate reports whether the annotation carries neither shapes nor a
// comment. Such annotations are accepted but flagged so the host UI can
// decide whether to discard them.
func (a Annotation) Degenerate() bool {
	return len(a.Shapes) == 0 && a.Comment == ""
}

// AssetStatus is the review verdict on a deliverable.
type AssetStatus string

const (
	StatusInReview AssetStatus = "in_review"
	StatusApproved AssetStatus = "approved"
	StatusRejected AssetStatus = "rejected"
)

// Valid reports whether s is a known asset status.
func (s AssetStatus) Valid() bool {
	switch s {
	case StatusInReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// RoundRecord is a closed feedback round: the resolved threads frozen
// when the deliverable was resent. History is immutable; closed rounds
// are only ever viewed.
type RoundRecord struct {
	Round    int       `json:"round"`
	ClosedAt time.Time `json:"closed_at"`
	Threads  []Thread  `json:"threads"`
}
