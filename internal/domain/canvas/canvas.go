// Package canvas implements the drawing surface: the interactive layer a
// reviewer draws on over a paused video frame.
//
// The surface accumulates shapes in render-space pixels while the reviewer
// works; pixels only leave the package through Complete, which normalizes
// everything to fractional space in one atomic step. Every discrete action
// pushes a snapshot onto a linear undo/redo history.
package canvas

import (
	"github.com/google/uuid"

	"github.com/frameproof/frameproof/internal/domain/geometry"
	"github.com/frameproof/frameproof/internal/domain/model"
)

// Tool identifies the active drawing tool. Exactly one is active at a time.
type Tool string

const (
	ToolFreehand  Tool = "freehand"
	ToolCircle    Tool = "circle"
	ToolRectangle Tool = "rectangle"
	ToolText      Tool = "text"
)

// Valid reports whether t is a known tool.
func (t Tool) Valid() bool {
	switch t {
	case ToolFreehand, ToolCircle, ToolRectangle, ToolText:
		return true
	}
	return false
}

// Default drawing configuration constants.
const (
	defaultColor       = "#ff3b30"
	defaultStrokeWidth = 4.0
	defaultShapeExtent = 40.0 // half-size in pixels for placed shapes
	defaultMaxHistory  = 100
)

// Surface captures freehand strokes, geometric shapes, and text placed by
// the reviewer. It is single-owner and not safe for concurrent use; the
// host binds one surface to one visible annotation at a time.
type Surface struct {
	tool        Tool
	shapes      []model.Shape
	stroke      *model.Shape // in-progress freehand path, nil between gestures
	color       string
	strokeWidth float64
	shapeExtent float64

	// history is a linear stack of shape-list snapshots; index points at
	// the current state. Bounded by maxHistory with oldest-first eviction.
	history    [][]model.Shape
	index      int
	maxHistory int

	newID func() string
}

// New creates an empty drawing surface.
func New(opts ...Option) *Surface {
	s := &Surface{
		tool:        ToolFreehand,
		color:       defaultColor,
		strokeWidth: defaultStrokeWidth,
		shapeExtent: defaultShapeExtent,
		maxHistory:  defaultMaxHistory,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.history = [][]model.Shape{nil} // initial empty state
	s.index = 0
	return s
}

// Begin sets the active tool. An unknown tool is rejected; the current
// tool stays active.
func (s *Surface) Begin(tool Tool) error {
	if !tool.Valid() {
		return ErrUnknownTool
	}
	s.abortStroke()
	s.tool = tool
	return nil
}

// SetStyle changes the color and stroke width applied to subsequent shapes.
func (s *Surface) SetStyle(color string, strokeWidth float64) {
	if color != "" {
		s.color = color
	}
	if strokeWidth > 0 {
		s.strokeWidth = strokeWidth
	}
}

// AddFreehandPoint streams one pointer position into the current freehand
// gesture. Ignored unless the freehand tool is active. The path is only
// committed to history by EndStroke (pointer release).
func (s *Surface) AddFreehandPoint(pt model.Point) {
	if s.tool != ToolFreehand {
		return
	}
	if s.stroke == nil {
		s.stroke = &model.Shape{
			ID:          s.newID(),
			Kind:        model.ShapePath,
			Color:       s.color,
			StrokeWidth: s.strokeWidth,
		}
	}
	s.stroke.Points = append(s.stroke.Points, pt)
}

// EndStroke commits the in-progress freehand path as one undoable action.
// A release without movement (empty path) is dropped silently.
func (s *Surface) EndStroke() {
	if s.stroke == nil || len(s.stroke.Points) == 0 {
		s.stroke = nil
		return
	}
	s.shapes = append(model.CloneShapes(s.shapes), *s.stroke)
	s.stroke = nil
	s.pushHistory()
}

// PlaceShape inserts a default-size shape of the given tool centered at
// anchor, immediately committed as one undoable action. Freehand is not a
// placeable tool.
func (s *Surface) PlaceShape(tool Tool, anchor model.Point) error {
	if !tool.Valid() {
		return ErrUnknownTool
	}
	if tool == ToolFreehand {
		return ErrNotPlaceable
	}
	s.abortStroke()

	shape := model.Shape{
		ID:          s.newID(),
		Color:       s.color,
		StrokeWidth: s.strokeWidth,
	}
	e := s.shapeExtent
	switch tool {
	case ToolCircle:
		shape.Kind = model.ShapeCircle
		shape.Points = []model.Point{anchor, {X: anchor.X + e, Y: anchor.Y}}
	case ToolRectangle:
		shape.Kind = model.ShapeRect
		shape.Points = []model.Point{
			{X: anchor.X - e, Y: anchor.Y - e},
			{X: anchor.X + e, Y: anchor.Y + e},
		}
	case ToolText:
		shape.Kind = model.ShapeText
		shape.Points = []model.Point{anchor}
	case ToolFreehand:
		// unreachable; guarded above
	}

	s.shapes = append(model.CloneShapes(s.shapes), shape)
	s.pushHistory()
	return nil
}

// SetText attaches text to a previously placed text shape. Committed as
// its own undoable action. Unknown ids are ignored.
func (s *Surface) SetText(shapeID, text string) {
	for i := range s.shapes {
		if s.shapes[i].ID == shapeID && s.shapes[i].Kind == model.ShapeText {
			s.shapes = model.CloneShapes(s.shapes)
			s.shapes[i].Text = text
			s.pushHistory()
			return
		}
	}
}

// Undo steps back one history entry. A no-op at the bottom of history.
func (s *Surface) Undo() {
	if s.index == 0 {
		return
	}
	s.abortStroke()
	s.index--
	s.shapes = model.CloneShapes(s.history[s.index])
}

// Redo steps forward one history entry. A no-op at the top of history.
func (s *Surface) Redo() {
	if s.index >= len(s.history)-1 {
		return
	}
	s.abortStroke()
	s.index++
	s.shapes = model.CloneShapes(s.history[s.index])
}

// CanUndo reports whether Undo would change state.
func (s *Surface) CanUndo() bool { return s.index > 0 }

// CanRedo reports whether Redo would change state.
func (s *Surface) CanRedo() bool { return s.index < len(s.history)-1 }

// Clear removes all shapes as one undoable action, so Undo after Clear
// restores the prior state.
func (s *Surface) Clear() {
	s.abortStroke()
	if len(s.shapes) == 0 {
		return
	}
	s.shapes = nil
	s.pushHistory()
}

// Shapes returns a copy of the current render-space shape list.
func (s *Surface) Shapes() []model.Shape {
	return model.CloneShapes(s.shapes)
}

// Complete finalizes the drawing session: the current shape list is
// normalized to fractional space against the actual pixel dimensions of
// the surface the reviewer drew on.
//
// Returns ErrSurfaceNotReady when the surface was never measured (zero
// dimensions) and ErrNothingDrawn when no shapes exist; both leave the
// surface intact so the host can retry or cancel.
func (s *Surface) Complete(frameWidth, frameHeight float64) ([]model.Shape, error) {
	s.abortStroke()
	if frameWidth <= 0 || frameHeight <= 0 {
		return nil, ErrSurfaceNotReady
	}
	if len(s.shapes) == 0 {
		return nil, ErrNothingDrawn
	}
	normalized, err := geometry.NormalizeAll(s.shapes, frameWidth, frameHeight)
	if err != nil {
		return nil, err
	}
	return normalized, nil
}

// Cancel discards all state without emitting anything. The surface is
// reset to its initial empty history.
func (s *Surface) Cancel() {
	s.stroke = nil
	s.shapes = nil
	s.history = [][]model.Shape{nil}
	s.index = 0
}

// abortStroke drops an uncommitted freehand gesture.
func (s *Surface) abortStroke() {
	s.stroke = nil
}

// pushHistory records the current shape list, truncating any redo tail.
func (s *Surface) pushHistory() {
	s.history = append(s.history[:s.index+1], model.CloneShapes(s.shapes))
	s.index++

	if len(s.history) > s.maxHistory {
		drop := len(s.history) - s.maxHistory
		s.history = s.history[drop:]
		s.index -= drop
	}
}
