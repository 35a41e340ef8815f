package geometry_test

import (
	"fmt"
	"testing"

	"github.com/frameproof/frameproof/internal/domain/geometry"
	"github.com/frameproof/frameproof/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const tolerance = 1e-6

func pathFixture() model.Shape {
	return model.Shape{
		ID:   "s-path",
		Kind: model.ShapePath,
		Points: []model.Point{
			{X: 0, Y: 0},
			{X: 320, Y: 180},
			{X: 1919, Y: 1079},
		},
		Color:       "#ff3b30",
		StrokeWidth: 4,
	}
}

func circleFixture() model.Shape {
	return model.Shape{
		ID:     "s-circle",
		Kind:   model.ShapeCircle,
		Points: []model.Point{{X: 100, Y: 100}, {X: 130, Y: 100}},
		Color:  "#34c759",
	}
}

func TestNormalizeDenormalizeRoundTrip(t *testing.T) {
	Convey("Given shapes drawn in pixel space", t, func() {
		fixtures := []model.Shape{pathFixture(), circleFixture()}
		dims := [][2]float64{{1920, 1080}, {800, 450}, {1280, 720}, {640, 480}}

		for _, s := range fixtures {
			for _, d := range dims {
				w, h := d[0], d[1]

				Convey(fmt.Sprintf("When round-tripping %s through a %.0fx%.0f frame", s.ID, w, h), func() {
					normalized, err := geometry.Normalize(s, w, h)
					So(err, ShouldBeNil)
					back, err := geometry.Denormalize(normalized, w, h)
					So(err, ShouldBeNil)

					Convey("Then every point should return to its original position", func() {
						So(len(back.Points), ShouldEqual, len(s.Points))
						for i := range s.Points {
							So(back.Points[i].X, ShouldAlmostEqual, s.Points[i].X, tolerance)
							So(back.Points[i].Y, ShouldAlmostEqual, s.Points[i].Y, tolerance)
						}
					})

					Convey("Then styling should survive untouched", func() {
						So(back.Color, ShouldEqual, s.Color)
						So(back.StrokeWidth, ShouldEqual, s.StrokeWidth)
					})
				})
			}
		}
	})
}

func TestScaleInvariance(t *testing.T) {
	Convey("Given a shape normalized against a 1920x1080 frame", t, func() {
		normalized, err := geometry.Normalize(pathFixture(), 1920, 1080)
		So(err, ShouldBeNil)

		Convey("When denormalizing onto full and half-size surfaces", func() {
			full, err := geometry.Denormalize(normalized, 1920, 1080)
			So(err, ShouldBeNil)
			half, err := geometry.Denormalize(normalized, 960, 540)
			So(err, ShouldBeNil)

			Convey("Then the half-size projection is exactly half of the full one", func() {
				for i := range full.Points {
					So(half.Points[i].X, ShouldAlmostEqual, full.Points[i].X/2, tolerance)
					So(half.Points[i].Y, ShouldAlmostEqual, full.Points[i].Y/2, tolerance)
				}
			})
		})
	})
}

func TestNormalizeDoesNotClamp(t *testing.T) {
	Convey("Given a stroke that overdraws the frame edge", t, func() {
		s := model.Shape{
			Kind:   model.ShapePath,
			Points: []model.Point{{X: 1930, Y: -4}},
		}

		normalized, err := geometry.Normalize(s, 1920, 1080)
		So(err, ShouldBeNil)

		Convey("Then fractional coordinates may exit [0,1]", func() {
			So(normalized.Points[0].X, ShouldBeGreaterThan, 1)
			So(normalized.Points[0].Y, ShouldBeLessThan, 0)
		})
	})
}

func TestZeroDimensionDeferral(t *testing.T) {
	Convey("Given an unmeasured surface", t, func() {
		s := circleFixture()

		Convey("When normalizing against zero dimensions", func() {
			_, err := geometry.Normalize(s, 0, 1080)
			So(err, ShouldEqual, geometry.ErrZeroDimensions)
		})

		Convey("When denormalizing against negative dimensions", func() {
			_, err := geometry.Denormalize(s, 800, -1)
			So(err, ShouldEqual, geometry.ErrZeroDimensions)
		})
	})
}

func TestUnknownShapeKind(t *testing.T) {
	Convey("Given a shape outside the closed variant set", t, func() {
		s := model.Shape{Kind: model.ShapeKind("polygon"), Points: []model.Point{{X: 1, Y: 1}}}

		_, err := geometry.Normalize(s, 1920, 1080)

		Convey("Then normalize should reject it", func() {
			So(err, ShouldEqual, geometry.ErrUnknownShapeKind)
		})
	})
}

func TestOverlayBox(t *testing.T) {
	Convey("Given a 16:9 video inside various containers", t, func() {
		Convey("When the container is wider than the video", func() {
			box, err := geometry.OverlayBox(2000, 900, 1920, 1080)
			So(err, ShouldBeNil)

			Convey("Then the video is pillarboxed and centered", func() {
				So(box.Height, ShouldAlmostEqual, 900, tolerance)
				So(box.Width, ShouldAlmostEqual, 1600, tolerance)
				So(box.Left, ShouldAlmostEqual, 200, tolerance)
				So(box.Top, ShouldAlmostEqual, 0, tolerance)
			})
		})

		Convey("When the container is taller than the video", func() {
			box, err := geometry.OverlayBox(1600, 1200, 1920, 1080)
			So(err, ShouldBeNil)

			Convey("Then the video is letterboxed and centered", func() {
				So(box.Width, ShouldAlmostEqual, 1600, tolerance)
				So(box.Height, ShouldAlmostEqual, 900, tolerance)
				So(box.Left, ShouldAlmostEqual, 0, tolerance)
				So(box.Top, ShouldAlmostEqual, 150, tolerance)
			})
		})

		Convey("When the container is unmeasured", func() {
			_, err := geometry.OverlayBox(0, 0, 1920, 1080)
			So(err, ShouldEqual, geometry.ErrZeroDimensions)
		})
	})
}
