package geometry

// Box is a rectangle in container-relative pixels: the offsets and size
// the drawing canvas must adopt to exactly cover the rendered video.
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// OverlayBox computes the content box of a video letterboxed inside its
// element (object-fit: contain semantics). The video keeps its aspect
// ratio; the spare container dimension is split evenly into bars.
//
// Called after every resize or fullscreen change so the canvas overlay
// can be repositioned to match left/top/width/height of the picture.
func OverlayBox(containerW, containerH, videoW, videoH float64) (Box, error) {
	if containerW <= 0 || containerH <= 0 || videoW <= 0 || videoH <= 0 {
		return Box{}, ErrZeroDimensions
	}

	videoAspect := videoW / videoH
	containerAspect := containerW / containerH

	var box Box
	if containerAspect > videoAspect {
		// Pillarboxed: bars left and right.
		box.Height = containerH
		box.Width = containerH * videoAspect
		box.Left = (containerW - box.Width) / 2
		box.Top = 0
	} else {
		// Letterboxed: bars top and bottom.
		box.Width = containerW
		box.Height = containerW / videoAspect
		box.Left = 0
		box.Top = (containerH - box.Height) / 2
	}
	return box, nil
}
