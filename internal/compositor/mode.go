package compositor

import (
	"fmt"
	"math"
)

// ImageMode is how a background image is scaled into the canvas.
type ImageMode string

const (
	// AspectFit shows the whole image, shrinking it if needed. Never upscales.
	AspectFit ImageMode = "aspectFit"
	// AspectFill covers the whole canvas; the image may overflow.
	AspectFill ImageMode = "aspectFill"
	// WidthFix matches the canvas width.
	WidthFix ImageMode = "widthFix"
	// HeightFix matches the canvas height.
	HeightFix ImageMode = "heightFix"
)

// ImageModes lists the modes in picker order.
var ImageModes = []ImageMode{AspectFit, AspectFill, WidthFix, HeightFix}

// ParseImageMode parses a mode name.
func ParseImageMode(s string) (ImageMode, error) {
	for _, m := range ImageModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown image mode %q", s)
}

// Placement is the destination rectangle of an image on the canvas.
type Placement struct {
	X, Y          float64
	Width, Height float64
}

// Fit places an imgW×imgH image centred on a canvasW×canvasH canvas.
// Unknown modes behave like AspectFit.
func Fit(canvasW, canvasH, imgW, imgH float64, mode ImageMode) Placement {
	var dw, dh float64
	switch mode {
	case AspectFill:
		s := math.Max(canvasW/imgW, canvasH/imgH)
		dw, dh = s*imgW, s*imgH
	case WidthFix:
		dw, dh = canvasW, canvasW/imgW*imgH
	case HeightFix:
		dw, dh = canvasH/imgH*imgW, canvasH
	default:
		if imgW <= canvasW && imgH <= canvasH {
			dw, dh = imgW, imgH
		} else {
			s := math.Min(canvasW/imgW, canvasH/imgH)
			dw, dh = s*imgW, s*imgH
		}
	}
	return Placement{
		X:      (canvasW - dw) / 2,
		Y:      (canvasH - dh) / 2,
		Width:  dw,
		Height: dh,
	}
}
