package waveform

import (
	"image"
	"image/color"
	"image/png"
	"io"
)

type gradientStop struct {
	offset float64
	color  color.RGBA
}

var gradient = []gradientStop{
	{0, color.RGBA{0xa8, 0x55, 0xf7, 0xff}},
	{0.5, color.RGBA{0xec, 0x48, 0x99, 0xff}},
	{1, color.RGBA{0xf9, 0x73, 0x16, 0xff}},
}

// colorAt returns the horizontal gradient color at x in [0,1].
func colorAt(x float64) color.RGBA {
	if x <= gradient[0].offset {
		return gradient[0].color
	}
	for i := 1; i < len(gradient); i++ {
		from, to := gradient[i-1], gradient[i]
		if x <= to.offset {
			f := (x - from.offset) / (to.offset - from.offset)
			return color.RGBA{
				R: lerp(from.color.R, to.color.R, f),
				G: lerp(from.color.G, to.color.G, f),
				B: lerp(from.color.B, to.color.B, f),
				A: 0xff,
			}
		}
	}
	return gradient[len(gradient)-1].color
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*f + 0.5)
}

// Render paints the frame bars onto a transparent width x height surface.
// Each bar is inset by 2px on both sides.
func Render(frame Frame, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if len(frame.Bars) == 0 || width <= 0 || height <= 0 {
		return img
	}

	barWidth := float64(width) / float64(len(frame.Bars))
	for i, bar := range frame.Bars {
		barHeight := int(bar*float64(height) + 0.5)
		if barHeight > height {
			barHeight = height
		}

		x0 := int(float64(i)*barWidth) + 2
		x1 := int(float64(i+1)*barWidth) - 2
		for x := x0; x < x1 && x < width; x++ {
			c := colorAt(float64(x) / float64(width))
			for y := height - barHeight; y < height; y++ {
				img.SetRGBA(x, y, c)
			}
		}
	}

	return img
}

func EncodePNG(w io.Writer, frame Frame, width, height int) error {
	return png.Encode(w, Render(frame, width, height))
}
