package render

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// scalePadded scales src into a size x size square, preserving aspect ratio
// by padding with white. The source is never cropped.
func scalePadded(src image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	sb := src.Bounds()
	if sb.Dx() <= 0 || sb.Dy() <= 0 {
		return dst
	}
	scale := float64(size) / float64(sb.Dx())
	if s := float64(size) / float64(sb.Dy()); s < scale {
		scale = s
	}
	w := int(float64(sb.Dx()) * scale)
	h := int(float64(sb.Dy()) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	left := (size - w) / 2
	top := (size - h) / 2
	target := image.Rect(left, top, left+w, top+h)
	xdraw.NearestNeighbor.Scale(dst, target, src, sb, xdraw.Over, nil)
	return dst
}

// scaleFull stretches src to exactly fill dst, ignoring aspect ratio.
func scaleFull(dst *image.RGBA, src image.Image) {
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
}
