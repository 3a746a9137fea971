package render

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ellipsis marks truncated labels.
const ellipsis = "…"

var (
	fontOnce   sync.Once
	fontErr    error
	parsedFont *opentype.Font

	faceMu    sync.Mutex
	faceCache = map[int]font.Face{}
)

// face returns a cached Go Regular face at the given pixel size.
func face(px int) (font.Face, error) {
	fontOnce.Do(func() {
		parsedFont, fontErr = opentype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("render: parse font: %w", fontErr)
	}
	faceMu.Lock()
	defer faceMu.Unlock()
	if f, ok := faceCache[px]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(parsedFont, &opentype.FaceOptions{
		Size:    float64(px),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("render: face %dpx: %w", px, err)
	}
	faceCache[px] = f
	return f, nil
}

// drawText draws text horizontally centered with its baseline at y,
// truncating with an ellipsis when wider than maxWidth. It returns the
// covered rectangle.
func drawText(dst *image.RGBA, text string, fc font.Face, y, maxWidth int) image.Rectangle {
	text = truncate(text, fc, maxWidth)
	width := font.MeasureString(fc, text).Ceil()
	x := (dst.Bounds().Dx() - width) / 2
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: fc,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
	m := fc.Metrics()
	return image.Rect(x, y-m.Ascent.Ceil(), x+width, y+m.Descent.Ceil())
}

// truncate shortens text until it fits maxWidth, appending an ellipsis. Text
// is never allowed to overflow the display.
func truncate(text string, fc font.Face, maxWidth int) string {
	if font.MeasureString(fc, text).Ceil() <= maxWidth {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if font.MeasureString(fc, candidate).Ceil() <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}
