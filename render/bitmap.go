package render

import (
	"fmt"
	"image"
	"os"

	// Registered decoders. Decoding is an opaque capability; the formats
	// below cover what launchers actually ship as icons.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

// LoadBitmap decodes the image at path. The decoded bitmap is immutable
// once returned; callers pass it into a Request by reference.
func LoadBitmap(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("render: open %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("render: decode %s: %w", path, err)
	}
	return img, nil
}
