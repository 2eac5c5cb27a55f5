// Package imaging produces optimized image renditions (avatars, thumbnails).
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoding

	"golang.org/x/image/draw"
)

// AvatarSize is the square edge of the optimized avatar rendition.
const AvatarSize = 256

// ResizeJPEG decodes src (JPEG or PNG), scales it to fit within
// maxW x maxH preserving aspect ratio, and re-encodes as JPEG.
func ResizeJPEG(src []byte, maxW, maxH int, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > maxW || h > maxH {
		ratio := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
		w = int(float64(w) * ratio)
		h = int(float64(h) * ratio)
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return out.Bytes(), nil
}

// Avatar produces the standard 256x256-bounded avatar rendition.
func Avatar(src []byte) ([]byte, error) {
	return ResizeJPEG(src, AvatarSize, AvatarSize, 80)
}
