package transform

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// maxSourcePixels bounds the decoded bitmap of an upload, checked from the header before decoding.
const maxSourcePixels = 40_000_000

// decodeBounded decodes src after checking the dimensions in its header.
func decodeBounded(src []byte) (image.Image, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode source image: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxSourcePixels {
		return nil, format, fmt.Errorf("%w: %s image is %dx%d", ErrImageTooLarge, format, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, format, fmt.Errorf("failed to decode source image: %w", err)
	}

	return img, format, nil
}

// squarePNG decodes src and scales it to fit a size×size square, preserving
// the aspect ratio. The image is centered on a transparent canvas.
func squarePNG(src []byte, size int) ([]byte, error) {
	img, format, err := decodeBounded(src)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("source %s image has no pixels", format)
	}

	scale := min(float64(size)/float64(w), float64(size)/float64(h))
	dw := max(1, int(float64(w)*scale+0.5))
	dh := max(1, int(float64(h)*scale+0.5))

	offsetX := (size - dw) / 2
	offsetY := (size - dh) / 2

	canvas := image.NewNRGBA(image.Rect(0, 0, size, size))
	target := image.Rect(offsetX, offsetY, offsetX+dw, offsetY+dh)
	draw.CatmullRom.Scale(canvas, target, img, bounds, draw.Over, nil)

	return encodePNG(canvas)
}

// transparentMaskPNG returns a fully transparent size×size PNG, marking the
// whole frame as editable.
func transparentMaskPNG(size int) ([]byte, error) {
	return encodePNG(image.NewNRGBA(image.Rect(0, 0, size, size)))
}

// toPNG re-encodes src as PNG unless its declared type already is PNG.
func toPNG(src []byte, mimeType string) ([]byte, error) {
	if mimeType == "" || mimeType == pngMIMEType {
		return src, nil
	}

	img, _, err := decodeBounded(src)
	if err != nil {
		return nil, err
	}

	return encodePNG(img)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
