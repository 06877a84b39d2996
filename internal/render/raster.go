package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
)

// ErrFrameGeometry reports a captured frame whose size differs from the
// configured viewport.
var ErrFrameGeometry = errors.New("frame geometry mismatch")

// convertFrame turns a PNG screenshot into the requested frame format.
func convertFrame(data []byte, format string, width, height int) ([]byte, error) {
	if format == FormatPNG {
		cfg, err := png.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode screenshot header: %w", err)
		}
		if cfg.Width != width || cfg.Height != height {
			return nil, fmt.Errorf("%w: captured %dx%d, want %dx%d", ErrFrameGeometry, cfg.Width, cfg.Height, width, height)
		}
		return data, nil
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != width || bounds.Dy() != height {
		return nil, fmt.Errorf("%w: captured %dx%d, want %dx%d", ErrFrameGeometry, bounds.Dx(), bounds.Dy(), width, height)
	}
	return rawRGBA(img), nil
}

// rawRGBA returns tightly packed, non-premultiplied RGBA bytes.
func rawRGBA(img image.Image) []byte {
	bounds := img.Bounds()
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Stride == bounds.Dx()*4 && bounds.Min == (image.Point{}) {
		return nrgba.Pix
	}
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst.Pix
}
