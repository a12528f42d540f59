package imaging

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// Working resolution of the pipeline. Every accepted frame is forced to
// this size, aspect ratio is not preserved.
const (
	FrameWidth  = 1280
	FrameHeight = 720
)

var ErrDecode = errors.New("cannot decode image data")

// Normalize decodes raw upload bytes and resizes the result to the fixed
// working resolution.
func Normalize(raw []byte) (*image.RGBA, error) {
	if len(raw) == 0 {
		return nil, ErrDecode
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, ErrDecode
	}

	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, ErrDecode
	}

	dst := image.NewRGBA(image.Rect(0, 0, FrameWidth, FrameHeight))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)

	return dst, nil
}

// Crop returns the sub-image covered by the given box, clamped to the
// frame bounds.
func Crop(img *image.RGBA, x1, y1, x2, y2 int) (image.Image, error) {
	rect := image.Rect(x1, y1, x2, y2).Intersect(img.Bounds())
	if rect.Empty() {
		return nil, errors.New("crop region is outside the frame")
	}

	return img.SubImage(rect), nil
}

func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
