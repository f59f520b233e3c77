package media

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

const (
	MaxAvatarSide = 1024
	JPEGQuality   = 80
)

// CompressImage scales the image so its longest side is at most MaxAvatarSide and
// re-encodes it as JPEG. Input that cannot be decoded is returned unchanged.
func CompressImage(data []byte) ([]byte, string) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, ""
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}

	img := src
	if longest > MaxAvatarSide {
		scale := float64(MaxAvatarSide) / float64(longest)
		nw, nh := int(float64(w)*scale), int(float64(h)*scale)
		if nw < 1 {
			nw = 1
		}
		if nh < 1 {
			nh = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return data, ""
	}
	return buf.Bytes(), "image/jpeg"
}
