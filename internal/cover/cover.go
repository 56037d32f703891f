// Package cover turns a generated image into a model cover thumbnail.
package cover

import (
	"image"

	"github.com/disintegration/imaging"
)

// Prepare returns a new opaque image derived from img: alpha dropped, then
// optionally center-cropped to a square, then optionally downscaled so its
// longer side is maxSize. maxSize <= 0 disables downscaling. img is not
// modified.
func Prepare(img image.Image, squareCrop bool, maxSize int) *image.NRGBA {
	out := Opaque(img)
	if squareCrop {
		out = CenterSquare(out)
	}
	if maxSize > 0 {
		out = Fit(out, maxSize)
	}
	return out
}

// Opaque copies img into an NRGBA image anchored at (0,0) with every alpha
// set to 0xff. Color channels are kept as they were, so transparent areas show
// their stored color rather than being composited onto a background.
func Opaque(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// CenterSquare crops the largest centered square. Odd differences leave the
// extra pixel on the bottom/right.
func CenterSquare(img *image.NRGBA) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w == h {
		return img
	}
	side := min(w, h)
	left := (w - side) / 2
	top := (h - side) / 2
	origin := img.Bounds().Min
	return imaging.Crop(img, image.Rect(left, top, left+side, top+side).Add(origin))
}

// FitSize computes the size that scales (w, h) so its longer side is maxSize.
// The shorter side is rounded down, never below 1. Sizes already within
// maxSize are returned unchanged.
func FitSize(w, h, maxSize int) (int, int) {
	if maxSize <= 0 || max(w, h) <= maxSize {
		return w, h
	}
	if w >= h {
		return maxSize, max(1, h*maxSize/w)
	}
	return max(1, w*maxSize/h), maxSize
}

// Fit downscales img with a Lanczos filter so its longer side is maxSize.
func Fit(img *image.NRGBA, maxSize int) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	nw, nh := FitSize(w, h, maxSize)
	if nw == w && nh == h {
		return img
	}
	return imaging.Resize(img, nw, nh, imaging.Lanczos)
}
