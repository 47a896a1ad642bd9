package screenshot

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Unsharp mask and contrast parameters.
const (
	unsharpRadius    = 1.5
	unsharpAmount    = 1.2
	unsharpThreshold = 2
	contrastPercent  = 5
)

// Enhance sharpens text edges, lifts contrast slightly and, when maxDim is
// positive, downscales so the longer side fits. The file is rewritten in
// place; on error it is left untouched.
func Enhance(path string, maxDim int) error {
	src, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}

	img := Unsharp(src, unsharpRadius, unsharpAmount, unsharpThreshold)
	img = imaging.AdjustContrast(img, contrastPercent)
	out := Downscale(img, maxDim)

	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return fmt.Errorf("save capture: %w", err)
	}
	return replace(path, out, format)
}

// replace encodes img next to path and renames it over path, so a failed
// write never truncates the original.
func replace(path string, img image.Image, format imaging.Format) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".enhance-*"+filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("save capture: %w", err)
	}
	tmp := f.Name()

	if err := imaging.Encode(f, img, format); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode capture: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("save capture: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("save capture: %w", err)
	}
	return nil
}

// Unsharp adds amount times the difference between the image and its
// Gaussian blur, for channel differences of at least threshold.
func Unsharp(src image.Image, sigma, amount float64, threshold int) *image.NRGBA {
	orig := imaging.Clone(src)
	blur := imaging.Blur(orig, sigma)
	out := image.NewNRGBA(orig.Bounds())

	for i := 0; i < len(orig.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			o := float64(orig.Pix[i+c])
			d := o - float64(blur.Pix[i+c])
			if math.Abs(d) >= float64(threshold) {
				o += amount * d
			}
			out.Pix[i+c] = clamp(o)
		}
		out.Pix[i+3] = orig.Pix[i+3]
	}
	return out
}

// Downscale fits img into maxDim on its longer side using Catmull-Rom.
func Downscale(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}
	scale := float64(maxDim) / float64(max(w, h))
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))

	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func clamp(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
