// enhance.go - Image preprocessing for better chart readability

package processor

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
)

// EnhanceForOCR boosts a forecast chart screenshot for text recognition:
// resize to a bounded dimension, sharpen, raise contrast and brightness,
// grayscale, then a gamma pass so small digits stay legible.
func EnhanceForOCR(data []byte, mimeType string, maxDimension int) ([]byte, string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if maxDimension > 0 && (width > maxDimension || height > maxDimension) {
		if width > height {
			img = imaging.Resize(img, maxDimension, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, maxDimension, imaging.Lanczos)
		}
	}

	img = imaging.Sharpen(img, 2.5)
	img = imaging.AdjustContrast(img, 40)
	img = imaging.AdjustBrightness(img, 15)
	img = imaging.Grayscale(img)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.AdjustGamma(img, 1.1)

	var buf bytes.Buffer
	outMime := "image/jpeg"
	switch mimeType {
	case "image/png":
		err = png.Encode(&buf, img)
		outMime = "image/png"
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95})
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode processed image: %w", err)
	}

	return buf.Bytes(), outMime, nil
}
