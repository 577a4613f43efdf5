package main

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/gen2brain/jpegn"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Placeholder size for pages that fail to decode
const (
	errorBitmapWidth  = 400
	errorBitmapHeight = 300
)

// decodeBitmap decodes page data. JPEG goes through jpegn so EXIF
// orientation of scanned pages is honored, with image/jpeg as the fallback
// for streams jpegn rejects. Everything else, including pages whose
// extension lies about their format, uses the registered image decoders.
func decodeBitmap(data []byte, name string) (image.Image, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".jpg" || ext == ".jpeg" || isJPEG(data) {
		img, err := jpegn.Decode(bytes.NewReader(data), &jpegn.Options{
			ToRGBA:         true,
			UpsampleMethod: jpegn.CatmullRom,
			AutoRotate:     true,
		})
		if err == nil {
			return img, nil
		}
		if isJPEG(data) {
			debugLog("jpegn failed for %s, trying image/jpeg: %v", name, err)
			img, jerr := jpeg.Decode(bytes.NewReader(data))
			if jerr != nil {
				return nil, fmt.Errorf("decoding %s: %w", name, errors.Join(err, jerr))
			}
			return img, nil
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return img, nil
}

// isJPEG checks for the JPEG start-of-image marker
func isJPEG(data []byte) bool {
	return len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF
}

// loadBitmap reads and decodes a page
func loadBitmap(p ImagePath) (image.Image, error) {
	data, err := readPageData(p)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p.Path, err)
	}
	return decodeBitmap(data, p.Name())
}

// errorBitmap is the placeholder shown for a page that could not be decoded
func errorBitmap(width, height int) image.Image {
	if width <= 0 || height <= 0 {
		width, height = errorBitmapWidth, errorBitmapHeight
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	bg := color.RGBA{120, 30, 30, 255}
	border := color.RGBA{255, 255, 255, 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < 3 || y < 3 || x >= width-3 || y >= height-3 {
				img.SetRGBA(x, y, border)
			} else {
				img.SetRGBA(x, y, bg)
			}
		}
	}
	return img
}
