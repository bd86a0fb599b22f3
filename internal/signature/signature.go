// Package signature turns captured drawing-surface exports into trimmed PNG
// signatures.
package signature

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/capilarmax/clinic-api/internal/model"
)

const dataURLPrefix = "data:image/png;base64,"

// Pixels whose alpha is at or below this are treated as untouched canvas.
const inkAlphaThreshold = 0x1000

// Channel value above which an opaque pixel counts as background white.
const whiteThreshold = 0xf000

var (
	ErrEmpty   = errors.New("signature is empty")
	ErrPayload = errors.New("signature is not a PNG data URL")
)

// Capture decodes a data URL (or bare base64 PNG) and returns the drawing
// trimmed to its ink bounds. A drawing with no ink yields ErrEmpty.
func Capture(payload string) (*model.Signature, error) {
	raw, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}

	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayload, err)
	}

	bounds, ok := InkBounds(img)
	if !ok {
		return nil, ErrEmpty
	}

	trimmed := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(trimmed, trimmed.Bounds(), img, bounds.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, trimmed); err != nil {
		return nil, fmt.Errorf("failed to encode signature: %w", err)
	}

	sum := blake2b.Sum256(buf.Bytes())
	return &model.Signature{
		PNG:    buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Digest: hex.EncodeToString(sum[:]),
	}, nil
}

// IsBlank reports whether payload carries no ink. Undecodable payloads are
// blank as well.
func IsBlank(payload string) bool {
	raw, err := decodePayload(payload)
	if err != nil {
		return true
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return true
	}
	_, ok := InkBounds(img)
	return !ok
}

// InkBounds returns the smallest rectangle containing every ink pixel.
func InkBounds(img image.Image) (image.Rectangle, bool) {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !isInk(img.At(x, y)) {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < minX || maxY < minY {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

func isInk(c color.Color) bool {
	r, g, b, a := c.RGBA()
	if a <= inkAlphaThreshold {
		return false
	}
	// RGBA is alpha-premultiplied; undo it before the white test.
	r, g, b = r*0xffff/a, g*0xffff/a, b*0xffff/a
	return !(r > whiteThreshold && g > whiteThreshold && b > whiteThreshold)
}

func decodePayload(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, ErrEmpty
	}
	if strings.HasPrefix(payload, "data:") {
		if !strings.HasPrefix(payload, dataURLPrefix) {
			return nil, ErrPayload
		}
		payload = strings.TrimPrefix(payload, dataURLPrefix)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayload, err)
	}
	return raw, nil
}

// DataURL renders a PNG as a data URL, the inverse of Capture's input form.
func DataURL(pngBytes []byte) string {
	return dataURLPrefix + base64.StdEncoding.EncodeToString(pngBytes)
}
