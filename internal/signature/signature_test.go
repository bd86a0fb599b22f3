package signature

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func canvas(t *testing.T, w, h int, strokes ...image.Point) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for _, p := range strokes {
		img.Set(p.X, p.Y, color.NRGBA{R: 10, G: 10, B: 40, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return DataURL(buf.Bytes())
}

func TestCaptureTrimsToInk(t *testing.T) {
	payload := canvas(t, 200, 80, image.Pt(20, 10), image.Pt(59, 39), image.Pt(40, 25))

	sig, err := Capture(payload)
	require.NoError(t, err)
	assert.Equal(t, 40, sig.Width)
	assert.Equal(t, 30, sig.Height)
	assert.Len(t, sig.Digest, 64)

	img, err := png.Decode(bytes.NewReader(sig.PNG))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())
}

func TestCaptureBlankCanvas(t *testing.T) {
	_, err := Capture(canvas(t, 120, 40))
	assert.True(t, errors.Is(err, ErrEmpty))
	assert.True(t, IsBlank(canvas(t, 120, 40)))
}

func TestWhiteBackgroundIsNotInk(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 30, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 30; x++ {
			img.Set(x, y, color.White)
		}
	}
	img.Set(5, 7, color.Black)

	bounds, ok := InkBounds(img)
	require.True(t, ok)
	assert.Equal(t, image.Rect(5, 7, 6, 8), bounds)
}

func TestCaptureRejectsMalformedPayloads(t *testing.T) {
	_, err := Capture("")
	assert.True(t, errors.Is(err, ErrEmpty))

	_, err = Capture("data:image/jpeg;base64,AAAA")
	assert.True(t, errors.Is(err, ErrPayload))

	_, err = Capture("data:image/png;base64,not-base64!!")
	assert.True(t, errors.Is(err, ErrPayload))

	_, err = Capture(DataURL([]byte("not a png")))
	assert.True(t, errors.Is(err, ErrPayload))
}

func TestDigestIsStable(t *testing.T) {
	payload := canvas(t, 50, 50, image.Pt(10, 10), image.Pt(20, 30))
	a, err := Capture(payload)
	require.NoError(t, err)
	b, err := Capture(payload)
	require.NoError(t, err)
	assert.Equal(t, a.Digest, b.Digest)
}
