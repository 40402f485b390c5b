package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(w, h, color.RGBA{255, 0, 0, 255}), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(w, h, color.RGBA{0, 0, 255, 255})))
	return buf.Bytes()
}

func TestProcessFormats(t *testing.T) {
	for name, data := range map[string][]byte{
		"jpeg": encodeJPEG(t, 100, 80),
		"png":  encodePNG(t, 100, 80),
	} {
		t.Run(name, func(t *testing.T) {
			photo, err := Process(bytes.NewReader(data), Options{})
			require.NoError(t, err)
			assert.Equal(t, "image/jpeg", photo.MIME)
			assert.Equal(t, 100, photo.Width)
			assert.Equal(t, 80, photo.Height)
			assert.NotEmpty(t, photo.Data)
		})
	}
}

func TestProcessDownscalesKeepingAspect(t *testing.T) {
	photo, err := Process(bytes.NewReader(encodeJPEG(t, 800, 400)), Options{MaxDimension: 200})
	require.NoError(t, err)
	assert.Equal(t, 200, photo.Width)
	assert.Equal(t, 100, photo.Height)

	img, _, err := image.Decode(bytes.NewReader(photo.Data))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestProcessTallImage(t *testing.T) {
	photo, err := Process(bytes.NewReader(encodePNG(t, 50, 300)), Options{MaxDimension: 150})
	require.NoError(t, err)
	assert.Equal(t, 25, photo.Width)
	assert.Equal(t, 150, photo.Height)
}

func TestProcessSmallImageNotUpscaled(t *testing.T) {
	photo, err := Process(bytes.NewReader(encodeJPEG(t, 50, 50)), Options{})
	require.NoError(t, err)
	assert.Equal(t, 50, photo.Width)
	assert.Equal(t, 50, photo.Height)
}

func TestProcessRejectsUnsupported(t *testing.T) {
	_, err := Process(bytes.NewReader([]byte("not an image")), Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Process(bytes.NewReader([]byte("GIF89a...")), Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestProcessRejectsOversized(t *testing.T) {
	data := encodePNG(t, 64, 64)
	_, err := Process(bytes.NewReader(data), Options{MaxBytes: int64(len(data) - 1)})
	assert.ErrorIs(t, err, ErrTooLarge)
}
