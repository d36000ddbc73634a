package linkpolicy

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"civic-pulse/internal/domain/poll"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 120, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(), nil))
	return buf.Bytes()
}

func dataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func TestPhotoValidator_Decode(t *testing.T) {
	v := NewPhotoValidator(0)
	assert.Equal(t, DefaultMaxPhotoBytes, v.MaxBytes)

	t.Run("png", func(t *testing.T) {
		data := pngBytes(t)
		photo, err := v.Decode(dataURL("image/png", data))
		require.NoError(t, err)
		assert.Equal(t, "image/png", photo.MIME)
		assert.Equal(t, data, photo.Data)
	})

	t.Run("jpg alias", func(t *testing.T) {
		photo, err := v.Decode(dataURL("image/jpg", jpegBytes(t)))
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", photo.MIME)
	})

	t.Run("declared type disagrees with content", func(t *testing.T) {
		_, err := v.Decode(dataURL("image/jpeg", pngBytes(t)))
		assert.ErrorIs(t, err, poll.ErrPhotoInvalid)
	})

	t.Run("type not allowed", func(t *testing.T) {
		_, err := v.Decode(dataURL("image/gif", []byte("GIF89a")))
		assert.ErrorIs(t, err, poll.ErrPhotoInvalid)
	})

	t.Run("too large", func(t *testing.T) {
		small := NewPhotoValidator(16)
		_, err := small.Decode(dataURL("image/png", pngBytes(t)))
		assert.ErrorIs(t, err, poll.ErrPhotoInvalid)
	})

	t.Run("malformed payloads", func(t *testing.T) {
		for _, payload := range []string{
			"https://example.com/a.png",
			"data:image/png;base64",
			"data:image/png,rawbytes",
			"data:image/png;base64,!!!not-base64!!!",
			"data:image/png;base64,",
		} {
			_, err := v.Decode(payload)
			assert.ErrorIs(t, err, poll.ErrPhotoInvalid, payload)
		}
	})
}
