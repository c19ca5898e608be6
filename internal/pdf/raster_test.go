package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngImage(t *testing.T, w, h int) model.Image {
	t.Helper()
	src := image.NewGray(image.Rect(0, 0, w, h))
	src.SetGray(0, 0, color.Gray{Y: 200})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))
	return model.Image{Reader: bytes.NewReader(buf.Bytes()), Name: "scan", FileType: "png", Width: w, Height: h}
}

func TestLargestImage(t *testing.T) {
	_, ok := largestImage(nil)
	assert.False(t, ok)

	images := map[int]model.Image{
		4: {Name: "logo", Width: 50, Height: 20},
		9: {Name: "scan", Width: 1700, Height: 2200},
		2: {Name: "stamp", Width: 100, Height: 100},
	}
	best, ok := largestImage(images)
	require.True(t, ok)
	assert.Equal(t, "scan", best.Name)
}

func TestDecodeImage(t *testing.T) {
	img, err := decodeImage(pngImage(t, 40, 30))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())

	_, err = decodeImage(model.Image{Name: "empty"})
	assert.Error(t, err)

	_, err = decodeImage(model.Image{Reader: bytes.NewReader([]byte("junk")), FileType: "jpx"})
	assert.Error(t, err)
}

func TestScaleImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 50))

	scaled := scaleImage(src, 300, 150)
	assert.Equal(t, image.Rect(0, 0, 300, 150), scaled.Bounds())

	assert.Same(t, src, scaleImage(src, 100, 50).(*image.RGBA))
	assert.Same(t, src, scaleImage(src, 0, 10).(*image.RGBA))
}
