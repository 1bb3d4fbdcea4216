package matrixscan_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"rsc.io/qr"

	"github.com/ericlevine/matrixscan"
	"github.com/ericlevine/matrixscan/binarizer"
	"github.com/ericlevine/matrixscan/bitutil"

	// Import format packages to trigger init() registration.
	_ "github.com/ericlevine/matrixscan/qrcode"
)

// photo renders text as a PNG with a four module quiet zone and decodes it
// again, the way an image would arrive from disk.
func photo(t testing.TB, text string, level qr.Level, scale int) image.Image {
	t.Helper()
	code, err := qr.Encode(text, level)
	require.NoError(t, err)
	grid := bitutil.NewBitMatrix(code.Size + 8)
	for y := 0; y < code.Size; y++ {
		for x := 0; x < code.Size; x++ {
			if code.Black(x, y) {
				grid.Set(x+4, y+4)
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, binarizer.Image(grid, scale)))
	img, err := imaging.Decode(&buf)
	require.NoError(t, err)
	return img
}

func binarize(t testing.TB, img image.Image, name string) *bitutil.BitMatrix {
	t.Helper()
	b, err := binarizer.New(name, binarizer.NewLuminance(img))
	require.NoError(t, err)
	m, err := b.BlackMatrix()
	require.NoError(t, err)
	return m
}

var roundTrips = []struct {
	name  string
	text  string
	level qr.Level
}{
	{"numeric", "01234567890123456789", qr.L},
	{"alphanumeric", "HELLO WORLD $%*+-./:", qr.M},
	{"byte", "Hello, world! This is a byte mode test.", qr.Q},
	{"utf8", "héllo wörld, ünïcode", qr.H},
	{"url", "https://example.com/a/rather/long/path?with=query&and=more#fragment", qr.M},
}

func TestRoundTripThroughImage(t *testing.T) {
	for _, rt := range roundTrips {
		for _, bin := range []string{"global", "hybrid"} {
			t.Run(rt.name+"/"+bin, func(t *testing.T) {
				grid := binarize(t, photo(t, rt.text, rt.level, 4), bin)
				res, err := matrixscan.Decode(grid, nil)
				require.NoError(t, err)
				assert.Equal(t, rt.text, res.Text)
				assert.Equal(t, matrixscan.FormatQRCode, res.Format)
				assert.Equal(t, 0, res.ErrorsCorrected)
			})
		}
	}
}

func TestRoundTripRotatedImage(t *testing.T) {
	img := photo(t, "ROTATED 90", qr.M, 4)
	for _, turned := range []image.Image{imaging.Rotate90(img), imaging.Rotate180(img), imaging.Rotate270(img)} {
		res, err := matrixscan.Decode(binarize(t, turned, "hybrid"), nil)
		require.NoError(t, err)
		assert.Equal(t, "ROTATED 90", res.Text)
	}
}

func TestRoundTripDownscaledImage(t *testing.T) {
	img := photo(t, "downscaled", qr.M, 10)
	small := binarizer.Fit(img, img.Bounds().Dx()/2)
	require.Equal(t, img.Bounds().Dx()/2, small.Bounds().Dx())
	res, err := matrixscan.Decode(binarize(t, small, "hybrid"), &matrixscan.Hints{TryHarder: true})
	require.NoError(t, err)
	assert.Equal(t, "downscaled", res.Text)
}

func TestDecodeBatchImages(t *testing.T) {
	defer goleak.VerifyNone(t)

	texts := []string{"first", "second", "", "fourth"}
	grids := make([]matrixscan.BitGrid, len(texts))
	for i, text := range texts {
		if text == "" {
			grids[i] = bitutil.NewBitMatrix(120)
			continue
		}
		grids[i] = binarize(t, photo(t, text, qr.M, 3), "hybrid")
	}

	out, err := matrixscan.NewScanner(matrixscan.WithConcurrency(2)).DecodeBatch(context.Background(), grids, nil)
	require.NoError(t, err)
	for i, text := range texts {
		if text == "" {
			assert.ErrorIs(t, out[i].Err, matrixscan.ErrNotFound)
			continue
		}
		require.NoError(t, out[i].Err)
		assert.Equal(t, text, out[i].Result.Text)
	}
	assert.ErrorContains(t, matrixscan.FirstError(out), "grid 2")
}
