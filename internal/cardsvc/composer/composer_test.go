package composer

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/avvvet/card-services/internal/cardsvc/barcode"
	"github.com/avvvet/card-services/internal/cardsvc/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplate(t *testing.T, dir string, w, h int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 240, G: 200, B: 60, A: 255})
		}
	}

	path := filepath.Join(dir, "template.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func decode(t *testing.T, path string) image.Image {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

func TestComposeProducesCardAndRemovesBarcode(t *testing.T) {
	dir := t.TempDir()
	c, err := New(writeTemplate(t, dir, 512, 320), nil)
	require.NoError(t, err)

	barcodePath, err := barcode.NewEncoder(dir).Encode(context.Background(), "456789012", "tok")
	require.NoError(t, err)

	out := filepath.Join(dir, "output_card_tok.png")
	got, err := c.Compose(context.Background(), barcodePath, "456789012", out)
	require.NoError(t, err)
	assert.Equal(t, out, got)
	assert.NoFileExists(t, barcodePath)

	card := decode(t, out)
	assert.Equal(t, CardWidth, card.Bounds().Dx())
	assert.Equal(t, CardHeight, card.Bounds().Dy())

	// the bars start at BarcodeTop and at least one pixel of the middle
	// row is black
	var dark bool
	for x := 0; x < CardWidth; x++ {
		r, g, b, _ := card.At(x, BarcodeTop+10).RGBA()
		if r == 0 && g == 0 && b == 0 {
			dark = true
			break
		}
	}
	assert.True(t, dark)

	// area above the text keeps the template color
	r, g, b, _ := card.At(5, 5).RGBA()
	assert.InDelta(t, 240*0x101, r, 0x300)
	assert.InDelta(t, 200*0x101, g, 0x300)
	assert.InDelta(t, 60*0x101, b, 0x300)
}

func TestComposeFailures(t *testing.T) {
	tests := []struct {
		name           string
		missingTpl     bool
		missingBarcode bool
	}{
		{name: "Given no template When composing Then composition fails", missingTpl: true},
		{name: "Given no barcode file When composing Then composition fails", missingBarcode: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tpl := filepath.Join(dir, "missing.png")
			if !tt.missingTpl {
				tpl = writeTemplate(t, dir, 64, 40)
			}
			c, err := New(tpl, nil)
			require.NoError(t, err)

			barcodePath := filepath.Join(dir, "none.png")
			if !tt.missingBarcode {
				barcodePath, err = barcode.NewEncoder(dir).Encode(context.Background(), "123", "")
				require.NoError(t, err)
			}

			out := filepath.Join(dir, "output_card.png")
			_, err = c.Compose(context.Background(), barcodePath, "123", out)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrComposition))
			assert.NoFileExists(t, out)
		})
	}
}

func TestComposeRemovesBarcodeWhenCancelledAfterLoad(t *testing.T) {
	dir := t.TempDir()
	c, err := New(writeTemplate(t, dir, 64, 40), nil)
	require.NoError(t, err)

	barcodePath, err := barcode.NewEncoder(dir).Encode(context.Background(), "123", "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Compose(ctx, barcodePath, "123", filepath.Join(dir, "output_card.png"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.NoFileExists(t, barcodePath)
}

func TestNewRejectsBadFont(t *testing.T) {
	_, err := New("template.png", []byte("not a font"))
	assert.Error(t, err)

	_, err = NewFromFile("template.png", filepath.Join(t.TempDir(), "Arial.ttf"))
	assert.Error(t, err)
}
