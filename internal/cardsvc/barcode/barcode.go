package barcode

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/avvvet/card-services/internal/cardsvc/models"
	bc "github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultScale is the minimum width in pixels of one Code 128 module.
	DefaultScale = 3
	// DefaultBarHeight is 20mm at 72dpi multiplied by DefaultScale.
	DefaultBarHeight = 170
	// DefaultWidth is 99mm at 72dpi multiplied by DefaultScale.
	DefaultWidth = 842
)

// Encoder renders payloads as Code 128 PNG files in Dir. Human readable
// text is never drawn under the bars.
type Encoder struct {
	Dir       string
	Scale     int
	BarHeight int
	// Width is the rendered image width. Symbols wider than Width at Scale
	// keep their natural width.
	Width int
}

func NewEncoder(dir string) *Encoder {
	return &Encoder{
		Dir:       dir,
		Scale:     DefaultScale,
		BarHeight: DefaultBarHeight,
		Width:     DefaultWidth,
	}
}

// Path is where Encode writes payload. A non-empty token keeps concurrent
// issuances of the same payload from sharing a file.
func (e *Encoder) Path(payload, token string) string {
	name := payload + ".png"
	if token != "" {
		name = payload + "_" + token + ".png"
	}
	return filepath.Join(e.Dir, name)
}

// Encode renders payload and writes it to Path(payload, token).
func (e *Encoder) Encode(ctx context.Context, payload, token string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", models.EncodingError("encode barcode", err)
	}
	if payload == "" || filepath.Base(payload) != payload {
		return "", models.EncodingError("encode barcode", fmt.Errorf("payload %q is not usable as a file name", payload))
	}

	raw, err := e.Render(payload)
	if err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", models.EncodingError("encode barcode", err)
	}

	path := e.Path(payload, token)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return "", models.EncodingError("write barcode", errors.Wrapf(err, "path %s", path))
	}

	log.WithFields(log.Fields{"payload": payload, "path": path}).Debug("barcode written")
	return path, nil
}

// Render returns the PNG bytes for payload.
func (e *Encoder) Render(payload string) ([]byte, error) {
	code, err := code128.Encode(payload)
	if err != nil {
		return nil, models.EncodingError("encode barcode", errors.Wrapf(err, "payload %q", payload))
	}

	scale := e.Scale
	if scale < 1 {
		scale = 1
	}
	width := code.Bounds().Dx() * scale
	if e.Width > width {
		width = e.Width
	}
	scaled, err := bc.Scale(code, width, e.BarHeight)
	if err != nil {
		return nil, models.EncodingError("scale barcode", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, models.EncodingError("rasterize barcode", err)
	}
	return buf.Bytes(), nil
}
