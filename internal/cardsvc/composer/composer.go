package composer

import (
	"context"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"

	"github.com/avvvet/card-services/internal/cardsvc/models"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	CardWidth  = 1024
	CardHeight = 640

	FontSize = 38
	// TextBaseline is the y of the identifier text baseline.
	TextBaseline = 280
	// BarcodeTop is the y of the barcode's top edge.
	BarcodeTop = 300
)

// Composer lays a card number and its barcode over a background template.
type Composer struct {
	TemplatePath string
	font         *opentype.Font
}

// New parses fontData (a TTF/OTF file) at FontSize. Nil fontData selects
// the embedded Go Regular face.
func New(templatePath string, fontData []byte) (*Composer, error) {
	if fontData == nil {
		fontData = goregular.TTF
	}

	f, err := opentype.Parse(fontData)
	if err != nil {
		return nil, errors.Wrap(err, "parse font")
	}

	c := &Composer{TemplatePath: templatePath, font: f}
	face, err := c.newFace()
	if err != nil {
		return nil, err
	}
	face.Close()

	return c, nil
}

// newFace returns a face for one composition; faces are not safe for
// concurrent use.
func (c *Composer) newFace() (font.Face, error) {
	face, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create font face")
	}
	return face, nil
}

// NewFromFile reads the font at fontPath; an empty path uses the embedded face.
func NewFromFile(templatePath, fontPath string) (*Composer, error) {
	if fontPath == "" {
		return New(templatePath, nil)
	}
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, errors.Wrapf(err, "read font %s", fontPath)
	}
	return New(templatePath, data)
}

// Compose writes the finished card to outputPath and removes the barcode
// file. The barcode file is removed on any failure after it was loaded.
func (c *Composer) Compose(ctx context.Context, barcodePath, cardNumber, outputPath string) (string, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, CardWidth, CardHeight))

	template, err := loadImage(c.TemplatePath)
	if err != nil {
		return "", models.CompositionError("load template", err)
	}
	draw.CatmullRom.Scale(canvas, canvas.Bounds(), template, template.Bounds(), draw.Over, nil)

	face, err := c.newFace()
	if err != nil {
		return "", models.CompositionError("load font", err)
	}
	defer face.Close()
	drawCentered(canvas, face, cardNumber)

	code, err := loadImage(barcodePath)
	if err != nil {
		return "", models.CompositionError("load barcode", err)
	}
	defer removeArtifact(barcodePath)

	if err := ctx.Err(); err != nil {
		return "", models.CompositionError("compose card", err)
	}

	b := code.Bounds()
	x := (CardWidth - b.Dx()) / 2
	draw.Draw(canvas, image.Rect(x, BarcodeTop, x+b.Dx(), BarcodeTop+b.Dy()), code, b.Min, draw.Over)

	if err := savePNG(outputPath, canvas); err != nil {
		return "", models.CompositionError("save card", err)
	}

	log.WithFields(log.Fields{"card_id": cardNumber, "path": outputPath}).Debug("card composed")
	return outputPath, nil
}

func drawCentered(dst draw.Image, face font.Face, text string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: face,
	}
	width := d.MeasureString(text).Ceil()
	d.Dot = fixed.P((CardWidth-width)/2, TextBaseline)
	d.DrawString(text)
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return img, nil
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func removeArtifact(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warnf("unable to remove barcode artifact %s: %s", path, err)
	}
}
