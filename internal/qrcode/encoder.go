// Package qrcode renders verification links into PNG images.
package qrcode

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	goqrcode "github.com/skip2/go-qrcode"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// MaxContentLength is the byte capacity of a version 40 symbol at the
// highest recovery level.
const MaxContentLength = 1273

const DefaultSize = 512

var (
	ErrEmptyContent   = errors.New("qr content is empty")
	ErrContentTooLong = errors.New("qr content exceeds symbol capacity")
)

// Encoder renders QR codes with the highest error correction level so that
// worn or partly covered prints still scan. Output is byte-identical for
// identical input.
type Encoder struct {
	size  int
	level goqrcode.RecoveryLevel
}

func NewEncoder(size int) *Encoder {
	if size <= 0 {
		size = DefaultSize
	}
	return &Encoder{size: size, level: goqrcode.Highest}
}

func (e *Encoder) Size() int {
	return e.size
}

func (e *Encoder) build(content string) (*goqrcode.QRCode, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if len(content) > MaxContentLength {
		return nil, ErrContentTooLong
	}
	q, err := goqrcode.New(content, e.level)
	if err != nil {
		return nil, errors.Wrap(ErrContentTooLong, err.Error())
	}
	return q, nil
}

// Encode returns a square PNG of the encoder's size.
func (e *Encoder) Encode(content string) ([]byte, error) {
	q, err := e.build(content)
	if err != nil {
		return nil, err
	}
	out, err := q.PNG(e.size)
	if err != nil {
		return nil, errors.Wrap(err, "encode qr png")
	}
	return out, nil
}

// EncodeLabeled renders the code with label printed in a band under it.
// A blank label falls back to Encode.
func (e *Encoder) EncodeLabeled(content, label string) ([]byte, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return e.Encode(content)
	}
	q, err := e.build(content)
	if err != nil {
		return nil, err
	}

	scale := e.size / 160
	if scale < 1 {
		scale = 1
	}
	face := basicfont.Face7x13
	maxChars := e.size / (face.Advance * scale)
	if r := []rune(label); len(r) > maxChars {
		label = string(r[:maxChars])
	}

	bandHeight := (face.Height + 4) * scale
	canvas := image.NewRGBA(image.Rect(0, 0, e.size, e.size+bandHeight))
	xdraw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
	xdraw.Draw(canvas, image.Rect(0, 0, e.size, e.size), q.Image(e.size), image.Point{}, xdraw.Src)

	// draw at 1x, then scale up so the bitmap font stays crisp
	d := &font.Drawer{Face: face, Src: image.NewUniform(color.Black)}
	textWidth := d.MeasureString(label).Ceil()
	text := image.NewRGBA(image.Rect(0, 0, textWidth, face.Height))
	xdraw.Draw(text, text.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
	d.Dst = text
	d.Dot = fixed.P(0, face.Ascent)
	d.DrawString(label)

	left := (e.size - textWidth*scale) / 2
	top := e.size + 2*scale
	dst := image.Rect(left, top, left+textWidth*scale, top+face.Height*scale)
	xdraw.NearestNeighbor.Scale(canvas, dst, text, text.Bounds(), xdraw.Over, nil)

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, canvas); err != nil {
		return nil, errors.Wrap(err, "encode labeled qr png")
	}
	return buf.Bytes(), nil
}

// VerificationURL is the link embedded in every printed code.
func VerificationURL(baseURL, code string) string {
	return strings.TrimRight(baseURL, "/") + "/verify/" + url.PathEscape(code)
}
