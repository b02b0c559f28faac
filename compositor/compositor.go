// Package compositor draws a headline, a legibility gradient and an
// optional credit line onto a raster image and re-encodes it as JPEG.
//
// Layout is deterministic: the same width, headline and credit always
// produce the same line breaks, so callers can preview a layout with
// Layout before paying for a full Compose.
package compositor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoders
	"image/jpeg"
	_ "image/png"
	"strings"

	"github.com/fogleman/gg"
)

// Errors returned by Compose. They are wrapped together with the
// underlying cause, so use errors.Is to test for them.
var (
	ErrDecode = errors.New("compositor: decode image")
	ErrEncode = errors.New("compositor: encode image")
	ErrRender = errors.New("compositor: render overlay")
)

// DefaultQuality is the JPEG quality used for composited output.
const DefaultQuality = 92

// Overlay is the text drawn onto an image.
type Overlay struct {
	Headline string
	Credit   string // optional, drawn bottom-right
}

// Compositor renders overlays. The zero value is not usable; use New.
type Compositor struct {
	quality   int
	titleTTF  []byte
	creditTTF []byte
	fonts     *fontSet
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithQuality sets the JPEG quality (1-100) of composited output.
func WithQuality(q int) Option {
	return func(c *Compositor) {
		if q >= 1 && q <= 100 {
			c.quality = q
		}
	}
}

// WithTitleFont replaces the bold title font with the given TrueType data.
func WithTitleFont(ttf []byte) Option {
	return func(c *Compositor) {
		c.titleTTF = ttf
	}
}

// WithCreditFont replaces the regular credit font with the given TrueType data.
func WithCreditFont(ttf []byte) Option {
	return func(c *Compositor) {
		c.creditTTF = ttf
	}
}

// New creates a Compositor. Font data is parsed eagerly so a bad font
// surfaces here rather than on the first Compose.
func New(opts ...Option) (*Compositor, error) {
	c := &Compositor{quality: DefaultQuality}
	for _, opt := range opts {
		opt(c)
	}
	fs, err := loadFonts(c.titleTTF, c.creditTTF)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	c.fonts = fs
	return c, nil
}

// Compose decodes raw, draws the overlay and returns the encoded JPEG
// using the default Compositor.
func Compose(raw []byte, headline, credit string) ([]byte, error) {
	c, err := New()
	if err != nil {
		return nil, err
	}
	return c.Compose(raw, Overlay{Headline: headline, Credit: credit})
}

// Compose decodes raw, draws ov onto it and returns the encoded JPEG.
func (c *Compositor) Compose(raw []byte, ov Overlay) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	out, err := c.Render(src, ov)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: c.quality}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return buf.Bytes(), nil
}

// Render draws ov onto a copy of src and returns the composited raster.
func (c *Compositor) Render(src image.Image, ov Overlay) (image.Image, error) {
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty %dx%d surface", ErrRender, b.Dx(), b.Dy())
	}

	dc := gg.NewContextForImage(src)
	drawGradient(dc)

	credit := strings.TrimSpace(ov.Credit)
	faces := c.fonts.faces(b.Dx())
	defer faces.Close()

	lay := layout(faces, b.Dx(), ov.Headline, credit)
	drawTitle(dc, faces, lay)
	if credit != "" {
		drawCredit(dc, faces, lay, credit)
	}
	return dc.Image(), nil
}

// Layout computes the line breaks Compose would use for an image of
// the given width. It does not touch any pixels.
func (c *Compositor) Layout(width int, headline, credit string) Layout {
	faces := c.fonts.faces(width)
	defer faces.Close()
	return layout(faces, width, headline, strings.TrimSpace(credit))
}
