package compositor

import (
	"fmt"
	"math"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// Font size bounds, in pixels.
const (
	minTitleSize  = 20
	maxTitleSize  = 80
	minCreditSize = 12
)

var defaultFonts struct {
	once sync.Once
	set  *fontSet
	err  error
}

// fontSet holds parsed fonts. A *truetype.Font is safe to share between
// goroutines; the faces built from it are not.
type fontSet struct {
	title  *truetype.Font
	credit *truetype.Font
}

func loadFonts(titleTTF, creditTTF []byte) (*fontSet, error) {
	defaultFonts.once.Do(func() {
		title, err := truetype.Parse(gobold.TTF)
		if err != nil {
			defaultFonts.err = fmt.Errorf("parse title font: %w", err)
			return
		}
		credit, err := truetype.Parse(goregular.TTF)
		if err != nil {
			defaultFonts.err = fmt.Errorf("parse credit font: %w", err)
			return
		}
		defaultFonts.set = &fontSet{title: title, credit: credit}
	})
	if defaultFonts.err != nil {
		return nil, defaultFonts.err
	}

	fs := *defaultFonts.set
	if titleTTF != nil {
		f, err := truetype.Parse(titleTTF)
		if err != nil {
			return nil, fmt.Errorf("parse title font: %w", err)
		}
		fs.title = f
	}
	if creditTTF != nil {
		f, err := truetype.Parse(creditTTF)
		if err != nil {
			return nil, fmt.Errorf("parse credit font: %w", err)
		}
		fs.credit = f
	}
	return &fs, nil
}

// faceSet is the pair of sized faces used for one image.
type faceSet struct {
	title      font.Face
	credit     font.Face
	titleSize  float64
	creditSize float64
}

func (fs *fontSet) faces(width int) *faceSet {
	ts, cs := TitleSize(width), CreditSize(width)
	return &faceSet{
		title:      truetype.NewFace(fs.title, &truetype.Options{Size: ts}),
		credit:     truetype.NewFace(fs.credit, &truetype.Options{Size: cs}),
		titleSize:  ts,
		creditSize: cs,
	}
}

func (f *faceSet) Close() {
	f.title.Close()
	f.credit.Close()
}

// TitleSize returns the title font size for an image width:
// width/24 rounded, clamped to [20, 80].
func TitleSize(width int) float64 {
	s := math.Round(float64(width) / 24)
	return math.Max(minTitleSize, math.Min(s, maxTitleSize))
}

// CreditSize returns the credit font size for an image width:
// width/70 rounded, at least 12.
func CreditSize(width int) float64 {
	return math.Max(minCreditSize, math.Round(float64(width)/70))
}

func measure(face font.Face, s string) float64 {
	return fixedToFloat(font.MeasureString(face, s))
}

func descent(face font.Face) float64 {
	return fixedToFloat(face.Metrics().Descent)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
