package compositor

import (
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
)

// gradientStart is where the legibility gradient begins, as a fraction
// of image height from the top.
const gradientStart = 0.4

var (
	titleColor  = color.White
	creditColor = color.NRGBA{R: 255, G: 255, B: 255, A: 217} // 85%
	shadowColor = color.NRGBA{A: 204}                         // 80% black
	gradientTop = color.NRGBA{}
	gradientEnd = color.NRGBA{A: 217} // 85% black
)

// shadow describes a blurred drop shadow. Blur follows the canvas
// convention, where the gaussian sigma is half the blur radius.
type shadow struct {
	blur   float64
	offset float64
}

var (
	titleShadow  = shadow{blur: 12, offset: 2}
	creditShadow = shadow{blur: 5, offset: 1}
)

func drawGradient(dc *gg.Context) {
	w, h := float64(dc.Width()), float64(dc.Height())
	grad := gg.NewLinearGradient(0, h*gradientStart, 0, h)
	grad.AddColorStop(0, gradientTop)
	grad.AddColorStop(1, gradientEnd)
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()
}

// glyphRun is a string placed at a baseline position.
type glyphRun struct {
	text string
	x, y float64
}

func drawTitle(dc *gg.Context, faces *faceSet, lay Layout) {
	if len(lay.Lines) == 0 {
		return
	}
	// Lines rest on their bottom edge, not their baseline, as the credit does.
	bottom := float64(dc.Height()) - lay.Padding
	baseline := bottom - descent(faces.title)

	runs := make([]glyphRun, 0, len(lay.Lines))
	for i := range lay.Lines {
		line := lay.Lines[len(lay.Lines)-1-i]
		runs = append(runs, glyphRun{
			text: line.Text,
			x:    lay.Padding,
			y:    baseline - float64(i)*lay.LineHeight,
		})
	}
	drawRuns(dc, faces.title, runs, titleColor, titleShadow)
}

func drawCredit(dc *gg.Context, faces *faceSet, lay Layout, credit string) {
	bottom := float64(dc.Height()) - lay.Padding
	run := glyphRun{
		text: credit,
		x:    float64(dc.Width()) - lay.Padding - lay.CreditWidth,
		y:    bottom - descent(faces.credit),
	}
	drawRuns(dc, faces.credit, []glyphRun{run}, creditColor, creditShadow)
}

// drawRuns paints the shadow on its own layer, blurs it, composites it
// and then draws the text itself on top.
func drawRuns(dc *gg.Context, face font.Face, runs []glyphRun, fill color.Color, sh shadow) {
	layer := gg.NewContext(dc.Width(), dc.Height())
	layer.SetFontFace(face)
	layer.SetColor(shadowColor)
	for _, r := range runs {
		layer.DrawString(r.text, r.x+sh.offset, r.y+sh.offset)
	}
	dc.DrawImage(imaging.Blur(layer.Image(), sh.blur/2), 0, 0)

	dc.SetFontFace(face)
	dc.SetColor(fill)
	for _, r := range runs {
		dc.DrawString(r.text, r.x, r.y)
	}
}
