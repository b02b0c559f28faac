package compositor

import (
	"strings"

	"golang.org/x/image/font"
)

const (
	paddingRatio     = 0.05
	lineHeightFactor = 1.15
)

// Line is one wrapped line of title text and its measured width in pixels.
type Line struct {
	Text  string
	Width float64
}

// Layout describes where the title and credit go on an image.
type Layout struct {
	Width         int
	Padding       float64
	TitleSize     float64
	CreditSize    float64
	LineHeight    float64
	MaxWidth      float64 // usable width for every title line
	CreditWidth   float64 // measured credit width, 0 without a credit
	CreditReserve float64 // CreditWidth + Padding/2, 0 without a credit
	Lines         []Line
}

// LastLineMaxWidth is the width available to the bottom title line,
// which shares its baseline with the credit.
func (l Layout) LastLineMaxWidth() float64 {
	return l.MaxWidth - l.CreditReserve
}

func layout(faces *faceSet, width int, headline, credit string) Layout {
	pad := float64(width) * paddingRatio
	lay := Layout{
		Width:      width,
		Padding:    pad,
		TitleSize:  faces.titleSize,
		CreditSize: faces.creditSize,
		LineHeight: faces.titleSize * lineHeightFactor,
		MaxWidth:   float64(width) - 2*pad,
	}

	if credit != "" {
		lay.CreditWidth = measure(faces.credit, credit)
		lay.CreditReserve = lay.CreditWidth + pad/2
	}

	lines := Wrap(faces.title, headline, lay.MaxWidth)

	// Only the bottom line can run into the credit.
	if credit != "" && len(lines) > 0 {
		last := lines[len(lines)-1]
		rewrapped := Wrap(faces.title, last.Text, lay.LastLineMaxWidth())
		lines = append(lines[:len(lines)-1], rewrapped...)
	}
	lay.Lines = lines
	return lay
}

// Wrap greedily breaks text into lines no wider than maxWidth when
// drawn with face. Words are never split: a word wider than maxWidth
// gets a line of its own.
func Wrap(face font.Face, text string, maxWidth float64) []Line {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []Line
	current := ""
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if current != "" && measure(face, candidate) > maxWidth {
			lines = append(lines, Line{Text: current, Width: measure(face, current)})
			current = word
			continue
		}
		current = candidate
	}
	return append(lines, Line{Text: current, Width: measure(face, current)})
}
