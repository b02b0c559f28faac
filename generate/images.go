package generate

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// ImageStyle is the look of generated images.
type ImageStyle string

const (
	StylePhotorealistic ImageStyle = "Photorealistic"
	StyleIllustration   ImageStyle = "Illustration"
	StyleDigitalArt     ImageStyle = "Digital Art"
	StyleAbstract       ImageStyle = "Abstract"
)

// ImageStyles lists every style in display order.
var ImageStyles = []ImageStyle{StylePhotorealistic, StyleIllustration, StyleDigitalArt, StyleAbstract}

// ParseImageStyle matches s against ImageStyles, ignoring case.
func ParseImageStyle(s string) (ImageStyle, error) {
	for _, st := range ImageStyles {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("generate: unknown image style %q", s)
}

// MaxImages is the most images one request may ask for.
const MaxImages = 4

// ImageRequest describes the images to generate for an article.
type ImageRequest struct {
	Headline string
	Style    ImageStyle
	Count    int // clamped to 1..MaxImages
}

// Images generates JPEG images for req. Any failure is logged and
// yields no images, so the article stays usable without them.
func (c *Client) Images(ctx context.Context, req ImageRequest) [][]byte {
	if c.backend == nil {
		c.log.Warnf("image generation skipped: %v", errNoBackend)
		return nil
	}
	n := min(max(req.Count, 1), MaxImages)
	if req.Style == "" {
		req.Style = StylePhotorealistic
	}

	res, err := c.backend.GenerateImages(ctx, c.imageModel, imagePrompt(req.Headline, req.Style), &genai.GenerateImagesConfig{
		NumberOfImages: int32(n),
		OutputMIMEType: "image/jpeg",
	})
	if err != nil {
		c.log.Warnf("image generation failed: %v", classify(err))
		return nil
	}
	if res == nil {
		return nil
	}

	var out [][]byte
	for _, gi := range res.GeneratedImages {
		if gi == nil || gi.Image == nil || len(gi.Image.ImageBytes) == 0 {
			if gi != nil && gi.RAIFilteredReason != "" {
				c.log.Warnf("image filtered: %s", gi.RAIFilteredReason)
			}
			continue
		}
		out = append(out, gi.Image.ImageBytes)
	}
	return out
}

func imagePrompt(headline string, style ImageStyle) string {
	switch style {
	case StyleIllustration:
		return fmt.Sprintf("An editorial illustration for the news headline: %q. Clean composition, no text or watermarks.", headline)
	case StyleDigitalArt:
		return fmt.Sprintf("A striking piece of digital art inspired by the news headline: %q. No text or watermarks.", headline)
	case StyleAbstract:
		return fmt.Sprintf("An abstract image evoking the news headline: %q. Shapes and color only, no text or watermarks.", headline)
	}
	return fmt.Sprintf("A photorealistic, high-quality, journalistic-style photo capturing the essence of the news headline: %q. "+
		"The image should look like it was taken by a professional photojournalist on location. Avoid any text or watermarks.", headline)
}
