package newsdesk

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"

	"github.com/eringen/newsdesk/compositor"
	"github.com/eringen/newsdesk/markup"
)

const (
	thumbWidth    = 480
	thumbQuality  = 80
	maxUploadSize = 10 << 20 // 10MB
)

// thumbnail scales a JPEG down to width, keeping the aspect ratio.
// Images already narrow enough are returned unchanged.
func thumbnail(data []byte, width int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= width {
		return data, nil
	}
	newH := max(h*width/w, 1)
	dst := image.NewRGBA(image.Rect(0, 0, width, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// composite draws the headline and credit onto each raw image. Images
// that fail are logged and left out.
func (a *App) composite(log echo.Logger, raws [][]byte, headline, credit string) [][]byte {
	out := make([][]byte, 0, len(raws))
	for i, raw := range raws {
		img, err := a.Compositor.Compose(raw, compositor.Overlay{Headline: headline, Credit: credit})
		if err != nil {
			log.Warnf("composite image %d: %v", i, err)
			continue
		}
		out = append(out, img)
	}
	return out
}

// handleImage serves image index of the current draft. ?thumb=1 returns
// a preview-sized copy.
func (a *App) handleImage(c echo.Context) error {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 0 {
		return echo.NewHTTPError(http.StatusNotFound, "image not found")
	}
	d := a.Work.Snapshot().Draft
	if d == nil || idx >= len(d.Images) {
		return echo.NewHTTPError(http.StatusNotFound, "image not found")
	}

	data := d.Images[idx]
	if c.QueryParam("thumb") == "1" {
		if data, err = thumbnail(data, thumbWidth); err != nil {
			return err
		}
	}
	return c.Blob(http.StatusOK, "image/jpeg", data)
}

// handleCompose composites an uploaded image. The credit defaults to
// the configured image credit.
func (a *App) handleCompose(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No image file provided")
	}
	if file.Size > maxUploadSize {
		return echo.NewHTTPError(http.StatusBadRequest, "File too large (max 10MB)")
	}
	headline := strings.TrimSpace(c.FormValue("headline"))
	if headline == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Headline is required")
	}
	credit := strings.TrimSpace(c.FormValue("credit"))
	if credit == "" {
		credit = a.defaultCredit()
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	raw, err := io.ReadAll(io.LimitReader(src, maxUploadSize))
	if err != nil {
		return err
	}

	out, err := a.Compositor.Compose(raw, compositor.Overlay{Headline: headline, Credit: credit})
	if errors.Is(err, compositor.ErrDecode) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid image: "+err.Error())
	}
	if err != nil {
		return err
	}

	c.Response().Header().Set("Content-Disposition",
		fmt.Sprintf("inline; filename=%q", markup.Slugify(headline)+".jpg"))
	return c.Blob(http.StatusOK, "image/jpeg", out)
}
