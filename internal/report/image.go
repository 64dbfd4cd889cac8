package report

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	imgLineHeight = 18
	imgPadding    = 16
	imgCharWidth  = 7
)

var (
	imgBackground = color.RGBA{R: 24, G: 24, B: 27, A: 255}
	imgForeground = color.RGBA{R: 228, G: 228, B: 231, A: 255}
	imgHeading    = color.RGBA{R: 96, G: 165, B: 250, A: 255}
)

// ExportImage draws the summary and signal breakdown onto an offscreen
// canvas and writes it as a PNG.
func ExportImage(w io.Writer, data *OutputNodeData) error {
	var buf bytes.Buffer
	if err := WriteSummary(&buf, data); err != nil {
		return err
	}
	buf.WriteByte('\n')
	if err := WriteSignals(&buf, data); err != nil {
		return err
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	width, height := imgPadding*2, imgPadding*2+imgLineHeight*(len(lines)+1)
	for _, l := range lines {
		if lw := imgPadding*2 + imgCharWidth*len(l); lw > width {
			width = lw
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(imgBackground), image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(imgHeading),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(imgPadding, imgPadding+imgLineHeight),
	}
	d.DrawString("Investment Report")
	d.Src = image.NewUniform(imgForeground)
	for i, l := range lines {
		d.Dot = fixed.P(imgPadding, imgPadding+imgLineHeight*(i+2))
		d.DrawString(l)
	}

	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("report: encode png: %w", err)
	}
	return nil
}

// ExportImageFile writes the rendered report image to a timestamped file
// in dir and returns the path.
func ExportImageFile(dir string, data *OutputNodeData, now time.Time) (string, error) {
	stamp := strings.ReplaceAll(now.UTC().Format("2006-01-02T15:04:05"), ":", "-")
	path := fmt.Sprintf("%s/output-%s.png", dir, stamp)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("report: create image file: %w", err)
	}
	defer f.Close()
	if err := ExportImage(f, data); err != nil {
		return "", fmt.Errorf("report: write image file: %w", err)
	}
	return path, nil
}
