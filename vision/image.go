// MODUL: image
// ZWECK: Bilder laden, zuschneiden, skalieren und als PNG oder Raster ausgeben
// INPUT: Dateipfad, Bytes oder io.Reader; image.Image
// OUTPUT: *image.RGBA, PNG-Bytes
// NEBENEFFEKTE: Dateisystem-Lesezugriff bei LoadImage
// ABHAENGIGKEITEN: golang.org/x/image/draw (extern), image/jpeg, image/png, x/image/webp
// HINWEISE: Alle Bilder werden als RGBA konvertiert, Transparenz wird auf Weiss komponiert

package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	// Standard-Decoder registrieren
	_ "image/jpeg"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// LoadImage laedt ein Bild von einem Dateipfad
func LoadImage(path string) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vision: %w", err)
	}
	return DecodeBytes(data)
}

// Decode dekodiert ein Bild aus einem io.Reader
func Decode(r io.Reader) (*image.RGBA, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("vision: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeBytes dekodiert PNG-, JPEG- oder WebP-Daten.
func DecodeBytes(data []byte) (*image.RGBA, error) {
	if DetectFormat(data) == FormatUnknown {
		return nil, ErrUnknownFormat
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("vision: decode: %w", err)
	}
	return Composite(img, color.White), nil
}

// Composite zeichnet img auf einen einfarbigen Hintergrund und entfernt so den Alpha-Kanal
func Composite(img image.Image, bg color.Color) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	draw.Draw(dst, dst.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
	return dst
}

// Resize skaliert ein Bild mit Catmull-Rom auf width×height
func Resize(img image.Image, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("vision: invalid size %dx%d", width, height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst, nil
}

// Square schneidet den zentrierten quadratischen Ausschnitt aus und skaliert ihn auf size×size
func Square(img image.Image, size int) (*image.RGBA, error) {
	if size <= 0 {
		return nil, fmt.Errorf("vision: invalid size %dx%d", size, size)
	}

	bounds := img.Bounds()
	side := min(bounds.Dx(), bounds.Dy())
	if side == 0 {
		return nil, fmt.Errorf("vision: empty image")
	}

	offX := bounds.Min.X + (bounds.Dx()-side)/2
	offY := bounds.Min.Y + (bounds.Dy()-side)/2
	crop := image.Rect(offX, offY, offX+side, offY+side)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	if side == size {
		draw.Draw(dst, dst.Bounds(), img, crop.Min, draw.Src)
		return dst, nil
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, draw.Src, nil)
	return dst, nil
}

// EncodePNG schreibt img als PNG nach w
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("vision: encode: %w", err)
	}
	return nil
}

// Grid ordnet gleich grosse Bilder zeilenweise in cols Spalten an.
// Fehlende Zellen der letzten Zeile bleiben schwarz.
func Grid(images []*image.RGBA, cols int) (*image.RGBA, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("vision: grid needs at least one image")
	}
	if cols <= 0 || cols > len(images) {
		cols = len(images)
	}

	cell := images[0].Bounds()
	w, h := cell.Dx(), cell.Dy()
	rows := (len(images) + cols - 1) / cols

	dst := image.NewRGBA(image.Rect(0, 0, cols*w, rows*h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{color.Black}, image.Point{}, draw.Src)
	for i, img := range images {
		if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
			return nil, fmt.Errorf("vision: grid image %d is %dx%d, expected %dx%d", i, b.Dx(), b.Dy(), w, h)
		}
		at := image.Pt((i%cols)*w, (i/cols)*h)
		draw.Draw(dst, image.Rectangle{Min: at, Max: at.Add(image.Pt(w, h))}, img, img.Bounds().Min, draw.Src)
	}
	return dst, nil
}
