// MODUL: normalize
// ZWECK: Konvertierung zwischen Bildern und NHWC-Tensoren der Netze
// INPUT: RGBA-Bilder bzw. Tensor [N, H, W, C] mit Werten in [-1, 1]
// OUTPUT: ml.Tensor bzw. RGBA-Bilder
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: ml, chewxy/math32
// HINWEISE: Pixelwerte [0, 255] werden linear auf [-1, 1] abgebildet, 1 Kanal = Luminanz

package vision

import (
	"fmt"
	"image"
	"image/color"

	"github.com/chewxy/math32"

	"github.com/7blacky7/stylegan/ml"
)

// ToTensor stapelt gleich grosse Bilder zu einem Tensor [N, H, W, channels].
// channels ist 1 (Graustufen) oder 3 (RGB).
func ToTensor(images []*image.RGBA, channels int) (*ml.Tensor, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("vision: no images")
	}
	if channels != 1 && channels != 3 {
		return nil, fmt.Errorf("vision: unsupported channel count %d", channels)
	}

	bounds := images[0].Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	out := ml.New(len(images), h, w, channels)
	data := out.Floats()

	idx := 0
	for n, img := range images {
		b := img.Bounds()
		if b.Dx() != w || b.Dy() != h {
			return nil, fmt.Errorf("vision: image %d is %dx%d, expected %dx%d", n, b.Dx(), b.Dy(), w, h)
		}

		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := img.RGBAAt(x, y)
				if channels == 1 {
					g := color.GrayModel.Convert(c).(color.Gray)
					data[idx] = toUnit(g.Y)
					idx++
					continue
				}
				data[idx] = toUnit(c.R)
				data[idx+1] = toUnit(c.G)
				data[idx+2] = toUnit(c.B)
				idx += 3
			}
		}
	}
	return out, nil
}

// FromTensor wandelt einen Tensor [N, H, W, C] mit C = 1 oder 3 in Bilder um.
// Werte ausserhalb von [-1, 1] werden abgeschnitten.
func FromTensor(t *ml.Tensor) ([]*image.RGBA, error) {
	if t.Rank() != 4 {
		return nil, fmt.Errorf("vision: expected [N, H, W, C] tensor, got %v", t.Shape())
	}
	n, h, w, c := t.Dim(0), t.Dim(1), t.Dim(2), t.Dim(3)
	if c != 1 && c != 3 {
		return nil, fmt.Errorf("vision: unsupported channel count %d", c)
	}

	data := t.Floats()
	images := make([]*image.RGBA, n)
	idx := 0
	for i := range images {
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := range h {
			for x := range w {
				if c == 1 {
					v := toByte(data[idx])
					img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
					idx++
					continue
				}
				img.SetRGBA(x, y, color.RGBA{toByte(data[idx]), toByte(data[idx+1]), toByte(data[idx+2]), 255})
				idx += 3
			}
		}
		images[i] = img
	}
	return images, nil
}

func toUnit(v uint8) float32 {
	return float32(v)/127.5 - 1
}

func toByte(v float32) uint8 {
	v = (v + 1) * 127.5
	return uint8(math32.Round(min(max(v, 0), 255)))
}
