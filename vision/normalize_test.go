// MODUL: normalize_test
// ZWECK: Tests fuer die Bild-Tensor-Konvertierung
// INPUT: Synthetische Bilder
// OUTPUT: Testresultate
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: testing, image, go-cmp
// HINWEISE: Prueft Wertebereich [-1, 1], Layout NHWC und Clamping

package vision

import (
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/7blacky7/stylegan/ml"
)

func TestToTensor(t *testing.T) {
	img := createTestImage(2, 1, color.Black)
	img.Set(1, 0, color.RGBA{255, 0, 255, 255})

	out, err := ToTensor([]*image.RGBA{img}, 3)
	if err != nil {
		t.Fatalf("ToTensor() error = %v", err)
	}
	if diff := cmp.Diff([]int{1, 1, 2, 3}, out.Shape()); diff != "" {
		t.Errorf("Shape falsch (-want +got):\n%s", diff)
	}
	want := []float32{-1, -1, -1, 1, -1, 1}
	if diff := cmp.Diff(want, out.Floats()); diff != "" {
		t.Errorf("Werte falsch (-want +got):\n%s", diff)
	}
}

func TestToTensorGray(t *testing.T) {
	out, err := ToTensor([]*image.RGBA{createTestImage(2, 2, color.White), createTestImage(2, 2, color.Black)}, 1)
	if err != nil {
		t.Fatalf("ToTensor() error = %v", err)
	}
	want := []float32{1, 1, 1, 1, -1, -1, -1, -1}
	if diff := cmp.Diff(want, out.Floats()); diff != "" {
		t.Errorf("Werte falsch (-want +got):\n%s", diff)
	}
}

func TestToTensorErrors(t *testing.T) {
	if _, err := ToTensor(nil, 3); err == nil {
		t.Error("Erwartet Fehler ohne Bilder")
	}
	if _, err := ToTensor([]*image.RGBA{createTestImage(2, 2, color.White)}, 4); err == nil {
		t.Error("Erwartet Fehler bei 4 Kanaelen")
	}
	mixed := []*image.RGBA{createTestImage(2, 2, color.White), createTestImage(3, 2, color.White)}
	if _, err := ToTensor(mixed, 3); err == nil {
		t.Error("Erwartet Fehler bei unterschiedlichen Groessen")
	}
}

func TestFromTensorClamps(t *testing.T) {
	x := ml.FromFloats([]float32{-3, 0, 3}, 1, 1, 1, 3)

	images, err := FromTensor(x)
	if err != nil {
		t.Fatalf("FromTensor() error = %v", err)
	}
	if got, want := images[0].RGBAAt(0, 0), (color.RGBA{0, 128, 255, 255}); got != want {
		t.Errorf("Pixel = %v, erwartet %v", got, want)
	}

	if _, err := FromTensor(ml.New(1, 2, 2)); err == nil {
		t.Error("Erwartet Fehler bei Rang 3")
	}
}

func TestTensorRoundTrip(t *testing.T) {
	src := createTestImage(4, 4, color.RGBA{10, 128, 250, 255})

	x, err := ToTensor([]*image.RGBA{src}, 3)
	if err != nil {
		t.Fatal(err)
	}
	back, err := FromTensor(x)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(src.Pix, back[0].Pix, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Pixel falsch (-want +got):\n%s", diff)
	}
}
