// resizer.go - LOD-abhaengige Bildverkleinerung
// Dieses Modul erzeugt aus einem Bild voller Aufloesung das Vergleichsbild,
// das der Diskriminator bei einem gegebenen LOD sehen soll. Beide
// Strategien liefern dasselbe Ergebnis.
package stylegan

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/7blacky7/stylegan/ml"
)

// ResizeImage verkleinert image [N,R,R,C] auf die Detailstufe lod und
// vergroessert das Ergebnis wieder auf R×R. R muss 4·2^(numBlocks-1) sein.
func ResizeImage(image *ml.Tensor, lod float32, numBlocks int, mode Mode) (out *ml.Tensor, err error) {
	defer ml.Recover(&err)

	if err := checkLOD(lod); err != nil {
		return nil, err
	}
	if image.Rank() != 4 {
		return nil, fmt.Errorf("%w: image of shape %v", ErrInput, image.Shape())
	}
	if numBlocks < 1 {
		return nil, fmt.Errorf("%w: %d blocks", ErrInput, numBlocks)
	}
	res := 4 << (numBlocks - 1)
	if image.Dim(1) != res || image.Dim(2) != res {
		return nil, fmt.Errorf("%w: image %v does not match resolution %d", ErrInput, image.Shape(), res)
	}

	if mode == Static {
		return resizeStatic(image, lod, numBlocks), nil
	}
	return resizeDynamic(image, lod, numBlocks), nil
}

// resizeStatic baut die volle Mittelwert-Pyramide und blendet von der
// groebsten Stufe aufwaerts.
func resizeStatic(image *ml.Tensor, lod float32, numBlocks int) *ml.Tensor {
	pyramid := make([]*ml.Tensor, numBlocks)
	pyramid[0] = image
	for i := 1; i < numBlocks; i++ {
		pyramid[i] = ml.AvgPool2x(pyramid[i-1])
	}

	y := pyramid[numBlocks-1]
	for i := 1; i < numBlocks; i++ {
		y = interpolateClip(pyramid[numBlocks-1-i], ml.Upsample2x(y), float32(i)-lod)
	}
	return y
}

// resizeDynamic berechnet nur die beiden Stufen, die lod einschliessen.
func resizeDynamic(image *ml.Tensor, lod float32, numBlocks int) *ml.Tensor {
	lod = ml.Clip(lod, 0, float32(numBlocks-1))
	k := int(math32.Ceil(lod))
	factor := 1 << (numBlocks - k - 1)

	x := ml.BlockMean(image, factor)
	y := x
	if x.Dim(1) >= 2 {
		x2 := ml.Tile(ml.BlockMean(x, 2), 2)
		y = interpolateClip(x, x2, float32(k)-lod)
	}
	return ml.Tile(y, factor)
}
