// cmd_resize.go - Lokale Vorschau der LOD-Verkleinerung
// Hauptfunktionen: ResizeHandler, resizePreview
package cmd

import (
	"bytes"
	"fmt"
	"image"
	"os"

	"github.com/spf13/cobra"

	"github.com/7blacky7/stylegan/model/stylegan"
	"github.com/7blacky7/stylegan/vision"
)

// ResizeHandler - Zeigt, welches Bild der Diskriminator bei einem LOD sieht
func ResizeHandler(cmd *cobra.Command, args []string) error {
	resolution, err := cmd.Flags().GetInt("resolution")
	if err != nil {
		return err
	}
	lod, err := cmd.Flags().GetFloat32("lod")
	if err != nil {
		return err
	}
	modeName, err := cmd.Flags().GetString("mode")
	if err != nil {
		return err
	}
	gray, err := cmd.Flags().GetBool("gray")
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	mode, err := stylegan.ParseMode(modeName)
	if err != nil {
		return err
	}

	img, err := vision.LoadImage(args[0])
	if err != nil {
		return err
	}

	channels := 3
	if gray {
		channels = 1
	}

	out, err := resizePreview(img, resolution, channels, lod, mode)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := vision.EncodePNG(&buf, out); err != nil {
		return err
	}

	paths, err := writeOutput(os.Stdout, output, [][]byte{buf.Bytes()})
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(os.Stderr, p)
	}
	return nil
}

// resizePreview - Quadratischer Zuschnitt, LOD-Verkleinerung und Rueckwandlung
func resizePreview(img image.Image, resolution, channels int, lod float32, mode stylegan.Mode) (*image.RGBA, error) {
	nb, err := stylegan.NumBlocks(resolution)
	if err != nil {
		return nil, err
	}

	sq, err := vision.Square(img, resolution)
	if err != nil {
		return nil, err
	}

	t, err := vision.ToTensor([]*image.RGBA{sq}, channels)
	if err != nil {
		return nil, err
	}

	resized, err := stylegan.ResizeImage(t, lod, nb, mode)
	if err != nil {
		return nil, err
	}

	images, err := vision.FromTensor(resized)
	if err != nil {
		return nil, err
	}
	return images[0], nil
}
