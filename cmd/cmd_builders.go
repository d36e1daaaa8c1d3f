// cmd_builders.go - Command-Builder Funktionen
// Hauptfunktionen: newGenerateCmd, newScoreCmd, newShowCmd, newResizeCmd, newExportCmd
package cmd

import (
	"github.com/spf13/cobra"
)

// newGenerateCmd - Erstellt den generate Command
func newGenerateCmd() *cobra.Command {
	generateCmd := &cobra.Command{
		Use:     "generate",
		Short:   "Generate images with the running model",
		Args:    cobra.ExactArgs(0),
		PreRunE: checkServerHeartbeat,
		RunE:    GenerateHandler,
	}

	generateCmd.Flags().Uint64("seed", 0, "Seed of the first latent vector")
	generateCmd.Flags().IntP("count", "n", 1, "Number of images to generate")
	generateCmd.Flags().Float32("lod", 0, "Level of detail (default full detail)")
	generateCmd.Flags().Float32("psi", 0, "Truncation strength (default from the model)")
	generateCmd.Flags().Uint64("mix-seed", 0, "Seed of the latents used for style mixing")
	generateCmd.Flags().Int("mix-layer", 0, "First synthesis layer taken from the mixing latents")
	generateCmd.Flags().Bool("grid", false, "Arrange all images in a single grid image")
	generateCmd.Flags().StringP("output", "o", "", "Output PNG file")

	return generateCmd
}

// newScoreCmd - Erstellt den score Command
func newScoreCmd() *cobra.Command {
	scoreCmd := &cobra.Command{
		Use:     "score IMAGE [IMAGE...]",
		Short:   "Rate images with the discriminator",
		Args:    cobra.MinimumNArgs(1),
		PreRunE: checkServerHeartbeat,
		RunE:    ScoreHandler,
	}

	scoreCmd.Flags().Float32("lod", 0, "Level of detail (default full detail)")

	return scoreCmd
}

// newShowCmd - Erstellt den show Command
func newShowCmd() *cobra.Command {
	showCmd := &cobra.Command{
		Use:     "show",
		Short:   "Show configuration and stages of the running model",
		Args:    cobra.ExactArgs(0),
		PreRunE: checkServerHeartbeat,
		RunE:    ShowHandler,
	}

	showCmd.Flags().Bool("stages", false, "Show only the stage table")
	showCmd.Flags().BoolP("verbose", "v", false, "Show all options")

	return showCmd
}

// newResizeCmd - Erstellt den resize Command
func newResizeCmd() *cobra.Command {
	resizeCmd := &cobra.Command{
		Use:   "resize IMAGE",
		Short: "Preview the discriminator input of an image at a level of detail",
		Args:  cobra.ExactArgs(1),
		RunE:  ResizeHandler,
	}

	resizeCmd.Flags().Int("resolution", 32, "Full resolution (power of two >= 4)")
	resizeCmd.Flags().Float32("lod", 0, "Level of detail")
	resizeCmd.Flags().String("mode", "dynamic", "Blending mode (static or dynamic)")
	resizeCmd.Flags().Bool("gray", false, "Convert to a single channel")
	resizeCmd.Flags().StringP("output", "o", "", "Output PNG file")

	return resizeCmd
}

// newExportCmd - Erstellt den export Command
func newExportCmd() *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export PATH",
		Short: "Write a freshly initialised snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  ExportHandler,
	}

	exportCmd.Flags().Int("resolution", 32, "Output resolution (power of two >= 4)")
	exportCmd.Flags().Int("channels", 3, "Image channels")
	exportCmd.Flags().Int("latent", 512, "Latent size")
	exportCmd.Flags().String("mode", "dynamic", "Blending mode (static or dynamic)")
	exportCmd.Flags().Uint64("seed", 0, "Initialisation seed")
	exportCmd.Flags().Bool("spectral-norm", false, "Use spectral normalisation in the discriminator")
	exportCmd.Flags().String("dtype", "f32", "Tensor data type (f32, f16 or bf16)")

	return exportCmd
}
