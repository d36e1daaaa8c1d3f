// cmd_export.go - Export eines frisch initialisierten Snapshots
// Hauptfunktionen: ExportHandler, exportOptions
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/7blacky7/stylegan/envconfig"
	"github.com/7blacky7/stylegan/format"
	"github.com/7blacky7/stylegan/ml"
	"github.com/7blacky7/stylegan/model/stylegan"
)

// ExportHandler - Schreibt Generator- und Diskriminatorgewichte als safetensors
func ExportHandler(cmd *cobra.Command, args []string) error {
	opts, err := exportOptions(cmd)
	if err != nil {
		return err
	}

	name, err := cmd.Flags().GetString("dtype")
	if err != nil {
		return err
	}
	dtype, err := ml.ParseDType(name)
	if err != nil {
		return err
	}

	if n := envconfig.NumThreads(); n > 0 {
		ml.SetNumThreads(int(n))
	}

	m, err := stylegan.New(opts...)
	if err != nil {
		return err
	}

	if err := m.Save(args[0], dtype); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "%s: %s parameters as %s\n", args[0], format.HumanNumber(uint64(m.NumParams())), dtype)
	return nil
}

// exportOptions - Liest die Architektur-Flags
func exportOptions(cmd *cobra.Command) ([]stylegan.Option, error) {
	resolution, err := cmd.Flags().GetInt("resolution")
	if err != nil {
		return nil, err
	}
	channels, err := cmd.Flags().GetInt("channels")
	if err != nil {
		return nil, err
	}
	latent, err := cmd.Flags().GetInt("latent")
	if err != nil {
		return nil, err
	}
	mode, err := cmd.Flags().GetString("mode")
	if err != nil {
		return nil, err
	}
	seed, err := cmd.Flags().GetUint64("seed")
	if err != nil {
		return nil, err
	}
	sn, err := cmd.Flags().GetBool("spectral-norm")
	if err != nil {
		return nil, err
	}

	return []stylegan.Option{
		stylegan.WithResolution(resolution),
		stylegan.WithChannels(channels),
		stylegan.WithLatent(latent),
		stylegan.WithMode(mode),
		stylegan.WithSeed(seed),
		stylegan.WithSpectralNorm(sn),
	}, nil
}
