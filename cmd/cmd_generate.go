// cmd_generate.go - Generate Command Handler
// Hauptfunktionen: GenerateHandler
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/7blacky7/stylegan/api"
)

// GenerateHandler - Erzeugt Bilder ueber den laufenden Server
func GenerateHandler(cmd *cobra.Command, _ []string) error {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}

	req, err := generateRequest(cmd)
	if err != nil {
		return err
	}

	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := client.Generate(cmd.Context(), req)
	if err != nil {
		return err
	}

	images := make([][]byte, len(resp.Images))
	for i, img := range resp.Images {
		images[i] = img
	}

	paths, err := writeOutput(os.Stdout, output, images)
	if err != nil {
		return err
	}

	for _, p := range paths {
		fmt.Fprintln(os.Stderr, p)
	}
	fmt.Fprintf(os.Stderr, "%d image(s) at lod %g, %dx%d, %s\n", req.Count, resp.LOD, resp.Resolution, resp.Resolution, time.Since(start).Round(time.Millisecond))
	return nil
}

// generateRequest - Baut den Request aus den Flags
func generateRequest(cmd *cobra.Command) (*api.GenerateRequest, error) {
	seed, err := cmd.Flags().GetUint64("seed")
	if err != nil {
		return nil, err
	}
	count, err := cmd.Flags().GetInt("count")
	if err != nil {
		return nil, err
	}
	mixLayer, err := cmd.Flags().GetInt("mix-layer")
	if err != nil {
		return nil, err
	}
	grid, err := cmd.Flags().GetBool("grid")
	if err != nil {
		return nil, err
	}

	req := &api.GenerateRequest{Seed: seed, Count: count, MixLayer: mixLayer, Grid: grid}
	if req.LOD, err = optionalFloat(cmd, "lod"); err != nil {
		return nil, err
	}
	if req.Psi, err = optionalFloat(cmd, "psi"); err != nil {
		return nil, err
	}
	if req.MixSeed, err = optionalUint(cmd, "mix-seed"); err != nil {
		return nil, err
	}
	return req, nil
}
