// cmd_score.go - Score Command Handler
// Hauptfunktionen: ScoreHandler, scoreTable
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/7blacky7/stylegan/api"
)

// ScoreHandler - Bewertet Bilddateien mit dem Diskriminator
func ScoreHandler(cmd *cobra.Command, args []string) error {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}

	lod, err := optionalFloat(cmd, "lod")
	if err != nil {
		return err
	}

	req := api.ScoreRequest{LOD: lod}
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		req.Images = append(req.Images, data)
	}

	resp, err := client.Score(cmd.Context(), &req)
	if err != nil {
		return err
	}

	return scoreTable(os.Stdout, args, resp)
}

// scoreTable - Gibt die Scores pro Datei als Tabelle aus
func scoreTable(w io.Writer, paths []string, resp *api.ScoreResponse) error {
	if len(paths) != len(resp.Scores) {
		return fmt.Errorf("server returned %d scores for %d images", len(resp.Scores), len(paths))
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"IMAGE", "SCORE"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")

	for i, p := range paths {
		table.Append([]string{filepath.Base(p), strconv.FormatFloat(float64(resp.Scores[i]), 'f', 4, 32)})
	}
	table.Render()

	fmt.Fprintf(w, "\nlod %g\n", resp.LOD)
	return nil
}
