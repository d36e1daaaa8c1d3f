// cmd_show.go - Show Command und Modell-Info Anzeige
// Hauptfunktionen: ShowHandler, showInfo
package cmd

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/7blacky7/stylegan/api"
	"github.com/7blacky7/stylegan/format"
)

// Optionen, die ohne --verbose angezeigt werden
var summaryOptions = []string{"resolution", "channels", "latent", "mode", "spectral_norm", "truncation_psi", "truncation_cutoff"}

// ShowHandler - Zeigt Konfiguration und Stufen des Modells an
func ShowHandler(cmd *cobra.Command, _ []string) error {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}

	stagesOnly, err := cmd.Flags().GetBool("stages")
	if err != nil {
		return err
	}
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}

	resp, err := client.Show(cmd.Context())
	if err != nil {
		return err
	}

	if stagesOnly {
		tableRender(os.Stdout, "Stages", stageRows(resp.Stages))
		return nil
	}
	return showInfo(resp, verbose, os.Stdout)
}

// showInfo - Gibt Modell-Informationen aus
func showInfo(resp *api.ShowResponse, verbose bool, w io.Writer) error {
	rows := [][]string{{"", "parameters", format.HumanNumber(uint64(resp.Parameters))}}
	if resp.Snapshot != "" {
		rows = append(rows, []string{"", "snapshot", resp.Snapshot})
	}
	tableRender(w, "Model", rows)

	keys := summaryOptions
	if verbose {
		keys = make([]string, 0, len(resp.Options))
		for k := range resp.Options {
			keys = append(keys, k)
		}
		slices.Sort(keys)
	}

	var opts [][]string
	for _, k := range keys {
		v, ok := resp.Options[k]
		if !ok {
			continue
		}
		opts = append(opts, []string{"", k, formatValue(v)})
	}
	tableRender(w, "Options", opts)

	tableRender(w, "Stages", stageRows(resp.Stages))
	return nil
}

func tableRender(w io.Writer, header string, rows [][]string) {
	fmt.Fprintln(w, " ", header)
	table := tablewriter.NewWriter(w)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(rows)
	table.Render()
	fmt.Fprintln(w)
}

func stageRows(stages []api.Stage) (rows [][]string) {
	for _, st := range stages {
		rows = append(rows, []string{
			"",
			st.Network,
			truncate(st.Name, 24),
			strconv.Itoa(st.Level),
			fmt.Sprintf("%dx%d", st.Resolution, st.Resolution),
			strconv.Itoa(st.Filters),
		})
	}
	return
}

// formatValue - Formatiert einen JSON-Wert fuer die Tabelle
func formatValue(v any) string {
	switch v := v.(type) {
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}
