// cmd_utils.go - Hilfsfunktionen fuer Flags und Ausgabedateien
// Hauptfunktionen: optionalFloat, optionalUint, outputPaths, writeOutput
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errTerminalOutput = errors.New("refusing to write PNG data to a terminal, use --output")

// optionalFloat - Liefert den Flag-Wert nur wenn er explizit gesetzt wurde
func optionalFloat(cmd *cobra.Command, name string) (*float32, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	v, err := cmd.Flags().GetFloat32(name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// optionalUint - Wie optionalFloat fuer uint64-Flags
func optionalUint(cmd *cobra.Command, name string) (*uint64, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	v, err := cmd.Flags().GetUint64(name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// outputPaths - Dateinamen fuer n Ausgabebilder, ab zwei Bildern mit Index
func outputPaths(output string, n int) []string {
	if n == 1 {
		return []string{output}
	}

	ext := filepath.Ext(output)
	base := strings.TrimSuffix(output, ext)
	if ext == "" {
		ext = ".png"
	}

	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("%s-%d%s", base, i, ext)
	}
	return paths
}

// writeOutput - Schreibt PNG-Daten in Dateien oder nach stdout
func writeOutput(stdout io.Writer, output string, images [][]byte) ([]string, error) {
	if output == "" {
		if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return nil, errTerminalOutput
		}
		if len(images) != 1 {
			return nil, fmt.Errorf("%d images cannot be written to stdout, use --output or --grid", len(images))
		}
		_, err := stdout.Write(images[0])
		return nil, err
	}

	paths := outputPaths(output, len(images))
	for i, path := range paths {
		if err := os.WriteFile(path, images[i], 0o644); err != nil {
			return nil, err
		}
	}
	return paths, nil
}
