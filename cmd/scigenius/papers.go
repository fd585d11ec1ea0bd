package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/elmaestro544/scigenius/pkg/papers"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newPapersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "papers",
		Short: "Work with related-papers answers",
	}

	extractCmd := &cobra.Command{
		Use:   "extract [FILE|-]",
		Short: "Extract the papers listed in a model answer",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPapersExtract,
	}
	extractCmd.Flags().String("output", "json", "Output format (json, yaml)")
	cmd.AddCommand(extractCmd)

	return cmd
}

func runPapersExtract(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")

	path := "-"
	if len(args) > 0 {
		path = args[0]
	}

	raw, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	return writePapers(cmd.OutOrStdout(), papers.Extract(string(raw)), output)
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		return b, errors.Wrap(err, "could not read stdin")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read %s", path)
	}
	return b, nil
}

func writePapers(w io.Writer, found []papers.Paper, output string) error {
	switch output {
	case "json":
		b, err := json.MarshalIndent(found, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		b, err := yaml.Marshal(found)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	default:
		return errors.Errorf("unsupported output format %s", output)
	}
}
