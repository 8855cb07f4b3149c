package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hylla/csrpulse/internal/app"
	"github.com/spf13/cobra"
)

// seedCommand loads a dataset document into the store.
func (c *cli) seedCommand() *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import departments, programs, activities, budgets and stakeholders",
		Long:  "seed upserts every record in a JSON or YAML dataset. Records are matched by id, so re-running the same file is safe.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(inPath)
			if err != nil {
				return fmt.Errorf("open dataset: %w", err)
			}
			defer f.Close()
			ds, err := app.DecodeDataset(f, app.DatasetFormatFromPath(inPath))
			if err != nil {
				return err
			}
			if err := c.svc.ImportDataset(cmd.Context(), ds); err != nil {
				return fmt.Errorf("import dataset: %w", err)
			}
			c.logger.Info("dataset imported",
				"path", inPath,
				"programs", len(ds.Programs),
				"activities", len(ds.Activities),
				"budgets", len(ds.Budgets),
				"stakeholders", len(ds.Stakeholders),
			)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %s programs, %s activities, %s budgets, %s stakeholders\n",
				count(len(ds.Programs)), count(len(ds.Activities)), count(len(ds.Budgets)), count(len(ds.Stakeholders)))
			return err
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "dataset file (.json, .yaml or .yml)")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

// dumpCommand writes the full store as one dataset document.
func (c *cli) dumpCommand() *cobra.Command {
	var outPath, format string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Export every source record as a dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := c.svc.ExportDataset(cmd.Context())
			if err != nil {
				return fmt.Errorf("export dataset: %w", err)
			}
			dsFormat := app.DatasetFormatFromPath(outPath)
			switch format {
			case "":
			case "json", "yaml":
				dsFormat = app.DatasetFormat(format)
			case "yml":
				dsFormat = app.DatasetFormatYAML
			default:
				return fmt.Errorf("unsupported dataset format %q", format)
			}
			var buf bytes.Buffer
			if err := app.EncodeDataset(&buf, ds, dsFormat); err != nil {
				return fmt.Errorf("encode dataset: %w", err)
			}
			if outPath == "" || outPath == "-" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return fmt.Errorf("create dump output dir: %w", err)
			}
			if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write dump file: %w", err)
			}
			c.logger.Info("dataset exported", "path", outPath, "bytes", len(buf.Bytes()))
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	cmd.Flags().StringVar(&format, "format", "", "json or yaml, defaults to the --out extension")
	return cmd
}
