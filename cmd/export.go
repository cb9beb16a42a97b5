package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ferntree/core/model"
	"github.com/kilianp07/ferntree/infra/storage"
	"github.com/kilianp07/ferntree/pkg/export"
)

var (
	exportFrom   string
	exportRunID  string
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the timesteps of a run from a jsonl or sqlite sink",
	RunE:  runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportFrom, "from", "", "jsonl file or sqlite database written by a run")
	f.StringVar(&exportRunID, "run", "", "run ID, required for sqlite databases")
	f.StringVar(&exportFormat, "format", "csv", "output format: csv or json")
	f.StringVarP(&exportOut, "output", "o", "", "output file, stdout when empty")
	_ = exportCmd.MarkFlagRequired("from")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	runID, steps, err := readRun(cmd.Context(), exportFrom, exportRunID)
	if err != nil {
		return err
	}
	var w io.Writer = cmd.OutOrStdout()
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	switch exportFormat {
	case "csv":
		return export.WriteCSV(w, runID, steps)
	case "json":
		return export.WriteJSON(w, runID, steps)
	default:
		return fmt.Errorf("unknown format %q", exportFormat)
	}
}

func readRun(ctx context.Context, path, runID string) (string, []model.Timestep, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		recs, err := storage.ReadJSONL(path)
		if err != nil {
			return "", nil, err
		}
		steps := make([]model.Timestep, 0, len(recs))
		for _, r := range recs {
			if runID != "" && r.RunID != runID {
				continue
			}
			if runID == "" {
				runID = r.RunID
			}
			steps = append(steps, r.Timestep)
		}
		return runID, steps, nil
	}
	if runID == "" {
		return "", nil, fmt.Errorf("--run is required for sqlite databases")
	}
	if _, err := os.Stat(path); err != nil {
		return "", nil, err
	}
	s, err := storage.NewSQLiteStore(storage.SQLiteConfig{Path: path, RunID: runID})
	if err != nil {
		return "", nil, err
	}
	defer func() { _ = s.Close() }()
	steps, err := s.Query(ctx, runID)
	return runID, steps, err
}
